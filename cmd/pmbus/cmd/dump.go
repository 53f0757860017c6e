package cmd

import (
	"github.com/spf13/cobra"
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Describe the configuration of every line",
	Long: `Print one line per pin with the modes decoded from its configuration
register, e.g. "GPIO3 ( output push-pull )". Pins whose configuration
cannot be read are reported as unavailable.`,
	RunE: runDump,
}

func init() {
	rootCmd.AddCommand(dumpCmd)
}

func runDump(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	return s.chip.WriteDump(cmd.OutOrStdout())
}

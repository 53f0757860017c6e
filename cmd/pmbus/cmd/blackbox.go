package cmd

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"
)

var blackboxRecords bool

var blackboxCmd = &cobra.Command{
	Use:   "blackbox",
	Short: "Show the blackbox fault recorder",
	Long: `Print the blackbox summary (latest record ID, logic index, record count).
With --records every stored record is read and printed in hex.`,
	RunE: runBlackbox,
}

func init() {
	blackboxCmd.Flags().BoolVar(&blackboxRecords, "records", false, "also dump the stored records")
	rootCmd.AddCommand(blackboxCmd)
}

func runBlackbox(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	out := cmd.OutOrStdout()
	info, err := s.chip.BlackboxInfo()
	if err != nil {
		return fmt.Errorf("read blackbox info: %w", err)
	}
	if _, err := info.WriteTo(out); err != nil {
		return err
	}

	if !blackboxRecords {
		return nil
	}
	records, err := s.chip.ReadBlackbox()
	if err != nil {
		return fmt.Errorf("read blackbox: %w", err)
	}
	for i, rec := range records {
		fmt.Fprintf(out, "Record %d: %s\n", i, hex.EncodeToString(rec))
	}
	return nil
}

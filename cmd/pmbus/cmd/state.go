package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var stateGo uint8

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Read the sequencer state",
	Long: `Print the current sequencer state from READ_STATE.

With --go the sequencer is first sent to the given state through GO_COMMAND.
Only the low five bits of the state are used.`,
	RunE: runState,
}

func init() {
	stateCmd.Flags().Uint8Var(&stateGo, "go", 0, "jump to this sequencer state before reading")
	rootCmd.AddCommand(stateCmd)
}

func runState(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	out := cmd.OutOrStdout()
	if cmd.Flags().Changed("go") {
		if err := s.chip.GoCommand(stateGo); err != nil {
			return fmt.Errorf("go command: %w", err)
		}
		fmt.Fprintf(out, "Go command: state %d\n", stateGo&0x1F)
	}

	st, err := s.chip.ReadState()
	if err != nil {
		return fmt.Errorf("read state: %w", err)
	}
	fmt.Fprintf(out, "Sequencer state: %d (0x%04X)\n", st, st)
	return nil
}

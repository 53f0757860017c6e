package cmd

import (
	"fmt"

	"github.com/OpenTraceLab/OpenTracePMBus/pkg/adm1266"
	"github.com/spf13/cobra"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

var linesRead bool

var linesCmd = &cobra.Command{
	Use:   "lines",
	Short: "Show the line table of the sequencer",
	Long: `Print every line exposed by the ADM1266 together with its offset, its
registry name, and the status register bit behind it.

With --read the lines are registered with the periph.io GPIO registry and
their levels are read through it.`,
	RunE: runLines,
}

func init() {
	linesCmd.Flags().BoolVarP(&linesRead, "read", "r", false, "read line levels through the GPIO registry")
	rootCmd.AddCommand(linesCmd)
}

func runLines(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	out := cmd.OutOrStdout()
	chip := s.chip

	if linesRead {
		unregister, err := chip.RegisterPins()
		if err != nil {
			return err
		}
		defer unregister()
	}

	fmt.Fprintf(out, "%s: %d lines\n", chip, chip.NumLines())
	for _, l := range adm1266.Lines() {
		name := chip.RegistryName(l.Offset)
		fmt.Fprintf(out, "  %2d  %-7s %-22s %s bit %d", l.Offset, l.Name, name, l.Family, l.Bit)
		if linesRead {
			level, err := readRegistered(name)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "  %s", level)
		}
		fmt.Fprintln(out)
	}
	return nil
}

// readRegistered reads a pin looked up by name in gpioreg.
func readRegistered(name string) (string, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return "", fmt.Errorf("pin %s is not registered", name)
	}
	level := p.Read()
	if e, ok := p.(interface{ Err() error }); ok {
		if err := e.Err(); err != nil {
			return "", fmt.Errorf("read %s: %w", name, err)
		}
	}
	return level.String(), nil
}

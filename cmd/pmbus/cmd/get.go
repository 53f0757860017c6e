package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/OpenTraceLab/OpenTracePMBus/pkg/lineselect"
	"github.com/spf13/cobra"
)

var (
	getWatch time.Duration
	getCount int
)

var getCmd = &cobra.Command{
	Use:   "get [SELECTION...]",
	Short: "Read line levels",
	Long: `Read the level of the selected lines. A selection is a comma separated list
of line names, offsets, ranges and groups:

  pmbus get GPIO1..GPIO4,PDIO10
  pmbus get 0..8
  pmbus get pdio

Without a selection every line is read. Each status register is fetched at
most once per poll.

With --watch the lines are polled at the given interval and only changes are
printed after the first poll.`,
	RunE: runGet,
}

func init() {
	getCmd.Flags().DurationVarP(&getWatch, "watch", "w", 0, "poll interval (0 reads once)")
	getCmd.Flags().IntVarP(&getCount, "count", "n", 0, "number of polls when watching (0 = forever)")
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	expr := "all"
	if len(args) > 0 {
		expr = strings.Join(args, ",")
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	offsets, err := lineselect.Select(expr, s.chip)
	if err != nil {
		return err
	}
	s.log.Debug("reading lines", "selection", lineselect.Format(offsets, s.chip.Names()))

	out := cmd.OutOrStdout()
	names := s.chip.Names()

	var prev map[int]bool
	for poll := 1; ; poll++ {
		values, err := s.chip.ReadLines(offsets)
		if err != nil {
			return fmt.Errorf("read lines: %w", err)
		}

		if prev == nil {
			for _, off := range offsets {
				printLevel(out, names[off], values[off])
			}
		} else {
			for _, off := range offsets {
				if values[off] != prev[off] {
					fmt.Fprintf(out, "%s ", time.Now().Format("15:04:05.000"))
					printLevel(out, names[off], values[off])
				}
			}
		}
		prev = values

		if getWatch <= 0 || (getCount > 0 && poll >= getCount) {
			return nil
		}
		select {
		case <-cmd.Context().Done():
			return nil
		case <-time.After(getWatch):
		}
	}
}

func printLevel(w io.Writer, name string, high bool) {
	v := 0
	if high {
		v = 1
	}
	fmt.Fprintf(w, "%s=%d\n", name, v)
}

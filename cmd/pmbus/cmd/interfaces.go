package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/OpenTraceLab/OpenTracePMBus/pkg/bridge"
	"github.com/spf13/cobra"
)

var interfacesCmd = &cobra.Command{
	Use:   "interfaces",
	Short: "List available host adapters",
	Long: `Scan the host for SMBus adapters (CP2112 bridges, Bus Pirates, kernel I2C
buses) and print a summary of the detected transports. Use this to verify
connectivity or to pick a --transport and --bus before running other commands.`,
	RunE: runInterfaces,
}

func init() {
	rootCmd.AddCommand(interfacesCmd)
}

func runInterfaces(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	infos, err := bridge.DiscoverInterfaces(ctx)
	if err != nil {
		return fmt.Errorf("discover interfaces: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(infos) == 0 {
		fmt.Fprintln(out, "No interfaces found.")
		return nil
	}

	fmt.Fprintln(out, "Detected host adapters:")
	for _, iface := range infos {
		switch {
		case iface.VendorID != 0:
			fmt.Fprintf(out, "  - %s [%s] (VID:PID %04X:%04X)\n", iface.Label(), iface.Kind, iface.VendorID, iface.ProductID)
		case iface.Path != "":
			fmt.Fprintf(out, "  - %s [%s] (--bus %s)\n", iface.Label(), iface.Kind, iface.Path)
		default:
			fmt.Fprintf(out, "  - %s [%s]\n", iface.Label(), iface.Kind)
		}
	}
	return nil
}

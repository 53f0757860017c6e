package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose    bool
	configPath string
	transport  string
	busName    string
	address    string
	usePEC     bool
	maxBlock   int
)

var rootCmd = &cobra.Command{
	Use:   "pmbus",
	Short: "ADM1266 sequencer pin inspector",
	Long: `Inspect the GPIO and PDIO pins of an ADM1266 power sequencer over PMBus.

The device is reached through a host adapter: a kernel I2C bus, a CP2112
USB bridge, a Bus Pirate, or the built-in simulator.

Examples:
  pmbus interfaces                                  # List host adapters
  pmbus lines                                       # Show the line table
  pmbus get GPIO1..GPIO4,PDIO10                     # Read line levels
  pmbus dump --transport cp2112 --address 0x40      # Describe every pin
  pmbus blackbox --config pmbus.yaml --records      # Read fault records
  pmbus state --go 3                                # Jump to sequencer state 3

Every block read clocks in the largest block the device may return
(device.max_block, 255 by default) because the length is only known once it
arrives. Status registers carry 2 bytes, so on slow links such as the CP2112
or a Bus Pirate --max-block 32 shortens reads considerably. Blackbox records
need at least 64.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	pf.StringVarP(&configPath, "config", "c", "", "YAML configuration file")
	pf.StringVarP(&transport, "transport", "t", "",
		"host adapter (i2c, cp2112, buspirate, simulator)")
	pf.StringVarP(&busName, "bus", "b", "", "I2C bus name or number (i2c transport)")
	pf.StringVarP(&address, "address", "a", "", "7-bit device address, e.g. 0x40")
	pf.BoolVar(&usePEC, "pec", false, "enable SMBus packet error checking")
	pf.IntVar(&maxBlock, "max-block", 0, "largest block payload to read back (1-255, overrides device.max_block)")
}

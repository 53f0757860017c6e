package bridge

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// ErrNoSimulator is returned when the simulator transport is requested
// without a simulated bus.
var ErrNoSimulator = errors.New("bridge: no simulated bus configured")

// Options selects and configures a host adapter.
type Options struct {
	Transport Kind
	// Bus names the periph.io I2C bus (KindI2C).
	Bus string
	// Serial selects a CP2112 by USB serial number (KindCP2112).
	Serial string
	// Port and Baud configure the Bus Pirate serial link (KindBusPirate).
	Port string
	Baud int
	// Speed is the SMBus clock for adapters that can set it.
	Speed physic.Frequency
	// Sim is returned as-is for KindSimulator.
	Sim i2c.BusCloser
}

// Open returns the bus described by opts.
func Open(opts Options) (i2c.BusCloser, error) {
	switch opts.Transport {
	case KindI2C:
		// Clock rate of kernel buses is fixed by the device tree.
		return OpenI2C(opts.Bus)
	case KindCP2112:
		return OpenCP2112(opts.Serial, opts.Speed)
	case KindBusPirate:
		if opts.Port == "" {
			return nil, fmt.Errorf("bridge: buspirate transport needs a serial port")
		}
		return OpenBusPirate(opts.Port, opts.Baud, opts.Speed)
	case KindSimulator:
		if opts.Sim == nil {
			return nil, ErrNoSimulator
		}
		return opts.Sim, nil
	}
	return nil, fmt.Errorf("bridge: unsupported transport %q", opts.Transport)
}

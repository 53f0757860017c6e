package bridge

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

var (
	hostOnce sync.Once
	hostErr  error
)

// initHost loads the periph.io host drivers once per process.
func initHost() error {
	hostOnce.Do(func() {
		_, hostErr = host.Init()
	})
	return hostErr
}

// OpenI2C opens a bus registered with periph.io by name or number. An empty
// name selects the first bus found.
func OpenI2C(name string) (i2c.BusCloser, error) {
	if err := initHost(); err != nil {
		return nil, fmt.Errorf("failed to initialize host drivers: %w", err)
	}
	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open I2C bus %q: %w", name, err)
	}
	return bus, nil
}

// i2cBuses lists the buses registered with periph.io.
func i2cBuses() ([]InterfaceInfo, error) {
	if err := initHost(); err != nil {
		return nil, err
	}
	var out []InterfaceInfo
	for _, ref := range i2creg.All() {
		desc := ref.Name
		if len(ref.Aliases) > 0 {
			desc = fmt.Sprintf("%s (%s)", ref.Name, ref.Aliases[0])
		}
		out = append(out, InterfaceInfo{
			Kind:        KindI2C,
			Description: "I2C bus " + desc,
			Path:        ref.Name,
		})
	}
	return out, nil
}

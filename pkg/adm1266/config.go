package adm1266

import (
	"encoding/binary"
	"fmt"

	"github.com/OpenTraceLab/OpenTracePMBus/pkg/pmbus"
)

// Mode is one word of a line's diagnostic description.
type Mode string

const (
	ModeHighZ     Mode = "high-Z"
	ModeInput     Mode = "input"
	ModeOutput    Mode = "output"
	ModeOpenDrain Mode = "open-drain"
	ModePushPull  Mode = "push-pull"
)

// GPIOConfig is the configuration byte of a GPIO pin.
type GPIOConfig uint8

func (c GPIOConfig) FunctionEnabled() bool { return c&(1<<0) != 0 }
func (c GPIOConfig) InputEnabled() bool    { return c&(1<<2) != 0 }
func (c GPIOConfig) OutputEnabled() bool   { return c&(1<<3) != 0 }
func (c GPIOConfig) OpenDrain() bool       { return c&(1<<4) != 0 }

// Modes describes the pin. A pin without its function enabled is high-Z
// whatever the other bits say.
func (c GPIOConfig) Modes() []Mode {
	if !c.FunctionEnabled() {
		return []Mode{ModeHighZ}
	}
	var modes []Mode
	if c.InputEnabled() {
		modes = append(modes, ModeInput)
	}
	if c.OutputEnabled() {
		modes = append(modes, ModeOutput)
	}
	if c.OpenDrain() {
		modes = append(modes, ModeOpenDrain)
	} else {
		modes = append(modes, ModePushPull)
	}
	return modes
}

// PDIOConfig is the configuration word of a PDIO pin.
type PDIOConfig uint16

// PinClass returns bits [15:13].
func (c PDIOConfig) PinClass() uint8 { return uint8(c>>13) & 0x7 }

// GlitchFilter returns bits [12:9].
func (c PDIOConfig) GlitchFilter() uint8 { return uint8(c>>9) & 0xF }

// OutputConfig returns bits [2:0].
func (c PDIOConfig) OutputConfig() uint8 { return uint8(c) & 0x7 }

// Modes describes the pin from its class. Classes 0 and 6..7 are high-Z.
func (c PDIOConfig) Modes() []Mode {
	class := c.PinClass()
	if class == 0 || class > 5 {
		return []Mode{ModeHighZ}
	}
	var modes []Mode
	if class&(1<<0) != 0 {
		modes = append(modes, ModeOutput)
	}
	if class&(1<<1) != 0 {
		modes = append(modes, ModeInput)
	}
	return modes
}

// ReadGPIOConfig fetches the configuration of a GPIO line. The device is
// addressed by the pin's status bit, not its offset.
func (c *Chip) ReadGPIOConfig(offset int) (GPIOConfig, error) {
	line, err := LineAt(offset)
	if err != nil {
		return 0, err
	}
	if line.Family != FamilyGPIO {
		return 0, fmt.Errorf("%w: %s is not a GPIO", ErrInvalidLine, line.Name)
	}
	data, err := c.bt.WriteReadBlock(RegGPIOConfig, []byte{byte(line.Bit)})
	if err != nil {
		return 0, pmbus.Wrap("block write-read", RegGPIOConfig, err)
	}
	if len(data) < 1 {
		return 0, &pmbus.TransportError{
			Op:  "block write-read",
			Cmd: RegGPIOConfig,
			Err: fmt.Errorf("%w: no config byte for %s", pmbus.ErrShortResponse, line.Name),
		}
	}
	return GPIOConfig(data[0]), nil
}

// ReadPDIOConfigs fetches the configuration of all PDIO pins with a single
// request.
func (c *Chip) ReadPDIOConfigs() ([NumPDIO]PDIOConfig, error) {
	var cfgs [NumPDIO]PDIOConfig
	data, err := c.bt.WriteReadBlock(RegPDIOConfig, []byte{pdioSelectAll})
	if err != nil {
		return cfgs, pmbus.Wrap("block write-read", RegPDIOConfig, err)
	}
	if len(data) < 2*NumPDIO {
		return cfgs, &pmbus.TransportError{
			Op:  "block write-read",
			Cmd: RegPDIOConfig,
			Err: fmt.Errorf("%w: %d bytes for %d PDIO words", pmbus.ErrShortResponse, len(data), NumPDIO),
		}
	}
	for i := range cfgs {
		cfgs[i] = PDIOConfig(binary.LittleEndian.Uint16(data[2*i:]))
	}
	return cfgs, nil
}

package adm1266

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
)

// ErrReadOnly is returned by every operation that would drive a line.
var ErrReadOnly = errors.New("adm1266: lines are read-only")

// Pin presents one line as a periph.io gpio.PinIO so it can be registered
// with gpioreg and used by code written against periph.io. Only input is
// supported.
type Pin struct {
	chip *Chip
	line Line

	mu  sync.Mutex
	err error
}

var _ gpio.PinIO = (*Pin)(nil)

// Pin returns the pin for offset.
func (c *Chip) Pin(offset int) (*Pin, error) {
	line, err := LineAt(offset)
	if err != nil {
		return nil, err
	}
	return &Pin{chip: c, line: line}, nil
}

// Pins returns a pin for every line in offset order.
func (c *Chip) Pins() []*Pin {
	pins := make([]*Pin, NumLines)
	for i, l := range lineTable {
		pins[i] = &Pin{chip: c, line: l}
	}
	return pins
}

// RegisterPins registers every line with gpioreg under its registry name.
// The returned function unregisters them again.
func (c *Chip) RegisterPins() (func() error, error) {
	var names []string
	unregister := func() error {
		var errs []error
		for _, name := range names {
			if err := gpioreg.Unregister(name); err != nil {
				errs = append(errs, err)
			}
		}
		names = nil
		return errors.Join(errs...)
	}

	for _, p := range c.Pins() {
		if err := gpioreg.Register(p); err != nil {
			_ = unregister()
			return nil, fmt.Errorf("failed to register %s: %w", p.Name(), err)
		}
		names = append(names, p.Name())
	}
	return unregister, nil
}

// Line returns the line behind the pin.
func (p *Pin) Line() Line {
	return p.line
}

// String implements conn.Resource.
func (p *Pin) String() string {
	return p.Name()
}

// Halt implements conn.Resource. There is nothing to stop.
func (p *Pin) Halt() error {
	return nil
}

// Name implements pin.Pin.
func (p *Pin) Name() string {
	return p.chip.RegistryName(p.line.Offset)
}

// Number implements pin.Pin.
func (p *Pin) Number() int {
	return p.line.Offset
}

// Function implements pin.Pin.
func (p *Pin) Function() string {
	return "In"
}

// In implements gpio.PinIn. Pulls and edge detection are not available.
func (p *Pin) In(pull gpio.Pull, edge gpio.Edge) error {
	if pull != gpio.PullNoChange && pull != gpio.Float {
		return fmt.Errorf("%s: pull %s not supported", p.Name(), pull)
	}
	if edge != gpio.NoEdge {
		return fmt.Errorf("%s: edge detection not supported", p.Name())
	}
	return nil
}

// Read implements gpio.PinIn. A failed read returns gpio.Low; the error is
// kept for Err.
func (p *Pin) Read() gpio.Level {
	high, err := p.chip.Get(p.line.Offset)
	p.mu.Lock()
	p.err = err
	p.mu.Unlock()
	if err != nil {
		p.chip.log.Warn("line read failed", "line", p.line.Name, "err", err)
		return gpio.Low
	}
	return gpio.Level(high)
}

// Err returns the error of the last Read, if any.
func (p *Pin) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// WaitForEdge implements gpio.PinIn. Edges are never reported.
func (p *Pin) WaitForEdge(timeout time.Duration) bool {
	if timeout > 0 {
		time.Sleep(timeout)
	}
	return false
}

// Pull implements gpio.PinIn.
func (p *Pin) Pull() gpio.Pull {
	return gpio.PullNoChange
}

// DefaultPull implements gpio.PinIn.
func (p *Pin) DefaultPull() gpio.Pull {
	return gpio.PullNoChange
}

// Out implements gpio.PinOut.
func (p *Pin) Out(l gpio.Level) error {
	return fmt.Errorf("%s: %w", p.Name(), ErrReadOnly)
}

// PWM implements gpio.PinOut.
func (p *Pin) PWM(duty gpio.Duty, f physic.Frequency) error {
	return fmt.Errorf("%s: %w", p.Name(), ErrReadOnly)
}

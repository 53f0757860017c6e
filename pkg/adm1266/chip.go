package adm1266

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/OpenTraceLab/OpenTracePMBus/pkg/pmbus"
)

// Chip is a handle on one ADM1266. It owns the block transfer used to reach
// the device.
type Chip struct {
	bt   pmbus.BlockTransfer
	addr uint16
	log  *slog.Logger
}

// Option configures a Chip.
type Option func(*Chip)

// WithAddress sets the address used in line and registry names. It defaults
// to the transfer's own address when the transfer reports one.
func WithAddress(addr uint16) Option {
	return func(c *Chip) { c.addr = addr }
}

// WithLogger sets the logger receiving diagnostic scan failures.
func WithLogger(l *slog.Logger) Option {
	return func(c *Chip) {
		if l != nil {
			c.log = l
		}
	}
}

// New creates a Chip on top of bt.
func New(bt pmbus.BlockTransfer, opts ...Option) *Chip {
	c := &Chip{
		bt:   bt,
		addr: DefaultAddress,
		log:  slog.New(slog.DiscardHandler),
	}
	if a, ok := bt.(interface{ Addr() uint16 }); ok {
		c.addr = a.Addr()
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Addr returns the device address used in names.
func (c *Chip) Addr() uint16 {
	return c.addr
}

// NumLines returns the number of lines the chip exposes.
func (c *Chip) NumLines() int {
	return NumLines
}

// Names returns the display name of every line in offset order.
func (c *Chip) Names() []string {
	names := make([]string, NumLines)
	for i, l := range lineTable {
		names[i] = l.Name
	}
	return names
}

// Label identifies the chip, e.g. "adm1266-40".
func (c *Chip) Label() string {
	return fmt.Sprintf("adm1266-%x", c.addr)
}

// RegistryName returns the globally unique name of a line, e.g.
// "adm1266-40-GPIO3".
func (c *Chip) RegistryName(offset int) string {
	l, err := LineAt(offset)
	if err != nil {
		return ""
	}
	return c.Label() + "-" + l.Name
}

// LineByName resolves a display name or registry name to an offset.
func (c *Chip) LineByName(name string) (int, bool) {
	prefix := c.Label() + "-"
	if len(name) > len(prefix) && strings.EqualFold(name[:len(prefix)], prefix) {
		name = name[len(prefix):]
	}
	l, ok := LookupName(name)
	if !ok {
		return 0, false
	}
	return l.Offset, true
}

// Group resolves "gpio", "pdio" and "all" to the offsets they cover.
func (c *Chip) Group(name string) ([]int, bool) {
	var lines []Line
	switch strings.ToLower(name) {
	case "gpio":
		lines = familyLines(FamilyGPIO)
	case "pdio":
		lines = familyLines(FamilyPDIO)
	case "all":
		lines = lineTable[:]
	default:
		return nil, false
	}
	offsets := make([]int, len(lines))
	for i, l := range lines {
		offsets[i] = l.Offset
	}
	return offsets, true
}

func (c *Chip) String() string {
	if s, ok := c.bt.(fmt.Stringer); ok {
		return c.Label() + " on " + s.String()
	}
	return c.Label()
}

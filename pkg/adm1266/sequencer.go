package adm1266

import (
	"github.com/OpenTraceLab/OpenTracePMBus/pkg/pmbus"
)

// ReadState returns the current sequencer state from READ_STATE. The block
// transfer must also support word reads.
func (c *Chip) ReadState() (uint16, error) {
	wr, ok := c.bt.(pmbus.WordReader)
	if !ok {
		return 0, pmbus.ErrNotImplemented
	}
	v, err := wr.ReadWord(RegReadState)
	if err != nil {
		return 0, pmbus.Wrap("read word", RegReadState, err)
	}
	return v, nil
}

// GoCommand makes the sequencer jump to state. Only the low five bits are
// sent. The block transfer must also support word writes.
func (c *Chip) GoCommand(state uint8) error {
	ww, ok := c.bt.(pmbus.WordWriter)
	if !ok {
		return pmbus.ErrNotImplemented
	}
	v := uint16(state & goCommandMask)
	c.log.Debug("go command", "chip", c.Label(), "state", v)
	if err := ww.WriteWord(RegGoCommand, v); err != nil {
		return pmbus.Wrap("write word", RegGoCommand, err)
	}
	return nil
}

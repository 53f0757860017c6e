package adm1266

import (
	"encoding/binary"
	"fmt"
	"math/bits"

	"github.com/OpenTraceLab/OpenTracePMBus/pkg/pmbus"
)

// LineMask is a set of line offsets, bit n standing for offset n.
type LineMask uint32

// AllLines selects every line of the chip.
const AllLines LineMask = 1<<NumLines - 1

// MaskOf builds a mask from offsets. Offsets outside the chip are ignored by
// the mask itself but rejected by the queries taking it.
func MaskOf(offsets ...int) LineMask {
	var m LineMask
	for _, o := range offsets {
		if o >= 0 && o < 32 {
			m |= 1 << uint(o)
		}
	}
	return m
}

// Has reports whether offset is in the mask.
func (m LineMask) Has(offset int) bool {
	return offset >= 0 && offset < 32 && m&(1<<uint(offset)) != 0
}

// Offsets lists the offsets in the mask in ascending order.
func (m LineMask) Offsets() []int {
	out := make([]int, 0, bits.OnesCount32(uint32(m)))
	for v := uint32(m); v != 0; v &= v - 1 {
		out = append(out, bits.TrailingZeros32(v))
	}
	return out
}

// Get reads the level of one line.
func (c *Chip) Get(offset int) (bool, error) {
	line, err := LineAt(offset)
	if err != nil {
		return false, err
	}
	word, err := c.readStatus(line.Family)
	if err != nil {
		return false, err
	}
	return word&(1<<line.Bit) != 0, nil
}

// GetMultiple reads the lines in mask and returns the subset that is high.
// The status word of each family touched by mask is read once.
func (c *Chip) GetMultiple(mask LineMask) (LineMask, error) {
	if extra := mask &^ AllLines; extra != 0 {
		return 0, fmt.Errorf("%w: mask 0x%08X", ErrInvalidLine, uint32(extra))
	}

	offsets := mask.Offsets()
	var touched [2]bool
	for _, o := range offsets {
		fam, _ := MapLine(o)
		touched[fam] = true
	}

	var words [2]uint16
	for _, fam := range []Family{FamilyGPIO, FamilyPDIO} {
		if !touched[fam] {
			continue
		}
		w, err := c.readStatus(fam)
		if err != nil {
			return 0, err
		}
		words[fam] = w
	}

	var high LineMask
	for _, o := range offsets {
		fam, bit := MapLine(o)
		if words[fam]&(1<<bit) != 0 {
			high |= 1 << uint(o)
		}
	}
	return high, nil
}

// ReadLines reads the given offsets and returns the level of each.
func (c *Chip) ReadLines(offsets []int) (map[int]bool, error) {
	var mask LineMask
	for _, o := range offsets {
		if _, err := LineAt(o); err != nil {
			return nil, err
		}
		mask |= 1 << uint(o)
	}
	high, err := c.GetMultiple(mask)
	if err != nil {
		return nil, err
	}
	out := make(map[int]bool, len(offsets))
	for _, o := range offsets {
		out[o] = high.Has(o)
	}
	return out, nil
}

// readStatus fetches the status word of a family. Payloads shorter than the
// word are errors, never an all-clear.
func (c *Chip) readStatus(f Family) (uint16, error) {
	reg := f.StatusRegister()
	data, err := c.bt.ReadBlock(reg)
	if err != nil {
		return 0, pmbus.Wrap("block read", reg, err)
	}
	if len(data) < 2 {
		return 0, &pmbus.TransportError{
			Op:  "block read",
			Cmd: reg,
			Err: fmt.Errorf("%w: %s status has %d bytes", pmbus.ErrShortResponse, f, len(data)),
		}
	}
	return binary.LittleEndian.Uint16(data), nil
}

package adm1266

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidLine is returned for offsets outside 0..NumLines-1.
var ErrInvalidLine = errors.New("adm1266: invalid line")

// Family identifies which status and config registers a line belongs to.
type Family int

const (
	FamilyGPIO Family = iota
	FamilyPDIO
)

func (f Family) String() string {
	switch f {
	case FamilyGPIO:
		return "GPIO"
	case FamilyPDIO:
		return "PDIO"
	}
	return fmt.Sprintf("Family(%d)", int(f))
}

// StatusRegister returns the command that reads the family's status word.
func (f Family) StatusRegister() byte {
	if f == FamilyGPIO {
		return RegGPIOStatus
	}
	return RegPDIOStatus
}

// Line is one addressable pin.
type Line struct {
	Offset int
	Family Family
	// Bit is the position within the family's status and config words.
	Bit  uint
	Name string
}

func (l Line) String() string {
	return l.Name
}

// gpioBits maps GPIO1..GPIO9 to their GPIO_STATUS bit. The order follows
// the pin routing inside the device.
var gpioBits = [NumGPIO]uint{0, 1, 2, 8, 9, 10, 11, 6, 7}

var lineTable = buildLineTable()

func buildLineTable() [NumLines]Line {
	var t [NumLines]Line
	for i := range t {
		fam, bit := MapLine(i)
		name := fmt.Sprintf("GPIO%d", i+1)
		if fam == FamilyPDIO {
			name = fmt.Sprintf("PDIO%d", i-NumGPIO+1)
		}
		t[i] = Line{Offset: i, Family: fam, Bit: bit, Name: name}
	}
	return t
}

// MapLine translates a line offset into its family and bit position. The
// offset must already be known to be below NumLines.
func MapLine(offset int) (Family, uint) {
	if offset < NumGPIO {
		return FamilyGPIO, gpioBits[offset]
	}
	return FamilyPDIO, uint(offset - NumGPIO)
}

// Lines returns the full line table.
func Lines() []Line {
	out := make([]Line, NumLines)
	copy(out, lineTable[:])
	return out
}

// LineAt returns the line at offset.
func LineAt(offset int) (Line, error) {
	if offset < 0 || offset >= NumLines {
		return Line{}, fmt.Errorf("%w: offset %d (have %d)", ErrInvalidLine, offset, NumLines)
	}
	return lineTable[offset], nil
}

// LookupName finds a line by display name, ignoring case.
func LookupName(name string) (Line, bool) {
	for _, l := range lineTable {
		if strings.EqualFold(l.Name, name) {
			return l, true
		}
	}
	return Line{}, false
}

// familyLines returns the lines of f in offset order.
func familyLines(f Family) []Line {
	if f == FamilyGPIO {
		return lineTable[:NumGPIO]
	}
	return lineTable[NumGPIO:]
}

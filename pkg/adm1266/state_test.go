package adm1266

import (
	"errors"
	"testing"

	"github.com/OpenTraceLab/OpenTracePMBus/pkg/pmbus"
)

func TestGetGPIOScenario(t *testing.T) {
	ft := newFakeTransfer()
	ft.blocks[RegGPIOStatus] = []byte{0x02, 0x00}
	chip := New(ft)

	for i := 0; i < NumGPIO; i++ {
		got, err := chip.Get(i)
		if err != nil {
			t.Fatalf("Get(%d) returned error: %v", i, err)
		}
		if want := i == 1; got != want {
			t.Errorf("Get(%d) = %v, want %v", i, got, want)
		}
	}
	if ft.calls[RegPDIOStatus] != 0 {
		t.Errorf("GPIO reads fetched PDIO_STATUS")
	}
}

func TestGetFollowsPermutation(t *testing.T) {
	// Bit 8 is GPIO4, bit 6 is GPIO8.
	chip, _ := newTestChip(t, State{GPIOStatus: 1<<8 | 1<<6, PDIOStatus: 1 << 9})

	high := map[int]bool{3: true, 7: true, NumGPIO + 9: true}
	for i := 0; i < NumLines; i++ {
		got, err := chip.Get(i)
		if err != nil {
			t.Fatalf("Get(%d) returned error: %v", i, err)
		}
		if got != high[i] {
			t.Errorf("Get(%d) = %v, want %v", i, got, high[i])
		}
	}
}

func TestGetMultipleMatchesGet(t *testing.T) {
	chip, _ := newTestChip(t, State{GPIOStatus: 0xA5C3, PDIOStatus: 0x3C5A})

	for i := 0; i < NumLines; i++ {
		one, err := chip.Get(i)
		if err != nil {
			t.Fatalf("Get(%d) returned error: %v", i, err)
		}
		many, err := chip.GetMultiple(MaskOf(i))
		if err != nil {
			t.Fatalf("GetMultiple(%d) returned error: %v", i, err)
		}
		if many.Has(i) != one {
			t.Errorf("offset %d: GetMultiple = %v, Get = %v", i, many.Has(i), one)
		}
		if many&^MaskOf(i) != 0 {
			t.Errorf("offset %d: GetMultiple reported unrequested lines %032b", i, many)
		}
	}
}

func TestGetMultipleTransactionCount(t *testing.T) {
	tests := []struct {
		name     string
		mask     LineMask
		wantGPIO int
		wantPDIO int
	}{
		{"all lines", AllLines, 1, 1},
		{"gpio only", MaskOf(0, 3, 5, 8), 1, 0},
		{"pdio only", MaskOf(9, 10, 24), 0, 1},
		{"one of each", MaskOf(1, 20), 1, 1},
		{"empty", 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chip, sim := newTestChip(t, State{GPIOStatus: 0xFFFF, PDIOStatus: 0xFFFF})
			high, err := chip.GetMultiple(tt.mask)
			if err != nil {
				t.Fatalf("GetMultiple returned error: %v", err)
			}
			if high != tt.mask {
				t.Errorf("high = %025b, want %025b", high, tt.mask)
			}
			if got := sim.Count(RegGPIOStatus); got != tt.wantGPIO {
				t.Errorf("GPIO_STATUS reads = %d, want %d", got, tt.wantGPIO)
			}
			if got := sim.Count(RegPDIOStatus); got != tt.wantPDIO {
				t.Errorf("PDIO_STATUS reads = %d, want %d", got, tt.wantPDIO)
			}
		})
	}
}

func TestShortStatusIsTransportError(t *testing.T) {
	ft := newFakeTransfer()
	ft.blocks[RegGPIOStatus] = []byte{0xFF}
	ft.blocks[RegPDIOStatus] = []byte{0xFF, 0xFF}
	chip := New(ft)

	if _, err := chip.Get(0); !pmbus.IsTransportError(err) || !errors.Is(err, pmbus.ErrShortResponse) {
		t.Errorf("Get with 1-byte status: err = %v", err)
	}
	if _, err := chip.GetMultiple(AllLines); !pmbus.IsTransportError(err) || !errors.Is(err, pmbus.ErrShortResponse) {
		t.Errorf("GetMultiple with 1-byte status: err = %v", err)
	}

	ft.blocks[RegGPIOStatus] = nil
	if _, err := chip.Get(0); !errors.Is(err, pmbus.ErrShortResponse) {
		t.Errorf("Get with empty status: err = %v", err)
	}
}

func TestTransferFailurePropagates(t *testing.T) {
	ft := newFakeTransfer()
	ft.blocks[RegGPIOStatus] = []byte{0x00, 0x00}
	boom := errors.New("bus stuck")
	ft.errs[RegPDIOStatus] = boom
	chip := New(ft)

	_, err := chip.GetMultiple(AllLines)
	var te *pmbus.TransportError
	if !errors.As(err, &te) || te.Cmd != RegPDIOStatus || !errors.Is(err, boom) {
		t.Fatalf("GetMultiple error = %v", err)
	}

	if _, err := chip.GetMultiple(MaskOf(0)); err != nil {
		t.Fatalf("GPIO-only query should not touch PDIO_STATUS: %v", err)
	}
}

func TestInvalidLinesDoNoIO(t *testing.T) {
	ft := newFakeTransfer()
	chip := New(ft)

	if _, err := chip.Get(NumLines); !errors.Is(err, ErrInvalidLine) {
		t.Errorf("Get(%d) error = %v", NumLines, err)
	}
	if _, err := chip.GetMultiple(1 << NumLines); !errors.Is(err, ErrInvalidLine) {
		t.Errorf("GetMultiple(bit %d) error = %v", NumLines, err)
	}
	if _, err := chip.ReadLines([]int{0, -1}); !errors.Is(err, ErrInvalidLine) {
		t.Errorf("ReadLines(-1) error = %v", err)
	}
	if len(ft.calls) != 0 {
		t.Errorf("invalid requests reached the device: %v", ft.calls)
	}
}

func TestReadLines(t *testing.T) {
	chip, sim := newTestChip(t, State{GPIOStatus: 1 << 2, PDIOStatus: 1 << 15})

	got, err := chip.ReadLines([]int{2, 4, 24, 24})
	if err != nil {
		t.Fatalf("ReadLines returned error: %v", err)
	}
	want := map[int]bool{2: true, 4: false, 24: true}
	if len(got) != len(want) {
		t.Fatalf("ReadLines = %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("line %d = %v, want %v", k, got[k], v)
		}
	}
	if sim.Transactions() != 2 {
		t.Errorf("ReadLines issued %d transactions, want 2", sim.Transactions())
	}
}

func TestLineMask(t *testing.T) {
	m := MaskOf(0, 9, 24, 40, -3)
	if got := m.Offsets(); len(got) != 3 || got[0] != 0 || got[1] != 9 || got[2] != 24 {
		t.Fatalf("Offsets() = %v", got)
	}
	if !m.Has(9) || m.Has(1) || m.Has(-1) {
		t.Fatalf("Has() mismatch for %025b", m)
	}
	if AllLines != 0x1FFFFFF {
		t.Fatalf("AllLines = 0x%X", uint32(AllLines))
	}
}

package adm1266

import (
	"testing"

	"github.com/OpenTraceLab/OpenTracePMBus/pkg/pmbus"
)

func TestSimulatorSinglePDIOConfig(t *testing.T) {
	var st State
	st.PDIOConfig[5] = 0xA123
	sim := NewSimulator(0x40, st)
	c := pmbus.NewClient(sim, 0x40)

	got, err := c.WriteReadBlock(RegPDIOConfig, []byte{5})
	if err != nil {
		t.Fatalf("WriteReadBlock returned error: %v", err)
	}
	if len(got) != 2 || got[0] != 0x23 || got[1] != 0xA1 {
		t.Fatalf("PDIO6 config = % X", got)
	}

	if _, err := c.WriteReadBlock(RegPDIOConfig, []byte{16}); err == nil {
		t.Fatalf("expected error for PDIO17")
	}
	if _, err := c.WriteReadBlock(RegGPIOConfig, []byte{3}); err == nil {
		t.Fatalf("expected error for unrouted GPIO bit 3")
	}
}

func TestSimulatorSetState(t *testing.T) {
	sim := NewSimulator(0x40, State{Blackbox: [][]byte{{1}}})
	chip := New(pmbus.NewClient(sim, 0x40))

	if v, _ := chip.Get(NumGPIO); v {
		t.Fatalf("PDIO1 should start low")
	}

	st := sim.State()
	st.PDIOStatus = 1
	st.Blackbox[0][0] = 9
	sim.SetState(st)

	if v, err := chip.Get(NumGPIO); err != nil || !v {
		t.Fatalf("PDIO1 after SetState = %v, %v", v, err)
	}
	records, err := chip.ReadBlackbox()
	if err != nil || len(records) != 1 || records[0][0] != 9 {
		t.Fatalf("blackbox after SetState = %v, %v", records, err)
	}
}

package adm1266

import (
	"bytes"
	"errors"
	"testing"

	"github.com/OpenTraceLab/OpenTracePMBus/pkg/pmbus"
)

func TestBlackboxInfo(t *testing.T) {
	chip, _ := newTestChip(t, State{
		BlackboxLatestID:   0x1234,
		BlackboxLogicIndex: 2,
		Blackbox:           [][]byte{{0x01}, {0x02}, {0x03}},
	})

	info, err := chip.BlackboxInfo()
	if err != nil {
		t.Fatalf("BlackboxInfo returned error: %v", err)
	}
	want := BlackboxInfo{LatestID: 0x1234, LogicIndex: 2, RecordCount: 3}
	if info != want {
		t.Fatalf("info = %+v, want %+v", info, want)
	}

	var buf bytes.Buffer
	if _, err := info.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo returned error: %v", err)
	}
	wantText := "BLACKBOX_INFORMATION:\nBlack box ID: 1234\nLogic index: 2\nRecord count: 3\n"
	if buf.String() != wantText {
		t.Fatalf("WriteTo = %q, want %q", buf.String(), wantText)
	}
}

func TestReadBlackbox(t *testing.T) {
	chip, sim := newTestChip(t, State{
		Blackbox: [][]byte{{0xAA, 0x01}, {0xBB, 0x02}},
	})

	records, err := chip.ReadBlackbox()
	if err != nil {
		t.Fatalf("ReadBlackbox returned error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	for i, rec := range records {
		if len(rec) != BlackboxRecordSize {
			t.Errorf("record %d has %d bytes", i, len(rec))
		}
	}
	if records[1][0] != 0xBB || records[1][1] != 0x02 {
		t.Errorf("record 1 = % X", records[1][:2])
	}
	if sim.Count(RegReadBlackbox) != 2 {
		t.Errorf("READ_BLACKBOX requests = %d, want 2", sim.Count(RegReadBlackbox))
	}
}

func TestBlackboxShortPayloads(t *testing.T) {
	ft := newFakeTransfer()
	ft.blocks[RegBlackboxInfo] = []byte{0x00, 0x00, 0x00}
	chip := New(ft)
	if _, err := chip.BlackboxInfo(); !errors.Is(err, pmbus.ErrShortResponse) {
		t.Fatalf("short info: err = %v", err)
	}

	ft.blocks[RegBlackboxInfo] = []byte{0x00, 0x00, 0x00, 0x01}
	ft.writeRead = func(cmd byte, req []byte) ([]byte, error) {
		return make([]byte, BlackboxRecordSize-1), nil
	}
	if _, err := chip.ReadBlackbox(); !pmbus.IsTransportError(err) {
		t.Fatalf("short record: err = %v", err)
	}
}

func TestReadState(t *testing.T) {
	chip, _ := newTestChip(t, State{SequencerState: 0x0107})
	got, err := chip.ReadState()
	if err != nil {
		t.Fatalf("ReadState returned error: %v", err)
	}
	if got != 0x0107 {
		t.Fatalf("state = 0x%04X, want 0x0107", got)
	}

	if _, err := New(newFakeTransfer()).ReadState(); !errors.Is(err, pmbus.ErrNotImplemented) {
		t.Fatalf("ReadState without word reads: err = %v", err)
	}
}

func TestGoCommand(t *testing.T) {
	chip, sim := newTestChip(t, State{SequencerState: 1})

	// Only the low five bits reach the device.
	if err := chip.GoCommand(0x25); err != nil {
		t.Fatalf("GoCommand returned error: %v", err)
	}
	if got := sim.Written(RegGoCommand); !bytes.Equal(got, []byte{0x05, 0x00}) {
		t.Fatalf("GO_COMMAND written = %X, want 0500", got)
	}
	got, err := chip.ReadState()
	if err != nil {
		t.Fatalf("ReadState returned error: %v", err)
	}
	if got != 5 || sim.State().SequencerState != 5 {
		t.Fatalf("state = %d (sim %d), want 5", got, sim.State().SequencerState)
	}

	boom := errors.New("boom")
	sim.SetFail(RegGoCommand, boom)
	if err := chip.GoCommand(2); !errors.Is(err, boom) || !pmbus.IsTransportError(err) {
		t.Fatalf("GoCommand with failing bus: err = %v", err)
	}

	if err := New(newFakeTransfer()).GoCommand(1); !errors.Is(err, pmbus.ErrNotImplemented) {
		t.Fatalf("GoCommand without word writes: err = %v", err)
	}
}

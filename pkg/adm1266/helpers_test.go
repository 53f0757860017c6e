package adm1266

import (
	"errors"
	"fmt"
	"testing"

	"github.com/OpenTraceLab/OpenTracePMBus/pkg/pmbus"
)

func newTestChip(t *testing.T, st State) (*Chip, *Simulator) {
	t.Helper()
	sim := NewSimulator(0x40, st)
	return New(pmbus.NewClient(sim, 0x40)), sim
}

// fakeTransfer is a BlockTransfer returning canned payloads without any
// wire framing, so short and malformed payloads can be injected directly.
type fakeTransfer struct {
	blocks map[byte][]byte
	errs   map[byte]error
	calls  map[byte]int
	// writeRead answers WriteReadBlock when set.
	writeRead func(cmd byte, req []byte) ([]byte, error)
}

func newFakeTransfer() *fakeTransfer {
	return &fakeTransfer{
		blocks: make(map[byte][]byte),
		errs:   make(map[byte]error),
		calls:  make(map[byte]int),
	}
}

func (f *fakeTransfer) ReadBlock(cmd byte) ([]byte, error) {
	f.calls[cmd]++
	if err := f.errs[cmd]; err != nil {
		return nil, err
	}
	data, ok := f.blocks[cmd]
	if !ok {
		return nil, fmt.Errorf("no block for 0x%02X", cmd)
	}
	return data, nil
}

func (f *fakeTransfer) WriteReadBlock(cmd byte, req []byte) ([]byte, error) {
	f.calls[cmd]++
	if err := f.errs[cmd]; err != nil {
		return nil, err
	}
	if f.writeRead == nil {
		return nil, errors.New("write-read not supported")
	}
	return f.writeRead(cmd, req)
}

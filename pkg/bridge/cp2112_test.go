package bridge

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"testing"

	"github.com/OpenTraceLab/OpenTracePMBus/pkg/pmbus"
	"periph.io/x/conn/v3/physic"
)

// fakeHID emulates a CP2112 in front of a simulated SMBus target.
type fakeHID struct {
	target *pmbus.SimDevice

	features  [][]byte
	queue     [][]byte
	pending   []byte
	status    TransferStatus
	busyPolls int
	cancelled bool
	closed    bool
}

func newFakeHID(target *pmbus.SimDevice) *fakeHID {
	return &fakeHID{target: target}
}

func (f *fakeHID) finish(data []byte, err error) {
	f.pending = data
	if err != nil {
		f.status = TransferStatus{Status0: XferError, Status1: 0x00}
		return
	}
	f.status = TransferStatus{Status0: XferComplete, BytesRead: uint16(len(data))}
}

func (f *fakeHID) WriteReport(rep []byte) error {
	switch rep[0] {
	case ReportWrite:
		n := int(rep[2])
		f.finish(nil, f.target.Tx(uint16(rep[1]>>1), rep[3:3+n], nil))
	case ReportReadRequest:
		r := make([]byte, int(rep[2])<<8|int(rep[3]))
		err := f.target.Tx(uint16(rep[1]>>1), nil, r)
		f.finish(r, err)
	case ReportWriteRead:
		r := make([]byte, int(rep[2])<<8|int(rep[3]))
		tl := int(rep[4])
		err := f.target.Tx(uint16(rep[1]>>1), append([]byte(nil), rep[5:5+tl]...), r)
		f.finish(r, err)
	case ReportStatusRequest:
		resp := make([]byte, 7)
		resp[0] = ReportStatusResponse
		if f.busyPolls > 0 {
			f.busyPolls--
			resp[1] = XferBusy
		} else {
			resp[1] = f.status.Status0
			resp[2] = f.status.Status1
			binary.BigEndian.PutUint16(resp[5:7], f.status.BytesRead)
		}
		f.queue = append(f.queue, resp)
	case ReportForceRead:
		n := int(rep[1])<<8 | int(rep[2])
		data := f.pending
		if n < len(data) {
			data = data[:n]
		}
		for len(data) > 0 {
			chunk := data
			if len(chunk) > CP2112MaxReadChunk {
				chunk = chunk[:CP2112MaxReadChunk]
			}
			resp := append([]byte{ReportReadResponse, XferComplete, byte(len(chunk))}, chunk...)
			f.queue = append(f.queue, resp)
			data = data[len(chunk):]
		}
		f.pending = nil
	case ReportCancel:
		f.cancelled = true
	default:
		return fmt.Errorf("unexpected report 0x%02X", rep[0])
	}
	return nil
}

func (f *fakeHID) ReadReport() ([]byte, error) {
	if len(f.queue) == 0 {
		return nil, errors.New("no report pending")
	}
	resp := f.queue[0]
	f.queue = f.queue[1:]
	return resp, nil
}

func (f *fakeHID) SetFeature(rep []byte) error {
	f.features = append(f.features, append([]byte(nil), rep...))
	return nil
}

func (f *fakeHID) Close() error {
	f.closed = true
	return nil
}

func TestCP2112ConfiguresClock(t *testing.T) {
	hid := newFakeHID(pmbus.NewSimDevice(0x40))
	bus, err := newCP2112(hid, "cp2112-test", 400*physic.KiloHertz)
	if err != nil {
		t.Fatalf("newCP2112 returned error: %v", err)
	}
	if len(hid.features) != 1 {
		t.Fatalf("expected one feature report, got %d", len(hid.features))
	}
	cfg, err := CP2112Protocol{}.DecodeSMBusConfig(hid.features[0])
	if err != nil {
		t.Fatalf("bad config report: %v", err)
	}
	if cfg.ClockHz != 400_000 {
		t.Fatalf("ClockHz = %d, want 400000", cfg.ClockHz)
	}

	if err := bus.SetSpeed(1 * physic.MegaHertz); err == nil {
		t.Fatalf("expected error for 1 MHz")
	}
	if bus.String() != "cp2112-test" {
		t.Fatalf("String() = %q", bus.String())
	}
}

func TestCP2112BlockReadThroughClient(t *testing.T) {
	sim := pmbus.NewSimDevice(0x40)
	payload := make([]byte, 100)
	for i := range payload {
		payload[i] = byte(i)
	}
	sim.SetBlock(0xE6, payload)

	hid := newFakeHID(sim)
	hid.busyPolls = 2
	bus, err := newCP2112(hid, "cp2112-test", 0)
	if err != nil {
		t.Fatalf("newCP2112 returned error: %v", err)
	}

	c := pmbus.NewClient(bus, 0x40)
	got, err := c.ReadBlock(0xE6)
	if err != nil {
		t.Fatalf("ReadBlock returned error: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("payload mismatch: got %d bytes", len(got))
	}
	if hid.busyPolls != 0 {
		t.Fatalf("busy status polls were not consumed")
	}
}

func TestCP2112ProcessCallAndWrite(t *testing.T) {
	sim := pmbus.NewSimDevice(0x40)
	sim.HandleProcessCall(0xD4, func(req []byte) ([]byte, error) {
		return []byte{req[0], 0x20}, nil
	})
	hid := newFakeHID(sim)
	bus, err := newCP2112(hid, "cp2112-test", 0)
	if err != nil {
		t.Fatalf("newCP2112 returned error: %v", err)
	}

	c := pmbus.NewClient(bus, 0x40)
	got, err := c.WriteReadBlock(0xD4, []byte{0xFF})
	if err != nil {
		t.Fatalf("WriteReadBlock returned error: %v", err)
	}
	if !bytes.Equal(got, []byte{0xFF, 0x20}) {
		t.Fatalf("got % X", got)
	}

	if err := bus.Tx(0x40, []byte{0xD8, 0x01, 0x00}, nil); err != nil {
		t.Fatalf("write returned error: %v", err)
	}
	if w := sim.Written(0xD8); !bytes.Equal(w, []byte{0x01, 0x00}) {
		t.Fatalf("Written = % X", w)
	}
}

func TestCP2112TransferError(t *testing.T) {
	hid := newFakeHID(pmbus.NewSimDevice(0x40))
	bus, err := newCP2112(hid, "cp2112-test", 0)
	if err != nil {
		t.Fatalf("newCP2112 returned error: %v", err)
	}

	// Nothing answers at 0x41.
	err = bus.Tx(0x41, []byte{0xEA}, make([]byte, 4))
	if !errors.Is(err, ErrTransferFailed) {
		t.Fatalf("expected ErrTransferFailed, got %v", err)
	}

	if err := bus.Tx(0x40, nil, nil); err == nil {
		t.Fatalf("expected error for empty transaction")
	}
}

func TestCP2112TransferTimeout(t *testing.T) {
	sim := pmbus.NewSimDevice(0x40)
	sim.SetBlock(0xEA, []byte{0x00})
	hid := newFakeHID(sim)
	bus, err := newCP2112(hid, "cp2112-test", 0)
	if err != nil {
		t.Fatalf("newCP2112 returned error: %v", err)
	}
	bus.timeout = 0
	hid.busyPolls = 1000

	err = bus.Tx(0x40, []byte{0xEA}, make([]byte, 2))
	if !errors.Is(err, ErrTransferTimeout) {
		t.Fatalf("expected ErrTransferTimeout, got %v", err)
	}
	if !hid.cancelled {
		t.Fatalf("timed out transfer was not cancelled")
	}

	if err := bus.Close(); err != nil || !hid.closed {
		t.Fatalf("Close did not close the device: %v", err)
	}
}

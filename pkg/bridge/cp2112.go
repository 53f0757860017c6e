package bridge

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/physic"
)

// hidReportIO is the report-level view of a CP2112 used by the bus driver.
type hidReportIO interface {
	WriteReport(report []byte) error
	ReadReport() ([]byte, error)
	SetFeature(report []byte) error
	Close() error
}

// CP2112 drives a Silicon Labs CP2112 HID-to-SMBus bridge as an i2c.Bus.
type CP2112 struct {
	dev   hidReportIO
	proto CP2112Protocol
	cfg   SMBusConfig
	name  string

	pollInterval time.Duration
	timeout      time.Duration

	mu sync.Mutex // serializes transfers
}

// OpenCP2112 opens a CP2112 by USB serial number (empty for the first one
// found) and configures its SMBus clock.
func OpenCP2112(serial string, speed physic.Frequency) (*CP2112, error) {
	t, err := NewHIDTransport(VendorIDSiliconLabs, ProductIDCP2112, serial)
	if err != nil {
		return nil, fmt.Errorf("failed to open CP2112: %w", err)
	}
	c, err := newCP2112(t, t.String(), speed)
	if err != nil {
		t.Close()
		return nil, err
	}
	return c, nil
}

func newCP2112(dev hidReportIO, name string, speed physic.Frequency) (*CP2112, error) {
	c := &CP2112{
		dev:  dev,
		name: name,
		cfg: SMBusConfig{
			ClockHz:      100_000,
			WriteTimeout: 100,
			ReadTimeout:  100,
			RetryTime:    1,
		},
		pollInterval: time.Millisecond,
		timeout:      250 * time.Millisecond,
	}
	if speed <= 0 {
		speed = 100 * physic.KiloHertz
	}
	if err := c.SetSpeed(speed); err != nil {
		return nil, fmt.Errorf("failed to configure SMBus: %w", err)
	}
	return c, nil
}

func (c *CP2112) String() string {
	return c.name
}

// SetSpeed implements i2c.Bus.
func (c *CP2112) SetSpeed(f physic.Frequency) error {
	hz := int64(f / physic.Hertz)
	if hz < 10_000 || hz > 400_000 {
		return fmt.Errorf("cp2112: clock %s out of range 10kHz..400kHz", f)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	cfg := c.cfg
	cfg.ClockHz = uint32(hz)
	if err := c.dev.SetFeature(c.proto.EncodeSMBusConfig(cfg)); err != nil {
		return err
	}
	c.cfg = cfg
	return nil
}

// Tx implements i2c.Bus.
func (c *CP2112) Tx(addr uint16, w, r []byte) error {
	if len(w) == 0 && len(r) == 0 {
		return errors.New("cp2112: empty transaction")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var (
		req []byte
		err error
	)
	switch {
	case len(r) == 0:
		req, err = c.proto.EncodeWrite(addr, w)
	case len(w) == 0:
		req, err = c.proto.EncodeRead(addr, len(r))
	default:
		req, err = c.proto.EncodeWriteRead(addr, w, len(r))
	}
	if err != nil {
		return err
	}

	if err := c.dev.WriteReport(req); err != nil {
		return err
	}
	if err := c.waitComplete(); err != nil {
		return err
	}
	if len(r) == 0 {
		return nil
	}
	return c.readInto(r)
}

// waitComplete polls the transfer status until the CP2112 reports
// completion or failure.
func (c *CP2112) waitComplete() error {
	deadline := time.Now().Add(c.timeout)
	for {
		if err := c.dev.WriteReport(c.proto.EncodeStatusRequest()); err != nil {
			return err
		}
		resp, err := c.dev.ReadReport()
		if err != nil {
			return err
		}
		st, err := c.proto.DecodeStatus(resp)
		if err != nil {
			return err
		}
		switch st.Status0 {
		case XferComplete:
			return nil
		case XferError:
			return st.Err()
		}

		if time.Now().After(deadline) {
			_ = c.dev.WriteReport(c.proto.EncodeCancel())
			return ErrTransferTimeout
		}
		time.Sleep(c.pollInterval)
	}
}

// readInto fetches the bytes buffered by the last read transfer.
func (c *CP2112) readInto(r []byte) error {
	if err := c.dev.WriteReport(c.proto.EncodeForceRead(len(r))); err != nil {
		return err
	}

	deadline := time.Now().Add(c.timeout)
	got := 0
	for got < len(r) {
		resp, err := c.dev.ReadReport()
		if err != nil {
			return err
		}
		status, data, err := c.proto.DecodeReadResponse(resp)
		if err != nil {
			return err
		}
		if status == XferError {
			return fmt.Errorf("%w: read response reported an error", ErrTransferFailed)
		}
		got += copy(r[got:], data)

		if got < len(r) && time.Now().After(deadline) {
			return fmt.Errorf("%w: received %d of %d bytes", ErrTransferTimeout, got, len(r))
		}
	}
	return nil
}

// Close implements i2c.BusCloser.
func (c *CP2112) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dev.Close()
}

package bridge

import (
	"context"
	"fmt"
	"time"

	"github.com/google/gousb"
)

const (
	// CP2112 USB identifiers
	VendorIDSiliconLabs = 0x10C4
	ProductIDCP2112     = 0xEA90

	// HID class requests
	hidGetReport         = 0x01
	hidSetReport         = 0x09
	hidReportTypeFeature = 0x03

	DefaultHIDTimeout = time.Second
)

// HIDTransport exchanges HID reports with a CP2112 over its interrupt
// endpoints. Feature reports travel on the control endpoint.
type HIDTransport struct {
	ctx  *gousb.Context
	dev  *gousb.Device
	cfg  *gousb.Config
	intf *gousb.Interface

	epOut *gousb.OutEndpoint
	epIn  *gousb.InEndpoint

	timeout time.Duration
	serial  string
}

// NewHIDTransport opens the first device matching vid:pid. When serial is
// not empty only a device reporting that serial number is accepted.
func NewHIDTransport(vid, pid uint16, serial string) (*HIDTransport, error) {
	ctx := gousb.NewContext()

	dev, err := openUSBDevice(ctx, vid, pid, serial)
	if err != nil {
		ctx.Close()
		return nil, err
	}

	// Detach usbhid on Linux; not every platform supports it.
	_ = dev.SetAutoDetach(true)

	t := &HIDTransport{
		ctx:     ctx,
		dev:     dev,
		timeout: DefaultHIDTimeout,
		serial:  serial,
	}
	if err := t.claimInterface(); err != nil {
		t.Close()
		return nil, err
	}
	return t, nil
}

func openUSBDevice(ctx *gousb.Context, vid, pid uint16, serial string) (*gousb.Device, error) {
	devs, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return uint16(desc.Vendor) == vid && uint16(desc.Product) == pid
	})
	if err != nil && len(devs) == 0 {
		return nil, fmt.Errorf("USB error: %w", err)
	}

	var found *gousb.Device
	for _, dev := range devs {
		if found == nil {
			if serial == "" {
				found = dev
				continue
			}
			if sn, _ := dev.SerialNumber(); sn == serial {
				found = dev
				continue
			}
		}
		dev.Close()
	}
	if found == nil {
		if serial != "" {
			return nil, fmt.Errorf("device not found (VID:0x%04X PID:0x%04X serial %q)", vid, pid, serial)
		}
		return nil, fmt.Errorf("device not found (VID:0x%04X PID:0x%04X)", vid, pid)
	}
	return found, nil
}

// claimInterface claims the HID interface and its interrupt endpoints
func (t *HIDTransport) claimInterface() error {
	cfg, err := t.dev.Config(1)
	if err != nil {
		return fmt.Errorf("failed to get config: %w", err)
	}
	t.cfg = cfg

	intf, err := cfg.Interface(0, 0)
	if err != nil {
		return fmt.Errorf("failed to claim interface 0: %w", err)
	}
	t.intf = intf

	var outAddr, inAddr int
	for _, ep := range intf.Setting.Endpoints {
		if ep.TransferType != gousb.TransferTypeInterrupt {
			continue
		}
		switch ep.Direction {
		case gousb.EndpointDirectionOut:
			outAddr = ep.Number
		case gousb.EndpointDirectionIn:
			inAddr = ep.Number
		}
	}
	if outAddr == 0 {
		return fmt.Errorf("interrupt OUT endpoint not found")
	}
	if inAddr == 0 {
		return fmt.Errorf("interrupt IN endpoint not found")
	}

	if t.epOut, err = intf.OutEndpoint(outAddr); err != nil {
		return fmt.Errorf("failed to open OUT endpoint: %w", err)
	}
	if t.epIn, err = intf.InEndpoint(inAddr); err != nil {
		return fmt.Errorf("failed to open IN endpoint: %w", err)
	}
	return nil
}

// WriteReport sends an output report. Reports are padded to 64 bytes.
func (t *HIDTransport) WriteReport(report []byte) error {
	packet := make([]byte, CP2112ReportSize)
	copy(packet, report)

	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()
	if _, err := t.epOut.WriteContext(ctx, packet); err != nil {
		return fmt.Errorf("USB write failed: %w", err)
	}
	return nil
}

// ReadReport receives one input report.
func (t *HIDTransport) ReadReport() ([]byte, error) {
	buf := make([]byte, CP2112ReportSize)

	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()
	n, err := t.epIn.ReadContext(ctx, buf)
	if err != nil {
		return nil, fmt.Errorf("USB read failed: %w", err)
	}
	return buf[:n], nil
}

// SetFeature sends a feature report. The first byte is the report ID.
func (t *HIDTransport) SetFeature(report []byte) error {
	if len(report) == 0 {
		return fmt.Errorf("empty feature report")
	}
	val := uint16(hidReportTypeFeature)<<8 | uint16(report[0])
	if _, err := t.dev.Control(0x21, hidSetReport, val, uint16(t.intf.Setting.Number), report); err != nil {
		return fmt.Errorf("set feature 0x%02X failed: %w", report[0], err)
	}
	return nil
}

// GetFeature reads feature report id.
func (t *HIDTransport) GetFeature(id byte, size int) ([]byte, error) {
	buf := make([]byte, size)
	val := uint16(hidReportTypeFeature)<<8 | uint16(id)
	n, err := t.dev.Control(0xA1, hidGetReport, val, uint16(t.intf.Setting.Number), buf)
	if err != nil {
		return nil, fmt.Errorf("get feature 0x%02X failed: %w", id, err)
	}
	return buf[:n], nil
}

// SetTimeout sets the per-report timeout
func (t *HIDTransport) SetTimeout(timeout time.Duration) {
	t.timeout = timeout
}

func (t *HIDTransport) String() string {
	if t.serial != "" {
		return "cp2112:" + t.serial
	}
	return "cp2112"
}

// Close releases USB resources
func (t *HIDTransport) Close() error {
	if t.intf != nil {
		t.intf.Close()
		t.intf = nil
	}
	if t.cfg != nil {
		t.cfg.Close()
		t.cfg = nil
	}
	if t.dev != nil {
		t.dev.Close()
		t.dev = nil
	}
	if t.ctx != nil {
		t.ctx.Close()
		t.ctx = nil
	}
	return nil
}

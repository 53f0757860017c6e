package bridge

import (
	"context"
	"fmt"

	"github.com/google/gousb"
)

// Kind categorizes host adapter families.
type Kind string

const (
	KindI2C       Kind = "i2c"
	KindCP2112    Kind = "cp2112"
	KindBusPirate Kind = "buspirate"
	KindSimulator Kind = "simulator"
)

// ParseKind converts a transport name into a Kind. "sim" is accepted as an
// alias of "simulator".
func ParseKind(s string) (Kind, error) {
	switch s {
	case "i2c":
		return KindI2C, nil
	case "cp2112":
		return KindCP2112, nil
	case "buspirate", "bus-pirate":
		return KindBusPirate, nil
	case "simulator", "sim":
		return KindSimulator, nil
	}
	return "", fmt.Errorf("unknown transport %q (supported: i2c, cp2112, buspirate, simulator)", s)
}

// InterfaceInfo describes a detected host adapter.
type InterfaceInfo struct {
	Kind        Kind
	Description string
	VendorID    uint16
	ProductID   uint16
	Serial      string
	Path        string
}

// Label returns a user-friendly description for the interface.
func (i InterfaceInfo) Label() string {
	if i.Description != "" {
		return i.Description
	}
	if i.Kind != "" {
		return fmt.Sprintf("%s (%04X:%04X)", string(i.Kind), i.VendorID, i.ProductID)
	}
	return fmt.Sprintf("Interface %04X:%04X", i.VendorID, i.ProductID)
}

// DiscoverInterfaces enumerates known USB bridges and the I2C buses
// registered with periph.io. It always returns the simulator entry so the
// tools can be exercised without hardware.
func DiscoverInterfaces(ctx context.Context) ([]InterfaceInfo, error) {
	var results []InterfaceInfo

	usb := gousb.NewContext()
	defer usb.Close()

	_, err := usb.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		select {
		case <-ctx.Done():
			return false
		default:
		}

		if info, ok := classifyUSBDevice(desc); ok {
			results = append(results, info)
		}
		return false
	})
	if err != nil && err != gousb.ErrorAccess {
		return results, err
	}

	// Host drivers may be unavailable (non-Linux, no permissions).
	if buses, err := i2cBuses(); err == nil {
		results = append(results, buses...)
	}

	results = append(results, InterfaceInfo{
		Kind:        KindSimulator,
		Description: "Simulator (no hardware)",
	})

	return results, ctx.Err()
}

func classifyUSBDevice(desc *gousb.DeviceDesc) (InterfaceInfo, bool) {
	for _, known := range knownUSBBridges {
		if uint16(desc.Vendor) == known.VendorID && uint16(desc.Product) == known.ProductID {
			return InterfaceInfo{
				Kind:        known.Kind,
				Description: known.Description,
				VendorID:    known.VendorID,
				ProductID:   known.ProductID,
				Path:        fmt.Sprintf("usb:%d:%d", desc.Bus, desc.Address),
			}, true
		}
	}
	return InterfaceInfo{}, false
}

type knownUSBDevice struct {
	Kind        Kind
	VendorID    uint16
	ProductID   uint16
	Description string
}

var knownUSBBridges = []knownUSBDevice{
	{Kind: KindCP2112, VendorID: VendorIDSiliconLabs, ProductID: ProductIDCP2112, Description: "Silicon Labs CP2112 HID-SMBus bridge"},
	{Kind: KindBusPirate, VendorID: 0x0403, ProductID: 0x6001, Description: "Bus Pirate v3 (FTDI serial)"},
	{Kind: KindBusPirate, VendorID: 0x04D8, ProductID: 0xFB00, Description: "Bus Pirate v4"},
}

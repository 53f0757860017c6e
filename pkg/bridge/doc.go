// Package bridge opens the I2C/SMBus host adapters a PMBus device can sit
// behind and presents each of them as a periph.io i2c.Bus.
//
// # Overview
//
// Four transports are supported:
//
//   - i2c: a bus registered with periph.io, such as /dev/i2c-N on Linux.
//   - cp2112: a Silicon Labs CP2112 USB HID to SMBus bridge, driven through
//     gousb.
//   - buspirate: a Bus Pirate in binary I2C mode on a serial port.
//   - simulator: an in-memory target, see pmbus.SimDevice.
//
// # Usage
//
//	bus, err := bridge.Open(bridge.Options{Transport: bridge.KindCP2112})
//	if err != nil {
//		return err
//	}
//	defer bus.Close()
//	client := pmbus.NewClient(bus, 0x40)
//
// DiscoverInterfaces lists the adapters that are currently reachable.
package bridge

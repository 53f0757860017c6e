// Package pmbus implements the SMBus/PMBus block transfers used to talk to
// power-system-management devices.
//
// A device is reached through a periph.io i2c.Bus (a Linux I2C adapter, a
// USB bridge, or the in-memory SimDevice). Client layers the PMBus framing on
// top of that bus:
//
//   - ReadBlock issues a block read: write the command code, read back a
//     length-prefixed payload.
//   - WriteReadBlock issues a block-write/block-read process call: write the
//     command code and a length-prefixed request, read back a length-prefixed
//     response.
//   - ReadWord issues a read-word: write the command code, read a little-endian
//     16-bit value.
//   - WriteWord issues a write-word: the command code followed by a
//     little-endian 16-bit value, and a PEC byte when enabled.
//
// When packet error checking is enabled every read is followed by a PEC byte
// (SMBus CRC-8 over the whole transaction, address bytes included) which is
// verified before the payload is returned.
//
// Every failure is reported as a *TransportError carrying the operation and
// command code. There are no retries at this layer.
package pmbus

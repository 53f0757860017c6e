package pmbus

import (
	"encoding/binary"
	"fmt"
)

// Framer encodes and decodes the wire bytes of PMBus transactions addressed
// to a single target. It holds no transport state.
type Framer struct {
	Addr     uint16
	PEC      bool
	MaxBlock int
}

// NewFramer creates a framer for the 7-bit address addr.
func NewFramer(addr uint16, pec bool, maxBlock int) Framer {
	if maxBlock <= 0 || maxBlock > BlockMax {
		maxBlock = BlockMax
	}
	return Framer{Addr: addr, PEC: pec, MaxBlock: maxBlock}
}

func (f Framer) writeAddr() byte {
	return byte(f.Addr << 1)
}

func (f Framer) readAddr() byte {
	return byte(f.Addr<<1) | 1
}

func (f Framer) pecLen() int {
	if f.PEC {
		return 1
	}
	return 0
}

// blockReadLen is the number of bytes clocked in for a block response: the
// length byte, up to MaxBlock payload bytes and the optional PEC byte.
func (f Framer) blockReadLen() int {
	return 1 + f.MaxBlock + f.pecLen()
}

// EncodeBlockRead builds the write phase of a block read and returns the
// number of bytes to read back.
func (f Framer) EncodeBlockRead(cmd byte) ([]byte, int) {
	return []byte{cmd}, f.blockReadLen()
}

// EncodeBlockWriteRead builds the write phase of a block-write/block-read
// process call.
func (f Framer) EncodeBlockWriteRead(cmd byte, req []byte) ([]byte, int, error) {
	if len(req) > f.MaxBlock {
		return nil, 0, fmt.Errorf("%w: request of %d bytes exceeds %d", ErrBlockLength, len(req), f.MaxBlock)
	}
	w := make([]byte, 2+len(req))
	w[0] = cmd
	w[1] = byte(len(req))
	copy(w[2:], req)
	return w, f.blockReadLen(), nil
}

// EncodeWordRead builds the write phase of a read-word transaction.
func (f Framer) EncodeWordRead(cmd byte) ([]byte, int) {
	return []byte{cmd}, 2 + f.pecLen()
}

// EncodeWordWrite builds a write-word transaction, PEC included when enabled.
func (f Framer) EncodeWordWrite(cmd byte, v uint16) []byte {
	w := []byte{cmd, byte(v), byte(v >> 8)}
	if f.PEC {
		w = append(w, PEC([]byte{f.writeAddr()}, w))
	}
	return w
}

// DecodeBlock validates a block response r read after writing w and returns
// its payload.
func (f Framer) DecodeBlock(w, r []byte) ([]byte, error) {
	if len(r) < 1 {
		return nil, ErrShortResponse
	}
	n := int(r[0])
	if n > f.MaxBlock || 1+n > len(r) {
		return nil, fmt.Errorf("%w: device reported %d bytes", ErrBlockLength, n)
	}
	if f.PEC {
		if 1+n >= len(r) {
			return nil, ErrShortResponse
		}
		if err := f.checkPEC(w, r[:1+n], r[1+n]); err != nil {
			return nil, err
		}
	}
	return append([]byte(nil), r[1:1+n]...), nil
}

// DecodeWord validates a read-word response.
func (f Framer) DecodeWord(w, r []byte) (uint16, error) {
	if len(r) < 2+f.pecLen() {
		return 0, ErrShortResponse
	}
	if f.PEC {
		if err := f.checkPEC(w, r[:2], r[2]); err != nil {
			return 0, err
		}
	}
	return binary.LittleEndian.Uint16(r), nil
}

// ExpectedPEC returns the PEC a device appends to a read of payload after w.
func (f Framer) ExpectedPEC(w, payload []byte) byte {
	return PEC([]byte{f.writeAddr()}, w, []byte{f.readAddr()}, payload)
}

func (f Framer) checkPEC(w, payload []byte, got byte) error {
	if want := f.ExpectedPEC(w, payload); got != want {
		return fmt.Errorf("%w: got 0x%02X, want 0x%02X", ErrPEC, got, want)
	}
	return nil
}

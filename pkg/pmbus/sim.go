package pmbus

import (
	"errors"
	"fmt"
	"sync"

	"periph.io/x/conn/v3/physic"
)

// ProcessCallFunc answers a block-write/block-read process call with the
// payload to return (without length prefix).
type ProcessCallFunc func(req []byte) ([]byte, error)

// WriteFunc receives the data bytes of a plain write.
type WriteFunc func(data []byte) error

// SimOp captures one transaction seen by a SimDevice.
type SimOp struct {
	Cmd   byte
	W     []byte
	RLen  int
	Error error
}

// SimDevice is an in-memory PMBus target implementing i2c.Bus. It answers
// block reads, word reads and process calls from registered registers and
// records every transaction for inspection within tests.
type SimDevice struct {
	Addr uint16
	PEC  bool

	mu      sync.Mutex
	blocks  map[byte][]byte
	words   map[byte]uint16
	calls   map[byte]ProcessCallFunc
	fail    map[byte]error
	writes  map[byte]WriteFunc
	written map[byte][]byte
	counts  map[byte]int
	ops     []SimOp
	speed   physic.Frequency
}

// NewSimDevice constructs a simulated target answering at addr.
func NewSimDevice(addr uint16) *SimDevice {
	return &SimDevice{
		Addr:    addr,
		blocks:  make(map[byte][]byte),
		words:   make(map[byte]uint16),
		calls:   make(map[byte]ProcessCallFunc),
		fail:    make(map[byte]error),
		writes:  make(map[byte]WriteFunc),
		written: make(map[byte][]byte),
		counts:  make(map[byte]int),
		speed:   100 * physic.KiloHertz,
	}
}

// SetBlock registers the payload returned by a block read of cmd.
func (s *SimDevice) SetBlock(cmd byte, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocks[cmd] = append([]byte(nil), data...)
}

// SetWord registers the value returned by a word read of cmd.
func (s *SimDevice) SetWord(cmd byte, v uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.words[cmd] = v
}

// HandleProcessCall registers the handler answering process calls on cmd.
func (s *SimDevice) HandleProcessCall(cmd byte, fn ProcessCallFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[cmd] = fn
}

// HandleWrite registers fn to receive plain writes to cmd.
func (s *SimDevice) HandleWrite(cmd byte, fn WriteFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes[cmd] = fn
}

// SetFail makes every transaction on cmd fail with err. A nil err clears it.
func (s *SimDevice) SetFail(cmd byte, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.fail, cmd)
		return
	}
	s.fail[cmd] = err
}

// Count returns how many transactions addressed cmd.
func (s *SimDevice) Count(cmd byte) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[cmd]
}

// Transactions returns how many transactions the device has seen.
func (s *SimDevice) Transactions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ops)
}

// Ops returns a copy of the recorded transactions.
func (s *SimDevice) Ops() []SimOp {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SimOp(nil), s.ops...)
}

// ResetCounts clears the transaction history.
func (s *SimDevice) ResetCounts() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts = make(map[byte]int)
	s.ops = nil
}

// Written returns the bytes last written to cmd by a plain write, without the
// command code and PEC.
func (s *SimDevice) Written(cmd byte) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.written[cmd]...)
}

// Speed returns the last bus speed requested.
func (s *SimDevice) Speed() physic.Frequency {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speed
}

func (s *SimDevice) String() string {
	return fmt.Sprintf("pmbus-sim@0x%02X", s.Addr)
}

// SetSpeed implements i2c.Bus.
func (s *SimDevice) SetSpeed(f physic.Frequency) error {
	if f <= 0 {
		return fmt.Errorf("pmbus sim: invalid speed %s", f)
	}
	s.mu.Lock()
	s.speed = f
	s.mu.Unlock()
	return nil
}

// Close implements i2c.BusCloser.
func (s *SimDevice) Close() error {
	return nil
}

// Tx implements i2c.Bus.
func (s *SimDevice) Tx(addr uint16, w, r []byte) error {
	if addr != s.Addr {
		return fmt.Errorf("pmbus sim: address 0x%02X not acknowledged", addr)
	}
	if len(w) == 0 {
		return errors.New("pmbus sim: missing command code")
	}
	cmd := w[0]

	if len(r) == 0 && s.PEC {
		if len(w) < 2 {
			return fmt.Errorf("pmbus sim: write to 0x%02X without PEC", cmd)
		}
		last := len(w) - 1
		if want := PEC([]byte{byte(addr << 1)}, w[:last]); w[last] != want {
			return fmt.Errorf("%w: write to 0x%02X got 0x%02X, want 0x%02X", ErrPEC, cmd, w[last], want)
		}
		w = w[:last]
	}

	payload, err := s.respond(cmd, w, len(r))
	if err != nil {
		return err
	}
	if len(r) == 0 {
		return nil
	}

	for i := range r {
		r[i] = 0xFF
	}
	n := copy(r, payload)
	if s.PEC && n < len(r) {
		r[n] = NewFramer(addr, true, BlockMax).ExpectedPEC(w, payload)
	}
	return nil
}

// respond resolves the payload for one transaction and records it.
func (s *SimDevice) respond(cmd byte, w []byte, rlen int) ([]byte, error) {
	s.mu.Lock()
	s.counts[cmd]++
	op := SimOp{Cmd: cmd, W: append([]byte(nil), w...), RLen: rlen}
	fail := s.fail[cmd]
	call := s.calls[cmd]
	block, hasBlock := s.blocks[cmd]
	word, hasWord := s.words[cmd]
	onWrite := s.writes[cmd]
	if fail == nil && rlen == 0 {
		s.written[cmd] = append([]byte(nil), w[1:]...)
	}
	s.mu.Unlock()

	payload, err := s.resolve(cmd, w, rlen, fail, call, block, hasBlock, word, hasWord)
	if err == nil && rlen == 0 && onWrite != nil {
		err = onWrite(append([]byte(nil), w[1:]...))
	}

	op.Error = err
	s.mu.Lock()
	s.ops = append(s.ops, op)
	s.mu.Unlock()
	return payload, err
}

func (s *SimDevice) resolve(cmd byte, w []byte, rlen int, fail error, call ProcessCallFunc,
	block []byte, hasBlock bool, word uint16, hasWord bool) ([]byte, error) {
	if fail != nil {
		return nil, fail
	}
	if rlen == 0 {
		return nil, nil
	}

	switch {
	case len(w) > 1:
		if call == nil {
			return nil, fmt.Errorf("pmbus sim: command 0x%02X does not accept process calls", cmd)
		}
		n := int(w[1])
		if 2+n > len(w) {
			return nil, fmt.Errorf("pmbus sim: truncated block write to 0x%02X", cmd)
		}
		data, err := call(append([]byte(nil), w[2:2+n]...))
		if err != nil {
			return nil, err
		}
		return append([]byte{byte(len(data))}, data...), nil
	case hasWord:
		return []byte{byte(word), byte(word >> 8)}, nil
	case hasBlock:
		return append([]byte{byte(len(block))}, block...), nil
	default:
		return nil, fmt.Errorf("pmbus sim: unsupported command 0x%02X", cmd)
	}
}

package bridge

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/tarm/serial"
	"periph.io/x/conn/v3/physic"
)

// Bus Pirate binary mode commands
const (
	bpResetBitbang = 0x00
	bpEnterI2C     = 0x02
	bpWriteRead    = 0x08
	bpSetSpeed     = 0x60

	bpAck  = 0x01
	bpNack = 0x00

	bpMaxTransfer = 4096
)

var (
	// ErrNoBinaryMode reports a Bus Pirate that never answered BBIO1.
	ErrNoBinaryMode = errors.New("buspirate: binary mode not entered")
	// ErrNACK reports a transaction the target did not acknowledge.
	ErrNACK = errors.New("buspirate: target did not acknowledge")
	// ErrReadTimeout reports a Bus Pirate that stopped responding.
	ErrReadTimeout = errors.New("buspirate: read timed out")
)

// DefaultBusPirateBaud is the baud rate of the Bus Pirate v3/v4 console.
const DefaultBusPirateBaud = 115200

// BusPirate drives a Bus Pirate in binary I2C mode as an i2c.Bus.
type BusPirate struct {
	port io.ReadWriteCloser
	name string

	maxMisses int

	mu sync.Mutex
}

// OpenBusPirate opens the serial port name and switches the Bus Pirate into
// binary I2C mode at speed.
func OpenBusPirate(name string, baud int, speed physic.Frequency) (*BusPirate, error) {
	if baud <= 0 {
		baud = DefaultBusPirateBaud
	}
	port, err := serial.OpenPort(&serial.Config{
		Name:        name,
		Baud:        baud,
		ReadTimeout: 100 * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	bp, err := NewBusPirate(port, name, speed)
	if err != nil {
		port.Close()
		return nil, err
	}
	return bp, nil
}

// NewBusPirate runs the binary mode handshake over an already open port.
func NewBusPirate(port io.ReadWriteCloser, name string, speed physic.Frequency) (*BusPirate, error) {
	bp := &BusPirate{port: port, name: name, maxMisses: 10}
	if err := bp.enterBinary(); err != nil {
		return nil, err
	}
	if err := bp.enterI2C(); err != nil {
		return nil, err
	}
	if speed <= 0 {
		speed = 100 * physic.KiloHertz
	}
	if err := bp.SetSpeed(speed); err != nil {
		return nil, err
	}
	return bp, nil
}

func (bp *BusPirate) enterBinary() error {
	for i := 0; i < 20; i++ {
		if _, err := bp.port.Write([]byte{bpResetBitbang}); err != nil {
			return fmt.Errorf("buspirate: write failed: %w", err)
		}
		resp, err := bp.readExact(5)
		if err != nil {
			if errors.Is(err, ErrReadTimeout) {
				continue
			}
			return err
		}
		if string(resp) == "BBIO1" {
			return nil
		}
	}
	return ErrNoBinaryMode
}

func (bp *BusPirate) enterI2C() error {
	if _, err := bp.port.Write([]byte{bpEnterI2C}); err != nil {
		return fmt.Errorf("buspirate: write failed: %w", err)
	}
	resp, err := bp.readExact(4)
	if err != nil {
		return err
	}
	if string(resp) != "I2C1" {
		return fmt.Errorf("buspirate: unexpected I2C mode reply %q", resp)
	}
	return nil
}

// speedCode maps a bus frequency to the nearest supported rate at or below it.
func speedCode(f physic.Frequency) byte {
	switch {
	case f < 50*physic.KiloHertz:
		return 0 // 5 kHz
	case f < 100*physic.KiloHertz:
		return 1 // 50 kHz
	case f < 400*physic.KiloHertz:
		return 2 // 100 kHz
	default:
		return 3 // 400 kHz
	}
}

func (bp *BusPirate) String() string {
	return "buspirate:" + bp.name
}

// SetSpeed implements i2c.Bus.
func (bp *BusPirate) SetSpeed(f physic.Frequency) error {
	if f <= 0 {
		return fmt.Errorf("buspirate: invalid speed %s", f)
	}
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return bp.command(bpSetSpeed | speedCode(f))
}

func (bp *BusPirate) command(cmd byte) error {
	if _, err := bp.port.Write([]byte{cmd}); err != nil {
		return fmt.Errorf("buspirate: write failed: %w", err)
	}
	resp, err := bp.readExact(1)
	if err != nil {
		return err
	}
	if resp[0] != bpAck {
		return fmt.Errorf("buspirate: command 0x%02X rejected", cmd)
	}
	return nil
}

// Tx implements i2c.Bus with the write-then-read command.
func (bp *BusPirate) Tx(addr uint16, w, r []byte) error {
	if len(w)+1 > bpMaxTransfer || len(r) > bpMaxTransfer {
		return fmt.Errorf("buspirate: transfer of %d/%d bytes too large", len(w), len(r))
	}

	wlen := len(w) + 1
	req := make([]byte, 0, 6+len(w))
	req = append(req, bpWriteRead,
		byte(wlen>>8), byte(wlen),
		byte(len(r)>>8), byte(len(r)),
		byte(addr<<1))
	req = append(req, w...)

	bp.mu.Lock()
	defer bp.mu.Unlock()

	if _, err := bp.port.Write(req); err != nil {
		return fmt.Errorf("buspirate: write failed: %w", err)
	}
	status, err := bp.readExact(1)
	if err != nil {
		return err
	}
	if status[0] != bpAck {
		return fmt.Errorf("%w: address 0x%02X", ErrNACK, addr)
	}
	if len(r) == 0 {
		return nil
	}
	data, err := bp.readExact(len(r))
	if err != nil {
		return err
	}
	copy(r, data)
	return nil
}

// readExact reads n bytes, tolerating a few empty reads from the port's
// read timeout.
func (bp *BusPirate) readExact(n int) ([]byte, error) {
	buf := make([]byte, n)
	got, misses := 0, 0
	for got < n {
		m, err := bp.port.Read(buf[got:])
		got += m
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("buspirate: read failed: %w", err)
		}
		if m == 0 {
			misses++
			if misses > bp.maxMisses {
				return nil, ErrReadTimeout
			}
		}
	}
	return buf, nil
}

// Close leaves binary mode and closes the port.
func (bp *BusPirate) Close() error {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	// Reset to the user terminal; the reply is not needed.
	_, _ = bp.port.Write([]byte{bpResetBitbang, 0x0F})
	return bp.port.Close()
}

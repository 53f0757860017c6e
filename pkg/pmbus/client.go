package pmbus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
	"periph.io/x/conn/v3/i2c"
)

// Client implements BlockTransfer and WordReader for one device on an I2C
// bus. Transactions are serialized, so a Client may be shared between
// goroutines.
type Client struct {
	dev     *i2c.Dev
	framer  Framer
	limiter *rate.Limiter
	log     *slog.Logger

	mu sync.Mutex
}

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	pec         bool
	maxBlock    int
	minInterval time.Duration
	log         *slog.Logger
}

// WithPEC enables SMBus packet error checking on reads.
func WithPEC(enabled bool) Option {
	return func(o *clientOptions) { o.pec = enabled }
}

// WithMaxBlock caps the block payload size the client reads back. Devices
// that never return large blocks can use a smaller value to shorten reads.
func WithMaxBlock(n int) Option {
	return func(o *clientOptions) { o.maxBlock = n }
}

// WithMinInterval spaces consecutive transactions at least d apart.
func WithMinInterval(d time.Duration) Option {
	return func(o *clientOptions) { o.minInterval = d }
}

// WithLogger sets the logger used for transaction tracing.
func WithLogger(l *slog.Logger) Option {
	return func(o *clientOptions) { o.log = l }
}

// NewClient creates a client for the device at 7-bit address addr on bus.
func NewClient(bus i2c.Bus, addr uint16, opts ...Option) *Client {
	o := clientOptions{maxBlock: BlockMax}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = slog.New(slog.DiscardHandler)
	}

	c := &Client{
		dev:    &i2c.Dev{Bus: bus, Addr: addr},
		framer: NewFramer(addr, o.pec, o.maxBlock),
		log:    o.log,
	}
	if o.minInterval > 0 {
		c.limiter = rate.NewLimiter(rate.Every(o.minInterval), 1)
	}
	return c
}

// Addr returns the 7-bit device address.
func (c *Client) Addr() uint16 {
	return c.dev.Addr
}

// String describes the device and the bus it sits on.
func (c *Client) String() string {
	return c.dev.String()
}

// ReadBlock performs a block read of cmd.
func (c *Client) ReadBlock(cmd byte) ([]byte, error) {
	w, n := c.framer.EncodeBlockRead(cmd)
	r := make([]byte, n)
	if err := c.tx("block read", cmd, w, r); err != nil {
		return nil, err
	}
	data, err := c.framer.DecodeBlock(w, r)
	if err != nil {
		return nil, &TransportError{Op: "block read", Cmd: cmd, Err: err}
	}
	return data, nil
}

// WriteReadBlock performs a block-write/block-read process call on cmd.
func (c *Client) WriteReadBlock(cmd byte, req []byte) ([]byte, error) {
	w, n, err := c.framer.EncodeBlockWriteRead(cmd, req)
	if err != nil {
		return nil, &TransportError{Op: "block write-read", Cmd: cmd, Err: err}
	}
	r := make([]byte, n)
	if err := c.tx("block write-read", cmd, w, r); err != nil {
		return nil, err
	}
	data, err := c.framer.DecodeBlock(w, r)
	if err != nil {
		return nil, &TransportError{Op: "block write-read", Cmd: cmd, Err: err}
	}
	return data, nil
}

// ReadWord performs a read-word of cmd.
func (c *Client) ReadWord(cmd byte) (uint16, error) {
	w, n := c.framer.EncodeWordRead(cmd)
	r := make([]byte, n)
	if err := c.tx("read word", cmd, w, r); err != nil {
		return 0, err
	}
	v, err := c.framer.DecodeWord(w, r)
	if err != nil {
		return 0, &TransportError{Op: "read word", Cmd: cmd, Err: err}
	}
	return v, nil
}

// WriteWord performs a write-word of v to cmd.
func (c *Client) WriteWord(cmd byte, v uint16) error {
	return c.tx("write word", cmd, c.framer.EncodeWordWrite(cmd, v), nil)
}

func (c *Client) tx(op string, cmd byte, w, r []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.limiter != nil {
		if err := c.limiter.Wait(context.Background()); err != nil {
			return &TransportError{Op: op, Cmd: cmd, Err: err}
		}
	}

	if err := c.dev.Tx(w, r); err != nil {
		c.log.Debug("pmbus transfer failed", "dev", c.dev.String(), "op", op,
			"cmd", fmt.Sprintf("0x%02X", cmd), "err", err)
		return &TransportError{Op: op, Cmd: cmd, Err: err}
	}
	c.log.Debug("pmbus transfer", "dev", c.dev.String(), "op", op,
		"cmd", fmt.Sprintf("0x%02X", cmd), "wlen", len(w), "rlen", len(r))
	return nil
}

package pmbus

import (
	"errors"
	"fmt"
)

var (
	// ErrNotImplemented lets transfers signal that a requested capability is not
	// available.
	ErrNotImplemented = errors.New("pmbus: not implemented")
	// ErrShortResponse reports a payload shorter than the caller requires.
	ErrShortResponse = errors.New("pmbus: short response")
	// ErrBlockLength reports a block length byte that does not fit the transfer.
	ErrBlockLength = errors.New("pmbus: invalid block length")
	// ErrPEC reports a packet error code mismatch.
	ErrPEC = errors.New("pmbus: PEC mismatch")
)

// TransportError is returned when a block transfer fails, times out or yields
// a malformed payload.
type TransportError struct {
	Op  string
	Cmd byte
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("pmbus: %s 0x%02X: %v", e.Op, e.Cmd, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Wrap returns err as a *TransportError for op and cmd. Errors that already
// carry a *TransportError are returned unchanged.
func Wrap(op string, cmd byte, err error) error {
	if err == nil {
		return nil
	}
	var te *TransportError
	if errors.As(err, &te) {
		return err
	}
	return &TransportError{Op: op, Cmd: cmd, Err: err}
}

// IsTransportError reports whether err carries a *TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

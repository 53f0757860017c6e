package bridge

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// CP2112 report IDs
const (
	ReportSMBusConfig    = 0x06
	ReportReadRequest    = 0x10
	ReportWriteRead      = 0x11
	ReportForceRead      = 0x12
	ReportReadResponse   = 0x13
	ReportWrite          = 0x14
	ReportStatusRequest  = 0x15
	ReportStatusResponse = 0x16
	ReportCancel         = 0x17
)

// Transfer status (status 0)
const (
	XferIdle     = 0x00
	XferBusy     = 0x01
	XferComplete = 0x02
	XferError    = 0x03
)

// Limits imposed by the report format.
const (
	CP2112ReportSize   = 64
	CP2112MaxWrite     = 61
	CP2112MaxTarget    = 16
	CP2112MaxRead      = 512
	CP2112MaxReadChunk = 61
)

var (
	// ErrTransferFailed reports an SMBus transfer the CP2112 flagged as failed.
	ErrTransferFailed = errors.New("cp2112: transfer failed")
	// ErrTransferTimeout reports a transfer that never completed.
	ErrTransferTimeout = errors.New("cp2112: transfer timed out")
)

// SMBusConfig mirrors the CP2112 SMBus configuration feature report.
type SMBusConfig struct {
	ClockHz       uint32
	DeviceAddress byte
	AutoSendRead  bool
	WriteTimeout  uint16 // ms, 0 disables
	ReadTimeout   uint16 // ms, 0 disables
	SCLLowTimeout bool
	RetryTime     uint16
}

// TransferStatus is the decoded status response report.
type TransferStatus struct {
	Status0   byte
	Status1   byte
	Retries   uint16
	BytesRead uint16
}

// Err converts an error status into a Go error.
func (s TransferStatus) Err() error {
	if s.Status0 != XferError {
		return nil
	}
	reason := "unknown"
	switch s.Status1 {
	case 0x00:
		reason = "address NACK"
	case 0x01:
		reason = "bus not free"
	case 0x02:
		reason = "arbitration lost"
	case 0x03:
		reason = "read incomplete"
	case 0x04:
		reason = "write incomplete"
	}
	return fmt.Errorf("%w: %s (status1 0x%02X)", ErrTransferFailed, reason, s.Status1)
}

// CP2112Protocol handles encoding/decoding of CP2112 HID reports
type CP2112Protocol struct{}

// EncodeSMBusConfig builds the SMBus configuration feature report
func (p CP2112Protocol) EncodeSMBusConfig(cfg SMBusConfig) []byte {
	buf := make([]byte, 14)
	buf[0] = ReportSMBusConfig
	binary.BigEndian.PutUint32(buf[1:5], cfg.ClockHz)
	buf[5] = cfg.DeviceAddress
	if cfg.AutoSendRead {
		buf[6] = 1
	}
	binary.BigEndian.PutUint16(buf[7:9], cfg.WriteTimeout)
	binary.BigEndian.PutUint16(buf[9:11], cfg.ReadTimeout)
	if cfg.SCLLowTimeout {
		buf[11] = 1
	}
	binary.BigEndian.PutUint16(buf[12:14], cfg.RetryTime)
	return buf
}

// DecodeSMBusConfig parses the SMBus configuration feature report
func (p CP2112Protocol) DecodeSMBusConfig(resp []byte) (SMBusConfig, error) {
	if len(resp) < 14 {
		return SMBusConfig{}, fmt.Errorf("response too short")
	}
	if resp[0] != ReportSMBusConfig {
		return SMBusConfig{}, fmt.Errorf("invalid report ID: 0x%02X", resp[0])
	}
	return SMBusConfig{
		ClockHz:       binary.BigEndian.Uint32(resp[1:5]),
		DeviceAddress: resp[5],
		AutoSendRead:  resp[6] != 0,
		WriteTimeout:  binary.BigEndian.Uint16(resp[7:9]),
		ReadTimeout:   binary.BigEndian.Uint16(resp[9:11]),
		SCLLowTimeout: resp[11] != 0,
		RetryTime:     binary.BigEndian.Uint16(resp[12:14]),
	}, nil
}

// EncodeWrite builds a Data Write request
func (p CP2112Protocol) EncodeWrite(addr uint16, data []byte) ([]byte, error) {
	if len(data) == 0 || len(data) > CP2112MaxWrite {
		return nil, fmt.Errorf("cp2112: write length %d out of range 1..%d", len(data), CP2112MaxWrite)
	}
	buf := make([]byte, 3+len(data))
	buf[0] = ReportWrite
	buf[1] = byte(addr << 1)
	buf[2] = byte(len(data))
	copy(buf[3:], data)
	return buf, nil
}

// EncodeRead builds a Data Read Request
func (p CP2112Protocol) EncodeRead(addr uint16, n int) ([]byte, error) {
	if n <= 0 || n > CP2112MaxRead {
		return nil, fmt.Errorf("cp2112: read length %d out of range 1..%d", n, CP2112MaxRead)
	}
	return []byte{ReportReadRequest, byte(addr << 1), byte(n >> 8), byte(n)}, nil
}

// EncodeWriteRead builds a Data Write Read Request: the target bytes are
// written, then n bytes are read after a repeated start.
func (p CP2112Protocol) EncodeWriteRead(addr uint16, target []byte, n int) ([]byte, error) {
	if len(target) == 0 || len(target) > CP2112MaxTarget {
		return nil, fmt.Errorf("cp2112: target length %d out of range 1..%d", len(target), CP2112MaxTarget)
	}
	if n <= 0 || n > CP2112MaxRead {
		return nil, fmt.Errorf("cp2112: read length %d out of range 1..%d", n, CP2112MaxRead)
	}
	buf := make([]byte, 5+len(target))
	buf[0] = ReportWriteRead
	buf[1] = byte(addr << 1)
	buf[2] = byte(n >> 8)
	buf[3] = byte(n)
	buf[4] = byte(len(target))
	copy(buf[5:], target)
	return buf, nil
}

// EncodeStatusRequest builds a Transfer Status Request
func (p CP2112Protocol) EncodeStatusRequest() []byte {
	return []byte{ReportStatusRequest, 0x01}
}

// DecodeStatus parses a Transfer Status Response
func (p CP2112Protocol) DecodeStatus(resp []byte) (TransferStatus, error) {
	if len(resp) < 7 {
		return TransferStatus{}, fmt.Errorf("response too short")
	}
	if resp[0] != ReportStatusResponse {
		return TransferStatus{}, fmt.Errorf("invalid report ID: 0x%02X", resp[0])
	}
	return TransferStatus{
		Status0:   resp[1],
		Status1:   resp[2],
		Retries:   binary.BigEndian.Uint16(resp[3:5]),
		BytesRead: binary.BigEndian.Uint16(resp[5:7]),
	}, nil
}

// EncodeForceRead builds a Data Read Force Send request
func (p CP2112Protocol) EncodeForceRead(n int) []byte {
	return []byte{ReportForceRead, byte(n >> 8), byte(n)}
}

// DecodeReadResponse parses a Data Read Response and returns its status
// and payload.
func (p CP2112Protocol) DecodeReadResponse(resp []byte) (byte, []byte, error) {
	if len(resp) < 3 {
		return 0, nil, fmt.Errorf("response too short")
	}
	if resp[0] != ReportReadResponse {
		return 0, nil, fmt.Errorf("invalid report ID: 0x%02X", resp[0])
	}
	n := int(resp[2])
	if n > CP2112MaxReadChunk || 3+n > len(resp) {
		return 0, nil, fmt.Errorf("cp2112: invalid read length %d", n)
	}
	return resp[1], resp[3 : 3+n], nil
}

// EncodeCancel builds a Cancel Transfer request
func (p CP2112Protocol) EncodeCancel() []byte {
	return []byte{ReportCancel, 0x01}
}

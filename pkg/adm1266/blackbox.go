package adm1266

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/OpenTraceLab/OpenTracePMBus/pkg/pmbus"
)

// BlackboxInfo summarizes the fault records held by the device.
type BlackboxInfo struct {
	LatestID    uint16
	LogicIndex  uint8
	RecordCount uint8
}

// WriteTo renders the summary in the device's debug format.
func (b BlackboxInfo) WriteTo(w io.Writer) (int64, error) {
	n, err := fmt.Fprintf(w, "BLACKBOX_INFORMATION:\nBlack box ID: %x\nLogic index: %x\nRecord count: %x\n",
		b.LatestID, b.LogicIndex, b.RecordCount)
	return int64(n), err
}

// BlackboxInfo reads BLACKBOX_INFO.
func (c *Chip) BlackboxInfo() (BlackboxInfo, error) {
	data, err := c.bt.ReadBlock(RegBlackboxInfo)
	if err != nil {
		return BlackboxInfo{}, pmbus.Wrap("block read", RegBlackboxInfo, err)
	}
	if len(data) < 4 {
		return BlackboxInfo{}, &pmbus.TransportError{
			Op:  "block read",
			Cmd: RegBlackboxInfo,
			Err: fmt.Errorf("%w: %d bytes of blackbox info", pmbus.ErrShortResponse, len(data)),
		}
	}
	return BlackboxInfo{
		LatestID:    binary.LittleEndian.Uint16(data),
		LogicIndex:  data[2],
		RecordCount: data[3],
	}, nil
}

// ReadBlackbox returns every stored fault record, oldest index first.
func (c *Chip) ReadBlackbox() ([][]byte, error) {
	info, err := c.BlackboxInfo()
	if err != nil {
		return nil, err
	}

	records := make([][]byte, 0, info.RecordCount)
	for i := 0; i < int(info.RecordCount); i++ {
		data, err := c.bt.WriteReadBlock(RegReadBlackbox, []byte{byte(i)})
		if err != nil {
			return nil, pmbus.Wrap("block write-read", RegReadBlackbox, err)
		}
		if len(data) < BlackboxRecordSize {
			return nil, &pmbus.TransportError{
				Op:  "block write-read",
				Cmd: RegReadBlackbox,
				Err: fmt.Errorf("%w: record %d has %d bytes", pmbus.ErrShortResponse, i, len(data)),
			}
		}
		records = append(records, data[:BlackboxRecordSize])
	}
	c.log.Debug("blackbox read", "records", len(records), "latest", info.LatestID)
	return records, nil
}

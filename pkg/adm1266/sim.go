package adm1266

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/OpenTraceLab/OpenTracePMBus/pkg/pmbus"
)

// State is the register content served by a Simulator.
type State struct {
	GPIOStatus uint16
	PDIOStatus uint16
	// GPIOConfig is indexed by GPIO line, GPIO1 first.
	GPIOConfig [NumGPIO]GPIOConfig
	PDIOConfig [NumPDIO]PDIOConfig

	SequencerState uint16

	BlackboxLatestID   uint16
	BlackboxLogicIndex uint8
	// Blackbox holds the stored records. Shorter records are zero padded.
	Blackbox [][]byte
}

// Simulator is an in-memory ADM1266 on a simulated bus. It serves the
// status, config, blackbox and READ_STATE commands from a State.
type Simulator struct {
	*pmbus.SimDevice

	mu    sync.Mutex
	state State
}

// NewSimulator creates a simulated ADM1266 answering at addr.
func NewSimulator(addr uint16, st State) *Simulator {
	s := &Simulator{SimDevice: pmbus.NewSimDevice(addr)}
	s.HandleProcessCall(RegGPIOConfig, s.gpioConfig)
	s.HandleProcessCall(RegPDIOConfig, s.pdioConfig)
	s.HandleProcessCall(RegReadBlackbox, s.blackboxRecord)
	s.HandleWrite(RegGoCommand, s.goCommand)
	s.SetState(st)
	return s
}

// State returns a copy of the simulated register content.
func (s *Simulator) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	st.Blackbox = cloneRecords(s.state.Blackbox)
	return st
}

// SetState replaces the simulated register content.
func (s *Simulator) SetState(st State) {
	st.Blackbox = cloneRecords(st.Blackbox)

	s.mu.Lock()
	s.state = st
	s.mu.Unlock()

	s.SetBlock(RegGPIOStatus, le16(st.GPIOStatus))
	s.SetBlock(RegPDIOStatus, le16(st.PDIOStatus))
	s.SetWord(RegReadState, st.SequencerState)

	info := le16(st.BlackboxLatestID)
	info = append(info, st.BlackboxLogicIndex, byte(len(st.Blackbox)))
	s.SetBlock(RegBlackboxInfo, info)
}

// goCommand moves the simulated sequencer to the requested state.
func (s *Simulator) goCommand(data []byte) error {
	if len(data) < 2 {
		return fmt.Errorf("adm1266 sim: GO_COMMAND needs a word, got %d bytes", len(data))
	}
	st := binary.LittleEndian.Uint16(data) & goCommandMask

	s.mu.Lock()
	s.state.SequencerState = st
	s.mu.Unlock()

	s.SetWord(RegReadState, st)
	return nil
}

// gpioConfig answers GPIO_CONFIG. The request selects the pin by status bit.
func (s *Simulator) gpioConfig(req []byte) ([]byte, error) {
	if len(req) < 1 {
		return nil, fmt.Errorf("adm1266 sim: GPIO_CONFIG without selector")
	}
	for i, bit := range gpioBits {
		if uint(req[0]) == bit {
			s.mu.Lock()
			defer s.mu.Unlock()
			return []byte{byte(s.state.GPIOConfig[i]), 0x00}, nil
		}
	}
	return nil, fmt.Errorf("adm1266 sim: no GPIO at bit %d", req[0])
}

// pdioConfig answers PDIO_CONFIG for one pin or, with 0xFF, all of them.
func (s *Simulator) pdioConfig(req []byte) ([]byte, error) {
	if len(req) < 1 {
		return nil, fmt.Errorf("adm1266 sim: PDIO_CONFIG without selector")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if req[0] == pdioSelectAll {
		out := make([]byte, 0, 2*NumPDIO)
		for _, c := range s.state.PDIOConfig {
			out = append(out, le16(uint16(c))...)
		}
		return out, nil
	}
	if int(req[0]) >= NumPDIO {
		return nil, fmt.Errorf("adm1266 sim: no PDIO %d", req[0])
	}
	return le16(uint16(s.state.PDIOConfig[req[0]])), nil
}

func (s *Simulator) blackboxRecord(req []byte) ([]byte, error) {
	if len(req) < 1 {
		return nil, fmt.Errorf("adm1266 sim: READ_BLACKBOX without index")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	i := int(req[0])
	if i >= len(s.state.Blackbox) {
		return nil, fmt.Errorf("adm1266 sim: no blackbox record %d", i)
	}
	rec := make([]byte, BlackboxRecordSize)
	copy(rec, s.state.Blackbox[i])
	return rec, nil
}

func le16(v uint16) []byte {
	return binary.LittleEndian.AppendUint16(nil, v)
}

func cloneRecords(in [][]byte) [][]byte {
	if in == nil {
		return nil
	}
	out := make([][]byte, len(in))
	for i, r := range in {
		out[i] = append([]byte(nil), r...)
	}
	return out
}

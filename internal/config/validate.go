package config

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/OpenTraceLab/OpenTracePMBus/pkg/bridge"
)

// ValidationError accumulates config validation errors.
type ValidationError struct {
	Errors []string
}

func (v *ValidationError) Error() string {
	return "config validation failed:\n  - " + strings.Join(v.Errors, "\n  - ")
}

// HasErrors reports whether any validation errors have been recorded.
func (v *ValidationError) HasErrors() bool {
	return len(v.Errors) > 0
}

// Add records a formatted validation error.
func (v *ValidationError) Add(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

// Validate checks cfg for structural correctness. It returns a
// *ValidationError listing every problem found.
func Validate(cfg *Config) error {
	ve := &ValidationError{}
	validateDevice(cfg, ve)
	validateLogger(cfg, ve)
	validateSimulator(cfg, ve)
	if ve.HasErrors() {
		return ve
	}
	return nil
}

func validateDevice(cfg *Config, ve *ValidationError) {
	d := cfg.Device
	kind, err := bridge.ParseKind(d.Transport)
	if err != nil {
		ve.Add("device.transport: %v", err)
	}
	if d.Address < 0x03 || d.Address > 0x77 {
		ve.Add("device.address 0x%02X is not a 7-bit device address", d.Address)
	}
	if d.MaxBlock < 1 || d.MaxBlock > 255 {
		ve.Add("device.max_block must be in 1..255")
	}
	if d.MinInterval < 0 {
		ve.Add("device.min_interval must be >= 0")
	}
	if d.SpeedKHz < 1 || d.SpeedKHz > 1000 {
		ve.Add("device.speed_khz must be in 1..1000")
	}
	if kind == bridge.KindBusPirate && d.Serial.Port == "" {
		ve.Add("device.serial.port is required for the buspirate transport")
	}
	if d.Serial.Baud < 0 {
		ve.Add("device.serial.baud must be >= 0")
	}
}

func validateLogger(cfg *Config, ve *ValidationError) {
	switch strings.ToLower(cfg.Logger.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		ve.Add("logger.level %q is not one of debug, info, warn, error", cfg.Logger.Level)
	}
	switch strings.ToLower(cfg.Logger.Format) {
	case "", "text", "json":
	default:
		ve.Add("logger.format %q is not one of text, json", cfg.Logger.Format)
	}
}

func validateSimulator(cfg *Config, ve *ValidationError) {
	s := cfg.Simulator
	if len(s.GPIOConfig) > 9 {
		ve.Add("simulator.gpio_config has %d entries, the device has 9 GPIOs", len(s.GPIOConfig))
	}
	if len(s.PDIOConfig) > 16 {
		ve.Add("simulator.pdio_config has %d entries, the device has 16 PDIOs", len(s.PDIOConfig))
	}
	if len(s.Blackbox.Records) > 255 {
		ve.Add("simulator.blackbox.records has more than 255 records")
	}
	for i, rec := range s.Blackbox.Records {
		b, err := hex.DecodeString(rec)
		if err != nil {
			ve.Add("simulator.blackbox.records[%d]: %v", i, err)
			continue
		}
		if len(b) > 64 {
			ve.Add("simulator.blackbox.records[%d] is %d bytes, records hold 64", i, len(b))
		}
	}
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration of the pmbus tool.
type Config struct {
	Device    DeviceConfig    `yaml:"device"`
	Logger    LoggerConfig    `yaml:"logger"`
	Simulator SimulatorConfig `yaml:"simulator"`
}

// DeviceConfig selects the host adapter and the target device.
type DeviceConfig struct {
	Transport   string        `yaml:"transport"`
	Bus         string        `yaml:"bus"`
	Address     uint16        `yaml:"address"`
	PEC         bool          `yaml:"pec"`
	MaxBlock    int           `yaml:"max_block"`
	MinInterval time.Duration `yaml:"min_interval"`
	SpeedKHz    int           `yaml:"speed_khz"`
	USB         USBConfig     `yaml:"usb"`
	Serial      SerialConfig  `yaml:"serial"`
}

// USBConfig holds settings of USB bridges.
type USBConfig struct {
	Serial string `yaml:"serial"`
}

// SerialConfig holds settings of serial bridges.
type SerialConfig struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// SimulatorConfig describes the register content of the simulated ADM1266.
type SimulatorConfig struct {
	GPIOStatus uint16         `yaml:"gpio_status"`
	PDIOStatus uint16         `yaml:"pdio_status"`
	GPIOConfig []uint8        `yaml:"gpio_config"`
	PDIOConfig []uint16       `yaml:"pdio_config"`
	State      uint16         `yaml:"state"`
	Blackbox   BlackboxConfig `yaml:"blackbox"`
	// Fail lists command codes whose transactions fail.
	Fail []uint8 `yaml:"fail"`
}

// BlackboxConfig describes simulated blackbox records.
type BlackboxConfig struct {
	LatestID   uint16 `yaml:"latest_id"`
	LogicIndex uint8  `yaml:"logic_index"`
	// Records are hex encoded, at most 64 bytes each.
	Records []string `yaml:"records"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Device: DeviceConfig{
			Transport: "simulator",
			Address:   0x40,
			MaxBlock:  255,
			SpeedKHz:  100,
			Serial: SerialConfig{
				Baud: 115200,
			},
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// Load reads a YAML config file on top of the defaults and applies environment
// overrides. The result is not validated: callers merge their own overrides
// first and then call Validate.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := ApplyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnvOverrides maps PMBUS_* env vars to config fields.
func ApplyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("PMBUS_TRANSPORT"); v != "" {
		cfg.Device.Transport = v
	}
	if v := os.Getenv("PMBUS_BUS"); v != "" {
		cfg.Device.Bus = v
	}
	if v := os.Getenv("PMBUS_ADDRESS"); v != "" {
		addr, err := strconv.ParseUint(v, 0, 16)
		if err != nil {
			return fmt.Errorf("PMBUS_ADDRESS: %w", err)
		}
		cfg.Device.Address = uint16(addr)
	}
	if v := os.Getenv("PMBUS_SERIAL_PORT"); v != "" {
		cfg.Device.Serial.Port = v
	}
	if v := os.Getenv("PMBUS_LOG_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
	return nil
}

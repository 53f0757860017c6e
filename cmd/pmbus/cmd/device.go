package cmd

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/OpenTraceLab/OpenTracePMBus/internal/config"
	"github.com/OpenTraceLab/OpenTracePMBus/internal/logger"
	"github.com/OpenTraceLab/OpenTracePMBus/pkg/adm1266"
	"github.com/OpenTraceLab/OpenTracePMBus/pkg/bridge"
	"github.com/OpenTraceLab/OpenTracePMBus/pkg/pmbus"
	"github.com/spf13/cobra"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// errSimulatedFailure is injected for the commands listed in simulator.fail.
var errSimulatedFailure = errors.New("simulated transfer failure")

// simulatorFactory builds the device behind the simulator transport.
var simulatorFactory = newSimulator

// session bundles everything a command needs to talk to the device.
type session struct {
	cfg  *config.Config
	log  *slog.Logger
	bus  i2c.BusCloser
	chip *adm1266.Chip

	closeLog func() error
}

// loadConfig reads the config file, if any, applies command line flags and
// validates the merged result.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return nil, err
		}
	} else if err := config.ApplyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("transport") {
		cfg.Device.Transport = transport
	}
	if flags.Changed("bus") {
		cfg.Device.Bus = busName
	}
	if flags.Changed("address") {
		addr, err := strconv.ParseUint(address, 0, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid --address %q: %w", address, err)
		}
		cfg.Device.Address = uint16(addr)
	}
	if flags.Changed("pec") {
		cfg.Device.PEC = usePEC
	}
	if flags.Changed("max-block") {
		cfg.Device.MaxBlock = maxBlock
	}
	if verbose {
		cfg.Logger.Level = "debug"
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openSession opens the configured adapter and wraps the device.
func openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	base, closeLog, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, err
	}
	log := logger.WithDevice(base, cfg.Device)

	kind, err := bridge.ParseKind(cfg.Device.Transport)
	if err != nil {
		closeLog()
		return nil, err
	}

	opts := bridge.Options{
		Transport: kind,
		Bus:       cfg.Device.Bus,
		Serial:    cfg.Device.USB.Serial,
		Port:      cfg.Device.Serial.Port,
		Baud:      cfg.Device.Serial.Baud,
		Speed:     physic.Frequency(cfg.Device.SpeedKHz) * physic.KiloHertz,
	}
	if kind == bridge.KindSimulator {
		sim, err := simulatorFactory(cfg)
		if err != nil {
			closeLog()
			return nil, err
		}
		opts.Sim = sim
	}

	log.Debug("opening adapter")
	bus, err := bridge.Open(opts)
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("failed to open %s adapter: %w", kind, err)
	}

	client := pmbus.NewClient(bus, cfg.Device.Address,
		pmbus.WithPEC(cfg.Device.PEC),
		pmbus.WithMaxBlock(cfg.Device.MaxBlock),
		pmbus.WithMinInterval(cfg.Device.MinInterval),
		pmbus.WithLogger(log),
	)

	return &session{
		cfg:      cfg,
		log:      log,
		bus:      bus,
		chip:     adm1266.New(client, adm1266.WithLogger(log)),
		closeLog: closeLog,
	}, nil
}

func (s *session) Close() error {
	err := s.bus.Close()
	if cerr := s.closeLog(); err == nil {
		err = cerr
	}
	return err
}

// newSimulator builds the simulated device described by the config.
func newSimulator(cfg *config.Config) (*adm1266.Simulator, error) {
	sc := cfg.Simulator
	st := adm1266.State{
		GPIOStatus:         sc.GPIOStatus,
		PDIOStatus:         sc.PDIOStatus,
		SequencerState:     sc.State,
		BlackboxLatestID:   sc.Blackbox.LatestID,
		BlackboxLogicIndex: sc.Blackbox.LogicIndex,
	}
	for i, v := range sc.GPIOConfig {
		if i < adm1266.NumGPIO {
			st.GPIOConfig[i] = adm1266.GPIOConfig(v)
		}
	}
	for i, v := range sc.PDIOConfig {
		if i < adm1266.NumPDIO {
			st.PDIOConfig[i] = adm1266.PDIOConfig(v)
		}
	}
	for i, rec := range sc.Blackbox.Records {
		b, err := hex.DecodeString(rec)
		if err != nil {
			return nil, fmt.Errorf("simulator.blackbox.records[%d]: %w", i, err)
		}
		st.Blackbox = append(st.Blackbox, b)
	}

	sim := adm1266.NewSimulator(cfg.Device.Address, st)
	sim.PEC = cfg.Device.PEC
	for _, code := range sc.Fail {
		sim.SetFail(code, errSimulatedFailure)
	}
	return sim, nil
}

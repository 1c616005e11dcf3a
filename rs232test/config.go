package rs232test

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/sarchlab/rs232sim/dut/rs232"
	"github.com/sarchlab/rs232sim/sim"
)

// Config holds the constants of the RS-232 tests.
type Config struct {
	ClockPeriodUS float64 `yaml:"clock_period_us"`
	BaudRate      float64 `yaml:"baud_rate"`
	ResetCycles   int     `yaml:"reset_cycles"`
	WaitCycles    int     `yaml:"wait_cycles"`
	TxByte        uint8   `yaml:"tx_byte"`
	RxByte        uint8   `yaml:"rx_byte"`
	TimeLimitMS   float64 `yaml:"time_limit_ms"`
}

// DefaultConfig returns a 10 us clock, 1200 baud, 10 reset cycles, 100 wait
// cycles, 0xA5 to transmit and 0x3C to receive.
func DefaultConfig() Config {
	return Config{
		ClockPeriodUS: 10,
		BaudRate:      1200,
		ResetCycles:   10,
		WaitCycles:    100,
		TxByte:        0xA5,
		RxByte:        0x3C,
		TimeLimitMS:   50,
	}
}

// LoadConfig reads a YAML file on top of the default config.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := cfg.MergeYAML(data); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, cfg.Validate()
}

// MergeYAML overrides the fields that the document sets. Unknown fields
// are rejected.
func (c *Config) MergeYAML(data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	return dec.Decode(c)
}

// ApplyEnv overrides the fields with RS232SIM_* variables, such as
// RS232SIM_TX_BYTE.
func (c *Config) ApplyEnv(lookup func(key string) (string, bool)) error {
	floats := map[string]*float64{
		"RS232SIM_CLOCK_PERIOD_US": &c.ClockPeriodUS,
		"RS232SIM_BAUD_RATE":       &c.BaudRate,
		"RS232SIM_TIME_LIMIT_MS":   &c.TimeLimitMS,
	}
	for key, field := range floats {
		v, ok := lookup(key)
		if !ok {
			continue
		}

		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*field = f
	}

	ints := map[string]*int{
		"RS232SIM_RESET_CYCLES": &c.ResetCycles,
		"RS232SIM_WAIT_CYCLES":  &c.WaitCycles,
	}
	for key, field := range ints {
		v, ok := lookup(key)
		if !ok {
			continue
		}

		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*field = n
	}

	bytesFields := map[string]*uint8{
		"RS232SIM_TX_BYTE": &c.TxByte,
		"RS232SIM_RX_BYTE": &c.RxByte,
	}
	for key, field := range bytesFields {
		v, ok := lookup(key)
		if !ok {
			continue
		}

		n, err := strconv.ParseUint(v, 0, 8)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*field = uint8(n)
	}

	return nil
}

// Validate checks that the tests can run with the config.
func (c Config) Validate() error {
	var errs []error

	if c.ClockPeriodUS <= 0 {
		errs = append(errs, fmt.Errorf(
			"clock_period_us must be positive, got %g", c.ClockPeriodUS))
	}

	if c.BaudRate <= 0 {
		errs = append(errs, fmt.Errorf(
			"baud_rate must be positive, got %g", c.BaudRate))
	}

	if c.ResetCycles < 1 {
		errs = append(errs, fmt.Errorf(
			"reset_cycles must be at least 1, got %d", c.ResetCycles))
	}

	if c.WaitCycles < 0 {
		errs = append(errs, fmt.Errorf(
			"wait_cycles cannot be negative, got %d", c.WaitCycles))
	}

	if c.TxByte == 0 {
		errs = append(errs, errors.New(
			"tx_byte 0 equals the byte latched at reset and is never sent"))
	}

	if c.TimeLimitMS < 0 {
		errs = append(errs, fmt.Errorf(
			"time_limit_ms cannot be negative, got %g", c.TimeLimitMS))
	}

	if len(errs) == 0 && c.Divisor() < 2 {
		errs = append(errs, fmt.Errorf(
			"a %g us clock is too slow for %g baud", c.ClockPeriodUS, c.BaudRate))
	}

	return errors.Join(errs...)
}

// ClockPeriod returns the clock period in seconds.
func (c Config) ClockPeriod() sim.VTimeInSec {
	return sim.VTimeInSec(c.ClockPeriodUS * 1e-6)
}

// ClockFreq returns the clock frequency.
func (c Config) ClockFreq() sim.Freq {
	return sim.FreqFromPeriod(c.ClockPeriod())
}

// TimeLimit returns the simulated time limit of each test.
func (c Config) TimeLimit() sim.VTimeInSec {
	return sim.VTimeInSec(c.TimeLimitMS * 1e-3)
}

// Divisor returns the number of clock cycles per bit.
func (c Config) Divisor() int {
	return rs232.MakeBuilder().
		WithClockFreq(c.ClockFreq()).
		WithBaudRate(c.BaudRate).
		Divisor()
}

package config

import (
	"errors"
	"flag"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"envmon-go/drivers/bme680"
	"envmon-go/internal/sensor"
	"envmon-go/x/mathx"
	"envmon-go/x/strconvx"
)

// FailurePolicy decides what the loop does once a trigger or read has
// exhausted its retries.
type FailurePolicy uint8

const (
	// Abort returns the error from Run; the process exits.
	Abort FailurePolicy = iota
	// Degrade keeps the last good values on screen, marks them stale and
	// carries on.
	Degrade
)

func (p FailurePolicy) String() string {
	if p == Degrade {
		return "degrade"
	}
	return "abort"
}

func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch strings.ToLower(s) {
	case "abort", "":
		return Abort, nil
	case "degrade":
		return Degrade, nil
	}
	return Abort, errors.New("unknown failure policy " + s)
}

type Config struct {
	LogLevel zerolog.Level

	Interval time.Duration // between the end of a render and the next trigger
	Warmup   time.Duration // before the first read and the backlight

	OnFailure FailurePolicy
	Retry     sensor.RetryPolicy

	// Sensor bus. I2CBus and Sim only matter on linux hosts.
	I2CBus     string
	Sim        bool
	Address    uint16
	BusTimeout time.Duration
	// SimDrift walks the simulated raw temperature by this many counts per
	// trigger.
	SimDrift int32

	Sensor bme680.Settings
}

// Default reproduces the reference monitor.
func Default() Config {
	return Config{
		LogLevel:   zerolog.InfoLevel,
		Interval:   5 * time.Second,
		Warmup:     5 * time.Second,
		OnFailure:  Abort,
		Retry:      sensor.DefaultRetryPolicy(),
		Address:    bme680.AddressSecondary,
		BusTimeout: 250 * time.Millisecond,
		SimDrift:   64,
		Sensor:     bme680.DefaultSettings(),
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.Interval < 0 {
		errs = append(errs, errors.New("interval must not be negative"))
	}
	if c.Warmup < 0 {
		errs = append(errs, errors.New("warmup must not be negative"))
	}
	if !mathx.Between(c.Address, bme680.AddressPrimary, bme680.AddressSecondary) {
		errs = append(errs, errors.New("address must be 0x76 or 0x77"))
	}
	if c.Retry.MaxRetries < 0 || c.Retry.Backoff < 0 {
		errs = append(errs, errors.New("retry policy must not be negative"))
	}
	if !mathx.Between(c.SimDrift, -maxSimDrift, maxSimDrift) {
		errs = append(errs, errors.New("sim drift out of range"))
	}
	if c.BusTimeout <= 0 {
		errs = append(errs, errors.New("bus timeout must be positive"))
	}
	if err := c.Sensor.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// maxSimDrift is roughly 1.3 °C per cycle with the simulated calibration.
const maxSimDrift = 4096

func parseLogLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil || s == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

// FromFlags parses command line arguments over Default and validates the
// result.
func FromFlags(args []string) (Config, error) {
	cfg := Default()
	fs := flag.NewFlagSet("envmon", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var logLevel, onFailure, addr string
	var offset float64
	fs.StringVar(&logLevel, "log-level", "info", "Log level (trace, debug, info, warn, error)")
	fs.DurationVar(&cfg.Interval, "interval", cfg.Interval, "Delay between measurement cycles")
	fs.DurationVar(&cfg.Warmup, "warmup", cfg.Warmup, "Sensor warm-up before the first reading")
	fs.StringVar(&onFailure, "on-failure", "abort", "Behaviour after retries run out (abort, degrade)")
	fs.IntVar(&cfg.Retry.MaxRetries, "retries", cfg.Retry.MaxRetries, "Retries per trigger/read")
	fs.DurationVar(&cfg.Retry.Backoff, "backoff", cfg.Retry.Backoff, "Delay between retries")
	fs.StringVar(&cfg.I2CBus, "i2c", "", "periph I2C bus name; empty uses the simulator")
	fs.BoolVar(&cfg.Sim, "sim", false, "Force the simulated sensor and panel")
	var drift int
	fs.IntVar(&drift, "drift", int(cfg.SimDrift), "Simulated temperature drift in raw counts per cycle (0 holds it)")
	fs.StringVar(&addr, "addr", "0x77", "Sensor I2C address")
	fs.Float64Var(&offset, "temp-offset", -2.2, "Temperature offset in degrees C")
	fs.BoolVar(&cfg.Sensor.RunGas, "gas", cfg.Sensor.RunGas, "Run the gas heater")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	cfg.LogLevel = parseLogLevel(logLevel)
	// keep out-of-range values out of range for Validate without wrapping
	cfg.SimDrift = int32(mathx.Clamp(drift, -maxSimDrift-1, maxSimDrift+1))
	p, err := ParseFailurePolicy(onFailure)
	if err != nil {
		return cfg, err
	}
	cfg.OnFailure = p
	a, err := strconvx.ParseUint(addr, 0, 16)
	if err != nil {
		return cfg, errors.New("bad -addr " + addr)
	}
	cfg.Address = uint16(a)
	cfg.Sensor.TempOffsetCenti = centi(offset)

	return cfg, cfg.Validate()
}

func centi(v float64) int32 {
	if v < 0 {
		return int32(v*100 - 0.5)
	}
	return int32(v*100 + 0.5)
}

package bme680

import (
	"errors"
	"time"
)

// Oversampling for one of the T/P/H channels.
type Oversampling uint8

const (
	OversamplingSkip Oversampling = iota
	Oversampling1x
	Oversampling2x
	Oversampling4x
	Oversampling8x
	Oversampling16x
)

var osCycles = [...]uint32{0, 1, 2, 4, 8, 16}

func (o Oversampling) String() string {
	switch o {
	case OversamplingSkip:
		return "skip"
	case Oversampling1x:
		return "1x"
	case Oversampling2x:
		return "2x"
	case Oversampling4x:
		return "4x"
	case Oversampling8x:
		return "8x"
	case Oversampling16x:
		return "16x"
	}
	return "invalid"
}

// FilterSize is the IIR filter coefficient: 0, 1, 3, 7, 15, 31, 63 or 127.
type FilterSize uint8

var filterSizes = [...]FilterSize{0, 1, 3, 7, 15, 31, 63, 127}

func (f FilterSize) code() (uint8, bool) {
	for i, s := range filterSizes {
		if s == f {
			return uint8(i), true
		}
	}
	return 0, false
}

// Mode is the chip power mode.
type Mode uint8

const (
	ModeSleep  Mode = 0
	ModeForced Mode = 1
)

func (m Mode) String() string {
	switch m {
	case ModeSleep:
		return "sleep"
	case ModeForced:
		return "forced"
	}
	return "unknown"
}

var ErrInvalidSetting = errors.New("bme680: invalid setting")

// Settings is the measurement profile applied by Configure.
type Settings struct {
	Humidity    Oversampling
	Pressure    Oversampling
	Temperature Oversampling
	Filter      FilterSize

	// Gas heater profile. HeaterTemp is clamped to 400 °C.
	RunGas         bool
	HeaterTemp     uint16 // °C
	HeaterDuration time.Duration
	AmbientTemp    int8 // °C

	// TempOffsetCenti shifts the compensated temperature, in 0.01 °C.
	TempOffsetCenti int32
}

// DefaultSettings is the profile used by the monitor.
func DefaultSettings() Settings {
	return Settings{
		Humidity:        Oversampling2x,
		Pressure:        Oversampling4x,
		Temperature:     Oversampling8x,
		Filter:          3,
		RunGas:          true,
		HeaterTemp:      320,
		HeaterDuration:  1500 * time.Millisecond,
		AmbientTemp:     25,
		TempOffsetCenti: -220,
	}
}

// Validate rejects codes the chip cannot represent.
func (s Settings) Validate() error {
	for _, o := range [...]Oversampling{s.Humidity, s.Pressure, s.Temperature} {
		if int(o) >= len(osCycles) {
			return ErrInvalidSetting
		}
	}
	if _, ok := s.Filter.code(); !ok {
		return ErrInvalidSetting
	}
	if s.RunGas && s.HeaterDuration <= 0 {
		return ErrInvalidSetting
	}
	return nil
}

// ProfileDuration is the expected time from a forced-mode trigger until the
// result registers hold new data.
func (s Settings) ProfileDuration() time.Duration {
	var cycles uint32
	for _, o := range [...]Oversampling{s.Temperature, s.Pressure, s.Humidity} {
		if int(o) < len(osCycles) {
			cycles += osCycles[o]
		}
	}
	us := cycles*1963 + 477*4 + 477*5 + 500
	ms := us/1000 + 1
	d := time.Duration(ms) * time.Millisecond
	if s.RunGas {
		d += s.HeaterDuration
	}
	return d
}

// gasWaitCode encodes a heater duration into the gas_wait register format
// (6-bit value, 2-bit multiplier of 4^n).
func gasWaitCode(d time.Duration) uint8 {
	ms := uint32(d / time.Millisecond)
	if ms >= 0xfc0 {
		return 0xff
	}
	var factor uint8
	for ms > 0x3f {
		ms /= 4
		factor++
	}
	return uint8(ms) + factor*64
}

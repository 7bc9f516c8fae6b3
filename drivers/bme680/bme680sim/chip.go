// Package bme680sim emulates the BME680 register file behind drivers.I2C so
// the driver and everything above it run without hardware.
package bme680sim

import (
	"errors"
	"sync"

	"envmon-go/drivers/bme680"
)

var ErrNack = errors.New("bme680sim: nack")

// Raw is the next uncompensated sample the chip latches on a forced trigger.
type Raw struct {
	Temp       uint32 // 20-bit
	Press      uint32 // 20-bit
	Hum        uint16
	Gas        uint16 // 10-bit
	GasRange   uint8
	GasValid   bool
	HeatStable bool
}

// DefaultRaw reads roughly 22.5 °C, 1000.4 hPa, 57.6 %RH and 499.5 kΩ with
// DefaultCalibration and no temperature offset.
func DefaultRaw() Raw {
	return Raw{
		Temp: 487960, Press: 357987, Hum: 21515,
		Gas: 512, GasRange: 4, GasValid: true, HeatStable: true,
	}
}

// DefaultCalibration is a plausible factory trim block.
func DefaultCalibration() bme680.Calibration {
	return bme680.Calibration{
		T1: 26041, T2: 26469, T3: 3,
		P1: 36385, P2: -10517, P3: 88, P4: 6632, P5: -57,
		P6: 30, P7: 31, P8: -1220, P9: -2830, P10: 30,
		H1: 676, H2: 1029, H3: 0, H4: 45, H5: 20, H6: 120, H7: -100,
		GH1: -21, GH2: -12004, GH3: 18,
		ResHeatRange: 1, ResHeatVal: 48,
	}
}

// Chip is safe for concurrent use.
type Chip struct {
	mu      sync.Mutex
	address uint16
	regs    [256]byte
	raw     Raw

	hold     bool
	failN    int
	failErr  error
	triggers int
	drift    int32
	driftPos int32
}

const (
	regFieldStatus = 0x1D
	regCtrlMeas    = 0x74
	regChipID      = 0xD0
	regSoftReset   = 0xE0
)

// New returns a chip answering on addr with the given calibration.
func New(addr uint16, c bme680.Calibration) *Chip {
	s := &Chip{address: addr, raw: DefaultRaw()}
	s.regs[regChipID] = 0x61
	s.loadCalibration(c)
	return s
}

func le(b []byte, v uint16) { b[0], b[1] = byte(v), byte(v>>8) }

func (s *Chip) loadCalibration(c bme680.Calibration) {
	var k [41]byte
	le(k[1:], uint16(c.T2))
	k[3] = byte(c.T3)
	le(k[5:], c.P1)
	le(k[7:], uint16(c.P2))
	k[9] = byte(c.P3)
	le(k[11:], uint16(c.P4))
	le(k[13:], uint16(c.P5))
	k[15] = byte(c.P7)
	k[16] = byte(c.P6)
	le(k[19:], uint16(c.P8))
	le(k[21:], uint16(c.P9))
	k[23] = c.P10
	k[25] = byte(c.H2 >> 4)
	k[26] = byte(c.H2&0x0F)<<4 | byte(c.H1&0x0F)
	k[27] = byte(c.H1 >> 4)
	k[28] = byte(c.H3)
	k[29] = byte(c.H4)
	k[30] = byte(c.H5)
	k[31] = c.H6
	k[32] = byte(c.H7)
	le(k[33:], c.T1)
	le(k[35:], uint16(c.GH2))
	k[37] = byte(c.GH1)
	k[38] = byte(c.GH3)
	copy(s.regs[0x89:], k[:25])
	copy(s.regs[0xE1:], k[25:])

	s.regs[0x00] = byte(c.ResHeatVal)
	s.regs[0x02] = c.ResHeatRange << 4
	s.regs[0x04] = byte(c.RangeSwErr << 4)
}

// SetRaw replaces the sample latched on the next trigger.
func (s *Chip) SetRaw(r Raw) {
	s.mu.Lock()
	s.raw = r
	s.mu.Unlock()
}

// SetDrift makes each trigger walk the raw temperature by step counts,
// turning back after 64 steps.
func (s *Chip) SetDrift(step int32) {
	s.mu.Lock()
	s.drift = step
	s.mu.Unlock()
}

// Hold suppresses new_data on trigger, as if the read came too early.
func (s *Chip) Hold(on bool) {
	s.mu.Lock()
	s.hold = on
	s.mu.Unlock()
}

// Fail makes the next n transactions return err.
func (s *Chip) Fail(n int, err error) {
	s.mu.Lock()
	s.failN, s.failErr = n, err
	s.mu.Unlock()
}

// Triggers counts forced-mode writes.
func (s *Chip) Triggers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.triggers
}

// Reg returns a register value.
func (s *Chip) Reg(r uint8) byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.regs[r]
}

// Tx implements drivers.I2C. A write of [reg, v, reg, v...] stores pairs; a
// write of [reg] followed by a read auto-increments from reg.
func (s *Chip) Tx(addr uint16, w, r []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if addr != s.address {
		return ErrNack
	}
	if s.failN > 0 {
		s.failN--
		return s.failErr
	}
	if len(w) == 0 {
		return nil
	}
	if len(w) == 1 {
		reg := int(w[0])
		for i := range r {
			r[i] = s.regs[(reg+i)&0xFF]
		}
		if reg == regFieldStatus && len(r) > 0 {
			s.regs[regFieldStatus] &^= 0x80
		}
		return nil
	}
	for i := 0; i+1 < len(w); i += 2 {
		s.store(w[i], w[i+1])
	}
	return nil
}

func (s *Chip) store(reg, v byte) {
	switch reg {
	case regSoftReset:
		if v == 0xB6 {
			for r := 0x70; r <= 0x75; r++ {
				s.regs[r] = 0
			}
			s.regs[regFieldStatus] = 0
		}
	case regCtrlMeas:
		if v&0x03 == 0x01 {
			s.triggers++
			if !s.hold {
				s.latch()
			}
			v &^= 0x03 // forced mode drops back to sleep when done
		}
		s.regs[reg] = v
	default:
		s.regs[reg] = v
	}
}

func (s *Chip) latch() {
	if s.drift != 0 {
		s.driftPos++
		if s.driftPos > 64 || s.driftPos < -64 {
			s.drift = -s.drift
			s.driftPos = 0
		}
		s.raw.Temp = uint32(int32(s.raw.Temp) + s.drift)
	}
	f := s.regs[regFieldStatus : regFieldStatus+15]
	raw := s.raw
	f[0] = 0x80
	f[2], f[3], f[4] = byte(raw.Press>>12), byte(raw.Press>>4), byte(raw.Press<<4)
	f[5], f[6], f[7] = byte(raw.Temp>>12), byte(raw.Temp>>4), byte(raw.Temp<<4)
	f[8], f[9] = byte(raw.Hum>>8), byte(raw.Hum)
	f[13] = byte(raw.Gas >> 2)
	lsb := byte(raw.Gas&0x03)<<6 | raw.GasRange&0x0F
	if raw.GasValid {
		lsb |= 0x20
	}
	if raw.HeatStable {
		lsb |= 0x10
	}
	f[14] = lsb
}

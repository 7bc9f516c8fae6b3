// Package bme680 provides a driver for the Bosch BME680/BME688 gas sensor
// in forced mode:
//
//	d := bme680.New(bus)
//	err := d.Init()                       // reset, chip id, calibration
//	err = d.Configure(bme680.DefaultSettings())
//	err = d.SetMode(bme680.ModeForced)    // one measurement, then sleep
//	data, cond, err := d.Read()           // cond == NoNewData if not ready
//
// Compensation is integer-only; Data carries periph physic units.
//
// NOTE: I2C.Tx MUST perform a write followed by a repeated-start read when both
// w and r are provided, without releasing the bus.
package bme680

import (
	"errors"
	"time"

	"periph.io/x/conn/v3/physic"
	"tinygo.org/x/drivers"
)

// Errors returned by the driver.
var (
	ErrChipID    = errors.New("bme680: unexpected chip id")
	ErrNotInit   = errors.New("bme680: not initialised")
	ErrModeStuck = errors.New("bme680: chip did not enter sleep")
)

// Condition reports whether Read found a completed measurement.
type Condition uint8

const (
	NoNewData Condition = iota
	NewData
)

func (c Condition) String() string {
	if c == NewData {
		return "new_data"
	}
	return "no_new_data"
}

// Data is one compensated measurement.
type Data struct {
	Temperature   physic.Temperature
	Pressure      physic.Pressure
	Humidity      physic.RelativeHumidity
	GasResistance physic.ElectricResistance

	// GasValid and HeaterStable come from the gas status bits. Gas resistance
	// is meaningless unless both are set.
	GasValid     bool
	HeaterStable bool
}

// Device wraps an I2C connection to a BME680.
type Device struct {
	bus     drivers.I2C
	Address uint16

	// PollInterval and PollAttempts bound Read's wait for new_data.
	PollInterval time.Duration
	PollAttempts int

	calib    Calibration
	settings Settings
	ready    bool
	buf      [coeff1Len + coeff2Len]byte
	sleep    func(time.Duration)
}

// New creates a Device on the secondary address. The bus must already be
// configured; nothing is sent until Init.
func New(bus drivers.I2C) Device {
	return Device{
		bus:          bus,
		Address:      AddressSecondary,
		PollInterval: 10 * time.Millisecond,
		PollAttempts: 10,
		sleep:        time.Sleep,
	}
}

func (d *Device) write(reg, v byte) error {
	return d.bus.Tx(d.Address, []byte{reg, v}, nil)
}

func (d *Device) read(reg byte, out []byte) error {
	return d.bus.Tx(d.Address, []byte{reg}, out)
}

func (d *Device) readByte(reg byte) (byte, error) {
	var b [1]byte
	err := d.read(reg, b[:])
	return b[0], err
}

func (d *Device) pause(t time.Duration) {
	if d.sleep != nil {
		d.sleep(t)
	}
}

// Init soft-resets the chip, checks its identity and loads calibration.
func (d *Device) Init() error {
	if err := d.write(regSoftReset, cmdSoftReset); err != nil {
		return err
	}
	d.pause(10 * time.Millisecond)

	id, err := d.readByte(regChipID)
	if err != nil {
		return err
	}
	if id != chipID {
		return ErrChipID
	}

	c := d.buf[:]
	if err := d.read(regCoeff1, c[:coeff1Len]); err != nil {
		return err
	}
	if err := d.read(regCoeff2, c[coeff1Len:]); err != nil {
		return err
	}
	d.calib = parseCalibration(c)

	var b [1]byte
	if err := d.read(regResHeatRange, b[:]); err != nil {
		return err
	}
	d.calib.ResHeatRange = (b[0] & heatRangeMask) >> 4
	if err := d.read(regResHeatVal, b[:]); err != nil {
		return err
	}
	d.calib.ResHeatVal = int8(b[0])
	if err := d.read(regRangeSwErr, b[:]); err != nil {
		return err
	}
	d.calib.RangeSwErr = int8(b[0]&rangeErrMask) / 16

	d.ready = true
	return nil
}

// Calibration returns the parameters loaded by Init.
func (d *Device) Calibration() Calibration { return d.calib }

// Configure puts the chip to sleep and writes the measurement profile.
func (d *Device) Configure(s Settings) error {
	if !d.ready {
		return ErrNotInit
	}
	if err := s.Validate(); err != nil {
		return err
	}
	if err := d.SetMode(ModeSleep); err != nil {
		return err
	}

	if s.RunGas {
		if err := d.write(regResHeat0, d.calib.heaterResistance(s.HeaterTemp, s.AmbientTemp)); err != nil {
			return err
		}
		if err := d.write(regGasWait0, gasWaitCode(s.HeaterDuration)); err != nil {
			return err
		}
	}
	g0, err := d.readByte(regCtrlGas0)
	if err != nil {
		return err
	}
	if s.RunGas {
		g0 &^= heatOffMask
	} else {
		g0 |= heatOffMask
	}
	if err := d.write(regCtrlGas0, g0); err != nil {
		return err
	}
	var g1 byte // heater profile 0
	if s.RunGas {
		g1 = runGasBit
	}
	if err := d.write(regCtrlGas1, g1&(runGasBit|nbConvMask)); err != nil {
		return err
	}

	fc, _ := s.Filter.code()
	cfg, err := d.readByte(regConfig)
	if err != nil {
		return err
	}
	if err := d.write(regConfig, cfg&^filterMask|fc<<filterPos); err != nil {
		return err
	}

	hum, err := d.readByte(regCtrlHum)
	if err != nil {
		return err
	}
	if err := d.write(regCtrlHum, hum&^osrsHMask|byte(s.Humidity)); err != nil {
		return err
	}
	meas := byte(s.Temperature)<<osrsTPos | byte(s.Pressure)<<osrsPPos | byte(ModeSleep)
	if err := d.write(regCtrlMeas, meas); err != nil {
		return err
	}

	d.settings = s
	return nil
}

// Settings returns the last applied profile.
func (d *Device) Settings() Settings { return d.settings }

// ProfileDuration of the applied profile.
func (d *Device) ProfileDuration() time.Duration { return d.settings.ProfileDuration() }

// Mode reads the current power mode.
func (d *Device) Mode() (Mode, error) {
	v, err := d.readByte(regCtrlMeas)
	return Mode(v & modeMask), err
}

// SetMode switches the power mode. The chip is always put to sleep before a
// new mode is written.
func (d *Device) SetMode(m Mode) error {
	for i := 0; ; i++ {
		v, err := d.readByte(regCtrlMeas)
		if err != nil {
			return err
		}
		if Mode(v&modeMask) == ModeSleep {
			if m == ModeSleep {
				return nil
			}
			return d.write(regCtrlMeas, v&^modeMask|byte(m))
		}
		if i >= d.PollAttempts {
			return ErrModeStuck
		}
		if err := d.write(regCtrlMeas, v&^modeMask); err != nil {
			return err
		}
		d.pause(d.PollInterval)
	}
}

// Read fetches the field block, polling until new_data is set or the attempt
// budget runs out. An exhausted budget is NoNewData, not an error.
func (d *Device) Read() (Data, Condition, error) {
	if !d.ready {
		return Data{}, NoNewData, ErrNotInit
	}
	var f [fieldLen]byte
	for i := 0; i < d.PollAttempts; i++ {
		if err := d.read(regFieldStatus, f[:]); err != nil {
			return Data{}, NoNewData, err
		}
		if f[0]&statusNewData != 0 {
			return d.compensate(f[:]), NewData, nil
		}
		d.pause(d.PollInterval)
	}
	return Data{}, NoNewData, nil
}

func (d *Device) compensate(f []byte) Data {
	padc := uint32(f[2])<<12 | uint32(f[3])<<4 | uint32(f[4])>>4
	tadc := uint32(f[5])<<12 | uint32(f[6])<<4 | uint32(f[7])>>4
	hadc := uint16(f[8])<<8 | uint16(f[9])
	gadc := uint16(f[13])<<2 | uint16(f[14])>>6

	c := &d.calib
	tFine := c.tempFine(tadc, d.settings.TempOffsetCenti)
	centi := centiFromFine(tFine)

	return Data{
		Temperature:   physic.ZeroCelsius + physic.Temperature(centi)*10*physic.MilliCelsius,
		Pressure:      physic.Pressure(c.pressure(padc, tFine)) * physic.Pascal,
		Humidity:      physic.RelativeHumidity(c.humidity(hadc, tFine)) * (physic.PercentRH / 1000),
		GasResistance: physic.ElectricResistance(c.gasResistance(gadc, f[14])) * physic.Ohm,
		GasValid:      f[14]&gasValidBit != 0,
		HeaterStable:  f[14]&heatStabBit != 0,
	}
}

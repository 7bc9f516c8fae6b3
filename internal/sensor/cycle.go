package sensor

import (
	"periph.io/x/conn/v3/physic"

	"envmon-go/drivers/bme680"
	"envmon-go/types"
	"envmon-go/x/strconvx"
)

// Cycle is one measurement as handed to the renderer.
type Cycle struct {
	Temperature   physic.Temperature
	Pressure      physic.Pressure
	Humidity      physic.RelativeHumidity
	GasResistance physic.ElectricResistance
	GasValid      bool
	Freshness     Freshness
}

func cycleFrom(d bme680.Data) Cycle {
	return Cycle{
		Temperature:   d.Temperature,
		Pressure:      d.Pressure,
		Humidity:      d.Humidity,
		GasResistance: d.GasResistance,
		GasValid:      d.GasValid && d.HeaterStable,
		Freshness:     Fresh,
	}
}

// Fresh reports whether the cycle carries a new measurement.
func (c Cycle) Fresh() bool { return c.Freshness == Fresh }

// CentiCelsius is the temperature in 0.01 °C.
func (c Cycle) CentiCelsius() int64 {
	return int64((c.Temperature - physic.ZeroCelsius) / (10 * physic.MilliCelsius))
}

// Pascal is the pressure in Pa.
func (c Cycle) Pascal() int64 { return int64(c.Pressure / physic.Pascal) }

// MilliPercentRH is the humidity in 0.001 %RH.
func (c Cycle) MilliPercentRH() int64 { return int64(c.Humidity / (physic.PercentRH / 1000)) }

// Ohms is the gas resistance in whole ohms.
func (c Cycle) Ohms() int64 { return int64(c.GasResistance / physic.Ohm) }

// Text formats a field for display: °C, hPa, %RH and Ω, without units and
// without trailing zeros. Equal readings always give equal strings.
func (c Cycle) Text(f types.Field) string {
	switch f {
	case types.Temperature:
		return strconvx.FormatFixed(c.CentiCelsius(), 2)
	case types.Pressure:
		return strconvx.FormatFixed(c.Pascal(), 2)
	case types.Humidity:
		return strconvx.FormatFixed(c.MilliPercentRH(), 3)
	case types.GasResistance:
		return strconvx.FormatFixed(c.Ohms(), 0)
	}
	return ""
}

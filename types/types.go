package types

// Field identifies one of the displayed readings. The order of the
// constants is the fixed render order.
type Field uint8

const (
	Temperature Field = iota
	Pressure
	Humidity
	GasResistance

	NumFields = 4
)

var fieldLabels = [NumFields]string{
	Temperature:   "Temperature: ",
	Pressure:      "Pressure: ",
	Humidity:      "Humidity: ",
	GasResistance: "Air Quality: ",
}

var fieldNames = [NumFields]string{
	Temperature:   "temperature",
	Pressure:      "pressure",
	Humidity:      "humidity",
	GasResistance: "gas_resistance",
}

// Fields lists every field in render order.
func Fields() [NumFields]Field {
	return [NumFields]Field{Temperature, Pressure, Humidity, GasResistance}
}

// Label is the static text drawn once at bring-up.
func (f Field) Label() string {
	if int(f) < NumFields {
		return fieldLabels[f]
	}
	return ""
}

// String is the short log key.
func (f Field) String() string {
	if int(f) < NumFields {
		return fieldNames[f]
	}
	return "unknown"
}

// Title is drawn in the first band.
const Title = "Environment Monitor"

// Link is the health reported for the sensor path.
type Link string

const (
	LinkUp       Link = "up"
	LinkDegraded Link = "degraded"
)

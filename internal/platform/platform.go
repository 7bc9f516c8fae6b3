// Package platform wires the monitor to concrete hardware. Each target
// (rp2040, linux, simulator) implements Board; build tags select Default.
package platform

import (
	"io"

	"tinygo.org/x/drivers"

	"envmon-go/drivers/bme680"
	"envmon-go/internal/display"
)

// Pin is a digital output.
type Pin interface {
	ConfigureOutput(initial bool) error
	Set(level bool)
}

// Pins are the panel control lines, driven in bring-up order.
type Pins struct {
	Enable      Pin
	Backlight   Pin
	Reset       Pin
	ChipSelect  Pin
	DataCommand Pin
}

// PanelOptions configure the display controller.
type PanelOptions struct {
	Width, Height int16 // native, before rotation
	Rotation      drivers.Rotation
	ColumnOffset  int16
	RowOffset     int16
	Invert        bool
}

// DefaultPanelOptions match a 1.14" 135x240 ST7789 module in landscape.
func DefaultPanelOptions() PanelOptions {
	return PanelOptions{
		Width: 135, Height: 240,
		Rotation:     drivers.Rotation90,
		ColumnOffset: 52,
		RowOffset:    40,
		Invert:       true,
	}
}

// Board is the hardware surface the application brings up.
type Board interface {
	Name() string
	Pins() Pins
	InitSPI() error
	// InitPanel constructs the display over SPI and runs its init sequence,
	// including the hardware reset.
	InitPanel(PanelOptions) (display.Panel, error)
	InitSensorBus() (drivers.I2C, error)
	// LogSink is where structured logs go on this target.
	LogSink() io.Writer
	Close() error
}

// Options select and tune the board returned by Default.
type Options struct {
	// I2CBus names a periph I2C bus on linux ("1", "/dev/i2c-1"). Empty
	// selects the simulator.
	I2CBus string
	Sim    bool
	// SensorAddress and Drift are only used by the simulator. Drift is raw
	// temperature counts per trigger; 0 repeats one sample forever.
	SensorAddress uint16
	Drift         int32
}

func (o Options) address() uint16 {
	if o.SensorAddress == 0 {
		return bme680.AddressSecondary
	}
	return o.SensorAddress
}

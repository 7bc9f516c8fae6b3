//go:build rp2040 || rp2350

package platform

import (
	"io"
	"machine"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/st7789"

	"envmon-go/internal/display"
	"envmon-go/internal/platform/boards"
)

// Default returns the Pico board; options are host-only.
func Default(Options) (Board, error) {
	return &Pico{wiring: boards.PicoDisplay}, nil
}

// Pico is an RP2040/RP2350 with the panel on SPI0 and the sensor on I2C0.
type Pico struct {
	wiring boards.Wiring
	uart   *uartx.UART
}

func (p *Pico) Name() string { return p.wiring.Name }

type rp2Pin struct{ p machine.Pin }

func (r rp2Pin) ConfigureOutput(initial bool) error {
	r.p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	r.p.Set(initial)
	return nil
}

func (r rp2Pin) Set(v bool) { r.p.Set(v) }

func (p *Pico) Pins() Pins {
	w := p.wiring
	return Pins{
		Enable:      rp2Pin{machine.Pin(w.Enable)},
		Backlight:   rp2Pin{machine.Pin(w.Backlight)},
		Reset:       rp2Pin{machine.Pin(w.Reset)},
		ChipSelect:  rp2Pin{machine.Pin(w.CS)},
		DataCommand: rp2Pin{machine.Pin(w.DC)},
	}
}

func (p *Pico) InitSPI() error {
	return machine.SPI0.Configure(machine.SPIConfig{
		Frequency: 62_500_000,
		SCK:       machine.Pin(p.wiring.SCK),
		SDO:       machine.Pin(p.wiring.MOSI),
		Mode:      0,
	})
}

// InitPanel hands the backlight to the caller: the driver would otherwise
// switch it on at the end of Configure.
func (p *Pico) InitPanel(o PanelOptions) (display.Panel, error) {
	w := p.wiring
	d := st7789.New(machine.SPI0,
		machine.Pin(w.Reset), machine.Pin(w.DC), machine.Pin(w.CS), machine.NoPin)
	d.Configure(st7789.Config{
		Width:        o.Width,
		Height:       o.Height,
		Rotation:     o.Rotation,
		RowOffset:    o.RowOffset,
		ColumnOffset: o.ColumnOffset,
	})
	d.InvertColors(o.Invert)
	return &d, nil
}

func (p *Pico) InitSensorBus() (drivers.I2C, error) {
	b := machine.I2C0
	err := b.Configure(machine.I2CConfig{
		Frequency: 100 * machine.KHz,
		SDA:       machine.Pin(p.wiring.SDA),
		SCL:       machine.Pin(p.wiring.SCL),
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// LogSink is UART0, configured on first use.
func (p *Pico) LogSink() io.Writer {
	if p.uart == nil {
		p.uart = uartx.UART0
		_ = p.uart.Configure(uartx.UARTConfig{
			BaudRate: 115200,
			TX:       machine.Pin(p.wiring.UartTX),
			RX:       machine.Pin(p.wiring.UartRX),
		})
	}
	return p.uart
}

func (p *Pico) Close() error { return nil }

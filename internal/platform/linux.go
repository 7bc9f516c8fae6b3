//go:build linux && !(rp2040 || rp2350)

package platform

import (
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
	"tinygo.org/x/drivers"

	"envmon-go/errcode"
	"envmon-go/internal/display"
	"envmon-go/internal/platform/boards"
	"envmon-go/x/strconvx"
)

// Default returns a periph-backed board when an I2C bus is named, else the
// simulator.
func Default(o Options) (Board, error) {
	if o.Sim || o.I2CBus == "" {
		return simFor(o), nil
	}
	if _, err := host.Init(); err != nil {
		return nil, errcode.Wrap(errcode.InitFailed, "platform.host", err)
	}
	return &Linux{bus: o.I2CBus, wiring: boards.PiHat, trace: &Trace{}}, nil
}

// Linux drives the panel control lines through sysfs/gpiomem and the sensor
// through /dev/i2c-N. The panel itself is a framebuffer.
type Linux struct {
	bus    string
	wiring boards.Wiring
	trace  *Trace
	i2c    i2c.BusCloser
	fb     *display.Framebuffer
}

func (l *Linux) Name() string { return "linux:" + l.wiring.Name }

type periphPin struct {
	p gpio.PinOut
}

func (p periphPin) ConfigureOutput(initial bool) error { return p.p.Out(gpio.Level(initial)) }

func (p periphPin) Set(v bool) {
	if err := p.p.Out(gpio.Level(v)); err != nil {
		log.Warn().Err(err).Str("pin", p.p.Name()).Msg("gpio write")
	}
}

func (l *Linux) pin(name string, n int) Pin {
	if p := gpioreg.ByName("GPIO" + strconvx.Itoa(n)); p != nil {
		return periphPin{p: p}
	}
	log.Warn().Str("pin", name).Int("gpio", n).Msg("gpio not found, using fake pin")
	return NewFakePin(name, n, l.trace)
}

func (l *Linux) Pins() Pins {
	w := l.wiring
	return Pins{
		Enable:      l.pin("enable", w.Enable),
		Backlight:   l.pin("backlight", w.Backlight),
		Reset:       l.pin("reset", w.Reset),
		ChipSelect:  l.pin("cs", w.CS),
		DataCommand: l.pin("dc", w.DC),
	}
}

func (l *Linux) InitSPI() error { return nil }

func (l *Linux) InitPanel(o PanelOptions) (display.Panel, error) {
	w, h := o.Width, o.Height
	if o.Rotation == drivers.Rotation90 || o.Rotation == drivers.Rotation270 {
		w, h = h, w
	}
	l.fb = display.NewFramebuffer(w, h)
	return l.fb, nil
}

func (l *Linux) InitSensorBus() (drivers.I2C, error) {
	b, err := i2creg.Open(l.bus)
	if err != nil {
		return nil, errcode.Wrap(errcode.InitFailed, "platform.i2c", err)
	}
	l.i2c = b
	return b, nil
}

func (l *Linux) LogSink() io.Writer { return os.Stderr }

func (l *Linux) Close() error {
	if l.i2c != nil {
		return l.i2c.Close()
	}
	return nil
}

//go:build !(rp2040 || rp2350)

package platform

import (
	"image/color"
	"io"
	"os"

	"tinygo.org/x/drivers"

	"envmon-go/drivers/bme680/bme680sim"
	"envmon-go/internal/display"
	"envmon-go/internal/platform/boards"
)

// Sim is a host board: recorded pins, an in-memory panel and an emulated
// BME680.
type Sim struct {
	Trace *Trace
	Chip  *bme680sim.Chip
	FB    *display.Framebuffer

	pins Pins
	log  io.Writer
}

func NewSim(addr uint16) *Sim {
	t := &Trace{}
	w := boards.PicoDisplay
	return &Sim{
		Trace: t,
		Chip:  bme680sim.New(addr, bme680sim.DefaultCalibration()),
		pins: Pins{
			Enable:      NewFakePin("enable", w.Enable, t),
			Backlight:   NewFakePin("backlight", w.Backlight, t),
			Reset:       NewFakePin("reset", w.Reset, t),
			ChipSelect:  NewFakePin("cs", w.CS, t),
			DataCommand: NewFakePin("dc", w.DC, t),
		},
		log: os.Stderr,
	}
}

// simFor is the simulator Default hands out.
func simFor(o Options) *Sim {
	s := NewSim(o.address())
	s.Chip.SetDrift(o.Drift)
	return s
}

func (s *Sim) Name() string { return "sim" }

func (s *Sim) Pins() Pins { return s.pins }

func (s *Sim) InitSPI() error {
	s.Trace.Add("spi.init")
	return nil
}

func (s *Sim) InitPanel(o PanelOptions) (display.Panel, error) {
	s.Trace.Add("panel.init")
	w, h := o.Width, o.Height
	if o.Rotation == drivers.Rotation90 || o.Rotation == drivers.Rotation270 {
		w, h = h, w
	}
	s.FB = display.NewFramebuffer(w, h)
	return &tracedPanel{Framebuffer: s.FB, trace: s.Trace}, nil
}

func (s *Sim) InitSensorBus() (drivers.I2C, error) {
	s.Trace.Add("i2c.init")
	return s.Chip, nil
}

func (s *Sim) LogSink() io.Writer { return s.log }

func (s *Sim) Close() error {
	s.Trace.Add("board.close")
	return nil
}

type tracedPanel struct {
	*display.Framebuffer
	trace *Trace
}

func (p *tracedPanel) FillScreen(c color.RGBA) {
	p.trace.Add("panel.clear")
	p.Framebuffer.FillScreen(c)
}

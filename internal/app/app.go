// Package app brings the monitor up and runs its measure/render loop:
// trigger, settle, read, diff, render, sleep, repeat.
package app

import (
	"context"
	"errors"
	"image"
	"time"

	"github.com/rs/zerolog/log"

	"envmon-go/drivers/bme680"
	"envmon-go/errcode"
	"envmon-go/internal/busown"
	"envmon-go/internal/config"
	"envmon-go/internal/display"
	"envmon-go/internal/layout"
	"envmon-go/internal/platform"
	"envmon-go/internal/render"
	"envmon-go/internal/sensor"
	"envmon-go/types"
	"envmon-go/x/timex"
)

// Lines is the title plus one line per field.
const Lines = types.NumFields + 1

const (
	topMargin    = 15
	bottomMargin = 8
	staleMark    = "*"
)

type Option func(*App)

// WithWait replaces every suspension (warm-up, settling, backoff, interval).
func WithWait(w sensor.WaitFunc) Option { return func(a *App) { a.wait = w } }

func WithFont(f display.Font) Option { return func(a *App) { a.font = f } }

func WithPanel(o platform.PanelOptions) Option { return func(a *App) { a.panelOpts = o } }

// App owns every hardware handle for the life of the process.
type App struct {
	cfg       config.Config
	board     platform.Board
	font      display.Font
	panelOpts platform.PanelOptions
	wait      sensor.WaitFunc

	pins    platform.Pins
	screen  *display.Screen
	owner   *busown.Owner
	dev     bme680.Device
	ctl     *sensor.Controller
	session *sensor.Session
	layout  layout.Layout
	cache   *render.Cache
	marker  *render.Indicator

	link   types.Link
	cycles uint64
}

func New(b platform.Board, cfg config.Config, opts ...Option) *App {
	a := &App{
		cfg:       cfg,
		board:     b,
		font:      display.DefaultFont(),
		panelOpts: platform.DefaultPanelOptions(),
		wait:      timex.Sleep,
		link:      types.LinkUp,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

func initErr(op string, err error) error { return errcode.Wrap(errcode.InitFailed, op, err) }

// BringUp runs the one-time hardware sequence. The backlight stays off
// until the labels are on screen.
func (a *App) BringUp(ctx context.Context) error {
	a.pins = a.board.Pins()
	p := a.pins
	for _, step := range []struct {
		name  string
		pin   platform.Pin
		level bool
	}{
		{"enable", p.Enable, true},
		{"backlight", p.Backlight, false},
		{"reset", p.Reset, false},
		{"cs", p.ChipSelect, false},
		{"dc", p.DataCommand, false},
	} {
		if err := step.pin.ConfigureOutput(step.level); err != nil {
			return initErr("app.pin."+step.name, err)
		}
	}
	log.Debug().Str("board", a.board.Name()).Msg("panel pins set")

	if err := a.board.InitSPI(); err != nil {
		return initErr("app.spi", err)
	}
	panel, err := a.board.InitPanel(a.panelOpts)
	if err != nil {
		return initErr("app.panel", err)
	}
	a.screen = display.NewScreen(panel, a.font, display.Black)
	log.Info().Str("board", a.board.Name()).Msg("display initialised")

	bus, err := a.board.InitSensorBus()
	if err != nil {
		return initErr("app.i2c", err)
	}
	a.owner = busown.New("i2c0", bus, 8)
	log.Debug().Str("bus", a.owner.Name()).Dur("timeout", a.cfg.BusTimeout).Msg("sensor bus owner started")
	a.dev = bme680.New(a.owner.Client(a.cfg.BusTimeout))
	a.dev.Address = a.cfg.Address
	if err := a.dev.Init(); err != nil {
		return initErr("app.sensor", err)
	}

	a.ctl = sensor.New(&a.dev, sensor.WithRetry(a.cfg.Retry), sensor.WithWait(a.wait))
	s, err := a.ctl.Configure(ctx, a.cfg.Sensor)
	if err != nil {
		return err
	}
	a.session = s
	a.logSettings()

	log.Info().Dur("warmup", a.cfg.Warmup).Msg("sensor warming up")
	if err := a.wait(ctx, a.cfg.Warmup); err != nil {
		return errcode.Wrap(errcode.Canceled, "app.warmup", err)
	}

	if err := a.drawStatic(); err != nil {
		return err
	}
	p.Backlight.Set(true)
	log.Info().Msg("bring-up complete")
	return nil
}

func (a *App) logSettings() {
	st := a.session.Settings()
	cal := a.dev.Calibration()
	log.Debug().
		Uint8("res_heat_range", cal.ResHeatRange).
		Int8("res_heat_val", cal.ResHeatVal).
		Int8("range_sw_err", cal.RangeSwErr).
		Msg("sensor calibration")
	mode, err := a.dev.Mode()
	ev := log.Info().
		Dur("profile", a.session.ProfileDuration()).
		Stringer("os_t", st.Temperature).
		Stringer("os_p", st.Pressure).
		Stringer("os_h", st.Humidity).
		Uint8("filter", uint8(st.Filter)).
		Bool("gas", st.RunGas).
		Uint16("heater_c", st.HeaterTemp).
		Dur("heater", st.HeaterDuration).
		Int32("offset_centi", st.TempOffsetCenti)
	if err == nil {
		ev = ev.Stringer("mode", mode)
	}
	ev.Msg("sensor configured")
}

func (a *App) geometry() layout.Geometry {
	o, f := a.panelOpts, a.font
	return layout.Geometry{
		Width: o.Width, Height: o.Height, Rotation: o.Rotation, Lines: Lines,
		GlyphWidth: f.GlyphWidth, GlyphHeight: f.GlyphHeight, Ascent: f.Ascent,
		TopMargin: topMargin, BottomMargin: bottomMargin,
	}
}

// drawStatic clears the panel, draws the title and labels and fixes the
// value anchors from the drawn label boxes.
func (a *App) drawStatic() error {
	l, err := layout.Compute(a.geometry())
	if err != nil {
		return err
	}
	a.layout = l

	a.screen.Clear()
	title := a.screen.DrawText(types.Title, l.TitleOrigin(), display.White)
	var boxes [types.NumFields]image.Rectangle
	for _, f := range types.Fields() {
		boxes[f] = a.screen.DrawText(f.Label(), l.LabelOrigin(f), display.White)
	}
	anchors, err := l.Anchors(boxes)
	if err != nil {
		return err
	}
	for _, f := range types.Fields() {
		log.Debug().Stringer("field", f).Int("x", anchors[f].X).Int("y", anchors[f].Y).Msg("value anchor")
	}
	a.cache = render.New(a.screen, anchors, display.White, display.Black)

	at := image.Pt(title.Max.X+int(a.font.GlyphWidth)/2, title.Min.Y+int(a.font.Ascent))
	if lim := int(l.Geometry.HorizontalSpan() - a.font.GlyphWidth); at.X > lim {
		at.X = lim
	}
	a.marker = render.NewIndicator(a.screen, at, staleMark, display.White, display.Black)

	return a.screen.Flush()
}

// Step runs one cycle: trigger, settle, read and render. Stale readings
// render nothing.
func (a *App) Step(ctx context.Context) (render.Stats, error) {
	if a.session == nil {
		return render.Stats{}, &errcode.E{C: errcode.InitFailed, Op: "app.step", Msg: "not brought up"}
	}
	m, err := a.session.Trigger(ctx)
	if err != nil {
		return a.failed(err)
	}
	cy, err := m.Read(ctx)
	if err != nil {
		return a.failed(err)
	}
	a.cycles++
	settle := time.Since(m.TriggeredAt())

	if !cy.Fresh() {
		log.Debug().Uint64("cycle", a.cycles).Dur("settle", settle).Msg("no new data, render skipped")
		return render.Stats{}, nil
	}
	log.Debug().
		Uint64("cycle", a.cycles).
		Dur("settle", settle).
		Str("temperature", cy.Text(types.Temperature)).
		Str("pressure", cy.Text(types.Pressure)).
		Str("humidity", cy.Text(types.Humidity)).
		Str("gas", cy.Text(types.GasResistance)).
		Bool("gas_valid", cy.GasValid).
		Msg("reading")

	st := a.cache.Apply(cy)
	if a.marker.Set(false) {
		st.Draws++
	}
	if a.link != types.LinkUp {
		log.Info().Msg("sensor recovered")
		a.link = types.LinkUp
	}
	if st.Draws > 0 {
		if err := a.screen.Flush(); err != nil {
			log.Warn().Err(err).Msg("display flush")
		}
	}
	log.Debug().Int("draws", st.Draws).Int("changed", st.Changed).Msg("render")
	return st, nil
}

func (a *App) failed(err error) (render.Stats, error) {
	if errors.Is(err, errcode.Canceled) || a.cfg.OnFailure == config.Abort {
		return render.Stats{}, err
	}
	log.Warn().Err(err).Str("code", string(errcode.Of(err))).Msg("sensor failed, showing last reading")
	a.link = types.LinkDegraded
	var st render.Stats
	if a.marker.Set(true) {
		st.Draws++
		if ferr := a.screen.Flush(); ferr != nil {
			log.Warn().Err(ferr).Msg("display flush")
		}
	}
	return st, nil
}

// Run loops until ctx is done or a failure is fatal under the configured
// policy. Rendering of one cycle always finishes before the next trigger.
func (a *App) Run(ctx context.Context) error {
	for {
		start := time.Now()
		if _, err := a.Step(ctx); err != nil {
			return err
		}
		log.Trace().Dur("took", time.Since(start)).Msg("cycle done")
		if err := a.wait(ctx, a.cfg.Interval); err != nil {
			return errcode.Wrap(errcode.Canceled, "app.run", err)
		}
	}
}

// Link reports whether the last cycle reached the sensor.
func (a *App) Link() types.Link { return a.link }

// Cycles counts completed reads.
func (a *App) Cycles() uint64 { return a.cycles }

// State exposes the sensor duty-cycle state.
func (a *App) State() sensor.State {
	if a.ctl == nil {
		return sensor.Idle
	}
	return a.ctl.State()
}

// Slot is what the screen currently shows for f.
func (a *App) Slot(f types.Field) render.Slot { return a.cache.Slot(f) }

// MarkerShown reports whether the staleness marker is on screen.
func (a *App) MarkerShown() bool { return a.marker != nil && a.marker.Shown() }

// Layout is the geometry computed at bring-up.
func (a *App) Layout() layout.Layout { return a.layout }

func (a *App) Close() error {
	if a.owner != nil {
		a.owner.Close()
	}
	return a.board.Close()
}

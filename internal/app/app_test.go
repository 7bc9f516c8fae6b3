package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"envmon-go/drivers/bme680"
	"envmon-go/drivers/bme680/bme680sim"
	"envmon-go/errcode"
	"envmon-go/internal/config"
	"envmon-go/internal/display"
	"envmon-go/internal/platform"
	"envmon-go/internal/sensor"
	"envmon-go/types"
)

func init() { log.Logger = zerolog.New(io.Discard) }

type rig struct {
	sim *platform.Sim
	app *App
	cfg config.Config
}

func newRig(t *testing.T, mut func(*config.Config)) *rig {
	t.Helper()
	cfg := config.Default()
	cfg.Sensor.TempOffsetCenti = 0
	if mut != nil {
		mut(&cfg)
	}
	sim := platform.NewSim(bme680.AddressSecondary)
	r := &rig{sim: sim, cfg: cfg}
	r.app = New(sim, cfg, WithWait(func(ctx context.Context, d time.Duration) error {
		sim.Trace.Add("wait:" + d.String())
		return ctx.Err()
	}))
	t.Cleanup(func() { _ = r.app.Close() })
	return r
}

func (r *rig) bringUp(t *testing.T) {
	t.Helper()
	require.NoError(t, r.app.BringUp(context.Background()))
}

func TestBringUpOrder(t *testing.T) {
	r := newRig(t, nil)
	r.bringUp(t)

	assert.Equal(t, []string{
		"enable=1",
		"backlight=0",
		"reset=0",
		"cs=0",
		"dc=0",
		"spi.init",
		"panel.init",
		"i2c.init",
		"wait:5s",
		"panel.clear",
		"backlight=1",
	}, r.sim.Trace.Events())

	assert.Equal(t, byte(0x10), r.sim.Chip.Reg(0x71), "gas heater enabled before warm-up")
	assert.Equal(t, sensor.Configured, r.app.State())
	assert.Greater(t, r.sim.FB.Count(r.sim.FB.Image().Bounds(), display.White), 0, "labels drawn")
}

func TestBringUpAnchors(t *testing.T) {
	r := newRig(t, nil)
	r.bringUp(t)
	l := r.app.Layout()
	assert.Equal(t, int16(22), l.BandSize)
	for i, want := range []int{61, 83, 105, 127} {
		s := r.app.Slot(types.Field(i))
		assert.Equal(t, want, s.Anchor.Y)
		assert.Empty(t, s.Last)
	}
	// "Temperature: " is 13 glyphs of 11 px.
	assert.Equal(t, 13*11-5, r.app.Slot(types.Temperature).Anchor.X)
	assert.Equal(t, 10*11-5, r.app.Slot(types.Pressure).Anchor.X)
}

func TestBringUpConfigRejected(t *testing.T) {
	r := newRig(t, func(c *config.Config) { c.Sensor.Filter = 4 })
	err := r.app.BringUp(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errcode.ConfigRejected))
	assert.NotContains(t, r.sim.Trace.Events(), "backlight=1")
}

func TestBringUpSensorMissing(t *testing.T) {
	r := newRig(t, func(c *config.Config) { c.Address = bme680.AddressPrimary })
	err := r.app.BringUp(context.Background())
	assert.True(t, errors.Is(err, errcode.InitFailed))
	assert.True(t, errors.Is(err, bme680sim.ErrNack))
}

func TestBringUpCancelled(t *testing.T) {
	r := newRig(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := r.app.BringUp(ctx)
	assert.True(t, errors.Is(err, errcode.Canceled))
	assert.NotContains(t, r.sim.Trace.Events(), "backlight=1")
}

func TestStepScenario(t *testing.T) {
	r := newRig(t, nil)
	r.bringUp(t)
	ctx := context.Background()

	st, err := r.app.Step(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, st.Draws)
	assert.Zero(t, st.Erases)
	assert.Equal(t, "22.5", r.app.Slot(types.Temperature).Last)

	st, err = r.app.Step(ctx)
	require.NoError(t, err)
	assert.Zero(t, st.Draws)

	raw := bme680sim.DefaultRaw()
	raw.Temp = 489848
	r.sim.Chip.SetRaw(raw)
	st, err = r.app.Step(ctx)
	require.NoError(t, err)
	assert.Equal(t, "23.1", r.app.Slot(types.Temperature).Last)
	assert.GreaterOrEqual(t, st.Erases, 1)
	assert.Equal(t, 2*st.Changed, st.Draws)

	r.sim.Chip.Hold(true)
	st, err = r.app.Step(ctx)
	require.NoError(t, err)
	assert.Zero(t, st.Draws)
	assert.Equal(t, "23.1", r.app.Slot(types.Temperature).Last)
	assert.Equal(t, uint64(4), r.app.Cycles())
	assert.Equal(t, 4, r.sim.Chip.Triggers())
}

func TestStepWaitsProfileDuration(t *testing.T) {
	r := newRig(t, nil)
	r.bringUp(t)
	_, err := r.app.Step(context.Background())
	require.NoError(t, err)
	assert.Contains(t, r.sim.Trace.Events(), "wait:1.533s")
}

func TestAbortOnExhaustedRetries(t *testing.T) {
	r := newRig(t, nil)
	r.bringUp(t)
	r.sim.Chip.Fail(100, errors.New("bus stuck"))
	_, err := r.app.Step(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errcode.TriggerFailed))
}

func TestDegradeKeepsLastReading(t *testing.T) {
	r := newRig(t, func(c *config.Config) { c.OnFailure = config.Degrade })
	r.bringUp(t)
	ctx := context.Background()

	_, err := r.app.Step(ctx)
	require.NoError(t, err)

	r.sim.Chip.Fail(r.cfg.Retry.MaxRetries+1, errors.New("bus stuck"))
	st, err := r.app.Step(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Draws, "marker only")
	assert.True(t, r.app.MarkerShown())
	assert.Equal(t, types.LinkDegraded, r.app.Link())
	assert.Equal(t, "22.5", r.app.Slot(types.Temperature).Last)

	st, err = r.app.Step(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Draws, "marker cleared, values unchanged")
	assert.False(t, r.app.MarkerShown())
	assert.Equal(t, types.LinkUp, r.app.Link())
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := config.Default()
	cfg.Warmup = time.Second
	sim := platform.NewSim(bme680.AddressSecondary)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	intervals := 0
	a := New(sim, cfg, WithWait(func(ctx context.Context, d time.Duration) error {
		if d == cfg.Interval {
			intervals++
			if intervals == 3 {
				cancel()
			}
		}
		return ctx.Err()
	}))
	defer a.Close()
	require.NoError(t, a.BringUp(ctx))

	err := a.Run(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, errcode.Canceled, errcode.Of(err))
	assert.Equal(t, uint64(3), a.Cycles())
}

func TestStepBeforeBringUp(t *testing.T) {
	r := newRig(t, nil)
	_, err := r.app.Step(context.Background())
	assert.True(t, errors.Is(err, errcode.InitFailed))
	assert.Equal(t, sensor.Idle, r.app.State())
}

func TestDefaultSimRedrawsDriftingValues(t *testing.T) {
	cfg := config.Default()
	b, err := platform.Default(platform.Options{Sim: true, Drift: cfg.SimDrift})
	require.NoError(t, err)
	a := New(b, cfg, WithWait(func(ctx context.Context, _ time.Duration) error { return ctx.Err() }))
	defer a.Close()
	require.NoError(t, a.BringUp(context.Background()))

	first, err := a.Step(context.Background())
	require.NoError(t, err)
	assert.Zero(t, first.Erases)

	erases := 0
	for i := 0; i < 5; i++ {
		st, err := a.Step(context.Background())
		require.NoError(t, err)
		erases += st.Erases
	}
	assert.Greater(t, erases, 0)
	assert.NotEmpty(t, a.Slot(types.Temperature).Last)
}

func TestBringUpAndStepLogDiagnostics(t *testing.T) {
	var buf bytes.Buffer
	log.Logger = zerolog.New(&buf).Level(zerolog.DebugLevel)
	defer func() { log.Logger = zerolog.New(io.Discard) }()

	r := newRig(t, nil)
	r.bringUp(t)
	_, err := r.app.Step(context.Background())
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"bus":"i2c0"`)
	assert.Contains(t, out, `"res_heat_range":1`)
	assert.Contains(t, out, `"settle":`)
}

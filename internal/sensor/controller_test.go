package sensor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"

	"envmon-go/drivers/bme680"
	"envmon-go/drivers/bme680/bme680sim"
	"envmon-go/errcode"
	"envmon-go/types"
)

type fakeDriver struct {
	configErr  error
	modeErrs   []error // consumed one per SetMode call
	readErrs   []error
	cond       bme680.Condition
	data       bme680.Data
	modes      []bme680.Mode
	reads      int
	configured bool
	applied    bme680.Settings
}

func (f *fakeDriver) Configure(s bme680.Settings) error {
	f.configured = f.configErr == nil
	if f.configured {
		f.applied = s
	}
	return f.configErr
}

func (f *fakeDriver) ProfileDuration() time.Duration { return f.applied.ProfileDuration() }

func (f *fakeDriver) SetMode(m bme680.Mode) error {
	f.modes = append(f.modes, m)
	if len(f.modeErrs) > 0 {
		err := f.modeErrs[0]
		f.modeErrs = f.modeErrs[1:]
		return err
	}
	return nil
}

func (f *fakeDriver) Read() (bme680.Data, bme680.Condition, error) {
	f.reads++
	if len(f.readErrs) > 0 {
		err := f.readErrs[0]
		f.readErrs = f.readErrs[1:]
		if err != nil {
			return bme680.Data{}, bme680.NoNewData, err
		}
	}
	return f.data, f.cond, nil
}

type waits struct{ got []time.Duration }

func (w *waits) wait(ctx context.Context, d time.Duration) error {
	w.got = append(w.got, d)
	return ctx.Err()
}

func reading(centi int64) bme680.Data {
	return bme680.Data{
		Temperature:   physic.ZeroCelsius + physic.Temperature(centi)*10*physic.MilliCelsius,
		Pressure:      100040 * physic.Pascal,
		Humidity:      physic.RelativeHumidity(57642) * (physic.PercentRH / 1000),
		GasResistance: 499500 * physic.Ohm,
		GasValid:      true,
		HeaterStable:  true,
	}
}

func newCtl(drv Driver, w *waits) *Controller {
	return New(drv, WithWait(w.wait), WithRetry(RetryPolicy{MaxRetries: 3, Backoff: 50 * time.Millisecond}))
}

func TestStateProgression(t *testing.T) {
	drv := &fakeDriver{cond: bme680.NewData, data: reading(2250)}
	w := &waits{}
	c := newCtl(drv, w)
	ctx := context.Background()
	assert.Equal(t, Idle, c.State())

	s, err := c.Configure(ctx, bme680.DefaultSettings())
	require.NoError(t, err)
	assert.Equal(t, Configured, c.State())
	assert.Equal(t, 1533*time.Millisecond, s.ProfileDuration())

	m, err := s.Trigger(ctx)
	require.NoError(t, err)
	assert.Equal(t, Triggered, c.State())
	assert.Equal(t, []bme680.Mode{bme680.ModeForced}, drv.modes)

	cy, err := m.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, ReadReady, c.State())
	assert.True(t, cy.Fresh())
	assert.Equal(t, []time.Duration{1533 * time.Millisecond}, w.got, "waits the profile duration")

	// ReadReady feeds back into Triggered.
	_, err = s.Trigger(ctx)
	require.NoError(t, err)
	assert.Equal(t, Triggered, c.State())
}

func TestConfigureRejected(t *testing.T) {
	drv := &fakeDriver{configErr: errors.New("nack")}
	c := newCtl(drv, &waits{})
	_, err := c.Configure(context.Background(), bme680.DefaultSettings())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errcode.ConfigRejected))
	assert.Equal(t, Idle, c.State())
}

func TestConfigureOnce(t *testing.T) {
	c := newCtl(&fakeDriver{}, &waits{})
	_, err := c.Configure(context.Background(), bme680.DefaultSettings())
	require.NoError(t, err)
	_, err = c.Configure(context.Background(), bme680.DefaultSettings())
	assert.True(t, errors.Is(err, errcode.ConfigRejected))
}

func TestMeasurementReadOnce(t *testing.T) {
	drv := &fakeDriver{cond: bme680.NewData, data: reading(2250)}
	c := newCtl(drv, &waits{})
	s, err := c.Configure(context.Background(), bme680.DefaultSettings())
	require.NoError(t, err)
	m, err := s.Trigger(context.Background())
	require.NoError(t, err)
	_, err = m.Read(context.Background())
	require.NoError(t, err)

	_, err = m.Read(context.Background())
	assert.True(t, errors.Is(err, errcode.Consumed))
	assert.Equal(t, 1, drv.reads)
}

func TestSupersededMeasurement(t *testing.T) {
	drv := &fakeDriver{cond: bme680.NewData, data: reading(2250)}
	c := newCtl(drv, &waits{})
	s, _ := c.Configure(context.Background(), bme680.DefaultSettings())
	old, err := s.Trigger(context.Background())
	require.NoError(t, err)
	_, err = s.Trigger(context.Background())
	require.NoError(t, err)
	_, err = old.Read(context.Background())
	assert.True(t, errors.Is(err, errcode.Consumed))
}

func TestNoNewDataIsStale(t *testing.T) {
	drv := &fakeDriver{cond: bme680.NoNewData}
	c := newCtl(drv, &waits{})
	s, _ := c.Configure(context.Background(), bme680.DefaultSettings())
	m, err := s.Trigger(context.Background())
	require.NoError(t, err)
	cy, err := m.Read(context.Background())
	require.NoError(t, err)
	assert.False(t, cy.Fresh())
	assert.Equal(t, Stale, cy.Freshness)
}

func TestTriggerRetriesThenSucceeds(t *testing.T) {
	boom := errors.New("bus glitch")
	drv := &fakeDriver{modeErrs: []error{boom, boom}}
	w := &waits{}
	c := newCtl(drv, w)
	s, _ := c.Configure(context.Background(), bme680.DefaultSettings())
	_, err := s.Trigger(context.Background())
	require.NoError(t, err)
	assert.Len(t, drv.modes, 3)
	assert.Equal(t, []time.Duration{50 * time.Millisecond, 50 * time.Millisecond}, w.got)
}

func TestTriggerBudgetExhausted(t *testing.T) {
	boom := errors.New("bus glitch")
	drv := &fakeDriver{modeErrs: []error{boom, boom, boom, boom, boom}}
	c := newCtl(drv, &waits{})
	s, _ := c.Configure(context.Background(), bme680.DefaultSettings())
	_, err := s.Trigger(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errcode.TriggerFailed))
	assert.True(t, errors.Is(err, boom))
	assert.Len(t, drv.modes, 4)
	assert.Equal(t, Configured, c.State())
}

func TestReadBudgetExhausted(t *testing.T) {
	boom := errors.New("nack")
	drv := &fakeDriver{readErrs: []error{boom, boom, boom, boom}}
	c := newCtl(drv, &waits{})
	s, _ := c.Configure(context.Background(), bme680.DefaultSettings())
	m, err := s.Trigger(context.Background())
	require.NoError(t, err)
	_, err = m.Read(context.Background())
	assert.True(t, errors.Is(err, errcode.ReadFailed))
	assert.Equal(t, 4, drv.reads)
}

func TestReadCancelledDuringSettle(t *testing.T) {
	drv := &fakeDriver{cond: bme680.NewData}
	c := newCtl(drv, &waits{})
	s, _ := c.Configure(context.Background(), bme680.DefaultSettings())
	ctx, cancel := context.WithCancel(context.Background())
	m, err := s.Trigger(ctx)
	require.NoError(t, err)
	cancel()
	_, err = m.Read(ctx)
	assert.True(t, errors.Is(err, errcode.Canceled))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Zero(t, drv.reads)
}

func TestCycleText(t *testing.T) {
	cy := cycleFrom(reading(2250))
	assert.Equal(t, "22.5", cy.Text(types.Temperature))
	assert.Equal(t, "1000.4", cy.Text(types.Pressure))
	assert.Equal(t, "57.642", cy.Text(types.Humidity))
	assert.Equal(t, "499500", cy.Text(types.GasResistance))
	assert.Equal(t, "23.1", cycleFrom(reading(2310)).Text(types.Temperature))
	assert.Equal(t, "-3.05", cycleFrom(reading(-305)).Text(types.Temperature))
}

func TestSessionProfileComesFromDriver(t *testing.T) {
	chip := bme680sim.New(bme680.AddressSecondary, bme680sim.DefaultCalibration())
	dev := bme680.New(chip)
	dev.PollInterval = 0
	require.NoError(t, dev.Init())

	settings := bme680.DefaultSettings()
	settings.RunGas = false
	s, err := New(&dev).Configure(context.Background(), settings)
	require.NoError(t, err)
	assert.Equal(t, 33*time.Millisecond, s.ProfileDuration())
	assert.Equal(t, dev.ProfileDuration(), s.ProfileDuration())
}

func TestAgainstSimulatedChip(t *testing.T) {
	chip := bme680sim.New(bme680.AddressSecondary, bme680sim.DefaultCalibration())
	dev := bme680.New(chip)
	dev.PollInterval = 0
	require.NoError(t, dev.Init())

	c := New(&dev, WithWait(func(ctx context.Context, _ time.Duration) error { return ctx.Err() }))
	settings := bme680.DefaultSettings()
	settings.TempOffsetCenti = 0
	s, err := c.Configure(context.Background(), settings)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		m, err := s.Trigger(context.Background())
		require.NoError(t, err)
		cy, err := m.Read(context.Background())
		require.NoError(t, err)
		require.True(t, cy.Fresh())
		assert.Equal(t, "22.5", cy.Text(types.Temperature))
	}
	assert.Equal(t, 3, chip.Triggers())
}

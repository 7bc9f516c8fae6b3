// Package sensor drives a forced-mode environmental sensor through its duty
// cycle. The cycle is encoded in types: Configure yields a Session, a
// Session's Trigger yields a Measurement, and only a Measurement can be read,
// once. Reading without re-triggering is therefore impossible.
package sensor

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"envmon-go/drivers/bme680"
	"envmon-go/errcode"
	"envmon-go/x/timex"
)

// Driver is the chip surface the controller needs. *bme680.Device satisfies it.
type Driver interface {
	Configure(bme680.Settings) error
	SetMode(bme680.Mode) error
	Read() (bme680.Data, bme680.Condition, error)
	// ProfileDuration of the settings last applied by Configure.
	ProfileDuration() time.Duration
}

// RetryPolicy bounds retries of transient trigger/read failures.
type RetryPolicy struct {
	MaxRetries int
	Backoff    time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 3, Backoff: 50 * time.Millisecond}
}

// WaitFunc suspends for d or until ctx is done.
type WaitFunc func(ctx context.Context, d time.Duration) error

type Option func(*Controller)

func WithRetry(p RetryPolicy) Option { return func(c *Controller) { c.retry = p } }

// WithWait replaces the settling/backoff sleep, mainly for tests.
func WithWait(w WaitFunc) Option { return func(c *Controller) { c.wait = w } }

// Controller owns the sensor for the process lifetime. It is not safe for
// concurrent use; a single control loop drives it.
type Controller struct {
	drv     Driver
	retry   RetryPolicy
	wait    WaitFunc
	state   State
	session *Session
}

func New(drv Driver, opts ...Option) *Controller {
	c := &Controller{drv: drv, retry: DefaultRetryPolicy(), wait: timex.Sleep}
	for _, o := range opts {
		o(c)
	}
	if c.retry.MaxRetries < 0 {
		c.retry.MaxRetries = 0
	}
	return c
}

func (c *Controller) State() State { return c.state }

func (c *Controller) setState(s State) {
	log.Trace().Stringer("from", c.state).Stringer("to", s).Msg("sensor state")
	c.state = s
}

// Configure applies the measurement profile once. A second call is rejected.
func (c *Controller) Configure(ctx context.Context, s bme680.Settings) (*Session, error) {
	if c.session != nil {
		return nil, &errcode.E{C: errcode.ConfigRejected, Op: "sensor.configure", Msg: "already configured"}
	}
	if err := ctx.Err(); err != nil {
		return nil, errcode.Wrap(errcode.Canceled, "sensor.configure", err)
	}
	c.setState(Configuring)
	if err := c.drv.Configure(s); err != nil {
		c.setState(Idle)
		return nil, errcode.Wrap(errcode.ConfigRejected, "sensor.configure", err)
	}
	c.setState(Configured)
	c.session = &Session{c: c, settings: s, profile: c.drv.ProfileDuration()}
	return c.session, nil
}

// attempt runs op up to MaxRetries+1 times with Backoff between tries.
func (c *Controller) attempt(ctx context.Context, name string, op func() error) error {
	for n := 0; ; n++ {
		err := op()
		if err == nil {
			return nil
		}
		if n >= c.retry.MaxRetries {
			return err
		}
		log.Warn().Err(err).Str("op", name).Int("attempt", n+1).Msg("sensor retry")
		if werr := c.wait(ctx, c.retry.Backoff); werr != nil {
			return werr
		}
	}
}

// Session is the applied configuration. It is never mutated.
type Session struct {
	c        *Controller
	settings bme680.Settings
	profile  time.Duration
	seq      uint64
}

func (s *Session) Settings() bme680.Settings { return s.settings }

// ProfileDuration is the settling wait applied by Measurement.Read.
func (s *Session) ProfileDuration() time.Duration { return s.profile }

// Trigger starts one forced measurement. Any earlier unread Measurement is
// superseded.
func (s *Session) Trigger(ctx context.Context) (*Measurement, error) {
	c := s.c
	if err := ctx.Err(); err != nil {
		return nil, errcode.Wrap(errcode.Canceled, "sensor.trigger", err)
	}
	err := c.attempt(ctx, "trigger", func() error { return c.drv.SetMode(bme680.ModeForced) })
	if err != nil {
		c.setState(Configured)
		if ctx.Err() != nil {
			return nil, errcode.Wrap(errcode.Canceled, "sensor.trigger", err)
		}
		return nil, errcode.Wrap(errcode.TriggerFailed, "sensor.trigger", err)
	}
	s.seq++
	c.setState(Triggered)
	return &Measurement{s: s, seq: s.seq, at: time.Now()}, nil
}

// Measurement is a triggered, not yet read, forced measurement.
type Measurement struct {
	s    *Session
	seq  uint64
	at   time.Time
	done bool
}

// TriggeredAt is when the chip was put in forced mode.
func (m *Measurement) TriggeredAt() time.Time { return m.at }

// Read waits out the profile duration and fetches the result. A chip that
// reports no new data yields a Stale cycle, not an error.
func (m *Measurement) Read(ctx context.Context) (Cycle, error) {
	s, c := m.s, m.s.c
	if m.done || m.seq != s.seq {
		return Cycle{}, &errcode.E{C: errcode.Consumed, Op: "sensor.read"}
	}
	m.done = true

	c.setState(Settling)
	if err := c.wait(ctx, s.profile); err != nil {
		c.setState(Configured)
		return Cycle{}, errcode.Wrap(errcode.Canceled, "sensor.read", err)
	}

	var (
		data bme680.Data
		cond bme680.Condition
	)
	err := c.attempt(ctx, "read", func() error {
		var err error
		data, cond, err = c.drv.Read()
		return err
	})
	if err != nil {
		c.setState(Configured)
		if ctx.Err() != nil {
			return Cycle{}, errcode.Wrap(errcode.Canceled, "sensor.read", err)
		}
		return Cycle{}, errcode.Wrap(errcode.ReadFailed, "sensor.read", err)
	}
	c.setState(ReadReady)
	if cond != bme680.NewData {
		return Cycle{Freshness: Stale}, nil
	}
	return cycleFrom(data), nil
}

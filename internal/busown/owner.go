// Package busown gives an I2C bus a single owning goroutine. Clients post
// transactions to it and get drivers.I2C back, so several tasks can share a
// bus whose transport is not safe for concurrent use.
package busown

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"tinygo.org/x/drivers"

	"envmon-go/errcode"
	"envmon-go/x/timex"
)

var ErrClosed = errors.New("busown: owner closed")

// request posted to the worker
type request struct {
	addr uint16
	w, r []byte
	done chan error // buffered(1); worker replies best-effort

	// set by a client that stopped waiting; the worker skips it
	abandoned atomic.Bool
}

// Owner hosts the worker goroutine for one bus.
type Owner struct {
	name string
	bus  drivers.I2C
	reqs chan *request
	quit chan struct{}
	once sync.Once
}

// New starts the worker. depth bounds queued transactions.
func New(name string, bus drivers.I2C, depth int) *Owner {
	if depth <= 0 {
		depth = 16
	}
	o := &Owner{
		name: name,
		bus:  bus,
		reqs: make(chan *request, depth),
		quit: make(chan struct{}),
	}
	go o.loop()
	return o
}

func (o *Owner) Name() string { return o.name }

func (o *Owner) loop() {
	for {
		select {
		case req := <-o.reqs:
			if req.abandoned.Load() {
				continue
			}
			err := o.bus.Tx(req.addr, req.w, req.r)
			// best-effort reply; do not block the worker
			select {
			case req.done <- err:
			default:
			}
		case <-o.quit:
			return
		}
	}
}

// Close stops the worker. Pending and later transactions fail with ErrClosed.
func (o *Owner) Close() { o.once.Do(func() { close(o.quit) }) }

// Client returns a drivers.I2C whose calls go through the owner. A positive
// timeout bounds both enqueueing (errcode.Busy) and completion
// (errcode.Timeout). A transaction that timed out while still queued is
// dropped; one already on the bus runs to completion.
func (o *Owner) Client(timeout time.Duration) drivers.I2C {
	return &client{o: o, timeout: timeout}
}

type client struct {
	o       *Owner
	timeout time.Duration // 0 => no deadline
}

var _ drivers.I2C = (*client)(nil)

func (c *client) Tx(addr uint16, w, r []byte) error {
	req := &request{addr: addr, w: w, r: r, done: make(chan error, 1)}

	var (
		t        *time.Timer
		deadline <-chan time.Time
	)
	if c.timeout > 0 {
		t = time.NewTimer(c.timeout)
		defer t.Stop()
		deadline = t.C
	}

	select {
	case c.o.reqs <- req:
	case <-c.o.quit:
		return ErrClosed
	case <-deadline:
		return errcode.Busy
	}

	if t != nil {
		timex.ResetTimer(t, c.timeout)
	}
	select {
	case err := <-req.done:
		return err
	case <-c.o.quit:
		return ErrClosed
	case <-deadline:
		req.abandoned.Store(true)
		return errcode.Timeout
	}
}

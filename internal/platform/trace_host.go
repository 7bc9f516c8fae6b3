//go:build !(rp2040 || rp2350)

package platform

import (
	"sync"

	"envmon-go/x/strconvx"
)

// Trace records hardware events in order.
type Trace struct {
	mu     sync.Mutex
	events []string
}

func (t *Trace) Add(ev string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.events = append(t.events, ev)
	t.mu.Unlock()
}

func (t *Trace) Events() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.events...)
}

// FakePin is a host output pin that records every level change.
type FakePin struct {
	mu      sync.RWMutex
	name    string
	number  int
	level   bool
	modeOut bool
	trace   *Trace
}

func NewFakePin(name string, number int, t *Trace) *FakePin {
	return &FakePin{name: name, number: number, trace: t}
}

func level(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func (p *FakePin) ConfigureOutput(initial bool) error {
	p.mu.Lock()
	p.modeOut = true
	p.level = initial
	p.mu.Unlock()
	p.trace.Add(p.name + "=" + level(initial))
	return nil
}

func (p *FakePin) Set(v bool) {
	p.mu.Lock()
	p.level = v
	p.mu.Unlock()
	p.trace.Add(p.name + "=" + level(v))
}

func (p *FakePin) Get() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.level
}

func (p *FakePin) IsOutput() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.modeOut
}

func (p *FakePin) String() string { return p.name + "(GP" + strconvx.Itoa(p.number) + ")" }

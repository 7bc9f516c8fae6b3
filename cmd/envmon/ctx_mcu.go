//go:build rp2040 || rp2350

package main

import (
	"context"
	"time"
)

// Let the console enumerate before the first log line.
const bootDelay = 1500 * time.Millisecond

// There is no shutdown signal on the MCU; the loop runs until power-off.
func rootContext() (context.Context, context.CancelFunc) {
	return context.WithCancel(context.Background())
}

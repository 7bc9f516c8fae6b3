//go:build !linux && !(rp2040 || rp2350)

package platform

// Default returns the simulator; there is no hardware path on this OS.
func Default(o Options) (Board, error) {
	return simFor(o), nil
}

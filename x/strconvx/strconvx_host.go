//go:build !(rp2040 || rp2350)

package strconvx

import "strconv"

// Host builds delegate to strconv; signatures match.

func Itoa(i int) string                  { return strconv.Itoa(i) }
func FormatInt(i int64, base int) string { return strconv.FormatInt(i, base) }
func ParseUint(s string, base, bitSize int) (uint64, error) {
	return strconv.ParseUint(s, base, bitSize)
}

package strconvx

// FormatFixed renders v / 10^scale in decimal without floating point.
// Trailing fractional zeros are dropped, and the point with them when
// nothing is left: FormatFixed(2250, 2) == "22.5", FormatFixed(2300, 2) == "23".
func FormatFixed(v int64, scale int) string {
	if scale <= 0 {
		return FormatInt(v, 10)
	}
	neg := v < 0
	u := uint64(v)
	if neg {
		u = uint64(-v)
	}
	pow := uint64(1)
	for i := 0; i < scale; i++ {
		pow *= 10
	}
	whole, frac := u/pow, u%pow

	var buf [40]byte
	n := 0
	if frac != 0 {
		digits := scale
		for frac%10 == 0 {
			frac /= 10
			digits--
		}
		for i := 0; i < digits; i++ {
			buf[len(buf)-1-n] = byte('0' + frac%10)
			frac /= 10
			n++
		}
		buf[len(buf)-1-n] = '.'
		n++
	}
	if whole == 0 {
		buf[len(buf)-1-n] = '0'
		n++
	}
	for whole > 0 {
		buf[len(buf)-1-n] = byte('0' + whole%10)
		whole /= 10
		n++
	}
	if neg {
		buf[len(buf)-1-n] = '-'
		n++
	}
	return string(buf[len(buf)-n:])
}

package bme680

import "envmon-go/x/mathx"

// Integer compensation, following the Bosch reference API. All results are
// fixed-point: centi-degrees C, pascal, milli-percent RH, ohms.

// offsetFine converts a temperature offset in centi-degrees to t_fine units.
func offsetFine(centi int32) int64 {
	if centi == 0 {
		return 0
	}
	v := int64(mathx.Abs(centi))
	return int64(mathx.Sign(centi)) * (((v << 8) - 128) / 5)
}

// tempFine returns t_fine for a raw temperature sample.
func (c *Calibration) tempFine(adc uint32, offsetCenti int32) int64 {
	var1 := int64(adc>>3) - int64(c.T1)<<1
	var2 := (var1 * int64(c.T2)) >> 11
	var3 := ((var1 >> 1) * (var1 >> 1)) >> 12
	var3 = (var3 * (int64(c.T3) << 4)) >> 14
	return var2 + var3 + offsetFine(offsetCenti)
}

func centiFromFine(tFine int64) int32 { return int32((tFine*5 + 128) >> 8) }

func (c *Calibration) pressure(adc uint32, tFine int64) uint32 {
	var1 := (tFine >> 1) - 64000
	var2 := ((((var1 >> 2) * (var1 >> 2)) >> 11) * int64(c.P6)) >> 2
	var2 += (var1 * int64(c.P5)) << 1
	var2 = (var2 >> 2) + int64(c.P4)<<16
	var1 = (((((var1 >> 2) * (var1 >> 2)) >> 13) * (int64(c.P3) << 5)) >> 3) + ((int64(c.P2) * var1) >> 1)
	var1 >>= 18
	var1 = ((32768 + var1) * int64(c.P1)) >> 15
	if var1 == 0 {
		return 0
	}
	pc := (1048576 - int64(adc) - (var2 >> 12)) * 3125
	if pc >= 1<<30 {
		pc = (pc / var1) << 1
	} else {
		pc = (pc << 1) / var1
	}
	var1 = (int64(c.P9) * (((pc >> 3) * (pc >> 3)) >> 13)) >> 12
	var2 = ((pc >> 2) * int64(c.P8)) >> 13
	var3 := ((pc >> 8) * (pc >> 8) * (pc >> 8) * int64(c.P10)) >> 17
	pc += (var1 + var2 + var3 + int64(c.P7)<<7) >> 4
	if pc < 0 {
		return 0
	}
	return uint32(pc)
}

func (c *Calibration) humidity(adc uint16, tFine int64) uint32 {
	ts := (tFine*5 + 128) >> 8
	var1 := int64(adc) - int64(c.H1)*16 - (((ts * int64(c.H3)) / 100) >> 1)
	var2 := (int64(c.H2) * (((ts * int64(c.H4)) / 100) +
		(((ts * ((ts * int64(c.H5)) / 100)) >> 6) / 100) + (1 << 14))) >> 10
	var3 := var1 * var2
	var4 := ((int64(c.H6) << 7) + (ts*int64(c.H7))/100) >> 4
	var5 := ((var3 >> 14) * (var3 >> 14)) >> 10
	var6 := (var4 * var5) >> 1
	hum := (((var3 + var6) >> 10) * 1000) >> 12
	return uint32(mathx.Clamp(hum, 0, 100000))
}

var gasLookup1 = [16]int64{
	2147483647, 2147483647, 2147483647, 2147483647,
	2147483647, 2126008810, 2147483647, 2130303777,
	2147483647, 2147483647, 2143188679, 2136746228,
	2147483647, 2126008810, 2147483647, 2147483647,
}

var gasLookup2 = [16]int64{
	4096000000, 2048000000, 1024000000, 512000000,
	255744255, 127110228, 64000000, 32258064,
	16016016, 8000000, 4000000, 2000000,
	1000000, 500000, 250000, 125000,
}

func (c *Calibration) gasResistance(adc uint16, gasRange uint8) uint32 {
	r := gasRange & gasRangeMask
	var1 := ((1340 + 5*int64(c.RangeSwErr)) * gasLookup1[r]) >> 16
	var2 := (int64(adc) << 15) - 16777216 + var1
	if var2 == 0 {
		return 0
	}
	var3 := (gasLookup2[r] * var1) >> 9
	return uint32((var3 + (var2 >> 1)) / var2)
}

// heaterResistance returns the res_heat_0 code for a target in °C.
func (c *Calibration) heaterResistance(target uint16, ambient int8) uint8 {
	temp := int64(mathx.Clamp(target, 0, 400))
	var1 := ((int64(ambient) * int64(c.GH3)) / 1000) * 256
	var2 := (int64(c.GH1) + 784) * (((((int64(c.GH2) + 154009) * temp * 5) / 100) + 3276800) / 10)
	var3 := var1 + var2/2
	var4 := var3 / (int64(c.ResHeatRange) + 4)
	var5 := 131*int64(c.ResHeatVal) + 65536
	x100 := ((var4 / var5) - 250) * 34
	return uint8((x100 + 50) / 100)
}

package bme680

// Calibration holds the factory trimming parameters read once at Init.
type Calibration struct {
	T1 uint16
	T2 int16
	T3 int8

	P1  uint16
	P2  int16
	P3  int8
	P4  int16
	P5  int16
	P6  int8
	P7  int8
	P8  int16
	P9  int16
	P10 uint8

	H1 uint16
	H2 uint16
	H3 int8
	H4 int8
	H5 int8
	H6 uint8
	H7 int8

	GH1 int8
	GH2 int16
	GH3 int8

	ResHeatRange uint8
	ResHeatVal   int8
	RangeSwErr   int8
}

func le16(lsb, msb byte) uint16 { return uint16(msb)<<8 | uint16(lsb) }

// parseCalibration decodes coeff1 (0x89..) followed by coeff2 (0xE1..).
func parseCalibration(c []byte) Calibration {
	return Calibration{
		T1: le16(c[33], c[34]),
		T2: int16(le16(c[1], c[2])),
		T3: int8(c[3]),

		P1:  le16(c[5], c[6]),
		P2:  int16(le16(c[7], c[8])),
		P3:  int8(c[9]),
		P4:  int16(le16(c[11], c[12])),
		P5:  int16(le16(c[13], c[14])),
		P7:  int8(c[15]),
		P6:  int8(c[16]),
		P8:  int16(le16(c[19], c[20])),
		P9:  int16(le16(c[21], c[22])),
		P10: c[23],

		H1: uint16(c[27])<<4 | uint16(c[26]&0x0F),
		H2: uint16(c[25])<<4 | uint16(c[26]>>4),
		H3: int8(c[28]),
		H4: int8(c[29]),
		H5: int8(c[30]),
		H6: c[31],
		H7: int8(c[32]),

		GH2: int16(le16(c[35], c[36])),
		GH1: int8(c[37]),
		GH3: int8(c[38]),
	}
}

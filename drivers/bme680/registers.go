package bme680

// I2C addresses. SDO low selects the primary, SDO high the secondary.
const (
	AddressPrimary   = 0x76
	AddressSecondary = 0x77
)

const chipID = 0x61

// Register map (BME680 datasheet, section 5.2).
const (
	regResHeatVal   = 0x00
	regResHeatRange = 0x02
	regRangeSwErr   = 0x04
	regFieldStatus  = 0x1D // first byte of the 15-byte field block
	regResHeat0     = 0x5A
	regGasWait0     = 0x64
	regCtrlGas0     = 0x70
	regCtrlGas1     = 0x71
	regCtrlHum      = 0x72
	regCtrlMeas     = 0x74
	regConfig       = 0x75
	regCoeff1       = 0x89
	regChipID       = 0xD0
	regSoftReset    = 0xE0
	regCoeff2       = 0xE1
)

const (
	cmdSoftReset = 0xB6

	fieldLen  = 15
	coeff1Len = 25
	coeff2Len = 16

	modeMask      = 0x03
	osrsTPos      = 5
	osrsPPos      = 2
	osrsHMask     = 0x07
	filterPos     = 2
	filterMask    = 0x1C
	heatOffMask   = 0x08
	runGasBit     = 0x10
	nbConvMask    = 0x0F
	heatRangeMask = 0x30
	rangeErrMask  = 0xF0

	statusNewData = 0x80
	gasValidBit   = 0x20
	heatStabBit   = 0x10
	gasRangeMask  = 0x0F
)

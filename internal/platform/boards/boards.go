package boards

// Wiring maps panel, sensor and console signals to GPIO numbers. It holds
// wiring choices only; operating parameters live with the target.
type Wiring struct {
	Name string

	Enable, Backlight int
	Reset, CS, DC     int
	SCK, MOSI         int

	SDA, SCL int

	UartTX, UartRX int
}

// PicoDisplay is a Pico with a 1.14" ST7789 breakout on SPI0 and the
// BME680 on I2C0.
var PicoDisplay = Wiring{
	Name:   "pico_display",
	Enable: 7, Backlight: 20,
	Reset: 21, CS: 17, DC: 16,
	SCK: 18, MOSI: 19,
	SDA: 4, SCL: 5,
	UartTX: 0, UartRX: 1,
}

// PiHat is a Raspberry Pi with the same breakout on its header. The sensor
// goes through /dev/i2c-1.
var PiHat = Wiring{
	Name:   "pi_hat",
	Enable: 7, Backlight: 18,
	Reset: 27, CS: 8, DC: 25,
	SCK: 11, MOSI: 10,
	SDA: 2, SCL: 3,
	UartTX: 14, UartRX: 15,
}

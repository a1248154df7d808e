package hal

// PinInfo describes a single GPIO-capable header pin on the board.
type PinInfo struct {
	Physical int
	BCM      int
	Name     string
}

// RaspberryPiPinMap is the 40-pin header layout, keyed by BCM (Broadcom)
// number — the numbering scheme go-rpio and the rest of this package use.
// Pins reserved for I2C1/SPI0/UART0 on a stock image are included since they
// are still usable as plain digital GPIO when those buses are disabled in
// /boot/config.txt, which is a deployment decision, not one this package
// makes.
var RaspberryPiPinMap = map[int]*PinInfo{
	2:  {Physical: 3, BCM: 2, Name: "GPIO2 (SDA1)"},
	3:  {Physical: 5, BCM: 3, Name: "GPIO3 (SCL1)"},
	4:  {Physical: 7, BCM: 4, Name: "GPIO4 (GPCLK0)"},
	14: {Physical: 8, BCM: 14, Name: "GPIO14 (TXD0)"},
	15: {Physical: 10, BCM: 15, Name: "GPIO15 (RXD0)"},
	17: {Physical: 11, BCM: 17, Name: "GPIO17"},
	18: {Physical: 12, BCM: 18, Name: "GPIO18"},
	27: {Physical: 13, BCM: 27, Name: "GPIO27"},
	22: {Physical: 15, BCM: 22, Name: "GPIO22"},
	23: {Physical: 16, BCM: 23, Name: "GPIO23"},
	24: {Physical: 18, BCM: 24, Name: "GPIO24"},
	10: {Physical: 19, BCM: 10, Name: "GPIO10 (MOSI)"},
	9:  {Physical: 21, BCM: 9, Name: "GPIO9 (MISO)"},
	25: {Physical: 22, BCM: 25, Name: "GPIO25"},
	11: {Physical: 23, BCM: 11, Name: "GPIO11 (SCLK)"},
	8:  {Physical: 24, BCM: 8, Name: "GPIO8 (CE0)"},
	7:  {Physical: 26, BCM: 7, Name: "GPIO7 (CE1)"},
	5:  {Physical: 29, BCM: 5, Name: "GPIO5"},
	6:  {Physical: 31, BCM: 6, Name: "GPIO6"},
	12: {Physical: 32, BCM: 12, Name: "GPIO12"},
	13: {Physical: 33, BCM: 13, Name: "GPIO13"},
	19: {Physical: 35, BCM: 19, Name: "GPIO19"},
	16: {Physical: 36, BCM: 16, Name: "GPIO16"},
	26: {Physical: 37, BCM: 26, Name: "GPIO26"},
	20: {Physical: 38, BCM: 20, Name: "GPIO20"},
	21: {Physical: 40, BCM: 21, Name: "GPIO21"},
}

// IsValidPin reports whether bcm is a header pin this board exposes as GPIO.
// The pin oracle consults this before touching a pin, per spec §4.1.
func IsValidPin(bcm int) bool {
	_, ok := RaspberryPiPinMap[bcm]
	return ok
}

// GetPinInfo looks up header metadata by BCM number.
func GetPinInfo(bcm int) *PinInfo {
	return RaspberryPiPinMap[bcm]
}

// ValidPins returns every BCM pin number this board exposes as GPIO.
func ValidPins() []int {
	pins := make([]int, 0, len(RaspberryPiPinMap))
	for bcm := range RaspberryPiPinMap {
		pins = append(pins, bcm)
	}
	return pins
}

package hal

import (
	"fmt"
	"sync"
	"time"

	"github.com/stianeikeland/go-rpio/v4"
)

// RaspberryPiHAL is the real hardware backend, wrapping go-rpio. Replaced
// by a build-tag stub on non-Linux platforms (stub/rpio) so the module
// builds everywhere; only functions on arm/arm64 Linux at runtime.
type RaspberryPiHAL struct {
	gpio *rpioGPIO
	info BoardInfo
}

// NewRaspberryPiHAL opens the GPIO character device and detects the board.
func NewRaspberryPiHAL() (*RaspberryPiHAL, error) {
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("failed to open GPIO: %w", err)
	}

	info, err := DetectBoard()
	if err != nil {
		// Board detection is best-effort; proceed with an unknown board
		// rather than fail initialization over it.
		info = &BoardInfo{Model: BoardUnknown, Name: "Unknown", NumGPIO: 40}
	}

	return &RaspberryPiHAL{
		gpio: &rpioGPIO{pins: make(map[int]*rpioPinState)},
		info: *info,
	}, nil
}

func (h *RaspberryPiHAL) GPIO() GPIOProvider { return h.gpio }
func (h *RaspberryPiHAL) Info() BoardInfo    { return h.info }
func (h *RaspberryPiHAL) Close() error       { return rpio.Close() }

type rpioPinState struct {
	mode PinMode
	pin  rpio.Pin
}

// rpioGPIO is the pin oracle backend for a real Raspberry Pi.
type rpioGPIO struct {
	mu      sync.Mutex
	pins    map[int]*rpioPinState
	lockout bool
}

func (g *rpioGPIO) SetMode(pin int, mode PinMode) error {
	if !IsValidPin(pin) {
		return fmt.Errorf("pin %d not in platform-approved set", pin)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	p := rpio.Pin(pin)
	switch mode {
	case Input:
		p.Input()
	case Output:
		p.Output()
	default:
		return fmt.Errorf("unsupported pin mode: %v", mode)
	}
	g.pins[pin] = &rpioPinState{mode: mode, pin: p}
	return nil
}

func (g *rpioGPIO) SetPull(pin int, pull PullMode) error {
	if !IsValidPin(pin) {
		return fmt.Errorf("pin %d not in platform-approved set", pin)
	}

	g.mu.Lock()
	state, ok := g.pins[pin]
	g.mu.Unlock()
	if !ok {
		return fmt.Errorf("pin %d not initialized", pin)
	}

	switch pull {
	case PullUp:
		state.pin.PullUp()
	case PullDown:
		state.pin.PullDown()
	case PullNone:
		state.pin.PullOff()
	}
	return nil
}

func (g *rpioGPIO) DigitalWrite(pin int, value bool) error {
	g.mu.Lock()
	state, ok := g.pins[pin]
	lockout := g.lockout
	g.mu.Unlock()

	if !ok {
		return fmt.Errorf("pin %d not initialized", pin)
	}
	if lockout {
		return nil
	}

	if value {
		state.pin.High()
	} else {
		state.pin.Low()
	}
	return nil
}

func (g *rpioGPIO) DigitalRead(pin int) (bool, error) {
	g.mu.Lock()
	state, ok := g.pins[pin]
	g.mu.Unlock()

	if !ok {
		return false, fmt.Errorf("pin %d not initialized", pin)
	}
	return state.pin.Read() == rpio.High, nil
}

func (g *rpioGPIO) Pulse(pin int, width time.Duration) error {
	if err := g.DigitalWrite(pin, true); err != nil {
		return err
	}
	if width > 0 {
		time.Sleep(width)
	}
	return g.DigitalWrite(pin, false)
}

func (g *rpioGPIO) SetOutputLockout(enabled bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lockout = enabled
}

func (g *rpioGPIO) ActivePins() map[int]PinMode {
	g.mu.Lock()
	defer g.mu.Unlock()
	active := make(map[int]PinMode, len(g.pins))
	for pin, state := range g.pins {
		active[pin] = state.mode
	}
	return active
}

func (g *rpioGPIO) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pins = make(map[int]*rpioPinState)
	return nil
}

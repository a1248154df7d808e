package hal

import (
	"fmt"
	"sync"
	"time"
)

// MockHAL is the simulator HAL used on non-target platforms and in tests.
// Reads and writes are inert — they record state but never touch hardware.
type MockHAL struct {
	gpio *MockGPIO
	info BoardInfo
}

// NewMockHAL creates a MockHAL.
func NewMockHAL() *MockHAL {
	return &MockHAL{
		gpio: &MockGPIO{pins: make(map[int]*MockPin)},
		info: BoardInfo{
			Model:    BoardUnknown,
			Name:     "Mock Board",
			NumGPIO:  40,
			CPUCores: 4,
			RAMSize:  1024,
		},
	}
}

func (m *MockHAL) GPIO() GPIOProvider { return m.gpio }
func (m *MockHAL) Info() BoardInfo    { return m.info }
func (m *MockHAL) Close() error       { return nil }

// MockPin is the simulated state of one pin.
type MockPin struct {
	mode  PinMode
	pull  PullMode
	value bool
}

// MockGPIO is the simulated pin oracle backend.
type MockGPIO struct {
	pins    map[int]*MockPin
	mu      sync.RWMutex
	lockout bool
}

func (g *MockGPIO) SetMode(pin int, mode PinMode) error {
	if !IsValidPin(pin) {
		return fmt.Errorf("pin %d not in platform-approved set", pin)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pins[pin] == nil {
		g.pins[pin] = &MockPin{}
	}
	g.pins[pin].mode = mode
	return nil
}

func (g *MockGPIO) SetPull(pin int, pull PullMode) error {
	if !IsValidPin(pin) {
		return fmt.Errorf("pin %d not in platform-approved set", pin)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pins[pin] == nil {
		g.pins[pin] = &MockPin{}
	}
	g.pins[pin].pull = pull
	return nil
}

func (g *MockGPIO) DigitalRead(pin int) (bool, error) {
	if !IsValidPin(pin) {
		return false, fmt.Errorf("pin %d not in platform-approved set", pin)
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.pins[pin] == nil {
		return false, fmt.Errorf("pin %d not initialized", pin)
	}
	return g.pins[pin].value, nil
}

func (g *MockGPIO) DigitalWrite(pin int, value bool) error {
	if !IsValidPin(pin) {
		return fmt.Errorf("pin %d not in platform-approved set", pin)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.lockout {
		return nil
	}
	if g.pins[pin] == nil {
		g.pins[pin] = &MockPin{}
	}
	g.pins[pin].value = value
	return nil
}

func (g *MockGPIO) Pulse(pin int, width time.Duration) error {
	if err := g.DigitalWrite(pin, true); err != nil {
		return err
	}
	if width > 0 {
		time.Sleep(width)
	}
	return g.DigitalWrite(pin, false)
}

func (g *MockGPIO) SetOutputLockout(enabled bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lockout = enabled
}

func (g *MockGPIO) ActivePins() map[int]PinMode {
	g.mu.RLock()
	defer g.mu.RUnlock()
	active := make(map[int]PinMode, len(g.pins))
	for pin, state := range g.pins {
		active[pin] = state.mode
	}
	return active
}

func (g *MockGPIO) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pins = make(map[int]*MockPin)
	return nil
}

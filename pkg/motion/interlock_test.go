package motion

import (
	"testing"

	"github.com/nikitakuklev/stepperd/internal/hal"
)

func newTestDescriptor(uuid string) *Descriptor {
	return &Descriptor{
		UUID:              uuid,
		ShortName:         "m_" + uuid,
		FriendlyName:      "Motor " + uuid,
		PinDirection:      17,
		PinStep:           27,
		PinEnable:         22,
		PinSleep:          10,
		PinLimitUp:        5,
		PinLimitDown:      6,
		LimitUpHitLevel:   true,
		LimitDownHitLevel: true,
		StepSize:          1,
		Jerk:              100,
		Velocity:          2000,
		Acceleration:      1000,
		AutoEnable:        true,
	}
}

func TestInterlockPrecedenceEStopBeatsLimits(t *testing.T) {
	h := hal.NewMockHAL()
	gpio := h.GPIO()
	d := newTestDescriptor("prec-1")

	for _, p := range []int{d.PinDirection, d.PinStep, d.PinEnable, d.PinSleep} {
		gpio.SetMode(p, hal.Output)
	}
	gpio.SetMode(d.PinLimitUp, hal.Input)
	gpio.SetMode(d.PinLimitDown, hal.Input)
	gpio.DigitalWrite(d.PinLimitUp, d.LimitUpHitLevel)
	gpio.DigitalWrite(d.PinLimitDown, d.LimitDownHitLevel)

	g := NewGlobal(h)
	g.SetEmergencyStop(true)

	v, _ := checkInterlocks(g, d, gpio, CheckOptions{Silent: true})
	if v != EStop {
		t.Fatalf("expected ESTOP to take precedence, got %v", v)
	}
}

func TestInterlockPrecedenceLimitUpBeatsLimitDown(t *testing.T) {
	h := hal.NewMockHAL()
	gpio := h.GPIO()
	d := newTestDescriptor("prec-2")

	gpio.SetMode(d.PinLimitUp, hal.Input)
	gpio.SetMode(d.PinLimitDown, hal.Input)
	gpio.DigitalWrite(d.PinLimitUp, d.LimitUpHitLevel)
	gpio.DigitalWrite(d.PinLimitDown, d.LimitDownHitLevel)

	g := NewGlobal(h)

	v, _ := checkInterlocks(g, d, gpio, CheckOptions{Silent: true})
	if v != LimitUp {
		t.Fatalf("expected LIMIT_UP to take precedence over LIMIT_DOWN, got %v", v)
	}
}

func TestInterlockOKWhenNothingEngaged(t *testing.T) {
	h := hal.NewMockHAL()
	gpio := h.GPIO()
	d := newTestDescriptor("prec-3")

	gpio.SetMode(d.PinLimitUp, hal.Input)
	gpio.SetMode(d.PinLimitDown, hal.Input)
	gpio.DigitalWrite(d.PinLimitUp, !d.LimitUpHitLevel)
	gpio.DigitalWrite(d.PinLimitDown, !d.LimitDownHitLevel)

	g := NewGlobal(h)

	v, err := checkInterlocks(g, d, gpio, CheckOptions{Silent: true})
	if v != OK || err != nil {
		t.Fatalf("expected OK, got %v (%v)", v, err)
	}
}

func TestInterlockRaiseOnFailReturnsMoveAbort(t *testing.T) {
	h := hal.NewMockHAL()
	gpio := h.GPIO()
	d := newTestDescriptor("prec-4")

	gpio.SetMode(d.PinLimitUp, hal.Input)
	gpio.SetMode(d.PinLimitDown, hal.Input)
	gpio.DigitalWrite(d.PinLimitUp, d.LimitUpHitLevel)
	gpio.DigitalWrite(d.PinLimitDown, !d.LimitDownHitLevel)

	g := NewGlobal(h)

	_, err := checkInterlocks(g, d, gpio, CheckOptions{RaiseOnFail: true, Silent: true})
	abort, ok := err.(*MoveAbort)
	if !ok {
		t.Fatalf("expected *MoveAbort, got %T (%v)", err, err)
	}
	if abort.Verdict != LimitUp {
		t.Fatalf("expected LIMIT_UP verdict in abort, got %v", abort.Verdict)
	}
}

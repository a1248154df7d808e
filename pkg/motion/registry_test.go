package motion

import (
	"testing"

	"github.com/nikitakuklev/stepperd/internal/hal"
)

func newRegisteredMotor(t *testing.T, g *Global, d *Descriptor) *Motor {
	t.Helper()
	m, err := NewMotor(d, g)
	if err != nil {
		t.Fatalf("NewMotor: %v", err)
	}
	return m
}

func TestRegistryRejectsDuplicateUUID(t *testing.T) {
	h := hal.NewMockHAL()
	g := NewGlobal(h)
	r := NewRegistry()

	d1 := newTestDescriptor("dup-1")
	d2 := newTestDescriptor("dup-1")
	d2.ShortName = "other_short"
	d2.FriendlyName = "Other friendly"
	d2.PinDirection, d2.PinStep, d2.PinEnable, d2.PinSleep, d2.PinLimitUp, d2.PinLimitDown = 18, 23, 24, 25, 8, 7

	m1 := newRegisteredMotor(t, g, d1)
	if err := r.Register(m1); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}
	defer r.Shutdown()

	m2 := newRegisteredMotor(t, g, d2)
	err := r.Register(m2)
	if err == nil {
		t.Fatal("expected duplicate uuid registration to fail")
	}
	if _, ok := err.(*RegistrationError); !ok {
		t.Fatalf("expected *RegistrationError, got %T", err)
	}
	if r.Count() != 1 {
		t.Fatalf("expected registry to still contain only 1 motor, got %d", r.Count())
	}
}

func TestRegistryRejectsDuplicateShortName(t *testing.T) {
	h := hal.NewMockHAL()
	g := NewGlobal(h)
	r := NewRegistry()

	d1 := newTestDescriptor("sn-1")
	d2 := newTestDescriptor("sn-2")
	d2.ShortName = d1.ShortName
	d2.PinDirection, d2.PinStep, d2.PinEnable, d2.PinSleep, d2.PinLimitUp, d2.PinLimitDown = 18, 23, 24, 25, 8, 7

	if err := r.Register(newRegisteredMotor(t, g, d1)); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}
	defer r.Shutdown()
	if err := r.Register(newRegisteredMotor(t, g, d2)); err == nil {
		t.Fatal("expected duplicate short_name registration to fail")
	}
}

func TestRegistryInsertionOrder(t *testing.T) {
	h := hal.NewMockHAL()
	g := NewGlobal(h)
	r := NewRegistry()

	ids := []string{"z-last", "a-first", "m-mid"}
	pins := [][6]int{{17, 27, 22, 10, 5, 6}, {18, 23, 24, 25, 8, 7}, {19, 26, 20, 21, 12, 13}}
	for i, id := range ids {
		d := newTestDescriptor(id)
		d.PinDirection, d.PinStep, d.PinEnable, d.PinSleep, d.PinLimitUp, d.PinLimitDown =
			pins[i][0], pins[i][1], pins[i][2], pins[i][3], pins[i][4], pins[i][5]
		if err := r.Register(newRegisteredMotor(t, g, d)); err != nil {
			t.Fatalf("register %s: %v", id, err)
		}
	}
	defer r.Shutdown()

	list := r.List()
	if len(list) != 3 {
		t.Fatalf("expected 3 motors, got %d", len(list))
	}
	for i, m := range list {
		if m.descriptor.UUID != ids[i] {
			t.Fatalf("expected insertion order %v, got position %d = %s", ids, i, m.descriptor.UUID)
		}
	}

	sorted := r.SortedByUUID()
	if sorted[0].descriptor.UUID != "a-first" || sorted[2].descriptor.UUID != "z-last" {
		t.Fatalf("expected ascending uuid order, got %s, %s, %s",
			sorted[0].descriptor.UUID, sorted[1].descriptor.UUID, sorted[2].descriptor.UUID)
	}
}

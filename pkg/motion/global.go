package motion

import (
	"sync/atomic"

	"github.com/nikitakuklev/stepperd/internal/hal"
)

// Global holds process-wide motion state injected into motors and the
// HTTP handler layer as an explicit dependency, not a package-level
// global (spec §9).
type Global struct {
	Arbiter *Arbiter

	hal          hal.HAL
	emergencyStop int32
}

// NewGlobal constructs global motion state bound to a HAL instance.
func NewGlobal(h hal.HAL) *Global {
	return &Global{
		Arbiter: NewArbiter(),
		hal:     h,
	}
}

// HAL returns the pin oracle's hardware backend.
func (g *Global) HAL() hal.HAL { return g.hal }

// EmergencyStop reports whether the global e-stop is currently engaged.
func (g *Global) EmergencyStop() bool {
	return atomic.LoadInt32(&g.emergencyStop) != 0
}

// SetEmergencyStop engages or releases the global e-stop.
func (g *Global) SetEmergencyStop(engaged bool) {
	v := int32(0)
	if engaged {
		v = 1
	}
	atomic.StoreInt32(&g.emergencyStop, v)
}

// SetOutputLockout suppresses GPIO writes (dry-run testing) while leaving
// reads unaffected.
func (g *Global) SetOutputLockout(enabled bool) {
	g.hal.GPIO().SetOutputLockout(enabled)
}

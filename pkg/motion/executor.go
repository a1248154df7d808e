package motion

import (
	"time"

	"github.com/nikitakuklev/stepperd/internal/hal"
)

// ExecResult is the outcome of a single executor run.
type ExecResult int

const (
	ExecDone      ExecResult = 0
	ExecUserStop  ExecResult = -1
	ExecAborted   ExecResult = -2
)

// runExecutor drives one planned sequence of step pulses, per spec §4.5.
// direction must already be reflected on the direction pin by the caller.
// override/stopOnRelease select which of the three interlock disciplines
// apply (normal move, homing phase 1 seek, homing phase 2 backoff).
func runExecutor(
	d *Descriptor,
	g *Global,
	gpio hal.GPIOProvider,
	state *State,
	delays []time.Duration,
	override bool,
	stopOnRelease bool,
	stopRequested func() bool,
	clearStopRequest func(),
) (ExecResult, error) {
	var initialVerdict Verdict
	haveInitial := false

	for i, delay := range delays {
		if !override {
			v, err := checkInterlocks(g, d, gpio, CheckOptions{RaiseOnFail: true})
			if err != nil {
				return ExecAborted, err
			}
			_ = v
		} else if stopOnRelease {
			v, _ := checkInterlocks(g, d, gpio, CheckOptions{Silent: true})
			if !haveInitial {
				if v == OK {
					return ExecAborted, &MoveAbort{Verdict: v, Reason: "override stop-on-release requires an initial non-OK verdict"}
				}
				initialVerdict = v
				haveInitial = true
			} else if v == OK {
				return ExecAborted, &MoveAbort{Verdict: initialVerdict, Reason: "limit released"}
			}
		}
		// override && !stopOnRelease: verdict merely advisory, not consulted.

		if err := gpio.Pulse(d.PinStep, 0); err != nil {
			return ExecAborted, err
		}

		if state.Direction == Up {
			state.Position++
		} else {
			state.Position--
		}

		deadline := time.Now().Add(delay)
		for time.Now().Before(deadline) {
			if stopRequested() {
				clearStopRequest()
				return ExecUserStop, &UserStop{}
			}
		}
		_ = i
	}

	return ExecDone, nil
}

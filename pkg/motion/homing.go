package motion

import "go.uber.org/zap"

// handleHome runs the two-phase homing procedure (spec §4.6): a fast seek
// to a limit, then a backoff under interlock-override to the point of
// limit release, redefining that point as position zero.
func (m *Motor) handleHome(c *command) {
	d := m.descriptor

	verdict, _ := checkInterlocks(m.global, d, m.gpio, CheckOptions{})
	if verdict != OK {
		m.log.Info("home rejected by interlock", zap.String("verdict", verdict.String()))
		return
	}

	m.global.Arbiter.Acquire()
	defer m.global.Arbiter.Release()

	m.state.Status = Homing

	if err := m.gpio.DigitalWrite(d.PinDirection, c.dir == Up); err != nil {
		m.log.Error("failed to set direction pin for homing", zap.Error(err))
		m.state.Status = Error
		return
	}
	m.state.Direction = c.dir

	// Phase 1: fast seek toward the limit. Expected to be aborted by the
	// limit tripping; completing without abort means axis_length_steps
	// never found a limit — that is itself a failure.
	seekDelays := planProfile(d.AxisLengthSteps, d.Jerk, d.Velocity, d.Acceleration)
	result, err := runExecutor(d, m.global, m.gpio, &m.state, seekDelays, false, false, m.stopRequested, func() {
		m.clearStopRequest()
		m.flushQueue()
	})
	if result == ExecUserStop {
		m.state.Status = Idle
		return
	}
	if result != ExecAborted {
		hf := &HomingFailure{Inner: &MoveAbort{Verdict: OK, Reason: "no limit hit"}}
		m.log.Error("homing phase 1 failed", zap.Error(hf))
		m.state.ErrorCode = -2
		m.state.Status = Idle
		return
	}
	m.log.Info("homing phase 1: limit reached", zap.Error(err))

	// Phase 2: reverse and back off under override until the limit
	// releases, at reduced kinematics.
	backoffDir := Down
	if c.dir == Down {
		backoffDir = Up
	}
	if err := m.gpio.DigitalWrite(d.PinDirection, backoffDir == Up); err != nil {
		m.log.Error("failed to reverse direction for homing backoff", zap.Error(err))
		m.state.Status = Error
		return
	}
	m.state.Direction = backoffDir

	backoffDelays := planProfile(d.AxisLengthSteps, d.Jerk, d.Velocity/10, d.Acceleration/5)
	result, err = runExecutor(d, m.global, m.gpio, &m.state, backoffDelays, true, true, m.stopRequested, func() {
		m.clearStopRequest()
		m.flushQueue()
	})
	if result == ExecUserStop {
		m.state.Status = Idle
		return
	}
	if result != ExecAborted {
		m.log.Error("homing phase 2 did not observe limit release within axis length")
		m.state.ErrorCode = -2
		m.state.Status = Idle
		return
	}

	m.state.Position = 0
	m.state.Homed = true
	m.state.ErrorCode = 0
	m.state.Status = Idle
	m.log.Info("homing complete", zap.Int64("position", m.state.Position))
}

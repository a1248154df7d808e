package motion

import (
	"time"

	"go.uber.org/zap"
)

// run is the motor's single long-lived execution context (spec §4.6):
// dequeue with a short bounded wait, dispatch on command tag, exit
// cleanly when quit is closed. Grounded on the teacher's Node.process()
// goroutine-plus-channel shape.
func (m *Motor) run() {
	defer m.wg.Done()
	ticker := time.NewTicker(dequeueTimeout)
	defer ticker.Stop()

	for {
		select {
		case <-m.quit:
			return
		case c := <-m.queue:
			m.dispatch(c)
		case <-ticker.C:
			// Empty dequeue: loop again, keeping shutdown responsive.
		}
	}
}

func (m *Motor) dispatch(c *command) {
	switch c.kind {
	case cmdMove:
		m.handleMove(c)
	case cmdEnable:
		m.handleEnable(c)
	case cmdDisable:
		m.handleDisable(c)
	case cmdHome:
		m.handleHome(c)
	}
	if c.done != nil {
		close(c.done)
	}
}

func (m *Motor) handleMove(c *command) {
	d := m.descriptor

	verdict, _ := checkInterlocks(m.global, d, m.gpio, CheckOptions{})
	if verdict != OK && !c.force {
		m.log.Info("move rejected by interlock", zap.String("verdict", verdict.String()))
		m.state.ErrorCode = -2
		return
	}

	m.global.Arbiter.Acquire()
	defer m.global.Arbiter.Release()

	if c.dir != m.state.Direction {
		// Direction change is internal: state stays IDLE until the first
		// pulse (spec §9 Open Question resolution — no intermediate MOVING
		// observable here).
		if err := m.gpio.DigitalWrite(d.PinDirection, c.dir == Up); err != nil {
			m.log.Error("failed to set direction pin", zap.Error(err))
			m.state.Status = Error
			return
		}
		m.state.Direction = c.dir
	}

	if m.state.Status == Disabled && d.AutoEnable {
		if err := m.driveEnable(true); err != nil {
			m.log.Error("auto-enable failed", zap.Error(err))
			m.state.Status = Error
			return
		}
	}

	m.state.Status = Moving
	delays := planProfile(c.steps, d.Jerk, d.Velocity, d.Acceleration)
	result, err := runExecutor(d, m.global, m.gpio, &m.state, delays, c.force && verdict != OK, false, m.stopRequested, func() {
		m.clearStopRequest()
		m.flushQueue()
	})

	switch result {
	case ExecAborted:
		m.state.ErrorCode = -2
		m.log.Warn("move aborted by interlock", zap.Error(err))
	case ExecUserStop:
		m.log.Info("move stopped by user")
	case ExecDone:
		m.state.ErrorCode = 0
	}

	if m.state.Status == Moving && d.AutoDisable {
		if err := m.driveEnable(false); err != nil {
			m.log.Error("auto-disable failed", zap.Error(err))
		}
	}
	m.state.Status = Idle
}

func (m *Motor) handleEnable(c *command) {
	d := m.descriptor

	if !c.force {
		verdict, _ := checkInterlocks(m.global, d, m.gpio, CheckOptions{})
		if verdict != OK {
			m.log.Info("enable rejected by interlock", zap.String("verdict", verdict.String()))
			return
		}
		if m.state.ErrorCode != 0 {
			m.log.Info("enable rejected: motor has unacknowledged error", zap.Int("error", m.state.ErrorCode))
			return
		}
	} else {
		m.state.ErrorCode = 0
	}

	m.global.Arbiter.Acquire()
	defer m.global.Arbiter.Release()

	if err := m.driveEnable(true); err != nil {
		m.log.Error("enable failed", zap.Error(err))
		m.state.Status = Error
		return
	}
	m.state.Status = Idle
}

func (m *Motor) handleDisable(c *command) {
	m.global.Arbiter.Acquire()
	defer m.global.Arbiter.Release()

	if err := m.driveEnable(false); err != nil {
		m.log.Error("disable failed", zap.Error(err))
		m.state.Status = Error
		return
	}
	m.state.Status = Disabled
}

// driveEnable writes the enable pin. The driver's enable input is
// active-low in typical wiring (spec invariant 4): level true means
// disabled.
func (m *Motor) driveEnable(enable bool) error {
	return m.gpio.DigitalWrite(m.descriptor.PinEnable, !enable)
}

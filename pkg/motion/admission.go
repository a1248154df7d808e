package motion

import (
	"fmt"
	"sync/atomic"
)

// Result is the outcome string returned by a public command method,
// mirroring the HTTP surface's expected result strings (spec §4.7).
type Result string

const (
	ResultDone   Result = "Done"
	ResultQueued Result = "Queued"
	ResultFailed Result = "Failed"
)

// Move validates and enqueues a move command, per spec §4.7.
func (m *Motor) Move(dir Direction, steps int, block, force bool) (Result, error) {
	if steps < 0 || steps >= MaxMoveSteps {
		return ResultFailed, &AdmissionReject{Reason: fmt.Sprintf("steps %d out of range [0, %d)", steps, MaxMoveSteps)}
	}
	if dir != Up && dir != Down {
		return ResultFailed, &AdmissionReject{Reason: "dir must be 0 or 1"}
	}

	busy := m.isMoving() || len(m.queue) > 0

	if busy && block {
		return ResultFailed, &AdmissionReject{Reason: "blocking move cannot be queued behind pending work"}
	}
	if busy && force {
		m.flushQueue()
	}

	c := &command{kind: cmdMove, dir: dir, steps: steps, force: force}

	if m.isMoving() && !force {
		if !m.enqueue(c) {
			return ResultFailed, &AdmissionReject{Reason: "command queue full"}
		}
		return ResultQueued, nil
	}

	if block {
		c.done = make(chan struct{})
		if !m.enqueue(c) {
			return ResultFailed, &AdmissionReject{Reason: "command queue full"}
		}
		<-c.done
		if m.state.ErrorCode != 0 {
			return ResultFailed, nil
		}
		return ResultDone, nil
	}

	if !m.enqueue(c) {
		return ResultFailed, &AdmissionReject{Reason: "command queue full"}
	}
	return ResultQueued, nil
}

// Enable validates and enqueues an enable command.
func (m *Motor) Enable(force bool) (Result, error) {
	if m.state.Status == Idle {
		return ResultFailed, &AdmissionReject{Reason: "motor already enabled"}
	}
	if len(m.queue) > 0 {
		return ResultFailed, &AdmissionReject{Reason: "command queue not empty"}
	}
	if !m.enqueue(&command{kind: cmdEnable, force: force}) {
		return ResultFailed, &AdmissionReject{Reason: "command queue full"}
	}
	return ResultQueued, nil
}

// Disable validates and enqueues a disable command.
func (m *Motor) Disable() (Result, error) {
	if m.state.Status != Idle {
		return ResultFailed, &AdmissionReject{Reason: "motor not enabled"}
	}
	if len(m.queue) > 0 {
		return ResultFailed, &AdmissionReject{Reason: "command queue not empty"}
	}
	if !m.enqueue(&command{kind: cmdDisable}) {
		return ResultFailed, &AdmissionReject{Reason: "command queue full"}
	}
	return ResultQueued, nil
}

// Stop requests the current move to terminate, per spec §4.7. Only
// accepted while the motor is actually moving; it sets a flag observed
// by the executor's busy-wait rather than enqueueing a command.
func (m *Motor) Stop() (Result, error) {
	if m.state.Status != Moving && m.state.Status != Homing {
		return ResultFailed, &AdmissionReject{Reason: "motor not moving"}
	}
	atomic.StoreInt32(&m.stop, 1)
	return ResultDone, nil
}

// Home validates and enqueues a homing command, blocking until complete.
func (m *Motor) Home(dir Direction) (Result, error) {
	if len(m.queue) > 0 {
		return ResultFailed, &AdmissionReject{Reason: "command queue not empty"}
	}
	if m.state.Status != Idle {
		return ResultFailed, &AdmissionReject{Reason: "motor not idle"}
	}

	c := &command{kind: cmdHome, dir: dir, done: make(chan struct{})}
	if !m.enqueue(c) {
		return ResultFailed, &AdmissionReject{Reason: "command queue full"}
	}
	<-c.done

	if !m.state.Homed {
		return ResultFailed, nil
	}
	return ResultDone, nil
}

// enqueue attempts a non-blocking send, surfacing a full queue to the
// caller rather than blocking the HTTP handler (spec §5 put_nowait).
func (m *Motor) enqueue(c *command) bool {
	select {
	case m.queue <- c:
		return true
	default:
		return false
	}
}

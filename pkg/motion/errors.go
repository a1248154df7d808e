package motion

import "fmt"

// ConfigError indicates an invalid or incompatible configuration document.
// Fatal at startup.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s", e.Reason)
}

// RegistrationError indicates a duplicate uuid, short_name, friendly_name,
// or pin assignment at registration time. Fatal at startup.
type RegistrationError struct {
	Field string
	Value string
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("registration error: duplicate %s %q", e.Field, e.Value)
}

// AdmissionReject is returned by a motor's public command methods when a
// command is refused without any state change (bad parameter, wrong state,
// full queue).
type AdmissionReject struct {
	Reason string
}

func (e *AdmissionReject) Error() string {
	return e.Reason
}

// MoveAbort is raised inside the executor when an interlock trips mid-move.
// The control loop contains it, sets error = -2, and returns the motor to
// IDLE rather than ERROR — it is recoverable by a forced enable.
type MoveAbort struct {
	Verdict Verdict
	Reason  string
}

func (e *MoveAbort) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("move aborted: %s (%s)", e.Reason, e.Verdict)
	}
	return fmt.Sprintf("move aborted: %s", e.Verdict)
}

// UserStop indicates the executor returned early because stop() was
// observed mid-move.
type UserStop struct{}

func (e *UserStop) Error() string { return "user stop" }

// HomingFailure wraps a MoveAbort raised when the initial seek phase of
// homing completes without ever hitting a limit.
type HomingFailure struct {
	Inner *MoveAbort
}

func (e *HomingFailure) Error() string {
	return fmt.Sprintf("homing failed: %v", e.Inner)
}

func (e *HomingFailure) Unwrap() error { return e.Inner }

// ShutdownTimeout indicates a control loop did not exit within the grace
// window during shutdown. Logged, not fatal — shutdown continues.
type ShutdownTimeout struct {
	MotorUUID string
}

func (e *ShutdownTimeout) Error() string {
	return fmt.Sprintf("control loop for motor %s did not exit within grace window", e.MotorUUID)
}

package api

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nikitakuklev/stepperd/internal/hal"
	"github.com/nikitakuklev/stepperd/internal/logger"
	"github.com/nikitakuklev/stepperd/internal/metrics"
	"github.com/nikitakuklev/stepperd/internal/websocket"
	"github.com/nikitakuklev/stepperd/pkg/motion"
)

// Service holds the motion-domain dependencies shared by every HTTP
// handler: the motor registry, the shared Global (arbiter + HAL +
// e-stop), the GPIO monitor for live pin broadcast, and the process
// counters. Modeled on the teacher's api.Service: one struct constructed
// once in main and injected into Handler, rather than package globals.
type Service struct {
	registry    *motion.Registry
	global      *motion.Global
	halInstance hal.HAL
	wsHub       *websocket.Hub
	metrics     *metrics.Metrics
	gpioMonitor *hal.GPIOMonitor
	startTime   time.Time
}

// NewService wires a Service and starts its background GPIO monitor.
func NewService(registry *motion.Registry, global *motion.Global, h hal.HAL, wsHub *websocket.Hub, m *metrics.Metrics) *Service {
	gpioMonitor := hal.NewGPIOMonitor(200, func(state hal.GPIOMonitorState) {
		wsHub.Broadcast(websocket.MessageTypeGPIOState, map[string]interface{}{
			"pins":       state.Pins,
			"board_name": state.BoardName,
			"gpio_chip":  state.GPIOChip,
			"available":  state.Available,
			"timestamp":  state.Timestamp,
		})
	})
	go gpioMonitor.Start()
	hal.SetGlobalGPIOMonitor(gpioMonitor)

	return &Service{
		registry:    registry,
		global:      global,
		halInstance: h,
		wsHub:       wsHub,
		metrics:     m,
		gpioMonitor: gpioMonitor,
		startTime:   time.Now(),
	}
}

// ListMotors returns every registered motor's snapshot, keyed by uuid.
func (s *Service) ListMotors() map[string]motion.Snapshot {
	out := make(map[string]motion.Snapshot)
	for _, m := range s.registry.List() {
		out[m.Descriptor().UUID] = m.Snapshot()
	}
	return out
}

// GetMotor returns a single motor's snapshot.
func (s *Service) GetMotor(uuid string) (motion.Snapshot, error) {
	m, ok := s.registry.Get(uuid)
	if !ok {
		return motion.Snapshot{}, fmt.Errorf("motor not found: %s", uuid)
	}
	return m.Snapshot(), nil
}

// Move admits a move command for one motor, mirroring spec §4.7.
func (s *Service) Move(uuid string, dir motion.Direction, steps int, block, force bool) (motion.Result, error) {
	m, ok := s.registry.Get(uuid)
	if !ok {
		return motion.ResultFailed, fmt.Errorf("motor not found: %s", uuid)
	}

	result, err := m.Move(dir, steps, block, force)
	s.metrics.IncrementMoves()
	// A Failed result with no error is a blocking move that ended with an
	// error code set; admission rejects carry an error and are not aborts.
	if result == motion.ResultFailed && err == nil {
		s.metrics.IncrementAbortedMoves()
	}
	s.wsHub.Broadcast(websocket.MessageTypeMoveComplete, map[string]interface{}{
		"uuid":   uuid,
		"result": result,
	})
	return result, err
}

// Enable admits an enable command for one motor.
func (s *Service) Enable(uuid string, force bool) (motion.Result, error) {
	m, ok := s.registry.Get(uuid)
	if !ok {
		return motion.ResultFailed, fmt.Errorf("motor not found: %s", uuid)
	}
	return m.Enable(force)
}

// Disable admits a disable command for one motor.
func (s *Service) Disable(uuid string) (motion.Result, error) {
	m, ok := s.registry.Get(uuid)
	if !ok {
		return motion.ResultFailed, fmt.Errorf("motor not found: %s", uuid)
	}
	return m.Disable()
}

// Stop requests the current move on one motor to terminate. An empty
// uuid stops every motor, matching spec §6.2's "no uuid => stop all".
func (s *Service) Stop(uuid string) (map[string]motion.Result, error) {
	results := make(map[string]motion.Result)
	if uuid != "" {
		m, ok := s.registry.Get(uuid)
		if !ok {
			return nil, fmt.Errorf("motor not found: %s", uuid)
		}
		result, err := m.Stop()
		results[uuid] = result
		if err == nil {
			s.metrics.IncrementUserStopped()
		}
		return results, nil
	}

	for _, m := range s.registry.List() {
		result, _ := m.Stop()
		results[m.Descriptor().UUID] = result
		if result == motion.ResultDone {
			s.metrics.IncrementUserStopped()
		}
	}
	return results, nil
}

// Home runs the two-phase homing procedure on one motor, blocking until
// complete.
func (s *Service) Home(uuid string, dir motion.Direction) (motion.Result, error) {
	m, ok := s.registry.Get(uuid)
	if !ok {
		return motion.ResultFailed, fmt.Errorf("motor not found: %s", uuid)
	}

	result, err := m.Home(dir)
	s.metrics.IncrementHomings()
	if result != motion.ResultDone && err == nil {
		s.metrics.IncrementFailedHomings()
	}
	s.wsHub.Broadcast(websocket.MessageTypeHomingEvent, map[string]interface{}{
		"uuid":   uuid,
		"result": result,
	})
	return result, err
}

// MotionConfigUpdate is the accepted body of POST /api/v1/config/motion,
// supplementing the distilled spec per original_source's Webserver.py
// (kinematics bounds enforced here, not silently clamped).
type MotionConfigUpdate struct {
	Jerk         *float64 `json:"jerk,omitempty"`
	Velocity     *float64 `json:"velocity,omitempty"`
	Acceleration *float64 `json:"acceleration,omitempty"`
}

// UpdateMotionConfig applies new kinematics to one motor. Only accepted
// while the motor is IDLE or DISABLED, matching spec §6.2's table note.
func (s *Service) UpdateMotionConfig(uuid string, update MotionConfigUpdate) error {
	m, ok := s.registry.Get(uuid)
	if !ok {
		return fmt.Errorf("motor not found: %s", uuid)
	}

	snap := m.Snapshot()
	if snap.Status != motion.Idle && snap.Status != motion.Disabled {
		return &motion.AdmissionReject{Reason: "motion config can only change while IDLE or DISABLED"}
	}

	d := m.Descriptor()
	for name, v := range map[string]*float64{"jerk": update.Jerk, "velocity": update.Velocity, "acceleration": update.Acceleration} {
		if v == nil {
			continue
		}
		if *v < 0 || *v >= motion.MaxKinematicValue {
			return &motion.AdmissionReject{Reason: fmt.Sprintf("%s=%v out of range [0, %d)", name, *v, motion.MaxKinematicValue)}
		}
	}
	if update.Jerk != nil {
		d.Jerk = *update.Jerk
	}
	if update.Velocity != nil {
		d.Velocity = *update.Velocity
	}
	if update.Acceleration != nil {
		d.Acceleration = *update.Acceleration
	}
	return nil
}

// BoardInfo returns the detected board plus the live active-pin map,
// grounded on the teacher's board_detection.go + GPIOProvider.ActivePins.
func (s *Service) BoardInfo() (hal.BoardInfo, map[int]hal.PinMode) {
	return s.halInstance.Info(), s.halInstance.GPIO().ActivePins()
}

// GPIOState returns the GPIO monitor's current broadcast-ready snapshot.
func (s *Service) GPIOState() hal.GPIOMonitorState {
	if s.gpioMonitor != nil {
		return s.gpioMonitor.GetState()
	}
	return hal.GPIOMonitorState{Pins: make(map[int]*hal.PinState), Available: false, Timestamp: time.Now()}
}

// MetricsSnapshot refreshes system counters and returns the full metrics map.
func (s *Service) MetricsSnapshot() map[string]interface{} {
	s.metrics.UpdateSystemMetrics()
	return s.metrics.GetMetrics()
}

// MetricsPrometheus renders metrics in Prometheus text format.
func (s *Service) MetricsPrometheus() string {
	s.metrics.UpdateSystemMetrics()
	return s.metrics.PrometheusFormat()
}

// ErroredMotorCount counts motors in ERROR or HARDKILL, for health checks.
func (s *Service) ErroredMotorCount() int {
	n := 0
	for _, m := range s.registry.List() {
		st := m.Snapshot().Status
		if st == motion.Error || st == motion.Hardkill {
			n++
		}
	}
	return n
}

// PingGPIO is a cheap liveness probe for the GPIO health check.
func (s *Service) PingGPIO() error {
	_ = s.halInstance.Info()
	return nil
}

// Shutdown stops every motor's control loop and the GPIO monitor.
func (s *Service) Shutdown() {
	logger.Info("shutting down motor registry", zap.Int("motors", s.registry.Count()))
	s.registry.Shutdown()
	if s.gpioMonitor != nil {
		s.gpioMonitor.Stop()
	}
}

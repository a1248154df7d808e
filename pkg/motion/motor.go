package motion

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/nikitakuklev/stepperd/internal/hal"
	"github.com/nikitakuklev/stepperd/internal/logger"
	"go.uber.org/zap"
)

// queueCapacity is the bounded command-queue capacity (spec §5).
const queueCapacity = 100

// dequeueTimeout is the control loop's bounded dequeue wait (spec §4.6,
// §5): the only cooperative suspension point, chosen to keep shutdown
// responsive.
const dequeueTimeout = 50 * time.Millisecond

type cmdKind int

const (
	cmdMove cmdKind = iota
	cmdEnable
	cmdDisable
	cmdHome
)

type command struct {
	kind  cmdKind
	dir   Direction
	steps int
	force bool

	// done, when non-nil, is closed by the control loop once the command
	// has been fully processed — the mechanism behind Move's block=true.
	done chan struct{}
}

// Motor is one independently commandable axis: a Descriptor, a
// State owned exclusively by its control-loop goroutine, and a bounded
// command queue. Modeled on the teacher's Node: a goroutine started by
// Start() reading from a buffered channel, but with a ticker-driven
// bounded dequeue in place of a blocking channel receive (spec §5's
// "≤50ms bounded wait").
type Motor struct {
	descriptor *Descriptor
	global     *Global
	gpio       hal.GPIOProvider

	state State

	queue chan *command
	stop  int32 // atomic: set by Stop(), polled by the executor's busy-wait
	quit  chan struct{}
	wg    sync.WaitGroup

	log *zap.Logger
}

// NewMotor constructs a motor in state UNINITIALIZED. Register() on a
// Registry transitions it to DISABLED and starts its control loop.
func NewMotor(d *Descriptor, g *Global) (*Motor, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &Motor{
		descriptor: d,
		global:     g,
		gpio:       g.HAL().GPIO(),
		state:      State{Status: Uninitialized},
		queue:      make(chan *command, queueCapacity),
		quit:       make(chan struct{}),
		log:        logger.WithMotor(d.UUID, d.ShortName),
	}, nil
}

// Descriptor returns the motor's configuration. The pointer is shared, so
// a caller's changes to it (as internal/api's UpdateMotionConfig makes to
// the kinematics) apply to the motor.
func (m *Motor) Descriptor() *Descriptor { return m.descriptor }

// initialize configures this motor's pins and transitions UNINIT -> DISABLED.
// Called once by start() before the control loop goroutine launches.
func (m *Motor) initialize() error {
	d := m.descriptor
	if err := m.gpio.SetMode(d.PinDirection, hal.Output); err != nil {
		return err
	}
	if err := m.gpio.SetMode(d.PinStep, hal.Output); err != nil {
		return err
	}
	if err := m.gpio.SetMode(d.PinEnable, hal.Output); err != nil {
		return err
	}
	if err := m.gpio.SetMode(d.PinSleep, hal.Output); err != nil {
		return err
	}
	if err := m.gpio.SetMode(d.PinLimitUp, hal.Input); err != nil {
		return err
	}
	if err := m.gpio.SetMode(d.PinLimitDown, hal.Input); err != nil {
		return err
	}

	// Driver starts disabled: enable pin at its inactive (disabling) level.
	if err := m.gpio.DigitalWrite(d.PinEnable, true); err != nil {
		return err
	}
	if err := m.gpio.DigitalWrite(d.PinSleep, true); err != nil {
		return err
	}

	m.state.Status = Disabled
	return nil
}

// start runs initialize() and launches the control-loop goroutine. Called
// by Registry.Register while holding its lock, so it must not block.
func (m *Motor) start() {
	if err := m.initialize(); err != nil {
		m.log.Error("motor initialization failed", zap.Error(err))
		m.state.Status = Error
	}
	m.wg.Add(1)
	go m.run()
}

// shutdown signals the control loop to exit and waits up to the grace
// window for it to do so (spec §5). Logs ShutdownTimeout rather than
// blocking forever. A second call returns immediately.
func (m *Motor) shutdown() {
	select {
	case <-m.quit:
		return
	default:
	}
	close(m.quit)
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		err := &ShutdownTimeout{MotorUUID: m.descriptor.UUID}
		m.log.Warn("shutdown grace window exceeded", zap.Error(err))
	}
}

// Snapshot reads the motor's current state without synchronization — an
// intentional race: status is informational, fields are word-sized, and
// the control loop must never block behind a status reader (spec §5, §9).
func (m *Motor) Snapshot() Snapshot {
	return Snapshot{
		UUID:         m.descriptor.UUID,
		ShortName:    m.descriptor.ShortName,
		FriendlyName: m.descriptor.FriendlyName,
		Status:       m.state.Status,
		Direction:    m.state.Direction,
		Position:     m.state.Position,
		Homed:        m.state.Homed,
		Error:        m.state.ErrorCode,
		QueueDepth:   len(m.queue),
	}
}

func (m *Motor) isMoving() bool {
	return m.state.Status == Moving || m.state.Status == Homing
}

func (m *Motor) stopRequested() bool {
	return atomic.LoadInt32(&m.stop) != 0
}

func (m *Motor) clearStopRequest() {
	atomic.StoreInt32(&m.stop, 0)
}

// flushQueue drains any commands currently queued, signaling "done" on
// each so a waiting blocking caller is not left hanging.
func (m *Motor) flushQueue() {
	for {
		select {
		case c := <-m.queue:
			if c.done != nil {
				close(c.done)
			}
		default:
			return
		}
	}
}

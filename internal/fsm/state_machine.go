package fsm

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// State represents a device lifecycle state
type State int

const (
	StateInit State = iota
	StateStandby
	StateActive
	StateSleeping
)

func (s State) String() string {
	return []string{
		"init",
		"standby",
		"active",
		"sleeping",
	}[s]
}

// resumeRetryDelay is how long to wait before retrying a failed resume
const resumeRetryDelay = time.Second

// StateMachine tracks device consumers and drives the power mode and the
// acquisition loop from them
type StateMachine struct {
	mu     sync.RWMutex
	state  State
	events chan Event
	log    *slog.Logger

	device    Device
	poller    Poller
	publisher StatusPublisher
	inhibitor SleepInhibitor

	timers           map[string]*time.Timer
	refs             int
	autosuspendDelay time.Duration
	polling          bool
}

// Device interface for power mode writes
type Device interface {
	Suspend() error
	Resume() error
}

// Poller interface for the acquisition loop
type Poller interface {
	Enable()
	Disable()
}

// StatusPublisher interface for publishing lifecycle status
type StatusPublisher interface {
	PublishStatus(ctx context.Context, status string) error
}

// SleepInhibitor interface for the system sleep delay lock
type SleepInhibitor interface {
	Acquire(reason string) error
	Release() error
}

// New creates a new StateMachine. autosuspendDelay keeps the device active
// for a while after the last consumer leaves; zero suspends immediately.
func New(
	dev Device,
	poller Poller,
	pub StatusPublisher,
	inh SleepInhibitor,
	autosuspendDelay time.Duration,
	log *slog.Logger,
) *StateMachine {
	return &StateMachine{
		state:            StateInit,
		events:           make(chan Event, 100),
		log:              log,
		device:           dev,
		poller:           poller,
		publisher:        pub,
		inhibitor:        inh,
		timers:           make(map[string]*time.Timer),
		autosuspendDelay: autosuspendDelay,
	}
}

// Run runs the state machine event loop
func (sm *StateMachine) Run(ctx context.Context) {
	sm.log.Info("starting state machine")

	for {
		select {
		case event := <-sm.events:
			sm.handleEvent(ctx, event)

		case <-ctx.Done():
			sm.log.Info("state machine stopped")
			sm.mu.Lock()
			sm.cleanupTimers()
			sm.mu.Unlock()
			return
		}
	}
}

// SendEvent sends an event to the state machine
func (sm *StateMachine) SendEvent(event Event) {
	select {
	case sm.events <- event:
	default:
		sm.log.Warn("event queue full, dropping event", "type", event.Type())
	}
}

// Acquire registers a consumer of the device
func (sm *StateMachine) Acquire(consumer string) { sm.SendEvent(AcquireEvent{Consumer: consumer}) }

// Release unregisters a consumer of the device
func (sm *StateMachine) Release(consumer string) { sm.SendEvent(ReleaseEvent{Consumer: consumer}) }

// DeviceStandby reports that the device left active mode on its own
func (sm *StateMachine) DeviceStandby() { sm.SendEvent(DeviceStandbyEvent{}) }

// State returns the current state
func (sm *StateMachine) State() State {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.state
}

// Consumers returns the number of registered consumers
func (sm *StateMachine) Consumers() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.refs
}

// handleEvent processes an event
func (sm *StateMachine) handleEvent(ctx context.Context, event Event) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	switch event.(type) {
	case ResumeRetryTimerEvent:
		if sm.state == StateActive && !sm.polling {
			sm.activate(ctx)
		}
		return

	case DeviceStandbyEvent:
		if sm.state == StateActive && sm.polling {
			sm.log.Warn("device fell back to standby, resuming")
			sm.poller.Disable()
			sm.polling = false
			sm.activate(ctx)
		}
		return
	}

	oldState := sm.state
	sm.log.Debug("handling event",
		"event", event.Type(),
		"state", oldState.String(),
		"consumers", sm.refs)

	newState := sm.getTransition(event)

	if newState != oldState {
		sm.exitState(ctx, oldState)
		sm.state = newState
		sm.log.Info("state transition",
			"from", oldState.String(),
			"to", newState.String(),
			"event", event.Type(),
			"consumers", sm.refs)
		sm.enterState(ctx, newState)
		sm.publishCurrentStatus(ctx)
	}
}

// publishCurrentStatus publishes the current lifecycle status
func (sm *StateMachine) publishCurrentStatus(ctx context.Context) {
	if sm.publisher == nil {
		return
	}
	if err := sm.publisher.PublishStatus(ctx, sm.state.String()); err != nil {
		sm.log.Error("failed to publish status", "error", err)
	}
}

// startTimer starts a timer
func (sm *StateMachine) startTimer(name string, duration time.Duration, callback func()) {
	sm.stopTimer(name)

	timer := time.AfterFunc(duration, func() {
		if callback != nil {
			callback()
		}
	})

	sm.timers[name] = timer
	sm.log.Debug("started timer", "name", name, "duration", duration)
}

// stopTimer stops a timer
func (sm *StateMachine) stopTimer(name string) {
	if timer, ok := sm.timers[name]; ok {
		timer.Stop()
		delete(sm.timers, name)
		sm.log.Debug("stopped timer", "name", name)
	}
}

// cleanupTimers stops all timers
func (sm *StateMachine) cleanupTimers() {
	for name := range sm.timers {
		sm.stopTimer(name)
	}
}

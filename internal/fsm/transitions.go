package fsm

import "context"

// getTransition determines the next state based on current state and event
func (sm *StateMachine) getTransition(event Event) State {
	switch sm.state {
	case StateInit:
		sm.countConsumers(event)
		if _, ok := event.(InitCompleteEvent); ok {
			if sm.refs > 0 {
				return StateActive
			}
			return StateStandby
		}

	case StateStandby:
		sm.countConsumers(event)
		if _, ok := event.(AcquireEvent); ok {
			return StateActive
		}
		if _, ok := event.(SystemSleepEvent); ok {
			return StateSleeping
		}

	case StateActive:
		sm.countConsumers(event)
		if _, ok := event.(AcquireEvent); ok {
			sm.stopTimer("autosuspend")
		}
		if _, ok := event.(ReleaseEvent); ok && sm.refs == 0 {
			if sm.autosuspendDelay <= 0 {
				return StateStandby
			}
			sm.startTimer("autosuspend", sm.autosuspendDelay, func() {
				sm.SendEvent(AutosuspendTimerEvent{})
			})
		}
		if _, ok := event.(AutosuspendTimerEvent); ok && sm.refs == 0 {
			return StateStandby
		}
		if _, ok := event.(SystemSleepEvent); ok {
			return StateSleeping
		}

	case StateSleeping:
		sm.countConsumers(event)
		if _, ok := event.(SystemWakeEvent); ok {
			if sm.refs > 0 {
				return StateActive
			}
			return StateStandby
		}
	}

	return sm.state
}

// countConsumers updates the consumer reference count
func (sm *StateMachine) countConsumers(event Event) {
	switch e := event.(type) {
	case AcquireEvent:
		sm.refs++
		sm.log.Debug("consumer acquired", "consumer", e.Consumer, "consumers", sm.refs)
	case ReleaseEvent:
		if sm.refs == 0 {
			sm.log.Warn("release without matching acquire", "consumer", e.Consumer)
			return
		}
		sm.refs--
		sm.log.Debug("consumer released", "consumer", e.Consumer, "consumers", sm.refs)
	}
}

// enterState handles state entry actions
func (sm *StateMachine) enterState(ctx context.Context, state State) {
	switch state {
	case StateStandby:
		sm.onEnterStandby(ctx)
	case StateActive:
		sm.onEnterActive(ctx)
	case StateSleeping:
		sm.onEnterSleeping(ctx)
	}
}

// exitState handles state exit actions
func (sm *StateMachine) exitState(ctx context.Context, state State) {
	switch state {
	case StateActive:
		sm.onExitActive(ctx)
	case StateSleeping:
		sm.onExitSleeping(ctx)
	}
}

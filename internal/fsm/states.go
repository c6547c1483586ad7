package fsm

import (
	"context"
)

// onEnterStandby handles entry to standby state
func (sm *StateMachine) onEnterStandby(ctx context.Context) {
	sm.log.Info("entering standby state")
	sm.deactivate()
}

// onEnterActive handles entry to active state
func (sm *StateMachine) onEnterActive(ctx context.Context) {
	sm.log.Info("entering active state", "consumers", sm.refs)
	sm.activate(ctx)
}

// onExitActive handles exit from active state
func (sm *StateMachine) onExitActive(ctx context.Context) {
	sm.stopTimer("autosuspend")
	sm.stopTimer("resume_retry")
}

// onEnterSleeping handles entry to sleeping state
func (sm *StateMachine) onEnterSleeping(ctx context.Context) {
	sm.log.Info("entering sleeping state")
	sm.deactivate()

	if err := sm.inhibitor.Release(); err != nil {
		sm.log.Error("failed to release sleep inhibitor", "error", err)
	}
}

// onExitSleeping handles exit from sleeping state
func (sm *StateMachine) onExitSleeping(ctx context.Context) {
	if err := sm.inhibitor.Acquire("Put accelerometer in standby"); err != nil {
		sm.log.Error("failed to acquire sleep inhibitor", "error", err)
	}
}

// activate resumes the device, then starts polling. Polling only starts
// once the mode write succeeded.
func (sm *StateMachine) activate(ctx context.Context) {
	if err := sm.device.Resume(); err != nil {
		sm.log.Error("failed to resume device, retrying", "error", err, "delay", resumeRetryDelay)
		sm.startTimer("resume_retry", resumeRetryDelay, func() {
			sm.SendEvent(ResumeRetryTimerEvent{})
		})
		return
	}

	sm.stopTimer("resume_retry")
	sm.poller.Enable()
	sm.polling = true
}

// deactivate stops polling, waiting for an in-flight cycle, then suspends
// the device
func (sm *StateMachine) deactivate() {
	sm.poller.Disable()
	sm.polling = false

	if err := sm.device.Suspend(); err != nil {
		sm.log.Error("failed to suspend device", "error", err)
	}
}

package fsm

// Event represents an event that can trigger state transitions
type Event interface {
	Type() string
}

// InitCompleteEvent signals that the device has been programmed
type InitCompleteEvent struct{}

func (e InitCompleteEvent) Type() string { return "init_complete" }

// AcquireEvent signals that a consumer started using the device
type AcquireEvent struct {
	Consumer string
}

func (e AcquireEvent) Type() string { return "acquire" }

// ReleaseEvent signals that a consumer stopped using the device
type ReleaseEvent struct {
	Consumer string
}

func (e ReleaseEvent) Type() string { return "release" }

// SystemSleepEvent signals that the system is about to suspend
type SystemSleepEvent struct{}

func (e SystemSleepEvent) Type() string { return "system_sleep" }

// SystemWakeEvent signals that the system has resumed
type SystemWakeEvent struct{}

func (e SystemWakeEvent) Type() string { return "system_wake" }

// AutosuspendTimerEvent signals that the device stayed unused for the
// autosuspend delay
type AutosuspendTimerEvent struct{}

func (e AutosuspendTimerEvent) Type() string { return "autosuspend_timer" }

// ResumeRetryTimerEvent signals time to retry a failed resume
type ResumeRetryTimerEvent struct{}

func (e ResumeRetryTimerEvent) Type() string { return "resume_retry_timer" }

// DeviceStandbyEvent signals that the device dropped to standby outside of
// a power transition
type DeviceStandbyEvent struct{}

func (e DeviceStandbyEvent) Type() string { return "device_standby" }

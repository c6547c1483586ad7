package pm

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"syscall"

	"github.com/godbus/dbus/v5"
)

const (
	login1Dest      = "org.freedesktop.login1"
	login1Path      = "/org/freedesktop/login1"
	login1Manager   = "org.freedesktop.login1.Manager"
	prepareForSleep = login1Manager + ".PrepareForSleep"
)

// Inhibitor holds a systemd sleep delay lock so the accelerometer can be
// put in standby before the system suspends
type Inhibitor struct {
	conn       *dbus.Conn
	log        *slog.Logger
	mu         sync.Mutex
	fd         dbus.UnixFD
	hasLock    bool
	lastReason string
}

// NewInhibitor connects to the system bus
func NewInhibitor(log *slog.Logger) (*Inhibitor, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to system bus: %w", err)
	}

	return &Inhibitor{
		conn:    conn,
		log:     log,
		hasLock: false,
	}, nil
}

// Close closes the inhibitor and releases any held locks
func (i *Inhibitor) Close() error {
	if err := i.Release(); err != nil {
		return err
	}
	return i.conn.Close()
}

// Acquire acquires a sleep delay lock
func (i *Inhibitor) Acquire(reason string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.hasLock && i.lastReason == reason {
		i.log.Debug("already have inhibitor lock", "reason", reason)
		return nil
	}

	obj := i.conn.Object(login1Dest, login1Path)

	call := obj.Call(login1Manager+".Inhibit", 0,
		"sleep",
		"mma7660-service",
		reason,
		"delay")

	if call.Err != nil {
		return fmt.Errorf("failed to acquire inhibitor lock: %w", call.Err)
	}

	var newFd dbus.UnixFD
	if err := call.Store(&newFd); err != nil {
		return fmt.Errorf("failed to store inhibitor fd: %w", err)
	}

	// Release old lock only after successfully acquiring new one
	if i.hasLock {
		if err := syscall.Close(int(i.fd)); err != nil {
			i.log.Warn("error closing old inhibitor fd", "error", err)
		}
	}

	i.fd = newFd
	i.hasLock = true
	i.lastReason = reason
	i.log.Info("acquired sleep delay lock", "reason", reason)

	return nil
}

// Release releases the sleep delay lock, letting a pending suspend proceed
func (i *Inhibitor) Release() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.releaseUnsafe()
}

// releaseUnsafe releases the lock without locking (internal use)
func (i *Inhibitor) releaseUnsafe() error {
	if !i.hasLock {
		return nil
	}

	if err := syscall.Close(int(i.fd)); err != nil {
		i.log.Warn("error closing inhibitor fd", "error", err)
	}

	i.hasLock = false
	i.lastReason = ""
	i.log.Info("released sleep delay lock")

	return nil
}

// WatchSleep calls onSleep when logind announces an imminent suspend and
// onWake when the system is back. It blocks until ctx is done.
func (i *Inhibitor) WatchSleep(ctx context.Context, onSleep, onWake func()) error {
	if err := i.conn.AddMatchSignal(
		dbus.WithMatchObjectPath(login1Path),
		dbus.WithMatchInterface(login1Manager),
		dbus.WithMatchMember("PrepareForSleep"),
	); err != nil {
		return fmt.Errorf("failed to subscribe to PrepareForSleep: %w", err)
	}

	signals := make(chan *dbus.Signal, 8)
	i.conn.Signal(signals)
	defer i.conn.RemoveSignal(signals)

	i.log.Info("watching for system sleep")

	for {
		select {
		case <-ctx.Done():
			return nil

		case sig, ok := <-signals:
			if !ok {
				return fmt.Errorf("system bus signal channel closed")
			}
			if sig.Name != prepareForSleep || len(sig.Body) == 0 {
				continue
			}
			start, ok := sig.Body[0].(bool)
			if !ok {
				continue
			}
			if start {
				i.log.Info("system is going to sleep")
				onSleep()
			} else {
				i.log.Info("system resumed")
				onWake()
			}
		}
	}
}

// Noop is a SleepInhibitor for systems without logind
type Noop struct{}

func (Noop) Acquire(reason string) error { return nil }
func (Noop) Release() error              { return nil }

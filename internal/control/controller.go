package control

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"mma7660-service/internal/hardware/mma7660"
)

// Attribute names exposed on the control surfaces
const (
	FieldShakeEnable = "shake_enable"
	FieldTapEnable   = "tap_enable"
	FieldSampleRate  = "sample_rate"
)

// Fields lists the attributes in display order
var Fields = []string{FieldShakeEnable, FieldTapEnable, FieldSampleRate}

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnknownField    = errors.New("unknown attribute")
)

// Config is an immutable snapshot of the device configuration
type Config struct {
	ShakeEnabled bool
	TapEnabled   bool
	SampleRate   mma7660.SampleRate
}

// DefaultConfig matches what Device.Init programs
func DefaultConfig() Config {
	return Config{
		ShakeEnabled: true,
		TapEnabled:   true,
		SampleRate:   mma7660.DefaultSampleRate,
	}
}

// Device interface for testing
type Device interface {
	WriteSampleRate(rate mma7660.SampleRate) error
}

// ChangeNotifier is told about every applied configuration change
type ChangeNotifier interface {
	SettingsChanged(cfg Config)
}

// StandbyHandler is told when a configuration write left the device in
// standby against the power state's wishes
type StandbyHandler interface {
	DeviceStandby()
}

// Controller owns the device configuration. Each mutation validates,
// programs the device and updates the cached value under one write lock,
// so readers only ever see fully applied configurations.
type Controller struct {
	// setMu serializes mutations with their notifications so observers
	// see changes in the order they were applied
	setMu sync.Mutex

	mu       sync.RWMutex
	cfg      Config
	dev      Device
	notifier ChangeNotifier
	standby  StandbyHandler
	log      *slog.Logger
}

// NewController creates a controller holding the default configuration
func NewController(dev Device, log *slog.Logger) *Controller {
	return &Controller{
		cfg: DefaultConfig(),
		dev: dev,
		log: log,
	}
}

// SetNotifier registers n to receive applied changes
func (c *Controller) SetNotifier(n ChangeNotifier) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notifier = n
}

// SetStandbyHandler registers h to recover the power mode after a failed
// configuration write
func (c *Controller) SetStandbyHandler(h StandbyHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.standby = h
}

// Snapshot returns the current configuration
func (c *Controller) Snapshot() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg
}

// Get returns an attribute rendered the way it is written
func (c *Controller) Get(field string) (string, error) {
	value, ok := c.Snapshot().Values()[field]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return value, nil
}

// Values renders every attribute the way Get returns it
func (cfg Config) Values() map[string]string {
	return map[string]string{
		FieldShakeEnable: formatBool(cfg.ShakeEnabled),
		FieldTapEnable:   formatBool(cfg.TapEnabled),
		FieldSampleRate:  cfg.SampleRate.String(),
	}
}

// Set parses value and applies it to field
func (c *Controller) Set(field, value string) error {
	switch field {
	case FieldShakeEnable:
		enabled, err := parseBool(value)
		if err != nil {
			return err
		}
		return c.SetShakeEnabled(enabled)

	case FieldTapEnable:
		enabled, err := parseBool(value)
		if err != nil {
			return err
		}
		return c.SetTapEnabled(enabled)

	case FieldSampleRate:
		rate, err := mma7660.ParseSampleRate(value)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
		}
		return c.SetSampleRate(rate)

	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
}

// SetShakeEnabled gates shake reporting. The device keeps detecting shakes;
// no register write is needed.
func (c *Controller) SetShakeEnabled(enabled bool) error {
	err := c.apply(func(cfg *Config) error {
		cfg.ShakeEnabled = enabled
		return nil
	})
	if err != nil {
		return err
	}

	c.log.Info("shake detection updated", "enabled", enabled)
	return nil
}

// SetTapEnabled gates tap reporting. Tap detection only works at 120
// samples per second.
func (c *Controller) SetTapEnabled(enabled bool) error {
	err := c.apply(func(cfg *Config) error {
		if enabled && cfg.SampleRate != mma7660.Rate120 {
			return fmt.Errorf("%w: tap detection requires %s samples/s, current rate is %s",
				ErrInvalidArgument, mma7660.Rate120, cfg.SampleRate)
		}
		cfg.TapEnabled = enabled
		return nil
	})
	if err != nil {
		return err
	}

	c.log.Info("tap detection updated", "enabled", enabled)
	return nil
}

// SetSampleRate programs a new rate. Leaving 120 samples per second turns
// tap reporting off. Once the register holds the new rate the change is
// committed, even if the device could not be put back into active mode;
// the standby handler is told so it can resume the device.
func (c *Controller) SetSampleRate(rate mma7660.SampleRate) error {
	if !rate.Valid() {
		return fmt.Errorf("%w: unsupported sample rate %d", ErrInvalidArgument, int(rate))
	}

	var restoreErr *mma7660.ModeRestoreError
	tapForced := false

	err := c.apply(func(cfg *Config) error {
		if err := c.dev.WriteSampleRate(rate); err != nil {
			if !errors.As(err, &restoreErr) || !restoreErr.Applied {
				return fmt.Errorf("failed to set sample rate: %w", err)
			}
		}

		cfg.SampleRate = rate
		if rate != mma7660.Rate120 && cfg.TapEnabled {
			cfg.TapEnabled = false
			tapForced = true
		}
		return nil
	})

	if restoreErr != nil {
		c.log.Warn("device left in standby after rate change", "rate", rate, "error", restoreErr)
		c.mu.RLock()
		h := c.standby
		c.mu.RUnlock()
		if h != nil {
			h.DeviceStandby()
		}
	}
	if err != nil {
		return err
	}

	c.log.Info("sample rate updated", "rate", rate, "tap_disabled", tapForced)
	return nil
}

// apply runs mutate on a copy of the configuration under the write lock and
// commits it when mutate succeeds. The notifier runs after the write lock is
// released but before the next mutation starts.
func (c *Controller) apply(mutate func(cfg *Config) error) error {
	c.setMu.Lock()
	defer c.setMu.Unlock()

	c.mu.Lock()
	cfg := c.cfg
	if err := mutate(&cfg); err != nil {
		c.mu.Unlock()
		return err
	}
	c.cfg = cfg
	n := c.notifier
	c.mu.Unlock()

	if n != nil {
		n.SettingsChanged(cfg)
	}
	return nil
}

func parseBool(s string) (bool, error) {
	v, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return false, fmt.Errorf("%w: expected 1 or 0, got %q", ErrInvalidArgument, s)
	}
	return v, nil
}

func formatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

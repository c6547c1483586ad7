package mma7660

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrBus wraps every transport level read or write failure
	ErrBus = errors.New("i2c bus error")

	// ErrDeviceBusyTimeout is returned when a register keeps reporting the
	// alert bit for longer than the retry cap allows
	ErrDeviceBusyTimeout = errors.New("device busy: register kept updating")

	// ErrInitialization wraps the bus error that aborted Init
	ErrInitialization = errors.New("mma7660 initialization failed")
)

// ModeRestoreError reports that the device stayed in standby after a
// configuration write that had to leave active mode
type ModeRestoreError struct {
	// Applied is set when the configuration write itself succeeded
	Applied bool
	Err     error
}

func (e *ModeRestoreError) Error() string {
	return "failed to re-enter active mode: " + e.Err.Error()
}

func (e *ModeRestoreError) Unwrap() error {
	return e.Err
}

// DefaultMaxBusyRetries caps re-reads of a register observed mid-update
const DefaultMaxBusyRetries = 64

// Bus is a byte-oriented register transport. Implementations need not be
// safe for concurrent use; Device serializes all access.
type Bus interface {
	ReadByteData(reg byte) (byte, error)
	WriteByteData(reg, value byte) error
	Close() error
}

// Device is an MMA7660 on a register bus. One mutex guards the bus for the
// whole request/response exchange, busy retries included.
type Device struct {
	mu         sync.Mutex
	bus        Bus
	maxRetries int
	active     bool
}

// NewDevice wraps bus. maxRetries <= 0 retries busy registers without limit.
func NewDevice(bus Bus, maxRetries int) *Device {
	return &Device{
		bus:        bus,
		maxRetries: maxRetries,
	}
}

// Close closes the underlying bus
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bus.Close()
}

// Active reports whether the last mode write put the device in active mode
func (d *Device) Active() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

// Init programs the device from power-on into the default configuration.
// The device is left in standby; configuration writes are ignored in active mode.
func (d *Device) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	rateCode, err := DefaultSampleRate.Code()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInitialization, err)
	}

	steps := []struct {
		reg   byte
		value byte
		what  string
	}{
		{REG_MODE, MODE_STANDBY, "enter standby"},
		{REG_INTSU, INTSU_SHINTX | INTSU_SHINTY | INTSU_SHINTZ, "enable shake detection"},
		{REG_SR, rateCode, "set sample rate"},
		{REG_PDET, PDET_DEFAULT, "enable tap detection"},
		{REG_PD, PD_DEFAULT, "set tap debounce"},
	}

	for _, s := range steps {
		if err := d.write(s.reg, s.value); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInitialization, s.what, err)
		}
	}
	d.active = false

	return nil
}

// Suspend puts the device in standby mode
func (d *Device) Suspend() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.write(REG_MODE, MODE_STANDBY); err != nil {
		return fmt.Errorf("failed to enter standby: %w", err)
	}
	d.active = false
	return nil
}

// Resume puts the device in active mode
func (d *Device) Resume() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.write(REG_MODE, MODE_ACTIVE); err != nil {
		return fmt.Errorf("failed to enter active mode: %w", err)
	}
	d.active = true
	return nil
}

// WriteSampleRate programs the AMSR field. An active device is dropped to
// standby for the write and put back into active mode afterwards. If that
// last step fails the returned error is a *ModeRestoreError and the device
// stays in standby.
func (d *Device) WriteSampleRate(rate SampleRate) error {
	code, err := rate.Code()
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	wasActive := d.active
	if wasActive {
		if err := d.write(REG_MODE, MODE_STANDBY); err != nil {
			return fmt.Errorf("failed to enter standby for rate change: %w", err)
		}
		d.active = false
	}

	writeErr := d.write(REG_SR, code)
	if writeErr != nil {
		writeErr = fmt.Errorf("failed to write sample rate: %w", writeErr)
	}

	if wasActive {
		if err := d.write(REG_MODE, MODE_ACTIVE); err != nil {
			restoreErr := &ModeRestoreError{Applied: writeErr == nil, Err: err}
			if writeErr != nil {
				return errors.Join(writeErr, restoreErr)
			}
			return restoreErr
		}
		d.active = true
	}

	return writeErr
}

// ReadSampleAwake reads one sample like ReadSample. A device in standby is
// put in active mode for the read and back in standby afterwards, all in one
// bus lock hold.
func (d *Device) ReadSampleAwake() (Sample, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.active {
		return d.readSampleUnsafe()
	}

	if err := d.write(REG_MODE, MODE_ACTIVE); err != nil {
		return Sample{}, fmt.Errorf("failed to wake device: %w", err)
	}

	sample, readErr := d.readSampleUnsafe()

	if err := d.write(REG_MODE, MODE_STANDBY); err != nil {
		// MODE=1 is what the part still holds
		d.active = true
		return Sample{}, errors.Join(readErr, fmt.Errorf("failed to return to standby: %w", err))
	}
	return sample, readErr
}

// ReadAxis reads one output register and sign-extends it
func (d *Device) ReadAxis(reg byte) (int8, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readAxisUnsafe(reg)
}

// ReadXYZ reads the three axes. A failure on any axis fails the whole triplet.
func (d *Device) ReadXYZ() (x, y, z int8, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readXYZUnsafe()
}

// ReadStatus reads and decodes the TILT register
func (d *Device) ReadStatus() (Status, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readStatusUnsafe()
}

// ReadSample reads the triplet and the TILT register in one bus lock hold
func (d *Device) ReadSample() (Sample, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readSampleUnsafe()
}

func (d *Device) readSampleUnsafe() (Sample, error) {
	x, y, z, err := d.readXYZUnsafe()
	if err != nil {
		return Sample{}, err
	}

	status, err := d.readStatusUnsafe()
	if err != nil {
		return Sample{}, err
	}

	return Sample{X: x, Y: y, Z: z, Status: status}, nil
}

func (d *Device) readXYZUnsafe() (x, y, z int8, err error) {
	if x, err = d.readAxisUnsafe(REG_XOUT); err != nil {
		return 0, 0, 0, fmt.Errorf("failed to read XOUT: %w", err)
	}
	if y, err = d.readAxisUnsafe(REG_YOUT); err != nil {
		return 0, 0, 0, fmt.Errorf("failed to read YOUT: %w", err)
	}
	if z, err = d.readAxisUnsafe(REG_ZOUT); err != nil {
		return 0, 0, 0, fmt.Errorf("failed to read ZOUT: %w", err)
	}
	return x, y, z, nil
}

func (d *Device) readAxisUnsafe(reg byte) (int8, error) {
	raw, err := d.readStableUnsafe(reg)
	if err != nil {
		return 0, err
	}
	return SignExtend(raw), nil
}

func (d *Device) readStatusUnsafe() (Status, error) {
	raw, err := d.readStableUnsafe(REG_TILT)
	if err != nil {
		return Status{}, fmt.Errorf("failed to read TILT: %w", err)
	}
	return DecodeStatus(raw), nil
}

// readStableUnsafe re-reads reg until the alert bit is clear. Bus errors are
// returned immediately.
func (d *Device) readStableUnsafe(reg byte) (byte, error) {
	for retries := 0; ; retries++ {
		raw, err := d.read(reg)
		if err != nil {
			return 0, err
		}
		if raw&ALERT_BIT == 0 {
			return raw, nil
		}
		if d.maxRetries > 0 && retries >= d.maxRetries {
			return 0, fmt.Errorf("%w: register 0x%02X after %d retries", ErrDeviceBusyTimeout, reg, retries)
		}
	}
}

func (d *Device) read(reg byte) (byte, error) {
	v, err := d.bus.ReadByteData(reg)
	return v, asBusError(err)
}

func (d *Device) write(reg, value byte) error {
	return asBusError(d.bus.WriteByteData(reg, value))
}

func asBusError(err error) error {
	if err == nil || errors.Is(err, ErrBus) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrBus, err)
}

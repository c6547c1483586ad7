package hardware

import (
	"fmt"

	"mma7660-service/internal/hardware/mma7660"
)

// AwakeReader reads one sample, waking a device in standby for the read
type AwakeReader interface {
	ReadSampleAwake() (mma7660.Sample, error)
}

// Diagnostic renders the human readable stat dump. Each call performs
// exactly one triplet read and one status read. A device in standby is
// woken for the read and put back afterwards.
type Diagnostic struct {
	dev AwakeReader
	cfg ConfigSource
}

// NewDiagnostic creates a new Diagnostic
func NewDiagnostic(dev AwakeReader, cfg ConfigSource) *Diagnostic {
	return &Diagnostic{dev: dev, cfg: cfg}
}

// Dump reads the device and formats the result
func (d *Diagnostic) Dump() (string, error) {
	// snapshot before reading: the controller lock is never taken while
	// the bus lock is held
	cfg := d.cfg.Snapshot()

	s, err := d.dev.ReadSampleAwake()
	if err != nil {
		return "", fmt.Errorf("failed to read sample: %w", err)
	}

	return mma7660.FormatDiagnostic(s, cfg.ShakeEnabled, cfg.TapEnabled), nil
}

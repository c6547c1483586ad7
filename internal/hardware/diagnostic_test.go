package hardware

import (
	"errors"
	"strings"
	"testing"

	"mma7660-service/internal/control"
	"mma7660-service/internal/hardware/mma7660"
)

func TestDiagnostic_Dump(t *testing.T) {
	reader := &mockReader{
		sample: mma7660.Sample{X: -5, Y: 12, Z: 21, Status: mma7660.DecodeStatus(0b10000101)},
	}
	cfg := &mockConfig{cfg: control.Config{ShakeEnabled: true, TapEnabled: false, SampleRate: mma7660.Rate64}}

	out, err := NewDiagnostic(reader, cfg).Dump()
	if err != nil {
		t.Fatalf("Dump failed: %v", err)
	}

	if reader.awakeReads != 1 || reader.reads != 0 {
		t.Errorf("expected exactly one waking sample read, got %d (plain %d)", reader.awakeReads, reader.reads)
	}
	for _, want := range []string{" X :  -5", " Y :  12", "Experiencing shake", "Tap disabled", "Landscape-Left"} {
		if !strings.Contains(out, want) {
			t.Errorf("dump missing %q:\n%s", want, out)
		}
	}
}

func TestDiagnostic_DumpReadError(t *testing.T) {
	reader := &mockReader{err: mma7660.ErrBus}
	cfg := &mockConfig{cfg: control.DefaultConfig()}

	_, err := NewDiagnostic(reader, cfg).Dump()
	if !errors.Is(err, mma7660.ErrBus) {
		t.Errorf("expected ErrBus, got %v", err)
	}
}

package mma7660

import (
	"fmt"
	"strings"
)

// DiagnosticBufferSize bounds the diagnostic snapshot
const DiagnosticBufferSize = 256

const diagnosticRule = "==========================="

// FormatTilt renders a status word as human readable lines. Shake and tap are
// reported as disabled when their gate is off, whatever the register says.
func FormatTilt(s Status, shakeEnabled, tapEnabled bool) string {
	var b strings.Builder

	switch {
	case !shakeEnabled:
		b.WriteString("Shake disabled\n")
	case s.Shake:
		b.WriteString("Experiencing shake\n")
	default:
		b.WriteString("Not experiencing shake\n")
	}

	switch {
	case !tapEnabled:
		b.WriteString("Tap disabled\n")
	case s.Tap:
		b.WriteString("Tap detected\n")
	default:
		b.WriteString("No tap detected\n")
	}

	fmt.Fprintf(&b, "Facing : %s\n", s.Facing)
	if s.Orientation == OrientationUnknown {
		b.WriteString("Unknown PoLa")
	} else {
		b.WriteString(s.Orientation.String())
	}

	return b.String()
}

// FormatDiagnostic renders a framed snapshot of one sample
func FormatDiagnostic(s Sample, shakeEnabled, tapEnabled bool) string {
	out := fmt.Sprintf("%s\n X : %3d\n Y : %3d\n Z : %3d\n\nTilt info :\n%s\n%s\n",
		diagnosticRule, s.X, s.Y, s.Z,
		FormatTilt(s.Status, shakeEnabled, tapEnabled),
		diagnosticRule)

	if len(out) > DiagnosticBufferSize {
		out = out[:DiagnosticBufferSize]
	}
	return out
}

package mma7660

import (
	"fmt"
	"strconv"
	"strings"
)

// SampleRate is an active-mode sample rate in samples per second
type SampleRate int

const (
	Rate120 SampleRate = 120
	Rate64  SampleRate = 64
	Rate32  SampleRate = 32
	Rate16  SampleRate = 16
	Rate8   SampleRate = 8
	Rate4   SampleRate = 4
	Rate2   SampleRate = 2
	Rate1   SampleRate = 1
)

// DefaultSampleRate is programmed by Init. Tap detection only works at this rate.
const DefaultSampleRate = Rate120

// SampleRates lists the supported rates in register code order
var SampleRates = []SampleRate{Rate120, Rate64, Rate32, Rate16, Rate8, Rate4, Rate2, Rate1}

func (r SampleRate) String() string {
	return strconv.Itoa(int(r))
}

// Valid reports whether r is one of the supported rates
func (r SampleRate) Valid() bool {
	_, ok := r.code()
	return ok
}

// Code returns the 3-bit AMSR value for register 0x08
func (r SampleRate) Code() (byte, error) {
	code, ok := r.code()
	if !ok {
		return 0, fmt.Errorf("unsupported sample rate %d", int(r))
	}
	return code, nil
}

func (r SampleRate) code() (byte, bool) {
	for i, rate := range SampleRates {
		if rate == r {
			return byte(i), true
		}
	}
	return 0, false
}

// ParseSampleRate parses a rate in samples per second, e.g. "64" or "64\n"
func ParseSampleRate(s string) (SampleRate, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid sample rate %q: %w", s, err)
	}
	r := SampleRate(n)
	if !r.Valid() {
		return 0, fmt.Errorf("unsupported sample rate %d", n)
	}
	return r, nil
}

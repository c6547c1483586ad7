package mma7660

import (
	"errors"
	"fmt"
	"sync"
)

var errMockIO = errors.New("remote I/O error")

type busWrite struct {
	reg   byte
	value byte
}

// mockBus serves queued reads per register, falling back to a fixed value,
// and records every write
type mockBus struct {
	mu       sync.Mutex
	queued   map[byte][]byte
	values   map[byte]byte
	readErr  map[byte]error
	writeErr map[byte]error
	reads    map[byte]int
	writes   []busWrite
	closed   bool

	// writeHook, when set, may fail individual writes
	writeHook func(reg, value byte) error

	// log records reads ("r") and writes ("w") in bus order
	log []string
}

func newMockBus() *mockBus {
	return &mockBus{
		queued:   make(map[byte][]byte),
		values:   make(map[byte]byte),
		readErr:  make(map[byte]error),
		writeErr: make(map[byte]error),
		reads:    make(map[byte]int),
	}
}

func (m *mockBus) ReadByteData(reg byte) (byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.reads[reg]++
	m.log = append(m.log, fmt.Sprintf("r%02X", reg))
	if err := m.readErr[reg]; err != nil {
		return 0, err
	}
	if q := m.queued[reg]; len(q) > 0 {
		m.queued[reg] = q[1:]
		return q[0], nil
	}
	return m.values[reg], nil
}

func (m *mockBus) WriteByteData(reg, value byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.writeErr[reg]; err != nil {
		return err
	}
	if m.writeHook != nil {
		if err := m.writeHook(reg, value); err != nil {
			return err
		}
	}
	m.log = append(m.log, fmt.Sprintf("w%02X=%02X", reg, value))
	m.writes = append(m.writes, busWrite{reg, value})
	m.values[reg] = value
	return nil
}

func (m *mockBus) Close() error {
	m.closed = true
	return nil
}

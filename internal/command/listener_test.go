package command

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
)

type mockConsumers struct {
	acquired int
	released int
}

func (m *mockConsumers) Acquire(consumer string) { m.acquired++ }
func (m *mockConsumers) Release(consumer string) { m.released++ }

type mockSettings struct {
	field, value string
	err          error
}

func (m *mockSettings) Set(field, value string) error {
	m.field, m.value = field, value
	return m.err
}

type mockDiagnostics struct {
	out   string
	err   error
	dumps int
}

func (m *mockDiagnostics) Dump() (string, error) {
	m.dumps++
	return m.out, m.err
}

type mockStat struct {
	stat string
}

func (m *mockStat) PublishStat(ctx context.Context, stat string) error {
	m.stat = stat
	return nil
}

func newTestListener() (*Listener, *mockConsumers, *mockSettings, *mockDiagnostics, *mockStat) {
	consumers := &mockConsumers{}
	settings := &mockSettings{}
	diag := &mockDiagnostics{out: "X : 1"}
	stat := &mockStat{}
	log := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

	l := &Listener{
		consumers: consumers,
		settings:  settings,
		diag:      diag,
		stat:      stat,
		log:       log,
	}
	return l, consumers, settings, diag, stat
}

func TestHandleCommand_AcquireRelease(t *testing.T) {
	l, consumers, _, _, _ := newTestListener()
	ctx := context.Background()

	if err := l.handleCommand(ctx, "acquire"); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	if err := l.handleCommand(ctx, "release"); err != nil {
		t.Fatalf("release failed: %v", err)
	}

	if consumers.acquired != 1 || consumers.released != 1 {
		t.Errorf("acquired=%d released=%d, want 1 and 1", consumers.acquired, consumers.released)
	}
}

func TestHandleCommand_Dump(t *testing.T) {
	l, _, _, diag, stat := newTestListener()

	if err := l.handleCommand(context.Background(), "dump"); err != nil {
		t.Fatalf("dump failed: %v", err)
	}
	if diag.dumps != 1 {
		t.Errorf("expected one dump, got %d", diag.dumps)
	}
	if stat.stat != "X : 1" {
		t.Errorf("published stat = %q", stat.stat)
	}
}

func TestHandleCommand_DumpError(t *testing.T) {
	l, _, _, diag, stat := newTestListener()
	diag.err = errors.New("bus error")

	if err := l.handleCommand(context.Background(), "dump"); err == nil {
		t.Fatal("expected error")
	}
	if stat.stat != "" {
		t.Errorf("nothing should be published on failure, got %q", stat.stat)
	}
}

func TestHandleCommand_Set(t *testing.T) {
	l, _, settings, _, _ := newTestListener()

	if err := l.handleCommand(context.Background(), "set:sample_rate:64"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if settings.field != "sample_rate" || settings.value != "64" {
		t.Errorf("Set(%q, %q), want Set(sample_rate, 64)", settings.field, settings.value)
	}
}

func TestHandleCommand_SetPropagatesError(t *testing.T) {
	l, _, settings, _, _ := newTestListener()
	settings.err = errors.New("invalid argument")

	if err := l.handleCommand(context.Background(), "set:tap_enable:1"); err == nil {
		t.Error("expected error from settings")
	}
}

func TestHandleCommand_Invalid(t *testing.T) {
	l, _, _, _, _ := newTestListener()

	for _, cmd := range []string{"", "start:10", "set:sample_rate", "acquire-now"} {
		if err := l.handleCommand(context.Background(), cmd); err == nil {
			t.Errorf("expected error for %q", cmd)
		}
	}
}

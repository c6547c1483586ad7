package hardware

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"mma7660-service/internal/control"
	"mma7660-service/internal/events"
	"mma7660-service/internal/hardware/mma7660"
)

// mockReader for testing
type mockReader struct {
	mu         sync.Mutex
	sample     mma7660.Sample
	err        error
	reads      int
	awakeReads int
}

func (m *mockReader) ReadSample() (mma7660.Sample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	return m.sample, m.err
}

func (m *mockReader) ReadSampleAwake() (mma7660.Sample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.awakeReads++
	return m.sample, m.err
}

// mockConfig for testing
type mockConfig struct {
	cfg control.Config
}

func (m *mockConfig) Snapshot() control.Config {
	return m.cfg
}

// mockSink for testing
type mockSink struct {
	mu      sync.Mutex
	batches []events.Batch
}

func (m *mockSink) Emit(ctx context.Context, b events.Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, b)
	return nil
}

func (m *mockSink) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.batches)
}

func createTestPoller() (*Poller, *mockReader, *mockConfig, *mockSink) {
	reader := &mockReader{
		sample: mma7660.Sample{X: -5, Y: 12, Z: 21, Status: mma7660.DecodeStatus(0b10000101)},
	}
	cfg := &mockConfig{cfg: control.DefaultConfig()}
	sink := &mockSink{}
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	return NewPoller(reader, cfg, sink, time.Millisecond, log), reader, cfg, sink
}

func TestPoller_IdleDoesNotRead(t *testing.T) {
	p, reader, _, sink := createTestPoller()

	p.poll(context.Background())

	if reader.reads != 0 {
		t.Errorf("expected no reads while idle, got %d", reader.reads)
	}
	if sink.count() != 0 {
		t.Errorf("expected no batches while idle, got %d", sink.count())
	}
}

func TestPoller_EmitsGatedBatch(t *testing.T) {
	p, _, _, sink := createTestPoller()
	p.Enable()

	p.poll(context.Background())

	if sink.count() != 1 {
		t.Fatalf("expected 1 batch, got %d", sink.count())
	}
	b := sink.batches[0]
	if b.X != -5 || b.Y != 12 || b.Z != 21 {
		t.Errorf("unexpected triplet %d %d %d", b.X, b.Y, b.Z)
	}
	if b.Orientation != 0b00101 {
		t.Errorf("expected orientation code 0b00101, got 0b%05b", b.Orientation)
	}
	if b.Shake == nil || !*b.Shake {
		t.Error("expected shake=true")
	}
	if b.Tap == nil || *b.Tap {
		t.Error("expected tap=false")
	}
	if b.Seq != 1 {
		t.Errorf("expected seq 1, got %d", b.Seq)
	}
}

func TestPoller_DisabledGesturesOmitted(t *testing.T) {
	p, _, cfg, sink := createTestPoller()
	cfg.cfg.ShakeEnabled = false
	cfg.cfg.TapEnabled = false
	p.Enable()

	p.poll(context.Background())

	if sink.count() != 1 {
		t.Fatalf("expected 1 batch, got %d", sink.count())
	}
	b := sink.batches[0]
	if b.Shake != nil || b.Tap != nil {
		t.Errorf("expected gestures to be omitted, got shake=%v tap=%v", b.Shake, b.Tap)
	}
}

func TestPoller_BusErrorSkipsCycle(t *testing.T) {
	p, reader, cfg, sink := createTestPoller()
	reader.err = mma7660.ErrBus
	before := cfg.cfg
	p.Enable()

	p.poll(context.Background())

	if sink.count() != 0 {
		t.Errorf("expected no batches on bus error, got %d", sink.count())
	}
	if cfg.cfg != before {
		t.Error("configuration must not change on a failed cycle")
	}
	if _, skipped := p.Stats(); skipped != 1 {
		t.Errorf("expected 1 skipped cycle, got %d", skipped)
	}

	reader.err = nil
	p.poll(context.Background())
	if sink.count() != 1 {
		t.Errorf("expected loop to recover after a transient error, got %d batches", sink.count())
	}
}

func TestPoller_RunAndDisable(t *testing.T) {
	p, _, _, sink := createTestPoller()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	p.Enable()
	deadline := time.Now().Add(2 * time.Second)
	for sink.count() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if sink.count() < 3 {
		t.Fatalf("expected at least 3 batches, got %d", sink.count())
	}

	p.Disable()
	n := sink.count()
	time.Sleep(20 * time.Millisecond)
	if sink.count() != n {
		t.Errorf("expected no batches after Disable, got %d more", sink.count()-n)
	}

	cancel()
	<-done
}

func TestPoller_Trigger(t *testing.T) {
	reader := &mockReader{}
	sink := &mockSink{}
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	p := NewPoller(reader, &mockConfig{cfg: control.DefaultConfig()}, sink, time.Hour, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	p.Enable()
	p.Trigger()

	deadline := time.Now().Add(2 * time.Second)
	for sink.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if sink.count() != 1 {
		t.Errorf("expected 1 triggered batch, got %d", sink.count())
	}
}

func TestNewBatch_ShakeBitHiddenWhenDisabled(t *testing.T) {
	s := mma7660.Sample{Status: mma7660.DecodeStatus(mma7660.TILT_SHAKE)}
	cfg := control.DefaultConfig()
	cfg.ShakeEnabled = false

	b := NewBatch(1, time.Now(), s, cfg)
	if b.Shake != nil {
		t.Error("expected shake to be omitted")
	}
}

func TestPoller_StatsCountCycles(t *testing.T) {
	p, reader, _, _ := createTestPoller()
	p.Enable()

	p.poll(context.Background())
	p.poll(context.Background())
	reader.mu.Lock()
	reader.err = mma7660.ErrBus
	reader.mu.Unlock()
	p.poll(context.Background())
	p.Disable()
	p.poll(context.Background())

	emitted, skipped := p.Stats()
	if emitted != 2 || skipped != 1 {
		t.Errorf("emitted=%d skipped=%d, want 2 and 1", emitted, skipped)
	}
}

package hardware

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"mma7660-service/internal/control"
	"mma7660-service/internal/events"
	"mma7660-service/internal/hardware/mma7660"
)

// DefaultPollInterval is the acquisition period while polling
const DefaultPollInterval = 10 * time.Millisecond

// SampleReader reads one triplet + status from the device
type SampleReader interface {
	ReadSample() (mma7660.Sample, error)
}

// ConfigSource provides the configuration gating each cycle
type ConfigSource interface {
	Snapshot() control.Config
}

// Poller samples the accelerometer at a fixed interval while enabled and
// forwards decoded batches to a sink
type Poller struct {
	dev      SampleReader
	cfg      ConfigSource
	sink     events.Sink
	log      *slog.Logger
	interval time.Duration

	enabled atomic.Bool
	cycleMu sync.Mutex
	seq     uint64
	trigger chan struct{}

	emitted atomic.Uint64
	skipped atomic.Uint64
}

// NewPoller creates a new Poller in the idle state
func NewPoller(
	dev SampleReader,
	cfg ConfigSource,
	sink events.Sink,
	interval time.Duration,
	log *slog.Logger,
) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		dev:      dev,
		cfg:      cfg,
		sink:     sink,
		log:      log,
		interval: interval,
		trigger:  make(chan struct{}, 1),
	}
}

// Enable starts periodic sampling
func (p *Poller) Enable() {
	if !p.enabled.Swap(true) {
		p.log.Info("polling enabled", "interval", p.interval)
	}
}

// Disable stops periodic sampling. It returns once any in-flight cycle has
// finished, so the device can be put in standby safely afterwards.
func (p *Poller) Disable() {
	p.cycleMu.Lock()
	defer p.cycleMu.Unlock()

	if p.enabled.Swap(false) {
		emitted, skipped := p.Stats()
		p.log.Info("polling disabled", "emitted", emitted, "skipped", skipped)
	}
}

// Trigger requests an immediate cycle, e.g. on a device interrupt
func (p *Poller) Trigger() {
	select {
	case p.trigger <- struct{}{}:
	default:
	}
}

// Stats returns the number of emitted and skipped cycles
func (p *Poller) Stats() (emitted, skipped uint64) {
	return p.emitted.Load(), p.skipped.Load()
}

// Run starts the polling loop
func (p *Poller) Run(ctx context.Context) {
	p.log.Info("starting poller")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.Disable()
			p.log.Info("poller stopped")
			return

		case <-ticker.C:
			p.poll(ctx)

		case <-p.trigger:
			p.poll(ctx)
		}
	}
}

// poll runs one acquisition cycle. Bus errors skip the cycle.
func (p *Poller) poll(ctx context.Context) {
	p.cycleMu.Lock()
	defer p.cycleMu.Unlock()

	if !p.enabled.Load() {
		return
	}

	sample, err := p.dev.ReadSample()
	if err != nil {
		p.skipped.Add(1)
		p.log.Debug("skipping poll cycle", "error", err)
		return
	}

	p.seq++
	batch := NewBatch(p.seq, time.Now(), sample, p.cfg.Snapshot())

	if err := p.sink.Emit(ctx, batch); err != nil {
		p.log.Warn("failed to emit batch", "seq", batch.Seq, "error", err)
	}
	p.emitted.Add(1)
}

// NewBatch applies the configuration gates to a sample. Disabled gestures
// are left out of the batch.
func NewBatch(seq uint64, t time.Time, s mma7660.Sample, cfg control.Config) events.Batch {
	b := events.Batch{
		Seq:         seq,
		Time:        t,
		X:           s.X,
		Y:           s.Y,
		Z:           s.Z,
		Orientation: s.Status.Code(),
	}

	if cfg.ShakeEnabled {
		shake := s.Status.Shake
		b.Shake = &shake
	}
	if cfg.TapEnabled {
		tap := s.Status.Tap
		b.Tap = &tap
	}

	return b
}

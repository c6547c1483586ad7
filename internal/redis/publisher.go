package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"mma7660-service/internal/control"
	"mma7660-service/internal/events"
	"mma7660-service/internal/hardware/mma7660"

	ipc "github.com/librescoot/redis-ipc"
)

const (
	stateHash      = "mma7660"
	sampleChannel  = "mma7660:sample"
	gestureChannel = "mma7660:gesture"

	settingsTimeout = 2 * time.Second
)

// Publisher handles publishing accelerometer state to Redis
type Publisher struct {
	statePub *ipc.HashPublisher
	ipc      *ipc.Client
	log      *slog.Logger

	mu              sync.Mutex
	lastOrientation uint8
	haveOrientation bool
}

// NewPublisher creates a new Publisher
func NewPublisher(client *Client, log *slog.Logger) *Publisher {
	return &Publisher{
		statePub: client.ipc.NewHashPublisher(stateHash),
		ipc:      client.ipc,
		log:      log,
	}
}

// PublishStatus publishes the lifecycle status
func (p *Publisher) PublishStatus(ctx context.Context, status string) error {
	if err := p.statePub.Set("status", status); err != nil {
		return fmt.Errorf("failed to publish status: %w", err)
	}
	return nil
}

// PublishStat stores the diagnostic text
func (p *Publisher) PublishStat(ctx context.Context, stat string) error {
	if err := p.statePub.Set("stat", stat); err != nil {
		return fmt.Errorf("failed to publish stat: %w", err)
	}
	return nil
}

// Emit publishes a batch on the sample channel. The hash only follows
// orientation changes and gestures; raw axes are not written per sample.
func (p *Publisher) Emit(ctx context.Context, b events.Batch) error {
	payload, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("failed to encode batch: %w", err)
	}
	if _, err := p.ipc.Publish(sampleChannel, string(payload)); err != nil {
		return fmt.Errorf("failed to publish sample: %w", err)
	}

	if p.orientationChanged(b.Orientation) {
		// the batch carries the combined facing+orientation code
		st := mma7660.DecodeStatus(b.Orientation)
		if err := p.statePub.Set("orientation", st.Orientation.String()); err != nil {
			return fmt.Errorf("failed to publish orientation: %w", err)
		}
		if err := p.statePub.Set("facing", st.Facing.String()); err != nil {
			return fmt.Errorf("failed to publish facing: %w", err)
		}
	}

	if b.Shake != nil && *b.Shake {
		if err := p.publishGesture(ctx, "shake", b); err != nil {
			return err
		}
	}
	if b.Tap != nil && *b.Tap {
		if err := p.publishGesture(ctx, "tap", b); err != nil {
			return err
		}
	}

	return nil
}

func (p *Publisher) publishGesture(ctx context.Context, gesture string, b events.Batch) error {
	for field, value := range map[string]string{
		"x": strconv.Itoa(int(b.X)),
		"y": strconv.Itoa(int(b.Y)),
		"z": strconv.Itoa(int(b.Z)),
	} {
		if err := p.statePub.Set(field, value); err != nil {
			return fmt.Errorf("failed to publish %s: %w", field, err)
		}
	}
	if _, err := p.ipc.Publish(gestureChannel, gesture); err != nil {
		return fmt.Errorf("failed to publish %s: %w", gesture, err)
	}
	p.log.Debug("gesture published", "gesture", gesture, "seq", b.Seq)
	return nil
}

func (p *Publisher) orientationChanged(o uint8) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.haveOrientation && p.lastOrientation == o {
		return false
	}
	p.lastOrientation = o
	p.haveOrientation = true
	return true
}

// SettingsChanged mirrors the effective configuration into the state hash
func (p *Publisher) SettingsChanged(cfg control.Config) {
	fields := cfg.Values()
	for _, field := range control.Fields {
		if err := p.statePub.Set(field, fields[field]); err != nil {
			p.log.Error("failed to publish setting", "field", field, "error", err)
		}
	}
}

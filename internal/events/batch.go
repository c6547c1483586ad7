package events

import (
	"context"
	"errors"
	"time"
)

// Batch is one poll cycle's report. A delivered Batch is a complete,
// synced frame; consumers never see a partial one.
type Batch struct {
	Seq         uint64    `json:"seq"`
	Time        time.Time `json:"time"`
	X           int8      `json:"x"`
	Y           int8      `json:"y"`
	Z           int8      `json:"z"`
	Orientation uint8     `json:"orientation"`
	Shake       *bool     `json:"shake,omitempty"` // nil when shake detection is disabled
	Tap         *bool     `json:"tap,omitempty"`   // nil when tap detection is disabled
}

// Sink receives batches from the acquisition loop
type Sink interface {
	Emit(ctx context.Context, b Batch) error
}

// SinkFunc adapts a function to Sink
type SinkFunc func(ctx context.Context, b Batch) error

func (f SinkFunc) Emit(ctx context.Context, b Batch) error { return f(ctx, b) }

// Fanout delivers every batch to all sinks, even when some fail
type Fanout []Sink

func (f Fanout) Emit(ctx context.Context, b Batch) error {
	var errs []error
	for _, s := range f {
		if err := s.Emit(ctx, b); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

package events

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestBatch_OmitsDisabledGestures(t *testing.T) {
	shake := true
	b := Batch{Seq: 1, X: -3, Y: 4, Z: 20, Orientation: 0b00101, Shake: &shake}

	data, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	s := string(data)
	if !strings.Contains(s, `"shake":true`) {
		t.Errorf("expected shake field, got %s", s)
	}
	if strings.Contains(s, `"tap"`) {
		t.Errorf("expected tap field to be omitted, got %s", s)
	}
}

func TestFanout_DeliversToAllSinks(t *testing.T) {
	var got []uint64
	ok := SinkFunc(func(ctx context.Context, b Batch) error {
		got = append(got, b.Seq)
		return nil
	})
	failing := SinkFunc(func(ctx context.Context, b Batch) error {
		return errors.New("broker unavailable")
	})

	f := Fanout{ok, failing, ok}
	err := f.Emit(context.Background(), Batch{Seq: 7})
	if err == nil {
		t.Fatal("expected joined error from failing sink")
	}
	if len(got) != 2 {
		t.Errorf("expected both healthy sinks to receive the batch, got %v", got)
	}
}

func TestHub_SubscribeEmitCancel(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe(1)

	if h.Subscribers() != 1 {
		t.Fatalf("expected 1 subscriber, got %d", h.Subscribers())
	}

	h.Emit(context.Background(), Batch{Seq: 1})
	h.Emit(context.Background(), Batch{Seq: 2}) // dropped, buffer full

	b := <-ch
	if b.Seq != 1 {
		t.Errorf("expected seq 1, got %d", b.Seq)
	}

	cancel()
	cancel()
	if h.Subscribers() != 0 {
		t.Errorf("expected 0 subscribers, got %d", h.Subscribers())
	}
	if _, open := <-ch; open {
		t.Error("expected channel to be closed after cancel")
	}
}

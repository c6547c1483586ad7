package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"mma7660-service/internal/events"
)

// doneToken is an already completed paho.Token
type doneToken struct {
	err error
}

func (t *doneToken) Wait() bool { return true }
func (t *doneToken) WaitTimeout(time.Duration) bool { return true }
func (t *doneToken) Error() error { return t.err }
func (t *doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type mockClient struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
	err      error
}

func (m *mockClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	m.topic, m.qos, m.retained = topic, qos, retained
	m.payload, _ = payload.([]byte)
	return &doneToken{err: m.err}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestSink_EmitPublishesJSON(t *testing.T) {
	client := &mockClient{}
	s := newSink(client, "sensors/mma7660", testLogger())

	shake := true
	b := events.Batch{Seq: 7, X: -3, Y: 4, Z: 21, Orientation: 6, Shake: &shake}
	if err := s.Emit(context.Background(), b); err != nil {
		t.Fatalf("Emit failed: %v", err)
	}

	if client.topic != "sensors/mma7660" || client.qos != 0 || client.retained {
		t.Errorf("published to %s qos=%d retained=%v", client.topic, client.qos, client.retained)
	}

	var got events.Batch
	if err := json.Unmarshal(client.payload, &got); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if got.Seq != 7 || got.X != -3 || got.Shake == nil || !*got.Shake || got.Tap != nil {
		t.Errorf("unexpected payload %s", client.payload)
	}
}

func TestSink_EmitPublishError(t *testing.T) {
	client := &mockClient{err: errors.New("not connected")}
	s := newSink(client, "sensors/mma7660", testLogger())

	if err := s.Emit(context.Background(), events.Batch{}); err == nil {
		t.Error("expected publish error")
	}
}

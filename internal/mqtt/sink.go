package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"mma7660-service/internal/events"
)

const connectTimeout = 10 * time.Second

// publisher is the subset of paho.Client used by Sink
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

// Sink publishes batches as JSON to an MQTT topic, QoS 0, not retained
type Sink struct {
	client publisher
	topic  string
	log    *slog.Logger
	close  func()
}

// Dial connects to broker and returns a Sink publishing to topic
func Dial(broker, clientID, topic string, log *slog.Logger) (*Sink, error) {
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Warn("mqtt connection lost", "error", err)
		})

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("mqtt connect to %s timed out", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", broker, err)
	}

	log.Info("connected to mqtt broker", "broker", broker, "topic", topic)

	s := newSink(client, topic, log)
	s.close = func() { client.Disconnect(250) }
	return s, nil
}

func newSink(client publisher, topic string, log *slog.Logger) *Sink {
	return &Sink{
		client: client,
		topic:  topic,
		log:    log,
	}
}

// Emit publishes one batch
func (s *Sink) Emit(ctx context.Context, b events.Batch) error {
	payload, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("failed to encode batch: %w", err)
	}

	token := s.client.Publish(s.topic, 0, false, payload)
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("mqtt publish to %s: %w", s.topic, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close disconnects from the broker
func (s *Sink) Close() {
	if s.close != nil {
		s.close()
	}
}

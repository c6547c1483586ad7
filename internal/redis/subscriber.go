package redis

import (
	"fmt"
	"log/slog"
	"strings"

	"mma7660-service/internal/control"

	ipc "github.com/librescoot/redis-ipc"
)

const consumerChannel = "mma7660:consumer"

// settingsFields maps keys of the shared settings hash to control fields
var settingsFields = map[string]string{
	"mma7660.shake-enable": control.FieldShakeEnable,
	"mma7660.tap-enable":   control.FieldTapEnable,
	"mma7660.sample-rate":  control.FieldSampleRate,
}

// Settings interface for applying configuration
type Settings interface {
	Set(field, value string) error
}

// Consumers interface for device reference counting
type Consumers interface {
	Acquire(consumer string)
	Release(consumer string)
}

// Subscriber applies settings changes and consumer requests from Redis
type Subscriber struct {
	settingsWatcher *ipc.HashWatcher
	consumerSub     *ipc.Subscription[string]
	ipc             *ipc.Client
	log             *slog.Logger
	settings        Settings
	consumers       Consumers
}

// NewSubscriber creates a new Subscriber
func NewSubscriber(client *Client, settings Settings, consumers Consumers, log *slog.Logger) *Subscriber {
	s := &Subscriber{
		settingsWatcher: client.ipc.NewHashWatcher("settings"),
		ipc:             client.ipc,
		log:             log,
		settings:        settings,
		consumers:       consumers,
	}

	for key, field := range settingsFields {
		s.settingsWatcher.OnField(key, s.settingHandler(key, field))
	}

	return s
}

// settingHandler returns the watcher callback for one settings key. Invalid
// values are logged and ignored so the watcher keeps running.
func (s *Subscriber) settingHandler(key, field string) func(string) error {
	return func(value string) error {
		s.log.Debug("setting changed", "key", key, "value", value)
		if err := s.settings.Set(field, value); err != nil {
			s.log.Error("failed to apply setting", "key", key, "value", value, "error", err)
		}
		return nil
	}
}

// handleConsumer handles a payload on the consumer channel
func (s *Subscriber) handleConsumer(payload string) error {
	switch strings.TrimSpace(payload) {
	case "acquire":
		s.consumers.Acquire("redis")
	case "release":
		s.consumers.Release("redis")
	default:
		s.log.Warn("unknown consumer request", "payload", payload)
	}
	return nil
}

// Start starts the settings watcher with initial state sync and subscribes
// to consumer requests
func (s *Subscriber) Start() error {
	s.log.Info("starting settings watcher with initial sync")

	if err := s.settingsWatcher.StartWithSync(); err != nil {
		return fmt.Errorf("failed to start settings watcher: %w", err)
	}

	var err error
	s.consumerSub, err = ipc.Subscribe(s.ipc, consumerChannel, s.handleConsumer)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", consumerChannel, err)
	}

	return nil
}

// Stop stops all watchers
func (s *Subscriber) Stop() {
	s.settingsWatcher.Stop()
	if s.consumerSub != nil {
		s.consumerSub.Unsubscribe()
	}
}

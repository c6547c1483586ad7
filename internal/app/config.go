package app

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"mma7660-service/internal/hardware"
	"mma7660-service/internal/hardware/mma7660"
)

// Transports
const (
	TransportSMBus  = "smbus"
	TransportPeriph = "periph"
)

// Config holds application configuration
type Config struct {
	Transport      string        `yaml:"transport"`
	I2CBus         string        `yaml:"i2c_bus"`
	Address        uint8         `yaml:"address"`
	Unbind         bool          `yaml:"unbind"`
	MaxBusyRetries int           `yaml:"max_busy_retries"`
	PollInterval   time.Duration `yaml:"poll_interval"`
	Autosuspend    time.Duration `yaml:"autosuspend"`

	IRQChip string `yaml:"irq_chip"`
	IRQLine int    `yaml:"irq_line"` // negative disables the interrupt line

	RedisAddr string `yaml:"redis"`
	HTTPAddr  string `yaml:"http"` // empty disables the HTTP surface

	MQTTBroker   string `yaml:"mqtt_broker"` // empty disables the MQTT sink
	MQTTTopic    string `yaml:"mqtt_topic"`
	MQTTClientID string `yaml:"mqtt_client_id"`

	LogLevel string `yaml:"log_level"`

	// Initial settings, applied on startup when set
	ShakeEnabled *bool `yaml:"shake_enable"`
	TapEnabled   *bool `yaml:"tap_enable"`
	SampleRate   *int  `yaml:"sample_rate"`

	Logger *slog.Logger `yaml:"-"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() Config {
	return Config{
		Transport:      TransportSMBus,
		I2CBus:         "/dev/i2c-3",
		Address:        mma7660.DefaultAddr,
		MaxBusyRetries: mma7660.DefaultMaxBusyRetries,
		PollInterval:   hardware.DefaultPollInterval,
		IRQChip:        "gpiochip0",
		IRQLine:        -1,
		RedisAddr:      "localhost:6379",
		MQTTTopic:      "mma7660/sample",
		MQTTClientID:   "mma7660-service",
		LogLevel:       "info",
	}
}

// LoadConfigFile reads a YAML file on top of cfg. Keys missing from the
// file keep their current value.
func LoadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// Validate checks values the flag and YAML parsers cannot
func (c *Config) Validate() error {
	switch c.Transport {
	case TransportSMBus, TransportPeriph:
	default:
		return fmt.Errorf("unknown transport %q, expected %s or %s", c.Transport, TransportSMBus, TransportPeriph)
	}
	if c.I2CBus == "" {
		return fmt.Errorf("i2c bus not configured")
	}
	if c.Address == 0 || c.Address > 0x7F {
		return fmt.Errorf("invalid i2c address 0x%02x", c.Address)
	}
	if c.PollInterval < 0 || c.Autosuspend < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	if c.SampleRate != nil && !mma7660.SampleRate(*c.SampleRate).Valid() {
		return fmt.Errorf("unsupported sample rate %d", *c.SampleRate)
	}
	return nil
}

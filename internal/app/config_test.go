package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mma7660.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigFile_OverridesOnlyGivenKeys(t *testing.T) {
	path := writeConfig(t, `
transport: periph
i2c_bus: "1"
address: 0x4d
poll_interval: 20ms
autosuspend: 2s
irq_line: 17
tap_enable: false
sample_rate: 64
`)

	cfg := DefaultConfig()
	if err := LoadConfigFile(path, &cfg); err != nil {
		t.Fatalf("LoadConfigFile failed: %v", err)
	}

	if cfg.Transport != TransportPeriph || cfg.I2CBus != "1" || cfg.Address != 0x4D {
		t.Errorf("bus settings not loaded: %+v", cfg)
	}
	if cfg.PollInterval != 20*time.Millisecond || cfg.Autosuspend != 2*time.Second {
		t.Errorf("durations = %v, %v", cfg.PollInterval, cfg.Autosuspend)
	}
	if cfg.IRQLine != 17 {
		t.Errorf("irq_line = %d, want 17", cfg.IRQLine)
	}
	if cfg.TapEnabled == nil || *cfg.TapEnabled {
		t.Errorf("tap_enable not loaded as false")
	}
	if cfg.ShakeEnabled != nil {
		t.Errorf("shake_enable should stay unset")
	}
	if cfg.SampleRate == nil || *cfg.SampleRate != 64 {
		t.Errorf("sample_rate not loaded")
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Errorf("redis default lost: %q", cfg.RedisAddr)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
}

func TestLoadConfigFile_Errors(t *testing.T) {
	cfg := DefaultConfig()
	if err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"), &cfg); err == nil {
		t.Error("expected error for missing file")
	}

	path := writeConfig(t, "poll_interval: [1, 2]\n")
	if err := LoadConfigFile(path, &cfg); err == nil {
		t.Error("expected error for malformed file")
	}
}

func TestConfig_Validate(t *testing.T) {
	rate := 100

	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"transport", func(c *Config) { c.Transport = "spi" }},
		{"bus", func(c *Config) { c.I2CBus = "" }},
		{"address", func(c *Config) { c.Address = 0x80 }},
		{"interval", func(c *Config) { c.PollInterval = -time.Millisecond }},
		{"rate", func(c *Config) { c.SampleRate = &rate }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}

	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

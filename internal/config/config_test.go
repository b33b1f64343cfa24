package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("expected :8080, got %s", cfg.Server.Addr)
	}
	if cfg.Storage.Driver != "sqlite" || cfg.Storage.DSN != "./data/dwell/dwell.db" {
		t.Errorf("unexpected storage config: %+v", cfg.Storage)
	}
	if cfg.Tracker.RetentionDays != 7 {
		t.Errorf("expected 7 retention days, got %d", cfg.Tracker.RetentionDays)
	}
	if cfg.RateLimit.Window != time.Minute || cfg.Conversation.DraftTTL != 30*time.Minute {
		t.Errorf("unexpected durations: %v %v", cfg.RateLimit.Window, cfg.Conversation.DraftTTL)
	}
	if cfg.MQTT.Topic != "owntracks/+/+" || cfg.RabbitMQ.Exchange != "dwell.events" {
		t.Errorf("unexpected messaging config: %+v %+v", cfg.MQTT, cfg.RabbitMQ)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DWELL_TRACKER_RETENTION_DAYS", "3")
	t.Setenv("DWELL_STORAGE_DRIVER", "Memory")
	t.Setenv("DWELL_RATELIMIT_WINDOW", "90s")

	v := viper.New()
	if err := Init(v, ""); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Tracker.RetentionDays != 3 {
		t.Errorf("expected 3, got %d", cfg.Tracker.RetentionDays)
	}
	if cfg.Storage.Driver != StorageMemory {
		t.Errorf("expected memory driver, got %s", cfg.Storage.Driver)
	}
	if cfg.RateLimit.Window != 90*time.Second {
		t.Errorf("expected 90s, got %v", cfg.RateLimit.Window)
	}
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dwell.yaml")
	body := "storage:\n  driver: postgres\n  dsn: postgres://localhost/dwell\nmqtt:\n  enabled: true\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	v := viper.New()
	if err := Init(v, path); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Storage.Driver != "postgres" || !cfg.MQTT.Enabled {
		t.Errorf("config file not applied: %+v", cfg)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("defaults should survive a partial file, got %s", cfg.Server.Addr)
	}
}

func TestMissingConfigFile(t *testing.T) {
	v := viper.New()
	if err := Init(v, filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.Storage.Driver = "mongo" }},
		{"empty dsn", func(c *Config) { c.Storage.DSN = "" }},
		{"zero retention", func(c *Config) { c.Tracker.RetentionDays = 0 }},
		{"negative rate", func(c *Config) { c.RateLimit.Requests = -1 }},
		{"bad qos", func(c *Config) { c.MQTT.QoS = 3 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			SetDefaults(v)
			cfg, err := Load(v)
			if err != nil {
				t.Fatal(err)
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

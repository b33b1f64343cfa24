package logutil

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(&buf, loggerConfig{Level: "warn", Format: "json"})
	if err != nil {
		t.Fatal(err)
	}

	logger.Info("dropped")
	logger.Warn("kept", "zone", "Home")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatal(err)
	}
	if rec["msg"] != "kept" || rec["zone"] != "Home" {
		t.Errorf("unexpected record: %v", rec)
	}
}

func TestNewLogger_Errors(t *testing.T) {
	if _, err := newLogger(&bytes.Buffer{}, loggerConfig{Format: "xml"}); err == nil {
		t.Error("expected error for unknown format")
	}
	if _, err := newLogger(&bytes.Buffer{}, loggerConfig{Level: "loud"}); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestLoggerFromViper(t *testing.T) {
	v := viper.New()
	v.Set("logging.level", "DEBUG")
	v.Set("logging.format", "text")

	logger, err := LoggerFromViper(v)
	if err != nil {
		t.Fatal(err)
	}
	if logger == nil {
		t.Fatal("expected logger")
	}
}

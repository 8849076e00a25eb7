package cliconfig

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.BatchSize != 100 {
		t.Errorf("BatchSize = %v, want 100", cfg.BatchSize)
	}
	if cfg.QueueSize != 64 {
		t.Errorf("QueueSize = %v, want 64", cfg.QueueSize)
	}
	if !cfg.IndexCache {
		t.Error("IndexCache = false, want true")
	}
	if !strings.Contains(cfg.StateDir, "tracescope") {
		t.Errorf("StateDir = %v, want a tracescope directory", cfg.StateDir)
	}
	if cfg.Debounce != 500*time.Millisecond {
		t.Errorf("Debounce = %v, want 500ms", cfg.Debounce)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config does not validate: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"zero batch size", func(c *Config) { c.BatchSize = 0 }, true},
		{"zero queue size", func(c *Config) { c.QueueSize = 0 }, true},
		{"zero debounce", func(c *Config) { c.Debounce = 0 }, true},
		{"cache without state dir", func(c *Config) { c.StateDir = "" }, true},
		{"no cache without state dir", func(c *Config) { c.StateDir = ""; c.IndexCache = false }, false},
		{"unknown log level", func(c *Config) { c.LogLevel = "loud" }, true},
		{"debug log level", func(c *Config) { c.LogLevel = "debug" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Viewer(t *testing.T) {
	cfg := Config{
		StateDir:   "/state",
		HelpFile:   "/help.tsv",
		BatchSize:  7,
		IndexCache: true,
		QueueSize:  3,
	}
	v := cfg.Viewer("/traces/app.trace.jsonl")

	if v.TracePath != "/traces/app.trace.jsonl" {
		t.Errorf("TracePath = %v", v.TracePath)
	}
	if v.StateDir != "/state" || v.HelpFile != "/help.tsv" {
		t.Errorf("paths not copied: %+v", v)
	}
	if v.BatchSize != 7 || v.QueueSize != 3 || !v.IndexCache {
		t.Errorf("sizes not copied: %+v", v)
	}
	if err := v.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestLogger_Level(t *testing.T) {
	tests := []struct {
		level     string
		wantDebug bool
		wantInfo  bool
	}{
		{"debug", true, true},
		{"info", false, true},
		{"warn", false, false},
		{"bogus", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			l := LibraryLogger(loggerTo(&buf, tt.level))
			l.Debug("debug message")
			l.Info("info message")

			out := buf.String()
			if got := strings.Contains(out, "debug message"); got != tt.wantDebug {
				t.Errorf("debug logged = %v, want %v", got, tt.wantDebug)
			}
			if got := strings.Contains(out, "info message"); got != tt.wantInfo {
				t.Errorf("info logged = %v, want %v", got, tt.wantInfo)
			}
		})
	}
}

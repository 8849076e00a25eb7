package cliconfig

import (
	"testing"
	"time"
)

func TestApplyEnvConfig(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		changed  map[string]bool
		initial  Config
		expected Config
		wantErr  bool
	}{
		{
			name: "applies all env vars",
			envVars: map[string]string{
				"TRACESCOPE_STATE_DIR":    "/env/state",
				"TRACESCOPE_HELP_FILE":    "/env/help.tsv",
				"TRACESCOPE_BATCH_SIZE":   "20",
				"TRACESCOPE_QUEUE_SIZE":   "4",
				"TRACESCOPE_INDEX_CACHE":  "false",
				"TRACESCOPE_LOG_LEVEL":    "error",
				"TRACESCOPE_METRICS_ADDR": "127.0.0.1:9000",
				"TRACESCOPE_DEBOUNCE":     "250ms",
			},
			changed: map[string]bool{},
			initial: Config{IndexCache: true},
			expected: Config{
				StateDir:    "/env/state",
				HelpFile:    "/env/help.tsv",
				BatchSize:   20,
				QueueSize:   4,
				IndexCache:  false,
				LogLevel:    "error",
				MetricsAddr: "127.0.0.1:9000",
				Debounce:    250 * time.Millisecond,
			},
		},
		{
			name: "respects changed flags",
			envVars: map[string]string{
				"TRACESCOPE_STATE_DIR":  "/env/state",
				"TRACESCOPE_BATCH_SIZE": "20",
			},
			changed:  map[string]bool{"state-dir": true},
			initial:  Config{StateDir: "/flag/state"},
			expected: Config{StateDir: "/flag/state", BatchSize: 20},
		},
		{
			name:     "ignores non-positive sizes",
			envVars:  map[string]string{"TRACESCOPE_QUEUE_SIZE": "0"},
			changed:  map[string]bool{},
			initial:  Config{QueueSize: 64},
			expected: Config{QueueSize: 64},
		},
		{
			name:     "accepts 1 as true",
			envVars:  map[string]string{"TRACESCOPE_INDEX_CACHE": "1"},
			changed:  map[string]bool{},
			expected: Config{IndexCache: true},
		},
		{
			name:    "returns error for invalid duration",
			envVars: map[string]string{"TRACESCOPE_DEBOUNCE": "not-a-duration"},
			changed: map[string]bool{},
			wantErr: true,
		},
		{
			name:    "returns error for invalid int",
			envVars: map[string]string{"TRACESCOPE_BATCH_SIZE": "lots"},
			changed: map[string]bool{},
			wantErr: true,
		},
		{
			name:    "returns error for invalid bool",
			envVars: map[string]string{"TRACESCOPE_INDEX_CACHE": "maybe"},
			changed: map[string]bool{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg := tt.initial
			err := ApplyEnvConfig(&cfg, tt.changed)

			if tt.wantErr {
				if err == nil {
					t.Error("ApplyEnvConfig() expected error but got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ApplyEnvConfig() unexpected error: %v", err)
			}
			if cfg != tt.expected {
				t.Errorf("config = %+v, want %+v", cfg, tt.expected)
			}
		})
	}
}

// Precedence order: CLI > Env > File.
func TestConfigPrecedence(t *testing.T) {
	trueVal := true
	fileConf := FileConfig{
		StateDir:   "/file/state",
		HelpFile:   "/file/help.tsv",
		BatchSize:  10,
		IndexCache: &trueVal,
	}

	t.Setenv("TRACESCOPE_STATE_DIR", "/env/state")
	t.Setenv("TRACESCOPE_HELP_FILE", "/env/help.tsv")

	changed := map[string]bool{"state-dir": true}
	cfg := Config{StateDir: "/cli/state"}

	if err := ApplyFileConfig(&cfg, fileConf, changed); err != nil {
		t.Fatalf("ApplyFileConfig failed: %v", err)
	}
	if err := ApplyEnvConfig(&cfg, changed); err != nil {
		t.Fatalf("ApplyEnvConfig failed: %v", err)
	}

	if cfg.StateDir != "/cli/state" {
		t.Errorf("StateDir = %v, want /cli/state (CLI should win)", cfg.StateDir)
	}
	if cfg.HelpFile != "/env/help.tsv" {
		t.Errorf("HelpFile = %v, want /env/help.tsv (env should override file)", cfg.HelpFile)
	}
	if cfg.BatchSize != 10 {
		t.Errorf("BatchSize = %v, want 10 (file should set)", cfg.BatchSize)
	}
	if !cfg.IndexCache {
		t.Error("IndexCache = false, want true (file should set)")
	}
}

package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (TRACESCOPE_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("state-dir", os.Getenv("TRACESCOPE_STATE_DIR"), &cfg.StateDir)
	s.setString("help-file", os.Getenv("TRACESCOPE_HELP_FILE"), &cfg.HelpFile)
	s.setString("log-level", os.Getenv("TRACESCOPE_LOG_LEVEL"), &cfg.LogLevel)
	s.setString("metrics-addr", os.Getenv("TRACESCOPE_METRICS_ADDR"), &cfg.MetricsAddr)

	if err := s.setIntFromString("batch-size", os.Getenv("TRACESCOPE_BATCH_SIZE"), &cfg.BatchSize); err != nil {
		return err
	}
	if err := s.setIntFromString("queue-size", os.Getenv("TRACESCOPE_QUEUE_SIZE"), &cfg.QueueSize); err != nil {
		return err
	}
	if err := s.setBoolFromString("index-cache", os.Getenv("TRACESCOPE_INDEX_CACHE"), &cfg.IndexCache); err != nil {
		return err
	}
	return s.setDuration("debounce", os.Getenv("TRACESCOPE_DEBOUNCE"), &cfg.Debounce)
}

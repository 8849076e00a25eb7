package tracescope

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bft-labs/tracescope/internal/app"
	"github.com/bft-labs/tracescope/internal/engine"
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("tracescope: invalid config")

// Config configures a Viewer.
type Config struct {
	// TracePath is opened on Start when set.
	TracePath string

	// StateDir holds saved frame indexes.
	// Default: $HOME/.tracescope/index
	StateDir string

	// HelpFile is a tab-separated table of call names and documentation
	// URLs. Empty selects the bundled table.
	HelpFile string

	// BatchSize is the number of frames per FramesAvailable event when a
	// trace is decoded eagerly.
	// Default: 100
	BatchSize int

	// IndexCache enables saving and reusing frame indexes.
	IndexCache bool

	// QueueSize is the capacity of the request queue.
	// Default: 64
	QueueSize int
}

// DefaultConfig returns a Config with defaults applied and the index cache
// enabled.
func DefaultConfig() Config {
	cfg := Config{IndexCache: true}
	cfg.SetDefaults()
	return cfg
}

// SetDefaults fills zero-valued fields.
func (c *Config) SetDefaults() {
	if c.StateDir == "" {
		c.StateDir = DefaultStateDir()
	}
	if c.BatchSize == 0 {
		c.BatchSize = engine.DefaultBatchSize
	}
	if c.QueueSize == 0 {
		c.QueueSize = app.DefaultQueueSize
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.BatchSize < 0 {
		return fmt.Errorf("%w: batch size must not be negative, got %d", ErrInvalidConfig, c.BatchSize)
	}
	if c.QueueSize < 0 {
		return fmt.Errorf("%w: queue size must not be negative, got %d", ErrInvalidConfig, c.QueueSize)
	}
	if c.IndexCache && c.StateDir == "" {
		return fmt.Errorf("%w: index cache requires a state directory", ErrInvalidConfig)
	}
	return nil
}

// DefaultStateDir returns $HOME/.tracescope/index, or a directory under the
// system temp dir when the home directory is unknown.
func DefaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "tracescope", "index")
	}
	return filepath.Join(home, ".tracescope", "index")
}

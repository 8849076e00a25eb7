// Package indexcleanup keeps the saved frame index directory bounded.
// When enabled, it periodically removes stale and least recently written
// index files.
package indexcleanup

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	indexfs "github.com/bft-labs/tracescope/internal/adapters/fs"
	"github.com/bft-labs/tracescope/pkg/log"
	"github.com/bft-labs/tracescope/pkg/tracescope"
)

// Plugin implements index cleanup.
// It removes indexes older than MaxAge, then removes the oldest remaining
// indexes while the directory exceeds the high watermark.
type Plugin struct {
	mu sync.RWMutex

	cfg Config

	stateDir string
	protect  string
	logger   log.Logger
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// Config holds configuration options for the index cleanup plugin.
type Config struct {
	// CheckInterval is how often to check the state directory.
	// Default: 24 hours
	CheckInterval time.Duration

	// HighWatermark is the size in bytes above which cleanup begins.
	// Default: 256 MiB
	HighWatermark int64

	// LowWatermark is the target size in bytes after cleanup.
	// Default: 192 MiB
	LowWatermark int64

	// MaxAge removes indexes not rewritten for this long. Zero keeps
	// indexes regardless of age.
	// Default: 30 days
	MaxAge time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		CheckInterval: 24 * time.Hour,
		HighWatermark: 256 << 20,
		LowWatermark:  192 << 20,
		MaxAge:        30 * 24 * time.Hour,
	}
}

// New creates an index cleanup plugin with the given configuration.
func New(cfg Config) *Plugin {
	def := DefaultConfig()
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = def.CheckInterval
	}
	if cfg.HighWatermark <= 0 {
		cfg.HighWatermark = def.HighWatermark
	}
	if cfg.LowWatermark <= 0 || cfg.LowWatermark > cfg.HighWatermark {
		cfg.LowWatermark = cfg.HighWatermark * 3 / 4
	}
	return &Plugin{cfg: cfg}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "indexcleanup"
}

// Initialize starts the cleanup loop. Without a state directory the plugin
// stays idle.
func (p *Plugin) Initialize(ctx context.Context, cfg tracescope.PluginConfig) error {
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNoopLogger()
	}

	p.mu.Lock()
	p.stateDir = cfg.StateDir
	p.logger = logger
	if cfg.StateDir != "" && cfg.TracePath != "" {
		p.protect = indexfs.NewIndexFileRepository(cfg.StateDir).Path(absPath(cfg.TracePath))
	}
	p.mu.Unlock()

	if cfg.StateDir == "" {
		logger.Warn("index cleanup disabled: index cache is off")
		return nil
	}

	cleanupCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.wg.Add(1)
	go p.cleanupLoop(cleanupCtx)
	return nil
}

// Shutdown stops the cleanup loop.
func (p *Plugin) Shutdown(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	return nil
}

func (p *Plugin) cleanupLoop(ctx context.Context) {
	defer p.wg.Done()

	p.cleanupOnce(ctx)

	ticker := time.NewTicker(p.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.cleanupOnce(ctx)
		}
	}
}

func (p *Plugin) cleanupOnce(ctx context.Context) {
	p.mu.RLock()
	dir, protect, logger := p.stateDir, p.protect, p.logger
	p.mu.RUnlock()

	res, err := Prune(ctx, dir, protect, p.cfg, time.Now())
	if err != nil {
		logger.Error("index cleanup failed", log.String("dir", dir), log.Err(err))
		return
	}
	if res.Removed > 0 {
		logger.Info("index cleanup completed",
			log.String("dir", dir),
			log.Int("removed", res.Removed),
			log.String("freed", humanize.IBytes(uint64(res.Freed))),
			log.String("remaining", humanize.IBytes(uint64(res.Remaining))),
		)
	}
}

// Result summarizes one Prune pass.
type Result struct {
	Removed   int
	Freed     int64
	Remaining int64
}

type indexFile struct {
	path    string
	size    int64
	modTime time.Time
}

// Prune removes index files in dir that are older than cfg.MaxAge, then
// removes the oldest remaining files until the directory is at or below
// cfg.LowWatermark, if it exceeded cfg.HighWatermark. The file at protect is
// never removed. A missing dir is not an error.
func Prune(ctx context.Context, dir, protect string, cfg Config, now time.Time) (Result, error) {
	files, total, err := listIndexFiles(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Result{}, nil
		}
		return Result{}, err
	}

	res := Result{Remaining: total}
	remove := func(f indexFile) {
		if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return
		}
		res.Removed++
		res.Freed += f.size
		res.Remaining -= f.size
	}

	var kept []indexFile
	for _, f := range files {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		if f.path != protect && cfg.MaxAge > 0 && now.Sub(f.modTime) > cfg.MaxAge {
			remove(f)
			continue
		}
		kept = append(kept, f)
	}

	if cfg.HighWatermark <= 0 || res.Remaining <= cfg.HighWatermark {
		return res, nil
	}
	for _, f := range kept {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		if res.Remaining <= cfg.LowWatermark {
			break
		}
		if f.path == protect {
			continue
		}
		remove(f)
	}
	return res, nil
}

// listIndexFiles returns the index files in dir, oldest first, and the
// total size of the directory's files.
func listIndexFiles(dir string) ([]indexFile, int64, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, 0, err
	}
	var (
		files []indexFile
		total int64
	)
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, 0, err
		}
		total += info.Size()
		if !indexfs.IsIndexFile(e.Name()) {
			continue
		}
		files = append(files, indexFile{
			path:    filepath.Join(dir, e.Name()),
			size:    info.Size(),
			modTime: info.ModTime(),
		})
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].modTime.Before(files[j].modTime)
	})
	return files, total, nil
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

var _ tracescope.Plugin = (*Plugin)(nil)

package tracewatcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/bft-labs/tracescope/pkg/tracescope"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type reopenRecorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *reopenRecorder) reopen(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
	return nil
}

func (r *reopenRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.paths)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestPlugin_ReopensOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.trace.jsonl")
	if err := os.WriteFile(path, []byte("{\"name\":\"glClear\"}\n"), 0o644); err != nil {
		t.Fatalf("write trace: %v", err)
	}

	rec := &reopenRecorder{}
	p := New(Config{DebounceDelay: 50 * time.Millisecond})
	err := p.Initialize(context.Background(), tracescope.PluginConfig{
		TracePath: path,
		Reopen:    rec.reopen,
	})
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	// A burst of writes collapses into one reopen.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		t.Fatalf("open trace: %v", err)
	}
	for i := 0; i < 5; i++ {
		if _, err := f.WriteString("{\"name\":\"glFlush\"}\n"); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	f.Close()

	waitFor(t, func() bool { return rec.count() >= 1 })
	time.Sleep(150 * time.Millisecond)
	if got := rec.count(); got != 1 {
		t.Errorf("reopen called %d times, want 1", got)
	}

	abs, _ := filepath.Abs(path)
	rec.mu.Lock()
	if rec.paths[0] != abs {
		t.Errorf("reopen path = %q, want %q", rec.paths[0], abs)
	}
	rec.mu.Unlock()

	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
}

func TestPlugin_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.trace.jsonl")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write trace: %v", err)
	}

	rec := &reopenRecorder{}
	p := New(Config{DebounceDelay: 10 * time.Millisecond})
	if err := p.Initialize(context.Background(), tracescope.PluginConfig{TracePath: path, Reopen: rec.reopen}); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	time.Sleep(150 * time.Millisecond)
	if got := rec.count(); got != 0 {
		t.Errorf("reopen called %d times, want 0", got)
	}

	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
}

func TestPlugin_DisabledWithoutPath(t *testing.T) {
	p := New(Config{})
	if p.debounceDelay != DefaultConfig().DebounceDelay {
		t.Errorf("debounceDelay = %v, want default", p.debounceDelay)
	}
	if err := p.Initialize(context.Background(), tracescope.PluginConfig{}); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
}

func TestPlugin_MissingDirectory(t *testing.T) {
	p := New(Config{})
	err := p.Initialize(context.Background(), tracescope.PluginConfig{
		TracePath: filepath.Join(t.TempDir(), "gone", "app.trace.jsonl"),
		Reopen:    func(string) error { return nil },
	})
	if err == nil {
		t.Fatal("Initialize succeeded for a missing directory")
	}
}

func TestPlugin_Name(t *testing.T) {
	if got := New(DefaultConfig()).Name(); got != "tracewatcher" {
		t.Errorf("Name() = %q", got)
	}
}

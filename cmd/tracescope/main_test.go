package main

import (
	"bytes"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/tracescope/internal/adapters/tracefile"
	"github.com/bft-labs/tracescope/internal/domain"
)

// writeTrace writes three GL frames of 3, 2 and 3 calls; the last frame has
// no end-of-frame marker. Calls are numbered 0..7.
func writeTrace(t *testing.T, path string, compress bool) {
	t.Helper()

	w, err := tracefile.Create(path, compress)
	require.NoError(t, err)

	calls := []domain.Call{
		{Name: "glClear"},
		{Name: "glDrawArrays", Args: []domain.Argument{{Name: "count", Value: 3}}},
		{Name: "glXSwapBuffers", Flags: domain.FlagEndFrame},
		{Name: "glBufferData", Args: []domain.Argument{{Name: "data", Blob: []byte{1, 2, 3, 4}}}},
		{Name: "glXSwapBuffers", Flags: domain.FlagEndFrame},
		{Name: "glClear"},
		{Name: "glDrawElements"},
		{Name: "glFlush"},
	}
	for _, c := range calls {
		require.NoError(t, w.Write(c))
	}
	require.NoError(t, w.Close())
}

// run executes the CLI with an isolated home and state directory.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, k := range []string{
		"TRACESCOPE_STATE_DIR", "TRACESCOPE_HELP_FILE", "TRACESCOPE_LOG_LEVEL", "TRACESCOPE_METRICS_ADDR",
		"TRACESCOPE_BATCH_SIZE", "TRACESCOPE_QUEUE_SIZE", "TRACESCOPE_INDEX_CACHE", "TRACESCOPE_DEBOUNCE",
	} {
		t.Setenv(k, "")
	}

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	args = append(args, "--log-level", "error")
	if !slices.Contains(args, "--state-dir") {
		args = append(args, "--state-dir", filepath.Join(home, "index"))
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestFramesCommand(t *testing.T) {
	for _, compress := range []bool{false, true} {
		name := "plain"
		if compress {
			name = "gzip"
		}
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "app.trace.jsonl")
			writeTrace(t, path, compress)

			out, err := run(t, "frames", path)
			require.NoError(t, err)
			assert.Contains(t, out, "frames: 3")
			assert.Contains(t, out, "api: GL")
		})
	}
}

func TestDumpCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.trace.jsonl")
	writeTrace(t, path, false)

	out, err := run(t, "dump", path, "1")
	require.NoError(t, err)
	assert.Contains(t, out, "glBufferData(data=blob(4))")
	assert.Contains(t, out, "4 B")
	assert.NotContains(t, out, "glDrawArrays")

	_, err = run(t, "dump", path, "9")
	assert.ErrorIs(t, err, domain.ErrFrameOutOfRange)
}

func TestSearchCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.trace.jsonl")
	writeTrace(t, path, false)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"forward", []string{"0", "glClear"}, "found #0 in frame 0"},
		{"forward after cursor", []string{"0", "glClear", "--after", "0"}, "found #5 in frame 2"},
		{"backward", []string{"2", "SwapBuffers", "--prev"}, "found #4 in frame 1"},
		{"backward before cursor", []string{"2", "SwapBuffers", "--prev", "--after", "4"}, "found #2 in frame 0"},
		{"case folded", []string{"0", "GLFLUSH", "-i"}, "found #7 in frame 2"},
		{"case sensitive miss", []string{"0", "GLFLUSH"}, "not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, append([]string{"search", path}, tt.args...)...)
			require.NoError(t, err)
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestLocateCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.trace.jsonl")
	writeTrace(t, path, false)

	out, err := run(t, "locate", "frame-start", path, "1")
	require.NoError(t, err)
	assert.Contains(t, out, "located #3 in frame 1")

	out, err = run(t, "locate", "frame-end", path, "2")
	require.NoError(t, err)
	assert.Contains(t, out, "located #7 in frame 2: glFlush()")

	out, err = run(t, "locate", "call", path, "6")
	require.NoError(t, err)
	assert.Contains(t, out, "located #6 in frame 2: glDrawElements()")

	_, err = run(t, "locate", "call", path, "x")
	assert.Error(t, err)
}

func TestPackCommand(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "app.trace.jsonl")
	dst := filepath.Join(dir, "app.trace.jsonl.gz")
	writeTrace(t, src, false)

	out, err := run(t, "pack", src, dst)
	require.NoError(t, err)
	assert.Contains(t, out, "packed 8 calls")

	b, err := os.ReadFile(dst)
	require.NoError(t, err)
	require.True(t, len(b) > 2)
	assert.Equal(t, []byte{0x1f, 0x8b}, b[:2])

	out, err = run(t, "search", dst, "0", "glDrawElements")
	require.NoError(t, err)
	assert.Contains(t, out, "found #6 in frame 2")
}

func TestOpenFailure(t *testing.T) {
	_, err := run(t, "frames", filepath.Join(t.TempDir(), "missing.jsonl"))
	assert.ErrorIs(t, err, domain.ErrOpenFailure)
}

func TestInvalidConfig(t *testing.T) {
	_, err := run(t, "frames", "x", "--batch-size", "0")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "batch size"))
}

func TestPruneCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.trace.jsonl")
	writeTrace(t, path, false)

	stateDir := filepath.Join(t.TempDir(), "index")
	_, err := run(t, "frames", path, "--state-dir", stateDir)
	require.NoError(t, err)
	entries, err := os.ReadDir(stateDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	out, err := run(t, "prune", "--state-dir", stateDir, "--max-size", "1B")
	require.NoError(t, err)
	assert.Contains(t, out, "removed 1 indexes")

	entries, err = os.ReadDir(stateDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

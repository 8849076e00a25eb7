package engine_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/tracescope/internal/adapters/fs"
	"github.com/bft-labs/tracescope/internal/adapters/tracefile"
	"github.com/bft-labs/tracescope/internal/domain"
	"github.com/bft-labs/tracescope/internal/engine"
	"github.com/bft-labs/tracescope/internal/metrics"
	"github.com/bft-labs/tracescope/internal/ports"
)

func writeTrace(t *testing.T, dir string, compress bool, frames int) string {
	t.Helper()
	name := "app.trace.jsonl"
	if compress {
		name += ".gz"
	}
	path := filepath.Join(dir, name)
	w, err := tracefile.Create(path, compress)
	require.NoError(t, err)
	for i := 0; i < frames; i++ {
		require.NoError(t, w.Write(domain.Call{Name: "vkCmdDraw", Args: []domain.Argument{{Name: "vertexCount", Value: i}}}))
		require.NoError(t, w.Write(domain.Call{Name: "vkUpdateBuffer", Args: []domain.Argument{{Name: "data", Blob: make([]byte, 16)}}}))
		require.NoError(t, w.Write(domain.Call{Name: "vkQueuePresentKHR", Flags: domain.FlagEndFrame}))
	}
	require.NoError(t, w.Write(domain.Call{Name: "vkDestroyDevice"}))
	require.NoError(t, w.Close())
	return path
}

func TestEngine_TraceFiles(t *testing.T) {
	for _, compress := range []bool{false, true} {
		name := "plain"
		if compress {
			name = "gzip"
		}
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			path := writeTrace(t, dir, compress, 12)
			var events []domain.Event
			e := engine.New(tracefile.NewReader(), engine.Options{
				Sink:    ports.EventSinkFunc(func(ev domain.Event) { events = append(events, ev) }),
				Metrics: metrics.New(prometheus.NewRegistry()),
			})
			ctx := context.Background()
			require.NoError(t, e.Open(ctx, path))
			defer e.Close()

			assert.Equal(t, domain.APIVulkan, e.API())
			require.Equal(t, 13, e.FrameCount())
			assert.Equal(t, uint32(1), e.CallCountInFrame(12))

			n, err := e.CallOwningFrame(20)
			require.NoError(t, err)
			assert.Equal(t, uint32(6), n)

			calls, err := e.RequestFrame(ctx, 6)
			require.NoError(t, err)
			require.Len(t, calls, 3)
			assert.Equal(t, uint64(18), calls[0].Number)
			assert.Equal(t, "vkCmdDraw(vertexCount=6)", calls[0].String())
			assert.Equal(t, uint64(16), calls[1].BinaryDataSize())

			req := domain.NewSearchRequest(11, "vertexCount=3", domain.SearchPrev)
			res := e.Search(ctx, req)
			require.Equal(t, domain.SearchFound, res.Status)
			assert.Equal(t, uint64(9), res.Call.Number)
			assert.Equal(t, uint32(3), res.Call.Frame)
		})
	}
}

func TestEngine_TraceFileIndexCache(t *testing.T) {
	dir := t.TempDir()
	path := writeTrace(t, dir, false, 30)
	repo := fs.NewIndexFileRepository(filepath.Join(dir, "state"))
	ctx := context.Background()

	first := engine.New(tracefile.NewReader(), engine.Options{Repository: repo})
	require.NoError(t, first.Open(ctx, path))
	want := first.Frames()
	require.NoError(t, first.Close())
	assert.FileExists(t, repo.Path(path))

	var progress []int
	second := engine.New(tracefile.NewReader(), engine.Options{
		Repository: repo,
		Sink: ports.EventSinkFunc(func(ev domain.Event) {
			if ev.Kind == domain.EventProgress {
				progress = append(progress, ev.Percent)
			}
		}),
	})
	require.NoError(t, second.Open(ctx, path))
	defer second.Close()

	assert.Equal(t, []int{100}, progress)
	assert.Equal(t, want, second.Frames())
	assert.Equal(t, domain.APIVulkan, second.API())

	c, err := second.FindCall(ctx, 89)
	require.NoError(t, err)
	assert.Equal(t, "vkQueuePresentKHR", c.Name)
	assert.Equal(t, uint32(29), c.Frame)
}

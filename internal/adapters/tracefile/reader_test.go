package tracefile

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/tracescope/internal/domain"
)

func sampleCalls() []domain.Call {
	return []domain.Call{
		{Name: "glClearColor", Args: []domain.Argument{{Name: "red", Value: 0.5}}},
		{Name: "glClear", Args: []domain.Argument{{Name: "mask", Value: "GL_COLOR_BUFFER_BIT"}}},
		{Name: "glXSwapBuffers", Flags: domain.FlagEndFrame},
		{Name: "glBufferData", Args: []domain.Argument{{Name: "target", Value: "GL_ARRAY_BUFFER"}, {Name: "data", Blob: []byte{1, 2, 3, 4}}}},
		{Name: "glDrawArrays", Args: []domain.Argument{{Name: "mode", Value: "GL_TRIANGLES"}}},
		{Name: "glXSwapBuffers", Flags: domain.FlagEndFrame},
		{Name: "glDeleteBuffers"},
	}
}

func writeTrace(t *testing.T, compress bool, calls []domain.Call) string {
	t.Helper()
	name := "trace.jsonl"
	if compress {
		name += ".gz"
	}
	path := filepath.Join(t.TempDir(), name)
	w, err := Create(path, compress)
	require.NoError(t, err)
	for _, c := range calls {
		require.NoError(t, w.Write(c))
	}
	require.NoError(t, w.Close())
	return path
}

func readAll(t *testing.T, r *Reader) []domain.Call {
	t.Helper()
	var out []domain.Call
	for {
		c, err := r.DecodeNext()
		if errors.Is(err, io.EOF) {
			return out
		}
		require.NoError(t, err)
		out = append(out, c)
	}
}

func TestReader_PlainSupportsOffsets(t *testing.T) {
	path := writeTrace(t, false, sampleCalls())

	r := NewReader()
	require.NoError(t, r.Open(path))
	defer r.Close()

	assert.True(t, r.SupportsOffsets())
	calls := readAll(t, r)
	require.Len(t, calls, 7)
	for i, c := range calls {
		assert.Equal(t, uint64(i), c.Number)
	}
	assert.True(t, calls[2].EndsFrame())
	assert.Equal(t, domain.APIGL, r.API())
	assert.Equal(t, 100, r.PercentRead())

	idx, ok := calls[3].BinaryArgIndex()
	require.True(t, ok)
	assert.Equal(t, 1, idx)
	assert.Equal(t, uint64(4), calls[3].BinaryDataSize())
}

func TestReader_BookmarkResumeIsDeterministic(t *testing.T) {
	path := writeTrace(t, false, sampleCalls())

	r := NewReader()
	require.NoError(t, r.Open(path))
	defer r.Close()

	for i := 0; i < 3; i++ {
		_, err := r.ScanNext()
		require.NoError(t, err)
	}
	mark := r.Bookmark()
	assert.Equal(t, uint64(3), mark.Next)

	first := readAll(t, r)
	require.NoError(t, r.SetBookmark(mark))
	second := readAll(t, r)

	assert.Equal(t, first, second)
	assert.Equal(t, uint64(3), second[0].Number)
	assert.Equal(t, "glBufferData", second[0].Name)
}

func TestReader_ScanSkipsArguments(t *testing.T) {
	path := writeTrace(t, false, sampleCalls())

	r := NewReader()
	require.NoError(t, r.Open(path))
	defer r.Close()

	c, err := r.ScanNext()
	require.NoError(t, err)
	assert.Equal(t, "glClearColor", c.Name)
	assert.Nil(t, c.Args)
}

func TestReader_GzipIsForwardOnly(t *testing.T) {
	calls := sampleCalls()
	path := writeTrace(t, true, calls)

	r := NewReader()
	require.NoError(t, r.Open(path))
	defer r.Close()

	assert.False(t, r.SupportsOffsets())
	assert.ErrorIs(t, r.SetBookmark(domain.Bookmark{}), domain.ErrNoOffsets)

	got := readAll(t, r)
	require.Len(t, got, len(calls))
	assert.Equal(t, "glDeleteBuffers", got[6].Name)
	assert.Equal(t, []byte{1, 2, 3, 4}, got[3].Args[1].Blob)
	assert.Equal(t, 100, r.PercentRead())
}

func TestReader_BlankLinesAndBadLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.jsonl")
	content := "{\"name\":\"glFlush\"}\n\n   \n{\"name\":\"glFinish\",\"flags\":1}\nnot json\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	r := NewReader()
	require.NoError(t, r.Open(path))
	defer r.Close()

	c, err := r.DecodeNext()
	require.NoError(t, err)
	assert.Equal(t, "glFlush", c.Name)

	c, err = r.DecodeNext()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), c.Number)
	assert.True(t, c.EndsFrame())

	_, err = r.DecodeNext()
	assert.Error(t, err)
}

func TestReader_OpenMissingFile(t *testing.T) {
	r := NewReader()
	err := r.Open(filepath.Join(t.TempDir(), "missing.jsonl"))
	assert.Error(t, err)
	assert.False(t, r.SupportsOffsets())

	_, err = r.DecodeNext()
	assert.ErrorIs(t, err, domain.ErrNoTrace)
}

func TestReader_LastLineWithoutNewline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(`{"name":"eglSwapBuffers","flags":1}`), 0o644))

	r := NewReader()
	require.NoError(t, r.Open(path))
	defer r.Close()

	calls := readAll(t, r)
	require.Len(t, calls, 1)
	assert.Equal(t, domain.APIEGL, r.API())
}

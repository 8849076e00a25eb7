package engine

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/bft-labs/tracescope/internal/domain"
)

// fakeReader serves calls from memory. Bookmark offsets are call positions.
type fakeReader struct {
	calls   []domain.Call
	offsets bool
	missing bool

	open  bool
	pos   int
	scans int
	seeks int
}

func newFakeReader(calls []domain.Call, offsets bool) *fakeReader {
	numbered := make([]domain.Call, len(calls))
	for i, c := range calls {
		c.Number = uint64(i)
		numbered[i] = c
	}
	return &fakeReader{calls: numbered, offsets: offsets}
}

func (r *fakeReader) Open(path string) error {
	if r.missing {
		return errors.New("open " + path + ": no such file or directory")
	}
	r.open = true
	r.pos = 0
	return nil
}

func (r *fakeReader) Close() error {
	r.open = false
	r.pos = 0
	return nil
}

func (r *fakeReader) SupportsOffsets() bool { return r.open && r.offsets }

func (r *fakeReader) Bookmark() domain.Bookmark {
	return domain.Bookmark{Offset: int64(r.pos), Next: uint64(r.pos)}
}

func (r *fakeReader) SetBookmark(b domain.Bookmark) error {
	if !r.offsets {
		return domain.ErrNoOffsets
	}
	r.seeks++
	r.pos = int(b.Offset)
	return nil
}

func (r *fakeReader) ScanNext() (domain.Call, error) {
	c, err := r.DecodeNext()
	if err != nil {
		return c, err
	}
	r.scans++
	return domain.Call{Number: c.Number, Name: c.Name, Flags: c.Flags}, nil
}

func (r *fakeReader) DecodeNext() (domain.Call, error) {
	if !r.open {
		return domain.Call{}, domain.ErrNoTrace
	}
	if r.pos >= len(r.calls) {
		return domain.Call{}, io.EOF
	}
	c := r.calls[r.pos]
	r.pos++
	return c, nil
}

func (r *fakeReader) PercentRead() int {
	if len(r.calls) == 0 {
		return 100
	}
	return r.pos * 100 / len(r.calls)
}

func (r *fakeReader) API() domain.API {
	if len(r.calls) == 0 {
		return domain.APIUnknown
	}
	return domain.GuessAPI(r.calls[0].Name)
}

// recorder collects emitted events.
type recorder struct {
	mu     sync.Mutex
	events []domain.Event
}

func (r *recorder) Emit(ev domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) kinds(k domain.EventKind) []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Event
	for _, ev := range r.events {
		if ev.Kind == k {
			out = append(out, ev)
		}
	}
	return out
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// memRepository is an in-memory ports.IndexRepository.
type memRepository struct {
	saved map[string]domain.Index
	loads int
}

func newMemRepository() *memRepository {
	return &memRepository{saved: map[string]domain.Index{}}
}

func (m *memRepository) Load(_ context.Context, path string) (domain.Index, bool, error) {
	m.loads++
	idx, ok := m.saved[path]
	return idx, ok, nil
}

func (m *memRepository) Save(_ context.Context, idx domain.Index) error {
	idx.Version = domain.IndexVersion
	m.saved[idx.Path] = idx
	return nil
}

func call(name string, args ...domain.Argument) domain.Call {
	return domain.Call{Name: name, Args: args}
}

func endFrame(name string) domain.Call {
	return domain.Call{Name: name, Flags: domain.FlagEndFrame}
}

func arg(name string, v any) domain.Argument {
	return domain.Argument{Name: name, Value: v}
}

// threeFrames returns frames of 3, 2 and 3 calls; the last frame has no
// end-of-frame call.
func threeFrames() []domain.Call {
	return []domain.Call{
		call("glClearColor", arg("red", 0.5)),
		call("glClear", arg("mask", "GL_COLOR_BUFFER_BIT")),
		endFrame("glXSwapBuffers"),
		{Name: "glBufferData", Args: []domain.Argument{arg("target", "GL_ARRAY_BUFFER"), {Name: "data", Blob: []byte{1, 2, 3, 4}}}},
		endFrame("glXSwapBuffers"),
		call("glDeleteBuffers", arg("n", 1)),
		call("glDeleteTextures", arg("n", 2)),
		call("glFinish"),
	}
}

// manyFrames returns n frames of two calls each.
func manyFrames(n int) []domain.Call {
	out := make([]domain.Call, 0, 2*n)
	for i := 0; i < n; i++ {
		out = append(out, call("glDrawArrays", arg("count", i)), endFrame("glXSwapBuffers"))
	}
	return out
}

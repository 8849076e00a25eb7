package tracefile

import (
	"bufio"
	"encoding/json"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"

	"github.com/bft-labs/tracescope/internal/domain"
)

// Writer encodes calls as JSON lines, optionally gzip-compressed.
// Call numbers are implied by write order and are not stored.
type Writer struct {
	bw     *bufio.Writer
	zw     *gzip.Writer
	closer io.Closer
}

// NewWriter creates a Writer on w. Close flushes but does not close w.
func NewWriter(w io.Writer, compress bool) *Writer {
	tw := &Writer{}
	if compress {
		tw.zw = gzip.NewWriter(w)
		w = tw.zw
	}
	tw.bw = bufio.NewWriterSize(w, readBufferSize)
	return tw
}

// Create creates (or truncates) the file at path and returns a Writer that
// closes it on Close.
func Create(path string, compress bool) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w := NewWriter(f, compress)
	w.closer = f
	return w, nil
}

// Write appends one call.
func (w *Writer) Write(c domain.Call) error {
	b, err := json.Marshal(record{Name: c.Name, Args: c.Args, Flags: c.Flags})
	if err != nil {
		return err
	}
	if _, err := w.bw.Write(b); err != nil {
		return err
	}
	return w.bw.WriteByte('\n')
}

// Close flushes buffered data and closes the compressor and owned file.
func (w *Writer) Close() error {
	err := w.bw.Flush()
	if w.zw != nil {
		if zerr := w.zw.Close(); zerr != nil && err == nil {
			err = zerr
		}
	}
	if w.closer != nil {
		if cerr := w.closer.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

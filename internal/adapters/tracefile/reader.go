package tracefile

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"

	"github.com/bft-labs/tracescope/internal/domain"
)

const readBufferSize = 64 * 1024

var gzipMagic = []byte{0x1f, 0x8b}

// Reader implements ports.StreamReader over a trace file.
type Reader struct {
	path       string
	file       *os.File
	size       int64
	compressed bool
	counter    *countingReader
	zr         *gzip.Reader
	br         *bufio.Reader

	// off is the decoded-stream offset just past the last line returned.
	off  int64
	next uint64
	api  domain.API
}

// NewReader creates a Reader. Call Open before reading.
func NewReader() *Reader {
	return &Reader{}
}

// Open prepares the reader at the start of the trace at path.
// Any previously opened trace is closed first.
func (r *Reader) Open(path string) error {
	_ = r.Close()

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return err
	}
	if st.IsDir() {
		f.Close()
		return fmt.Errorf("%s is a directory", path)
	}

	br := bufio.NewReaderSize(f, readBufferSize)
	magic, _ := br.Peek(len(gzipMagic))
	if bytes.Equal(magic, gzipMagic) {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			f.Close()
			return err
		}
		counter := &countingReader{r: f}
		zr, err := gzip.NewReader(counter)
		if err != nil {
			f.Close()
			return fmt.Errorf("open gzip stream: %w", err)
		}
		r.compressed = true
		r.counter = counter
		r.zr = zr
		br = bufio.NewReaderSize(zr, readBufferSize)
	}

	r.path = path
	r.file = f
	r.size = st.Size()
	r.br = br
	r.off = 0
	r.next = 0
	r.api = domain.APIUnknown
	return nil
}

// Close releases the open file.
func (r *Reader) Close() error {
	var err error
	if r.zr != nil {
		err = r.zr.Close()
	}
	if r.file != nil {
		if cerr := r.file.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	*r = Reader{}
	return err
}

// SupportsOffsets reports whether the stream can be repositioned.
func (r *Reader) SupportsOffsets() bool {
	return r.file != nil && !r.compressed
}

// Bookmark returns the position of the next call.
func (r *Reader) Bookmark() domain.Bookmark {
	return domain.Bookmark{Offset: r.off, Next: r.next}
}

// SetBookmark repositions the stream at b.
func (r *Reader) SetBookmark(b domain.Bookmark) error {
	if r.file == nil {
		return domain.ErrNoTrace
	}
	if r.compressed {
		return domain.ErrNoOffsets
	}
	if b.Offset < 0 || b.Offset > r.size {
		return fmt.Errorf("bookmark offset %d outside trace of %d bytes", b.Offset, r.size)
	}
	if _, err := r.file.Seek(b.Offset, io.SeekStart); err != nil {
		return err
	}
	r.br.Reset(r.file)
	r.off = b.Offset
	r.next = b.Next
	return nil
}

// ScanNext decodes the name and flags of the next call.
func (r *Reader) ScanNext() (domain.Call, error) {
	line, err := r.readLine()
	if err != nil {
		return domain.Call{}, err
	}
	var rec scanRecord
	if err := json.Unmarshal(line, &rec); err != nil {
		return domain.Call{}, fmt.Errorf("bad trace line for call %d: %w", r.next, err)
	}
	return r.emit(domain.Call{Name: rec.Name, Flags: rec.Flags}), nil
}

// DecodeNext fully decodes the next call.
func (r *Reader) DecodeNext() (domain.Call, error) {
	line, err := r.readLine()
	if err != nil {
		return domain.Call{}, err
	}
	var rec record
	if err := json.Unmarshal(line, &rec); err != nil {
		return domain.Call{}, fmt.Errorf("bad trace line for call %d: %w", r.next, err)
	}
	return r.emit(domain.Call{Name: rec.Name, Args: rec.Args, Flags: rec.Flags}), nil
}

// PercentRead returns the share of the file consumed so far.
func (r *Reader) PercentRead() int {
	if r.size <= 0 {
		return 100
	}
	consumed := r.off
	if r.compressed {
		consumed = r.counter.n
	}
	p := int(consumed * 100 / r.size)
	if p > 100 {
		p = 100
	}
	return p
}

// API returns the API guessed from the calls read so far.
func (r *Reader) API() domain.API {
	return r.api
}

func (r *Reader) emit(c domain.Call) domain.Call {
	c.Number = r.next
	r.next++
	if r.api == domain.APIUnknown {
		r.api = domain.GuessAPI(c.Name)
	}
	return c
}

// readLine returns the next non-blank line with surrounding space removed.
func (r *Reader) readLine() ([]byte, error) {
	if r.br == nil {
		return nil, domain.ErrNoTrace
	}
	for {
		line, err := r.br.ReadBytes('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		r.off += int64(len(line))
		trimmed := bytes.TrimSpace(line)
		if len(trimmed) > 0 {
			return trimmed, nil
		}
		if err != nil {
			return nil, io.EOF
		}
	}
}

// countingReader counts bytes read from the underlying file.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

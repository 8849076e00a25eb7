// Package help maps traced call names to reference documentation URLs.
//
// The table is a tab-separated file with one "function<TAB>url" pair per
// line. A GL/EGL reference table is bundled into the binary; a custom file
// can be loaded instead.
package help

import (
	"bufio"
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"
)

//go:embed glreference.tsv
var bundled []byte

// Table maps a call name to its help URL. Missing entries are legal.
type Table map[string]string

// Lookup returns the help URL for name, or "" when none is known.
func (t Table) Lookup(name string) string {
	return t[name]
}

// Parse reads a tab-separated help table.
// Blank lines and lines starting with '#' are ignored.
func Parse(r io.Reader) (Table, error) {
	t := Table{}
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fn, url, ok := strings.Cut(text, "\t")
		if !ok {
			return nil, fmt.Errorf("help table line %d: missing tab separator", line)
		}
		fn = strings.TrimSpace(fn)
		if fn == "" {
			return nil, fmt.Errorf("help table line %d: empty function name", line)
		}
		t[fn] = strings.TrimSpace(url)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return t, nil
}

// Bundled returns the table compiled into the binary.
func Bundled() (Table, error) {
	return Parse(bytes.NewReader(bundled))
}

// LoadFile reads a help table from path.
func LoadFile(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Loader returns a loader for path, falling back to the bundled table when
// path is empty.
func Loader(path string) func() (Table, error) {
	if path == "" {
		return Bundled
	}
	return func() (Table, error) { return LoadFile(path) }
}

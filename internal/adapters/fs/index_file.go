package fs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/bft-labs/tracescope/internal/domain"
)

const indexFileSuffix = ".index.json"

// IndexFileRepository implements ports.IndexRepository with one JSON file
// per trace under dir.
type IndexFileRepository struct {
	dir string
}

// NewIndexFileRepository creates a repository storing indexes in dir.
func NewIndexFileRepository(dir string) *IndexFileRepository {
	return &IndexFileRepository{dir: dir}
}

// Load returns the saved index for the trace at path.
// A missing, outdated or mismatching index file yields ok == false.
func (r *IndexFileRepository) Load(ctx context.Context, path string) (domain.Index, bool, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return domain.Index{}, false, err
	}
	fp, err := Fingerprint(abs)
	if err != nil {
		return domain.Index{}, false, err
	}

	data, err := os.ReadFile(r.Path(abs))
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Index{}, false, nil
		}
		return domain.Index{}, false, err
	}

	var idx domain.Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return domain.Index{}, false, fmt.Errorf("decode index %s: %w", r.Path(abs), err)
	}
	if idx.Version != domain.IndexVersion || idx.Fingerprint != fp || idx.Path != abs {
		return domain.Index{}, false, nil
	}
	return idx, true, nil
}

// Save persists the index atomically (write to temp file, then rename).
// Path and Fingerprint are filled in from the trace file.
func (r *IndexFileRepository) Save(ctx context.Context, idx domain.Index) error {
	abs, err := filepath.Abs(idx.Path)
	if err != nil {
		return err
	}
	fp, err := Fingerprint(abs)
	if err != nil {
		return err
	}
	idx.Path = abs
	idx.Fingerprint = fp
	idx.Version = domain.IndexVersion

	if err := os.MkdirAll(r.dir, 0o700); err != nil {
		return err
	}

	path := r.Path(abs)
	tmp := path + ".tmp"

	data, err := json.Marshal(idx)
	if err != nil {
		return err
	}
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Path returns the index file used for the trace at tracePath.
func (r *IndexFileRepository) Path(tracePath string) string {
	key := strconv.FormatUint(xxhash.Sum64String(tracePath), 16)
	return filepath.Join(r.dir, key+indexFileSuffix)
}

// IsIndexFile reports whether name is a saved index file.
func IsIndexFile(name string) bool {
	return strings.HasSuffix(name, indexFileSuffix)
}

// Fingerprint identifies the current content of the file at path by its
// name, size and modification time.
func Fingerprint(path string) (string, error) {
	st, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	d := xxhash.New()
	_, _ = d.WriteString(path)
	_, _ = d.WriteString(strconv.FormatInt(st.Size(), 10))
	_, _ = d.WriteString(strconv.FormatInt(st.ModTime().UnixNano(), 10))
	return strconv.FormatUint(d.Sum64(), 16), nil
}

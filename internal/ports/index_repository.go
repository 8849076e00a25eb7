package ports

import (
	"context"

	"github.com/bft-labs/tracescope/internal/domain"
	"github.com/bft-labs/tracescope/internal/help"
)

// IndexRepository persists frame indexes across re-opens of a trace.
type IndexRepository interface {
	// Load returns the saved index for the trace at path. The boolean is
	// false when no index exists or the saved one no longer matches the file.
	Load(ctx context.Context, path string) (domain.Index, bool, error)

	// Save persists the index atomically.
	Save(ctx context.Context, idx domain.Index) error
}

// HelpLoader supplies the help table. It is called at most once per engine.
type HelpLoader func() (help.Table, error)

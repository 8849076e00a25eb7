package tracefile

import "github.com/bft-labs/tracescope/internal/domain"

// record is the on-disk form of one call.
type record struct {
	Name  string            `json:"name"`
	Args  []domain.Argument `json:"args,omitempty"`
	Flags domain.CallFlags  `json:"flags,omitempty"`
}

// scanRecord decodes only what the indexer needs.
type scanRecord struct {
	Name  string           `json:"name"`
	Flags domain.CallFlags `json:"flags,omitempty"`
}

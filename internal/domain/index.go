package domain

// IndexVersion is the current on-disk index format version.
const IndexVersion = 1

// Index is the durable form of a trace's frame index.
// It is saved after a full scan and reused when the same file is reopened.
type Index struct {
	Version     int           `json:"version"`
	Path        string        `json:"path"`
	Fingerprint string        `json:"fingerprint"`
	API         API           `json:"api"`
	Frames      []IndexRecord `json:"frames"`
}

// IndexRecord is one frame of a durable index.
type IndexRecord struct {
	Start    Bookmark `json:"start"`
	Calls    uint32   `json:"calls"`
	LastCall *uint64  `json:"last_call,omitempty"`
}

// TotalCalls returns the number of calls covered by the index.
func (idx Index) TotalCalls() uint64 {
	var n uint64
	for _, r := range idx.Frames {
		n += uint64(r.Calls)
	}
	return n
}

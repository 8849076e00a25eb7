// Package domain contains the core entities and value objects for tracescope.
//
// This package is the innermost layer. It has no dependencies on file formats,
// logging or transport and holds only the trace data model and its invariants.
//
// # Entities
//
//   - [Bookmark]: A reproducible position in the trace stream
//   - [Call]: One raw decoded trace record
//   - [APICall]: A materialized call with its owning frame and help URL
//   - [Frame]: A contiguous run of calls, lazily materialized
//   - [FrameIndexEntry]: Bookmark and call count for one frame
//   - [Index]: The durable form of the frame index
//   - [Event]: A one-way notification emitted to consumers
//
// # Design Principles
//
// Frames are owned by the engine and referenced externally by ordinal.
// Materialized calls are shared read-only once published.
package domain

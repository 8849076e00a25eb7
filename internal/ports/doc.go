// Package ports defines the interfaces that connect the engine to its
// collaborators.
//
// # Port Interfaces
//
//   - [StreamReader]: Decodes calls from a trace stream, with optional bookmarks
//   - [EventSink]: Receives one-way notifications from the engine
//   - [IndexRepository]: Persists and loads durable frame indexes
//   - [HelpLoader]: Supplies the call-name to help-URL table
//
// The engine (internal/engine) depends only on these interfaces. Adapters
// (internal/adapters) implement them for trace files and the local disk.
package ports

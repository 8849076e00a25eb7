// Package tracescope provides an embeddable graphics API trace viewer
// backend.
//
// A Viewer opens a recorded trace, builds a frame index and answers frame,
// call and search requests. Requests are queued and processed one at a time
// by a background worker; results are delivered as events.
//
// # Basic Usage
//
//	v, err := tracescope.New(tracescope.DefaultConfig(),
//	    tracescope.WithEventHandler(tracescope.EventFunc(func(ev tracescope.Event) {
//	        fmt.Println(ev.Kind)
//	    })),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := v.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer v.Stop()
//
//	_ = v.Open("/path/to/app.trace.jsonl")
//	_ = v.RequestFrame(10)
//
// # Trace Files
//
// Traces are JSON lines, one call per line. Plain files are indexed in a
// single pass and frames are loaded on demand. Gzip-compressed files cannot be
// repositioned, so they are decoded completely when opened.
//
// # Index Cache
//
// With [Config.IndexCache] enabled the frame index of a plain trace is saved
// under [Config.StateDir] and reused while the file is unchanged.
//
// # Events
//
// Events are delivered in emission order from a single goroutine. A slow
// handler delays later events but never blocks trace processing.
//
// # Plugins
//
// Plugins are initialized on Start in registration order and shut down in
// reverse order on Stop. See plugins/tracewatcher for a plugin that reopens
// the trace when the file changes.
package tracescope

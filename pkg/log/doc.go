// Package log provides a logging abstraction for tracescope components.
//
// This package defines a Logger interface that can be implemented by
// any logging library. A zerolog adapter is provided for the CLI and a
// no-op logger for tests and embedding.
//
// # Usage
//
//	logger := log.NewZerologAdapter(zerolog.InfoLevel)
//	logger.Info("trace opened", log.String("path", path), log.Frames(n))
//
// Use the no-op logger when output is not wanted:
//
//	logger := log.NewNoopLogger()
package log

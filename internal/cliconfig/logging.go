package cliconfig

import (
	"io"

	"github.com/rs/zerolog"

	"github.com/bft-labs/tracescope/pkg/log"
)

// Logger returns a console logger on stderr at the given level.
// An unknown level falls back to info.
func Logger(level string) zerolog.Logger {
	return log.NewZerologAdapter(parseLevel(level)).Logger()
}

func loggerTo(w io.Writer, level string) zerolog.Logger {
	return log.NewZerologAdapterTo(w, parseLevel(level)).Logger()
}

func parseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// LibraryLogger wraps l for use by the engine and viewer.
func LibraryLogger(l zerolog.Logger) log.Logger {
	return log.NewZerologAdapterWithLogger(l)
}

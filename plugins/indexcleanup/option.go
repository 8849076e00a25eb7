package indexcleanup

import "github.com/bft-labs/tracescope/pkg/tracescope"

// WithIndexCleanup returns a tracescope Option that keeps the saved index
// directory bounded.
//
// Usage:
//
//	v, err := tracescope.New(cfg,
//	    indexcleanup.WithIndexCleanup(indexcleanup.Config{
//	        HighWatermark: 64 << 20,
//	        MaxAge:        7 * 24 * time.Hour,
//	    }),
//	)
func WithIndexCleanup(cfg Config) tracescope.Option {
	return tracescope.WithPlugin(New(cfg))
}

// WithDefaultIndexCleanup enables index cleanup with default settings
// (check daily, high watermark 256MiB, low watermark 192MiB, max age 30 days).
func WithDefaultIndexCleanup() tracescope.Option {
	return WithIndexCleanup(DefaultConfig())
}

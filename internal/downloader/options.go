package downloader

import "github.com/rs/zerolog"

// Options contains all download options
type Options struct {
	RateLimit      int64 // bytes per second, 0 disables limiting
	Proxy          string
	ConnectTimeout int // seconds
	ReadTimeout    int // seconds to wait for response headers
	MaxRedirects   int
	UserAgent      string
	// AtomicWrite streams into a hidden temp file next to the destination
	// and renames it on success. When false the destination is written
	// directly and a failed transfer may leave a truncated file behind.
	AtomicWrite bool
	Logger      zerolog.Logger
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		ConnectTimeout: 15,
		ReadTimeout:    60,
		MaxRedirects:   10,
		UserAgent:      "batchdl",
		AtomicWrite:    true,
		Logger:         zerolog.Nop(),
	}
}

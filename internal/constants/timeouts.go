// Package constants defines timeout values and retry limits used throughout the application.
package constants

import "time"

// Timeout constants for various operations
const (
	// Upstream catalog request timeout
	UpstreamTimeout = 15 * time.Second

	// Delay between upstream retry attempts
	UpstreamRetryDelay = 500 * time.Millisecond

	// Default per-probe timeout, and the accepted range
	ProbeTimeout    = 8 * time.Second
	MinProbeTimeout = 1 * time.Second
	MaxProbeTimeout = 30 * time.Second

	// How long a resolved link is trusted without re-probing
	ResolveCacheTTL = 6 * time.Hour

	// How long upstream catalog responses are reused
	ResponseCacheTTL = 10 * time.Minute

	// Interval for sweeping expired entries from persistent stores
	CacheSweepInterval = 1 * time.Hour

	// Request timeout for a whole channel detail, including link resolution
	DetailRequestTimeout = 45 * time.Second

	// Graceful shutdown window
	ShutdownTimeout = 10 * time.Second
)

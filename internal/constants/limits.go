// Package constants defines numerical limits.
package constants

// Limits and counts for various operations
const (
	// Number of episode links resolved concurrently per detail request
	ResolveConcurrency = 8

	// Items per upstream listing page
	ListingPageSize = 24

	// Default rotating log file limits
	LogMaxSizeMB  = 50
	LogMaxBackups = 3
	LogMaxAgeDays = 14
)

// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

// Request limits
const (
	// MaxRequestBodySize caps JSON bodies; a class photo may carry dozens of descriptors
	MaxRequestBodySize = 10 << 20

	// MaxDescriptorsPerRequest is the maximum number of detected faces accepted in one attendance batch
	MaxDescriptorsPerRequest = 500
)

// HNSW roster index
const (
	// HNSWSearchK is the number of nearest neighbours fetched from the roster index
	// before restricting to the requested class section
	HNSWSearchK = 50
)

// Login rate limiting
const (
	// LoginRatePerSecond is the sustained login attempt rate per client IP
	LoginRatePerSecond = 1

	// LoginBurst is the number of login attempts allowed in a burst per client IP
	LoginBurst = 5
)

// DateLayout is the day granularity used when flattening attendance records
const DateLayout = "2006-01-02"

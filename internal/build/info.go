// Package build exposes version metadata stamped at build time.
package build

import "fmt"

// These variables are set at build time via -ldflags.
var (
	Version   = "dev"
	CommitSHA = "unknown"
	BuildDate = "unknown"
)

// String returns a single human-readable build info string.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, CommitSHA, BuildDate)
}

// UserAgent returns the value sent in the User-Agent header of every
// backend request.
func UserAgent() string {
	return "orderpulse/" + Version
}

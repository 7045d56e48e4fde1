// Package version holds build-time version information for the refubot binary.
// The variables are set with -ldflags:
//
//	go build -ldflags="-X github.com/54b3r/refubot-go/internal/version.Version=v0.3.0 \
//	                    -X github.com/54b3r/refubot-go/internal/version.Commit=abc1234 \
//	                    -X github.com/54b3r/refubot-go/internal/version.BuildDate=2026-01-01"
//
// Without ldflags (`go run`) they keep readable defaults.
package version

import "fmt"

// Version is the semantic version of the binary. "dev" for local builds.
var Version = "dev"

// Commit is the short git SHA the binary was built from.
var Commit = "unknown"

// BuildDate is the UTC build date (RFC3339).
var BuildDate = "unknown"

// String renders the build info on one line, as printed by `refubot version`
// and reported in the startup log.
func String() string {
	return fmt.Sprintf("refubot %s (commit %s, built %s)", Version, Commit, BuildDate)
}

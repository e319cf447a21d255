// Package version holds build metadata injected at link time.
package version

import "runtime"

// Set via -ldflags at build time:
//
//	-X github.com/pickatale/bookrec/version.GitRelease=v0.2.0
var (
	GitRelease    = "dev"
	GitCommit     = "unknown"
	GitCommitDate = "unknown"
	GoInfo        = runtime.Version()
)

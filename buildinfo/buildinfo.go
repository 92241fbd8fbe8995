// Package buildinfo holds values stamped in at link time via -ldflags.
package buildinfo

var (
	Version   = "unknown"
	BuildTime = "unknown"
)

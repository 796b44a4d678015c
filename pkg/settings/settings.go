// Package settings provides build metadata, per-run options and context
// helpers used across the seekx CLI.
package settings

import "time"

// CliBinaryName is the canonical binary name for this tool.
const CliBinaryName = "seekx"

// VersionInformation is populated at build time via ldflags.
var VersionInformation = VersionInfo{
	Commit:       "unknown",
	BuildVersion: "v0.0.0-nightly",
	BuildTime:    "unknown",
}

// VersionInfo holds metadata about the build.
type VersionInfo struct {
	Commit       string
	BuildVersion string
	BuildTime    string
}

// Run holds the command line options of a single execution.
type Run struct {
	MinLogLevel int8
	LogFile     string
	ConfigPath  string // "" reads the document from stdin
	ExecTimeout time.Duration
	MaxRows     int
	NoColor     bool
	Inline      bool
}

// NewCliParams returns the defaults used before flags are parsed.
func NewCliParams() *Run {
	return &Run{
		MinLogLevel: 0,
		NoColor:     false,
		Inline:      false,
	}
}

// ConfigFromStdin reports whether the startup document is read from stdin.
func (r *Run) ConfigFromStdin() bool {
	return r.ConfigPath == "" || r.ConfigPath == "-"
}

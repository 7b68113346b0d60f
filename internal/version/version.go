// Package version holds build identification for the yt binary.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Overridden at build time:
// go build -ldflags "-X yt/internal/version.Version=0.4.0 -X yt/internal/version.Commit=abc123"
var (
	Version   = "0.3.0"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Build describes the running binary.
type Build struct {
	Version   string `json:"version" yaml:"version" toml:"version"`
	Commit    string `json:"commit" yaml:"commit" toml:"commit"`
	BuildDate string `json:"buildDate" yaml:"buildDate" toml:"buildDate"`
	Go        string `json:"go" yaml:"go" toml:"go"`
}

// Get returns the build information. The commit falls back to the VCS
// stamp the go tool embeds when none was injected via ldflags.
func Get() Build {
	return Build{
		Version:   Version,
		Commit:    resolveCommit(debug.ReadBuildInfo),
		BuildDate: BuildDate,
		Go:        runtime.Version(),
	}
}

// Short is the version with an abbreviated commit, for --version.
func (b Build) Short() string {
	if b.Commit != "unknown" && len(b.Commit) > 7 {
		return b.Version + " (" + b.Commit[:7] + ")"
	}
	return b.Version
}

func (b Build) String() string {
	return fmt.Sprintf("yt version %s\nCommit: %s\nBuilt: %s\nGo: %s", b.Version, b.Commit, b.BuildDate, b.Go)
}

func resolveCommit(read func() (*debug.BuildInfo, bool)) string {
	if Commit != "unknown" {
		return Commit
	}
	info, ok := read()
	if !ok {
		return Commit
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && s.Value != "" {
			return s.Value
		}
	}
	return Commit
}

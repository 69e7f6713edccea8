// Package version reports build metadata for the workbench binary.
//
// Release builds inject Version, Commit, and Date through ldflags.
// Plain `go build` binaries fall back to the VCS stamp the toolchain
// embeds, so `workbench version` stays meaningful on dev builds.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set via -ldflags "-X github.com/intraworks/workbench/internal/version.Version=...".
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

// Info is the resolved build metadata of the running binary.
type Info struct {
	Version   string
	Commit    string
	Date      string
	Dirty     bool
	GoVersion string
	Platform  string
}

// Current resolves build metadata. Injected ldflags values win; missing
// fields are filled from the embedded build info when present.
func Current() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.Commit == "" {
					info.Commit = s.Value
				}
			case "vcs.time":
				if info.Date == "" {
					info.Date = s.Value
				}
			case "vcs.modified":
				info.Dirty = s.Value == "true"
			}
		}
	}

	if info.Commit == "" {
		info.Commit = "unknown"
	}
	if info.Date == "" {
		info.Date = "unknown"
	}
	return info
}

// String formats the metadata on one line for `workbench version`.
func (i Info) String() string {
	commit := i.Commit
	if len(commit) > 8 {
		commit = commit[:8]
	}
	if i.Dirty {
		commit += "+dirty"
	}
	return fmt.Sprintf("workbench %s (%s) built %s, %s %s",
		i.Version, commit, i.Date, i.GoVersion, i.Platform)
}

// Short returns just the version number.
func (i Info) Short() string {
	return i.Version
}

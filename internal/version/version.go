// Package version reports the build identity of the ghostkeys binary.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set at link time, e.g. -ldflags "-X .../version.Version=v0.3.0".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info is the resolved build identity.
type Info struct {
	Version string
	Commit  string
	Date    string
	Go      string
}

// Current merges link-time values with the VCS stamp Go embeds in binaries
// built from a checkout, which fills in commit and date for plain `go build`.
func Current() Info {
	info := Info{Version: Version, Commit: Commit, Date: Date, Go: runtime.Version()}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	for _, s := range bi.Settings {
		switch {
		case s.Key == "vcs.revision" && info.Commit == "none":
			info.Commit = shortRevision(s.Value)
		case s.Key == "vcs.time" && info.Date == "unknown":
			info.Date = s.Value
		}
	}
	return info
}

func shortRevision(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}

// String renders the line printed by `ghostkeys version`.
func (i Info) String() string {
	return fmt.Sprintf("ghostkeys %s (commit=%s, date=%s, go=%s)", i.Version, i.Commit, i.Date, i.Go)
}

// String is shorthand for Current().String().
func String() string {
	return Current().String()
}

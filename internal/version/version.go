// Package version reports the bto build.
package version

import (
	"fmt"
	"runtime/debug"
)

// These variables are set at build time via ldflags. When they are not,
// the VCS stamp embedded by the go tool is used instead.
var (
	Commit    = "unknown"
	BuildTime = "unknown"
)

// String returns the version string (commit-hash based, no semver)
func String() string {
	commit, built := Commit, BuildTime
	if commit == "unknown" {
		if rev, at, ok := vcsStamp(); ok {
			commit, built = rev, at
		}
	}
	return fmt.Sprintf("bto dev (commit: %s, built: %s)", short(commit), built)
}

func vcsStamp() (revision, at string, ok bool) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "", "", false
	}
	dirty := false
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.time":
			at = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if revision == "" {
		return "", "", false
	}
	if dirty {
		revision += "+dirty"
	}
	return revision, at, true
}

func short(commit string) string {
	if len(commit) > 7 {
		return commit[:7]
	}
	return commit
}

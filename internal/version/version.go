// Package version reports the archlens build: the release version plus the
// commit and build time, taken from ldflags or, failing that, from the VCS
// stamp the Go toolchain embeds.
package version

import (
	"runtime"
	"runtime/debug"
)

// Set at build time:
// go build -ldflags "-X archlens/internal/version.Version=1.0.0 -X archlens/internal/version.Commit=abc123"
var (
	Version   = "0.4.0"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Info returns the version, with a short commit hash when one is known.
func Info() string {
	commit, _, _ := buildStamp()
	if commit != "unknown" && len(commit) > 7 {
		return Version + " (" + commit[:7] + ")"
	}
	return Version
}

// Full returns the multi-line report printed by `archlens version`.
func Full() string {
	commit, date, dirty := buildStamp()
	if dirty {
		commit += " (modified)"
	}
	return "archlens version " + Version + "\n" +
		"Commit: " + commit + "\n" +
		"Built: " + date + "\n" +
		"Go: " + runtime.Version()
}

// buildStamp prefers ldflags values and falls back to vcs.* build settings.
func buildStamp() (commit, date string, dirty bool) {
	commit, date = Commit, BuildDate
	if commit != "unknown" && date != "unknown" {
		return commit, date, false
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return commit, date, false
	}
	return fromSettings(commit, date, info.Settings)
}

func fromSettings(commit, date string, settings []debug.BuildSetting) (string, string, bool) {
	dirty := false
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			if commit == "unknown" {
				commit = s.Value
			}
		case "vcs.time":
			if date == "unknown" {
				date = s.Value
			}
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	return commit, date, dirty
}

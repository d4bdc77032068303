package utils

import (
	"fmt"
	"runtime/debug"
)

// Version is the semantic version of the gateway. Overridable via ldflags.
//
//nolint:gochecknoglobals // Set at build time
var Version = "0.1.0"

// getVCSInfo extracts commit hash, build time and dirty flag from the
// embedded build info. Missing values are reported as "unknown"/"false".
func getVCSInfo() (commit, buildTime, modified string) {
	commit = "unknown"
	buildTime = "unknown"
	modified = "false"

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return commit, buildTime, modified
	}

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			commit = setting.Value
			if len(commit) > 7 {
				commit = commit[:7]
			}
		case "vcs.time":
			buildTime = setting.Value
		case "vcs.modified":
			modified = setting.Value
		}
	}

	return commit, buildTime, modified
}

// GetVersionShort returns e.g. "v0.1.0 (abc1234)".
func GetVersionShort() string {
	commit, _, modified := getVCSInfo()

	suffix := ""
	if modified == "true" {
		suffix = "-dirty"
	}

	return fmt.Sprintf("v%s%s (%s)", Version, suffix, commit)
}

// GetBuildVersion returns the long version string including the build time.
func GetBuildVersion() string {
	commit, buildTime, modified := getVCSInfo()

	suffix := ""
	if modified == "true" {
		suffix = "-dirty"
	}

	return fmt.Sprintf("v%s%s (%s) built at %s", Version, suffix, commit, buildTime)
}

// GetBuildInfo returns build metadata as a flat map.
func GetBuildInfo() map[string]string {
	commit, buildTime, modified := getVCSInfo()

	out := map[string]string{
		"version":      Version,
		"commit":       commit,
		"build_time":   buildTime,
		"vcs_modified": modified,
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		out["go_version"] = info.GoVersion
	}

	return out
}

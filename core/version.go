package core

import "strings"

// Build metadata, injected with -ldflags at link time:
//
//	go build -ldflags "$(BuildLdflags ...)" .
//	go build -ldflags "-X edgecam/core.Version=$(git describe --tags --always)" .
//
// Unset values keep their defaults.
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// versionPkg is the import path the -X flags target.
const versionPkg = "edgecam/core"

// GetVersion returns the application version.
func GetVersion() string {
	return Version
}

// GetBuildTime returns the build timestamp.
func GetBuildTime() string {
	return BuildTime
}

// GetGitCommit returns the short commit hash.
func GetGitCommit() string {
	return GitCommit
}

// GetVersionInfo returns the line printed by `edgecam version`, for example
// "v1.0.0 (built 2024-01-15T10:30:00Z, commit abc1234)".
func GetVersionInfo() string {
	return Version + " (built " + BuildTime + ", commit " + GitCommit + ")"
}

// BuildLdflags returns the -X flags that set the non-empty arguments, for use
// by build scripts.
func BuildLdflags(version, buildTime, gitCommit string) string {
	vars := []struct{ name, value string }{
		{"Version", version},
		{"BuildTime", buildTime},
		{"GitCommit", gitCommit},
	}
	var flags []string
	for _, v := range vars {
		if v.value != "" {
			flags = append(flags, "-X "+versionPkg+"."+v.name+"="+v.value)
		}
	}
	return strings.Join(flags, " ")
}

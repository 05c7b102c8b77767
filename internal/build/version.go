package build

import (
	"runtime/debug"
	"strings"
)

// Stamped at release time with -ldflags "-X .../internal/build.Version=...".
var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

// FullVersion returns the version string with commit hash appended.
// Format: "Version+Commit" (e.g., "1.0.0+abc123")
func FullVersion() string {
	return Version + "+" + Commit
}

// UserAgentVersion is the version sent to the site. An unstamped binary
// installed with `go install module@version` reports that module version
// instead of "dev".
func UserAgentVersion() string {
	if Version != "dev" {
		return Version
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return Version
	}
	return moduleVersion(info.Main.Version)
}

func moduleVersion(v string) string {
	if v == "" || v == "(devel)" {
		return Version
	}
	return strings.TrimPrefix(v, "v")
}

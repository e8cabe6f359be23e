package app

import (
	"fmt"
	"runtime/debug"
)

// Set with -ldflags "-X github.com/sukerxi/mpvbridge/internal/app.Version=..."
var (
	Version   = "dev"
	GitCommit = ""
	BuildTime = "unknown"
)

// VersionInfo describes the running build.
type VersionInfo struct {
	Version   string
	GitCommit string
	BuildTime string
	GoVersion string
}

// GetVersionInfo returns the ldflags values, filling the commit from the
// embedded VCS stamp when it wasn't set.
func GetVersionInfo() VersionInfo {
	info := VersionInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
		GoVersion: "unknown",
	}

	if bi, ok := debug.ReadBuildInfo(); ok {
		info.GoVersion = bi.GoVersion
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" && info.GitCommit == "" {
				info.GitCommit = s.Value
			}
		}
	}
	if info.GitCommit == "" {
		info.GitCommit = "unknown"
	}
	if len(info.GitCommit) > 12 {
		info.GitCommit = info.GitCommit[:12]
	}
	return info
}

// FullString renders the version for logs and --version.
func (v VersionInfo) FullString() string {
	return fmt.Sprintf("mpvbridge %s (commit %s, built %s, %s)", v.Version, v.GitCommit, v.BuildTime, v.GoVersion)
}

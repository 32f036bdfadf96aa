package app

import (
	"fmt"
	"runtime/debug"
)

// Set with -ldflags "-X github.com/signsofter/caseobserver-dashboard/internal/app.Version=1.2.0".
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// BuildVersion describes the binary for the version command. Without
// ldflags the VCS revision recorded by the go tool is used when present.
func BuildVersion() string {
	commit, built := Commit, BuildTime
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				if commit == "unknown" && s.Value != "" {
					commit = shortRevision(s.Value)
				}
			case "vcs.time":
				if built == "unknown" && s.Value != "" {
					built = s.Value
				}
			}
		}
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, commit, built)
}

func shortRevision(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}

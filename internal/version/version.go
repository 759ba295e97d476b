package version

import (
	"fmt"
	"runtime/debug"
)

// Set at build time:
// go build -ldflags "-X git.home.luguber.info/inful/docstage/internal/version.Version=v0.3.0".
var (
	Version   = "unknown"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Resolved returns Version, or the module version recorded by `go install`
// when no ldflags were given.
func Resolved() string {
	if Version != "unknown" && Version != "" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return Version
}

// String is the one-line form printed by `docstage version`.
func String() string {
	return fmt.Sprintf("docstage %s (commit %s, built %s)", Resolved(), GitCommit, BuildTime)
}

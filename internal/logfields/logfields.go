package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyModule     = "module"
	KeyArtifact   = "artifact"
	KeyDir        = "dir"
	KeyRoot       = "root"
	KeyPrefix     = "prefix"
	KeyPath       = "path"
	KeyStage      = "stage"
	KeyOutcome    = "outcome"
	KeyDurationMS = "duration_ms"
	KeyCount      = "count"
	KeyURL        = "url"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Module(id string) slog.Attr      { return slog.String(KeyModule, id) }
func Artifact(name string) slog.Attr  { return slog.String(KeyArtifact, name) }
func Dir(d string) slog.Attr          { return slog.String(KeyDir, d) }
func Root(r string) slog.Attr         { return slog.String(KeyRoot, r) }
func Prefix(p string) slog.Attr       { return slog.String(KeyPrefix, p) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Outcome(o string) slog.Attr      { return slog.String(KeyOutcome, o) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

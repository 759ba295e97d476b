package config

import (
	"runtime"

	"git.home.luguber.info/inful/docstage/internal/extract"
)

const (
	defaultOutputDir   = "./docs-out"
	defaultDebounce    = "500ms"
	defaultNATSSubject = "docstage.artifacts"
)

// applyDefaults fills every unset field. It runs before validation.
func applyDefaults(cfg *Config) {
	if cfg.Version == "" {
		cfg.Version = CurrentVersion
	}
	if cfg.Output.Directory == "" {
		cfg.Output.Directory = defaultOutputDir
	}
	if len(cfg.Extract.Kinds) == 0 {
		cfg.Extract.Kinds = extract.DefaultKinds()
	}
	if cfg.Extract.Exclude == nil {
		cfg.Extract.Exclude = []string{".git", "vendor", "node_modules", "testdata"}
	}
	if cfg.Extract.Concurrency <= 0 {
		cfg.Extract.Concurrency = min(runtime.NumCPU(), 8)
	}
	if cfg.Stage.RootMode == "" {
		cfg.Stage.RootMode = "segments"
	}
	if cfg.Watch.Debounce == "" {
		cfg.Watch.Debounce = defaultDebounce
	}
	if cfg.Sinks.NATS != nil && cfg.Sinks.NATS.Subject == "" {
		cfg.Sinks.NATS.Subject = defaultNATSSubject
	}
	if cfg.Git != nil && cfg.Git.Depth == 0 {
		cfg.Git.Depth = 1
	}
	cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))
}

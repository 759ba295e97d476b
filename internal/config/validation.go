package config

import (
	"time"

	derrors "git.home.luguber.info/inful/docstage/internal/errors"
)

// Validate checks a defaulted configuration, including a trial compile of
// the stage section so template and pattern errors surface at load time.
func Validate(cfg *Config) error {
	if len(cfg.Inputs) == 0 && (cfg.Git == nil || cfg.Git.URL == "") {
		return derrors.ValidationFailed("inputs", "at least one input or a git url is required")
	}
	if _, err := cfg.Stage.Compile(); err != nil {
		return err
	}
	if _, err := cfg.DebounceDuration(); err != nil {
		return derrors.ValidationFailed("watch.debounce", err.Error())
	}
	if _, err := cfg.IntervalDuration(); err != nil {
		return derrors.ValidationFailed("watch.interval", err.Error())
	}
	if n := cfg.Sinks.NATS; n != nil && n.URL == "" {
		return derrors.ValidationFailed("sinks.nats.url", "nats sink requires a url")
	}
	if cfg.Git != nil && cfg.Git.Depth < 0 {
		return derrors.ValidationFailed("git.depth", "depth must not be negative")
	}
	if cfg.Git != nil && cfg.Git.Retries < 0 {
		return derrors.ValidationFailed("git.retries", "retries must not be negative")
	}
	return nil
}

// DebounceDuration parses watch.debounce.
func (c *Config) DebounceDuration() (time.Duration, error) {
	return parseDuration(c.Watch.Debounce)
}

// IntervalDuration parses watch.interval; zero means no periodic rebuild.
func (c *Config) IntervalDuration() (time.Duration, error) {
	return parseDuration(c.Watch.Interval)
}

func parseDuration(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, derrors.New(derrors.CategoryValidation, derrors.SeverityFatal, "duration must not be negative")
	}
	return d, nil
}

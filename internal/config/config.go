// Package config loads docstage configuration from YAML, applies defaults and
// validation, and compiles the stage section into stage.Options.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	derrors "git.home.luguber.info/inful/docstage/internal/errors"
	"git.home.luguber.info/inful/docstage/internal/extract"
)

// CurrentVersion is the configuration format version written by Init.
const CurrentVersion = "1.0"

// Config is the on-disk configuration.
type Config struct {
	Version string        `yaml:"version"`
	Inputs  []string      `yaml:"inputs"` // entry files or directories
	Output  OutputConfig  `yaml:"output"`
	Stage   StageConfig   `yaml:"stage"`
	Extract ExtractConfig `yaml:"extract"`
	Sinks   SinksConfig   `yaml:"sinks"`
	State   StateConfig   `yaml:"state"`
	Watch   WatchConfig   `yaml:"watch"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
	Git     *GitConfig    `yaml:"git,omitempty"`
}

// OutputConfig controls where the filesystem sink writes.
type OutputConfig struct {
	Directory string `yaml:"directory"`
	Clean     bool   `yaml:"clean"` // remove the directory before each build
}

// ExtractConfig controls module discovery and extraction.
type ExtractConfig struct {
	Kinds       map[string]extract.Kind `yaml:"kinds,omitempty"`
	Exclude     []string                `yaml:"exclude,omitempty"` // directory names skipped while walking inputs
	Concurrency int                     `yaml:"concurrency"`
}

// SinksConfig selects artifact destinations besides the output directory.
type SinksConfig struct {
	Filesystem *bool       `yaml:"filesystem,omitempty"` // defaults to true
	NATS       *NATSConfig `yaml:"nats,omitempty"`
}

// FilesystemEnabled reports whether artifacts are written to the output directory.
func (s SinksConfig) FilesystemEnabled() bool { return s.Filesystem == nil || *s.Filesystem }

// NATSConfig publishes every artifact to a subject.
type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// StateConfig points at the sqlite build ledger. An empty path disables it.
type StateConfig struct {
	Path string `yaml:"path"`
}

// WatchConfig tunes watch mode.
type WatchConfig struct {
	Debounce string `yaml:"debounce"`           // quiet period after a change
	Interval string `yaml:"interval,omitempty"` // periodic rebuild, empty disables
}

// MetricsConfig exposes prometheus metrics in watch mode. Empty disables.
type MetricsConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

// GitConfig documents a cloned repository instead of local inputs.
type GitConfig struct {
	URL       string   `yaml:"url"`
	Branch    string   `yaml:"branch,omitempty"`
	Depth     int      `yaml:"depth,omitempty"`
	Workspace string   `yaml:"workspace,omitempty"`
	Paths     []string `yaml:"paths,omitempty"` // inputs relative to the clone
	// Token authenticates HTTPS clones; use ${VAR} to keep it out of the file.
	Token string `yaml:"token,omitempty"`
	// Retries is how often a failed clone or fetch is retried with
	// exponential backoff.
	Retries int `yaml:"retries,omitempty"`
}

// Load reads, expands, defaults and validates the configuration at path.
// `.env` and `.env.local` beside the file are loaded first; existing
// environment variables win.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, derrors.ConfigNotFound(path)
	}
	loadEnvFiles(filepath.Dir(path))

	data, err := os.ReadFile(path) // #nosec G304 -- user supplied config path
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CategoryConfig, derrors.SeverityFatal, "failed to read config file").
			WithContext("path", path)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.resolvePaths(filepath.Dir(path))
	return cfg, nil
}

// Parse decodes data after `${VAR}` expansion, then applies defaults and
// validation. Relative paths are left as written.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(expandEnv(data), &cfg); err != nil {
		return nil, derrors.Wrap(err, derrors.CategoryConfig, derrors.SeverityFatal, "failed to unmarshal config")
	}
	if cfg.Version != "" && cfg.Version != CurrentVersion {
		return nil, derrors.ConfigInvalid("version", "unsupported configuration version: "+cfg.Version+" (expected "+CurrentVersion+")")
	}
	applyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// resolvePaths makes relative paths relative to the config file's directory.
func (c *Config) resolvePaths(base string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}
	for i, in := range c.Inputs {
		c.Inputs[i] = abs(in)
	}
	c.Output.Directory = abs(c.Output.Directory)
	c.State.Path = abs(c.State.Path)
	if c.Git != nil {
		c.Git.Workspace = abs(c.Git.Workspace)
	}
}

// Init writes an example configuration file.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return derrors.ConfigInvalid("path", "configuration file already exists: "+path+" (use --force to overwrite)")
	}
	data, err := yaml.Marshal(Example())
	if err != nil {
		return derrors.InternalError("failed to marshal config", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return derrors.WorkspaceError("write config", err)
	}
	return nil
}

// Example returns the configuration written by Init.
func Example() *Config {
	return &Config{
		Version: CurrentVersion,
		Inputs:  []string{"./cmd", "./internal"},
		Output:  OutputConfig{Directory: "./docs/api", Clean: true},
		Stage: StageConfig{
			Match:  []MatchElement{{Pattern: `\.go$`}},
			Prefix: "reference",
			Intro:  "<!-- generated from {{.ID}} -->",
			Index:  IndexOption{Enabled: true},
			Replace: &ReplaceConfig{
				Pattern:     `(?m)^Deprecated:`,
				Replacement: "**Deprecated:**",
			},
			RootMode: "segments",
		},
		Extract: ExtractConfig{
			Kinds:       extract.DefaultKinds(),
			Exclude:     []string{"vendor", "testdata", ".git"},
			Concurrency: 4,
		},
		Sinks:   SinksConfig{},
		State:   StateConfig{Path: "./docstage.db"},
		Watch:   WatchConfig{Debounce: "500ms"},
		Metrics: MetricsConfig{Addr: ":9090"},
		Logging: LoggingConfig{Level: LogLevelInfo, Format: LogFormatText},
	}
}

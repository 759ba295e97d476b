package commands

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/docstage/internal/config"
)

// Global is shared by every subcommand.
type Global struct {
	Logger *slog.Logger
}

// CLI is the root command.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"docstage.yaml" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Ver     kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Run one documentation build"`
	Watch   WatchCmd   `cmd:"" help:"Rebuild when sources change"`
	Init    InitCmd    `cmd:"" help:"Write an example configuration file"`
	History HistoryCmd `cmd:"" help:"Show recorded builds from the build ledger"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// AfterApply installs a text logger until the configuration is known.
// nolint:unparam // kong hook signature
func (c *CLI) AfterApply() error {
	slog.SetDefault(newLogger(config.LoggingConfig{}, c.Verbose))
	return nil
}

// loadConfig reads the configuration and reinstalls the logger it describes.
func loadConfig(g *Global, root *CLI) (*config.Config, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, err
	}
	g.Logger = newLogger(cfg.Logging, root.Verbose)
	slog.SetDefault(g.Logger)
	return cfg, nil
}

// newLogger builds the process logger; --verbose forces debug.
func newLogger(lc config.LoggingConfig, verbose bool) *slog.Logger {
	level := config.NormalizeLogLevel(string(lc.Level)).SlogLevel()
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if config.NormalizeLogFormat(string(lc.Format)) == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

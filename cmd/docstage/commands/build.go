package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"git.home.luguber.info/inful/docstage/internal/config"
	"git.home.luguber.info/inful/docstage/internal/host"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output string `short:"o" help:"Override output.directory" type:"path"`
	GitURL string `name:"git-url" help:"Document a git repository instead of the configured inputs"`
	Branch string `help:"Branch to check out with --git-url"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	b.apply(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := NewPipeline(cfg, g.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	report, err := p.Build(ctx)
	if report != nil {
		printReport(os.Stdout, report)
	}
	return err
}

// apply layers command line overrides onto cfg.
func (b *BuildCmd) apply(cfg *config.Config) {
	if b.Output != "" {
		cfg.Output.Directory = b.Output
	}
	if b.GitURL != "" {
		if cfg.Git == nil {
			cfg.Git = &config.GitConfig{Depth: 1}
		}
		cfg.Git.URL = b.GitURL
		cfg.Inputs = nil
	}
	if b.Branch != "" && cfg.Git != nil {
		cfg.Git.Branch = b.Branch
	}
	if cfg.Git != nil && cfg.Git.Workspace == "" {
		cfg.Git.Workspace = defaultWorkspace()
	}
}

func defaultWorkspace() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "docstage")
	}
	return filepath.Join(os.TempDir(), "docstage")
}

func printReport(w io.Writer, r *host.Report) {
	_, _ = fmt.Fprintf(w, "Build %s: %s\n", r.ID, r.Outcome)
	_, _ = fmt.Fprintf(w, "  root:       %s\n", r.Root)
	_, _ = fmt.Fprintf(w, "  modules:    %d (documented %d, empty %d, filtered %d)\n", r.Modules, r.Documented, r.Empty, r.Filtered)
	_, _ = fmt.Fprintf(w, "  indexes:    %d\n", r.Indexes)
	_, _ = fmt.Fprintf(w, "  artifacts:  %d\n", len(r.Artifacts))
	_, _ = fmt.Fprintf(w, "  duration:   %s\n", r.Duration.Round(time.Millisecond))
}

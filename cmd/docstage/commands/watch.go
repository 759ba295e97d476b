package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/docstage/internal/config"
	derrors "git.home.luguber.info/inful/docstage/internal/errors"
	"git.home.luguber.info/inful/docstage/internal/logfields"
	"git.home.luguber.info/inful/docstage/internal/metrics"
	"git.home.luguber.info/inful/docstage/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	BuildCmd    `embed:""`
	MetricsAddr string `name:"metrics-addr" help:"Override metrics.addr; empty keeps the configured value"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	w.apply(cfg)
	if w.MetricsAddr != "" {
		cfg.Metrics.Addr = w.MetricsAddr
	}
	debounce, err := cfg.DebounceDuration()
	if err != nil {
		return err
	}
	interval, err := cfg.IntervalDuration()
	if err != nil {
		return err
	}

	if err := checkWatchSources(cfg, interval, g.Logger); err != nil {
		return err
	}

	p, err := NewPipeline(cfg, g.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	ignore := []string{cfg.Output.Directory}
	if cfg.State.Path != "" {
		ignore = append(ignore, cfg.State.Path)
	}
	watcher, err := watch.New(func(ctx context.Context, reason string) error {
		report, err := p.Build(ctx)
		if report != nil {
			printReport(os.Stdout, report)
		}
		return err
	}, watch.Options{
		Paths:    cfg.Inputs,
		Exclude:  cfg.Extract.Exclude,
		Ignore:   ignore,
		Filter:   p.Registry.Handles,
		Debounce: debounce,
		Interval: interval,
		Logger:   g.Logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	grp, ctx := errgroup.WithContext(ctx)
	grp.Go(func() error { return watcher.Run(ctx) })
	if cfg.Metrics.Addr != "" {
		grp.Go(func() error { return metrics.Serve(ctx, cfg.Metrics.Addr, p.Metrics) })
	}
	err = grp.Wait()
	g.Logger.Info("Watch stopped", logfields.Count(watcher.Builds()))
	return err
}

// checkWatchSources refuses a watch that could never see a change. A git
// checkout is not watched on disk; only the interval picks up new commits.
func checkWatchSources(cfg *config.Config, interval time.Duration, logger *slog.Logger) error {
	if cfg.Git == nil || cfg.Git.URL == "" {
		return nil
	}
	if interval <= 0 {
		if len(cfg.Inputs) == 0 {
			return derrors.ConfigInvalid("watch.interval", "watching a git source requires an interval")
		}
		logger.Warn("Git source is only synced at startup; set watch.interval to follow new commits",
			logfields.URL(cfg.Git.URL))
		return nil
	}
	logger.Info("Git source is synced on the rebuild interval",
		logfields.URL(cfg.Git.URL), slog.Duration("interval", interval))
	return nil
}

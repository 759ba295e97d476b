package commands

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/docstage/internal/artifact"
	"git.home.luguber.info/inful/docstage/internal/config"
	derrors "git.home.luguber.info/inful/docstage/internal/errors"
	"git.home.luguber.info/inful/docstage/internal/eventstore"
	"git.home.luguber.info/inful/docstage/internal/extract"
	"git.home.luguber.info/inful/docstage/internal/gitsource"
	"git.home.luguber.info/inful/docstage/internal/host"
	"git.home.luguber.info/inful/docstage/internal/logfields"
	"git.home.luguber.info/inful/docstage/internal/metrics"
	"git.home.luguber.info/inful/docstage/internal/natspub"
	"git.home.luguber.info/inful/docstage/internal/retry"
	"git.home.luguber.info/inful/docstage/internal/stage"
)

// Pipeline is a fully wired build: extractors, stage, sinks, ledger and host.
type Pipeline struct {
	Host     *host.Host
	Registry *extract.Registry
	Metrics  *prom.Registry
	Source   *gitsource.Source // nil without a git section

	cfg     *config.Config
	logger  *slog.Logger
	closers []func() error
}

// NewPipeline wires every component named by cfg.
func NewPipeline(cfg *config.Config, logger *slog.Logger) (*Pipeline, error) {
	p := &Pipeline{cfg: cfg, logger: logger, Metrics: prom.NewRegistry()}

	registry, err := extract.NewRegistry(cfg.Extract.Kinds)
	if err != nil {
		return nil, err
	}
	p.Registry = registry

	opts, err := cfg.Stage.Compile()
	if err != nil {
		return nil, err
	}

	sink, observers, err := p.sinks()
	if err != nil {
		_ = p.Close()
		return nil, err
	}

	recorder := metrics.NewPrometheusRecorder(p.Metrics)
	st, err := stage.New(opts, registry, sink, stage.WithRecorder(recorder), stage.WithLogger(logger))
	if err != nil {
		_ = p.Close()
		return nil, err
	}

	if cfg.Git != nil && cfg.Git.URL != "" {
		p.Source = &gitsource.Source{
			URL:       cfg.Git.URL,
			Branch:    cfg.Git.Branch,
			Depth:     cfg.Git.Depth,
			Workspace: cfg.Git.Workspace,
			Token:     cfg.Git.Token,
			Retry:     retry.NewPolicy(retry.BackoffExponential, 500*time.Millisecond, 10*time.Second, cfg.Git.Retries),
			Logger:    logger,
		}
	}

	p.Host = &host.Host{
		Stage:       st,
		Discoverer:  &host.Discoverer{Handles: registry.Handles, Exclude: cfg.Extract.Exclude},
		Concurrency: cfg.Extract.Concurrency,
		Recorder:    recorder,
		Observers:   observers,
		Logger:      logger,
	}
	return p, nil
}

// sinks composes the artifact destinations. The ledger wraps the others so
// only delivered artifacts are recorded.
func (p *Pipeline) sinks() (artifact.Sink, []host.Observer, error) {
	var multi artifact.MultiSink
	if p.cfg.Sinks.FilesystemEnabled() {
		multi = append(multi, artifact.NewFileSink(p.cfg.Output.Directory))
	}
	if n := p.cfg.Sinks.NATS; n != nil {
		conn, err := natspub.Connect(n.URL)
		if err != nil {
			return nil, nil, err
		}
		p.closers = append(p.closers, func() error { return natspub.Close(conn) })
		multi = append(multi, natspub.NewSink(conn, n.Subject, p.logger))
	}

	var sink artifact.Sink = multi
	var observers []host.Observer
	if p.cfg.State.Path != "" {
		store, err := eventstore.NewSQLiteStore(p.cfg.State.Path)
		if err != nil {
			return nil, nil, err
		}
		p.closers = append(p.closers, store.Close)
		ledger := eventstore.NewLedger(store, p.logger)
		sink = ledger.Sink(sink)
		observers = append(observers, ledger)
	}
	return sink, observers, nil
}

// Inputs are the configured inputs plus the paths inside the git checkout.
func (p *Pipeline) Inputs() []string {
	inputs := append([]string(nil), p.cfg.Inputs...)
	if p.Source != nil {
		inputs = append(inputs, p.Source.Paths(p.cfg.Git.Paths)...)
	}
	return inputs
}

// Build syncs the git source, cleans the output directory when asked to, and
// runs one build.
func (p *Pipeline) Build(ctx context.Context) (*host.Report, error) {
	if p.Source != nil {
		if _, err := p.Source.Sync(ctx); err != nil {
			return nil, err
		}
	}
	if p.cfg.Output.Clean && p.cfg.Sinks.FilesystemEnabled() {
		if err := os.RemoveAll(p.cfg.Output.Directory); err != nil {
			return nil, derrors.WorkspaceError("clean output", err).WithContext("path", p.cfg.Output.Directory)
		}
		p.logger.Debug("Output directory cleaned", logfields.Path(p.cfg.Output.Directory))
	}
	return p.Host.Build(ctx, p.Inputs())
}

// Close releases the NATS connection and the ledger.
func (p *Pipeline) Close() error {
	var errs []error
	for i := len(p.closers) - 1; i >= 0; i-- {
		errs = append(errs, p.closers[i]())
	}
	p.closers = nil
	return errors.Join(errs...)
}

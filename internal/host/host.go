// Package host drives the transform stage the way a bundler would: it
// discovers modules under the entry inputs, starts one build, and hands every
// module to the stage with bounded parallelism.
package host

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"slices"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	derrors "git.home.luguber.info/inful/docstage/internal/errors"
	"git.home.luguber.info/inful/docstage/internal/logfields"
	"git.home.luguber.info/inful/docstage/internal/metrics"
	"git.home.luguber.info/inful/docstage/internal/stage"
)

const defaultConcurrency = 4

// BuildInfo describes a build that has just started.
type BuildInfo struct {
	ID        string
	Root      string
	Prefix    string
	Inputs    []string
	Modules   int
	StartedAt time.Time
}

// Report summarises a finished build.
type Report struct {
	BuildInfo
	Documented int
	Empty      int
	Filtered   int
	Indexes    int
	Artifacts  []string // sorted
	Duration   time.Duration
	Outcome    metrics.BuildOutcome
}

// Observer is notified at build boundaries. BuildFinished receives the
// report even when the build failed.
type Observer interface {
	BuildStarted(ctx context.Context, info BuildInfo)
	BuildFinished(ctx context.Context, report *Report, err error)
}

// Host runs builds against one Stage. Builds on the same Host must not
// overlap; watch mode serialises them.
type Host struct {
	Stage       *stage.Stage
	Discoverer  *Discoverer
	Concurrency int
	Recorder    metrics.Recorder
	Observers   []Observer
	Logger      *slog.Logger
}

// Build documents every module found under inputs.
func (h *Host) Build(ctx context.Context, inputs []string) (*Report, error) {
	start := time.Now()
	recorder := h.recorder()
	logger := h.logger()

	entries, err := EntryPoints(inputs)
	if err != nil {
		return nil, err
	}
	modules, err := h.Discoverer.Discover(ctx, inputs)
	if err != nil {
		return nil, err
	}
	sess, err := h.Stage.OnBuildStart(ctx, entries)
	if err != nil {
		return nil, err
	}

	report := &Report{BuildInfo: BuildInfo{
		ID:        sess.ID,
		Root:      sess.Root,
		Prefix:    h.Stage.Options().Prefix,
		Inputs:    inputs,
		Modules:   len(modules),
		StartedAt: start,
	}}
	for _, o := range h.Observers {
		o.BuildStarted(ctx, report.BuildInfo)
	}

	artifacts, runErr := h.run(ctx, modules)

	stats := sess.Finish()
	report.Documented = stats.Documented
	report.Empty = stats.Empty
	report.Filtered = stats.Filtered
	report.Indexes = stats.Indexes
	sort.Strings(artifacts)
	// a doc and an index may share a path; the doc overwrote the index
	report.Artifacts = slices.Compact(artifacts)
	report.Duration = time.Since(start)
	report.Outcome = outcomeOf(ctx, runErr)

	recorder.ObserveBuildDuration(report.Duration)
	recorder.IncBuildOutcome(report.Outcome)
	for _, o := range h.Observers {
		o.BuildFinished(ctx, report, runErr)
	}
	if runErr != nil {
		logger.Error("Build failed",
			logfields.BuildID(report.ID),
			logfields.Outcome(string(report.Outcome)),
			logfields.Error(runErr))
		return report, runErr
	}
	logger.Info("Build completed",
		logfields.BuildID(report.ID),
		logfields.Count(report.Modules),
		slog.Int("artifacts", len(report.Artifacts)),
		logfields.DurationMS(float64(report.Duration.Microseconds())/1000))
	return report, nil
}

// run calls OnModule for each module. The first failure cancels the rest.
func (h *Host) run(ctx context.Context, modules []string) ([]string, error) {
	concurrency := h.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	var (
		mu        sync.Mutex
		artifacts []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, id := range modules {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			code, err := os.ReadFile(id) // #nosec G304 -- discovered module
			if err != nil {
				return derrors.Wrap(err, derrors.CategoryFileSystem, derrors.SeverityFatal, "failed to read module").
					WithContext("module", id)
			}
			res, err := h.Stage.OnModule(gctx, string(code), id)
			if err != nil {
				return err
			}
			if len(res.Artifacts) > 0 {
				mu.Lock()
				artifacts = append(artifacts, res.Artifacts...)
				mu.Unlock()
			}
			return nil
		})
	}
	err := g.Wait()
	return artifacts, err
}

func outcomeOf(ctx context.Context, err error) metrics.BuildOutcome {
	switch {
	case err == nil:
		return metrics.BuildSuccess
	case errors.Is(err, context.Canceled) || ctx.Err() != nil:
		return metrics.BuildCanceled
	default:
		return metrics.BuildFailed
	}
}

func (h *Host) recorder() metrics.Recorder {
	if h.Recorder == nil {
		return metrics.NoopRecorder{}
	}
	return h.Recorder
}

func (h *Host) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}

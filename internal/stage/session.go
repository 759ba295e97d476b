package stage

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/docstage/internal/artifact"
	derrors "git.home.luguber.info/inful/docstage/internal/errors"
	"git.home.luguber.info/inful/docstage/internal/indexes"
	"git.home.luguber.info/inful/docstage/internal/logfields"
	"git.home.luguber.info/inful/docstage/internal/metrics"
	"git.home.luguber.info/inful/docstage/internal/pathresolve"
	"git.home.luguber.info/inful/docstage/internal/util/sets"
)

// Session is the state of one build. Sessions of the same Stage are
// independent, so several builds may run side by side in one process.
type Session struct {
	ID   string
	Root string
	// Layout is the directory artifact paths are relative to. It differs from
	// Root only for a character root that is not a directory of the inputs.
	Layout    string
	StartedAt time.Time

	stage   *Stage
	indexes *indexes.Emitter
	logger  *slog.Logger

	filtered   atomic.Int64
	empty      atomic.Int64
	documented atomic.Int64
	indexCount atomic.Int64
}

// Stats summarises a session so far.
type Stats struct {
	Filtered   int
	Empty      int
	Documented int
	Indexes    int
}

// Start opens a new build session without touching the session used by OnModule.
func (s *Stage) Start(_ context.Context, inputs []string) (*Session, error) {
	root, err := pathresolve.ComputeRoot(inputs, s.opts.RootMode)
	if err != nil {
		return nil, err
	}
	layout := pathresolve.LayoutRoot(root, inputs)
	id := uuid.NewString()
	logger := s.logger.With(logfields.BuildID(id))
	sess := &Session{
		ID:        id,
		Root:      root,
		Layout:    layout,
		StartedAt: time.Now(),
		stage:     s,
		indexes:   indexes.NewEmitter(s.sink, s.opts.Index, layout, s.opts.Prefix, &sets.Guarded[string]{}, logger),
		logger:    logger,
	}
	if layout != root {
		logger.Debug("Artifact paths use the enclosing directory of the root", logfields.Root(root), logfields.Dir(layout))
	}
	logger.Info("Documentation build started",
		logfields.Root(root),
		logfields.Prefix(s.opts.Prefix),
		logfields.Count(len(inputs)),
		slog.Bool("indexes", s.opts.Index.Enabled()))
	return sess, nil
}

// Transform runs the per-module lifecycle. It is safe to call concurrently.
func (sess *Session) Transform(ctx context.Context, code, moduleID string) (Result, error) {
	st := sess.stage
	if !st.opts.Match.Includes(moduleID) {
		sess.filtered.Add(1)
		st.recorder.IncModule(OutcomeFiltered)
		return Result{Outcome: OutcomeFiltered}, nil
	}

	extracted, err := st.extract(ctx, moduleID)
	if err != nil {
		st.recorder.IncModule(metrics.ModuleFailed)
		return Result{}, derrors.ExtractFailed(moduleID, err)
	}
	if extracted == "" {
		sess.empty.Add(1)
		st.recorder.IncModule(OutcomeEmpty)
		sess.logger.Debug("Nothing to document", logfields.Module(moduleID))
		return Result{Outcome: OutcomeEmpty}, nil
	}

	content, err := st.compose(moduleID, extracted)
	if err != nil {
		st.recorder.IncModule(metrics.ModuleFailed)
		return Result{}, err
	}

	loc, err := pathresolve.ArtifactPath(moduleID, sess.Layout, st.opts.Prefix)
	if err != nil {
		st.recorder.IncModule(metrics.ModuleFailed)
		return Result{}, derrors.PathFailed(moduleID, err)
	}
	fileName := loc.FileName()
	if err := sess.indexes.EmitDoc(ctx, artifact.New(fileName, content)); err != nil {
		st.recorder.IncModule(metrics.ModuleFailed)
		return Result{}, derrors.EmitFailed(fileName, err)
	}
	st.recorder.AddArtifacts(metrics.ArtifactDoc, 1)
	res := Result{Outcome: OutcomeDocumented, Artifacts: []string{fileName}}

	indexPaths, err := sess.indexes.EmitAncestors(ctx, loc.Dir)
	if n := len(indexPaths); n > 0 {
		sess.indexCount.Add(int64(n))
		st.recorder.AddArtifacts(metrics.ArtifactIndex, n)
		res.Artifacts = append(res.Artifacts, indexPaths...)
	}
	if err != nil {
		st.recorder.IncModule(metrics.ModuleFailed)
		return Result{}, err
	}

	sess.documented.Add(1)
	st.recorder.IncModule(OutcomeDocumented)
	sess.logger.Debug("Documented module",
		logfields.Module(moduleID),
		logfields.Artifact(fileName),
		slog.Int("code_bytes", len(code)),
		slog.Int("indexes", len(indexPaths)))
	return res, nil
}

// Stats returns counters for the session.
func (sess *Session) Stats() Stats {
	return Stats{
		Filtered:   int(sess.filtered.Load()),
		Empty:      int(sess.empty.Load()),
		Documented: int(sess.documented.Load()),
		Indexes:    int(sess.indexCount.Load()),
	}
}

// EmittedIndexes lists every index path emitted in this session, sorted.
func (sess *Session) EmittedIndexes() []string {
	return sess.indexes.Emitted()
}

// Finish logs the session summary.
func (sess *Session) Finish() Stats {
	st := sess.Stats()
	sess.logger.Info("Documentation build finished",
		slog.Int("documented", st.Documented),
		slog.Int("empty", st.Empty),
		slog.Int("filtered", st.Filtered),
		slog.Int("indexes", st.Indexes),
		logfields.DurationMS(float64(time.Since(sess.StartedAt).Microseconds())/1000))
	return st
}

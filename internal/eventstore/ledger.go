package eventstore

import (
	"context"
	"log/slog"
	"sync"

	"git.home.luguber.info/inful/docstage/internal/artifact"
	"git.home.luguber.info/inful/docstage/internal/host"
	"git.home.luguber.info/inful/docstage/internal/logfields"
)

// Ledger records builds as a host.Observer and artifacts through Sink. Store
// failures are logged and never fail the build.
type Ledger struct {
	store  Store
	logger *slog.Logger

	mu      sync.RWMutex
	buildID string
}

var _ host.Observer = (*Ledger)(nil)

// NewLedger creates a Ledger writing to store.
func NewLedger(store Store, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{store: store, logger: logger}
}

func (l *Ledger) BuildStarted(ctx context.Context, info host.BuildInfo) {
	l.mu.Lock()
	l.buildID = info.ID
	l.mu.Unlock()

	ev, err := NewBuildStarted(info)
	if err == nil {
		_, err = l.store.Append(ctx, ev)
	}
	l.warn(err, info.ID)
}

// BuildFinished appends the closing event. The events of artifacts emitted
// after this call are attributed to no build.
func (l *Ledger) BuildFinished(ctx context.Context, r *host.Report, buildErr error) {
	ev, err := NewBuildFinished(r, buildErr)
	if err == nil {
		// the build context may already be canceled
		_, err = l.store.Append(context.WithoutCancel(ctx), ev)
	}
	l.warn(err, r.ID)

	l.mu.Lock()
	if l.buildID == r.ID {
		l.buildID = ""
	}
	l.mu.Unlock()
}

// Sink wraps next so every artifact it accepts is recorded against the
// current build.
func (l *Ledger) Sink(next artifact.Sink) artifact.Sink {
	return artifact.SinkFunc(func(ctx context.Context, a artifact.Artifact) error {
		if err := next.Emit(ctx, a); err != nil {
			return err
		}
		l.mu.RLock()
		id := l.buildID
		l.mu.RUnlock()
		if id == "" {
			return nil
		}
		ev, err := NewArtifactEmitted(id, a)
		if err == nil {
			_, err = l.store.Append(ctx, ev)
		}
		l.warn(err, id)
		return nil
	})
}

func (l *Ledger) warn(err error, buildID string) {
	if err != nil {
		l.logger.Warn("Build ledger write failed", logfields.BuildID(buildID), logfields.Error(err))
	}
}

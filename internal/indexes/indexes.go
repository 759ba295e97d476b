// Package indexes synthesises one index artifact per logical directory that
// holds documentation, walking upward from each emitted artifact until the
// configured prefix is reached.
package indexes

import (
	"context"
	"log/slog"
	"path"
	"path/filepath"
	"sync"

	"git.home.luguber.info/inful/docstage/internal/artifact"
	derrors "git.home.luguber.info/inful/docstage/internal/errors"
	"git.home.luguber.info/inful/docstage/internal/logfields"
	"git.home.luguber.info/inful/docstage/internal/pathresolve"
	"git.home.luguber.info/inful/docstage/internal/util/sets"
)

// Page describes the directory an index is generated for.
type Page struct {
	Dir   string // logical directory, "" for the top of the namespace
	Title string // default title: base name of Dir, or of root+prefix at the top
}

// ContentFunc renders the body of an index artifact.
type ContentFunc func(p Page) (string, error)

type providerKind int

const (
	kindDisabled providerKind = iota
	kindDefault
	kindFunc
)

// Provider selects how index content is produced. The zero value disables indexing.
type Provider struct {
	kind providerKind
	fn   ContentFunc
}

// Disabled turns index synthesis off.
func Disabled() Provider { return Provider{} }

// DefaultTitle renders "# <title>".
func DefaultTitle() Provider { return Provider{kind: kindDefault} }

// Func renders index content with fn.
func Func(fn ContentFunc) Provider {
	if fn == nil {
		return Disabled()
	}
	return Provider{kind: kindFunc, fn: fn}
}

// Enabled reports whether any index is produced.
func (p Provider) Enabled() bool { return p.kind != kindDisabled }

func (p Provider) render(page Page) (string, error) {
	if p.kind == kindFunc {
		return p.fn(page)
	}
	return "# " + page.Title, nil
}

// Emitter walks directories of one build. The set of emitted index paths is
// owned by the caller's build session and shared by every walk in it.
// Module documentation written to an index path takes precedence over the
// synthesised index, whichever is emitted first.
type Emitter struct {
	sink      artifact.Sink
	provider  Provider
	prefix    string
	rootTitle string
	emitted   *sets.Guarded[string]
	docs      sets.Guarded[string]
	logger    *slog.Logger

	// serialises emission to index paths
	mu sync.Mutex
}

// NewEmitter creates an Emitter for a build rooted at root with the given
// normalised prefix.
func NewEmitter(sink artifact.Sink, provider Provider, root, prefix string, emitted *sets.Guarded[string], logger *slog.Logger) *Emitter {
	if emitted == nil {
		emitted = &sets.Guarded[string]{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Emitter{
		sink:      sink,
		provider:  provider,
		prefix:    prefix,
		rootTitle: filepath.Base(filepath.Join(root, filepath.FromSlash(prefix))),
		emitted:   emitted,
		logger:    logger,
	}
}

// Title returns the default index title for dir.
func (e *Emitter) Title(dir string) string {
	if dir == "" {
		return e.rootTitle
	}
	return path.Base(dir)
}

// EmitAncestors emits index artifacts for startDir and its ancestors up to
// and including the prefix directory. The walk stops at the first directory
// whose index was already emitted in this build. It returns the index paths
// this call emitted, deepest first.
func (e *Emitter) EmitAncestors(ctx context.Context, startDir string) ([]string, error) {
	if !e.provider.Enabled() {
		return nil, nil
	}
	dir := pathresolve.Clean(startDir)
	var emitted []string
	for range pathresolve.Depth(dir) + 1 {
		if pathresolve.IsStrictAncestor(dir, e.prefix) {
			break
		}
		indexPath := path.Join(dir, artifact.IndexName)
		if !e.emitted.Claim(indexPath) {
			break
		}
		wrote, err := e.emitIndex(ctx, dir, indexPath)
		if err != nil {
			return emitted, err
		}
		if wrote {
			emitted = append(emitted, indexPath)
		}
		if dir == e.prefix || dir == "" {
			break
		}
		dir = pathresolve.Parent(dir)
	}
	return emitted, nil
}

// emitIndex writes the index for dir unless module documentation already
// holds indexPath.
func (e *Emitter) emitIndex(ctx context.Context, dir, indexPath string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.docs.Has(indexPath) {
		e.logger.Debug("Index path holds module documentation", logfields.Artifact(indexPath), logfields.Dir(dir))
		return false, nil
	}
	content, err := e.provider.render(Page{Dir: dir, Title: e.Title(dir)})
	if err != nil {
		return false, derrors.Wrap(err, derrors.CategoryBuild, derrors.SeverityFatal, "index content rendering failed").
			WithContext("dir", dir)
	}
	if err := e.sink.Emit(ctx, artifact.NewIndex(indexPath, content)); err != nil {
		return false, derrors.EmitFailed(indexPath, err)
	}
	e.logger.Debug("Emitted directory index", logfields.Artifact(indexPath), logfields.Dir(dir))
	return true, nil
}

// EmitDoc emits module documentation. A doc named like an index reserves its
// path so no index is written there afterwards, and overwrites an index
// written there before.
func (e *Emitter) EmitDoc(ctx context.Context, a artifact.Artifact) error {
	if !e.provider.Enabled() || path.Base(a.FileName) != artifact.IndexName {
		return e.sink.Emit(ctx, a)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.docs.Claim(a.FileName)
	return e.sink.Emit(ctx, a)
}

// Emitted returns the index paths whose final content is a synthesised
// index, sorted.
func (e *Emitter) Emitted() []string {
	claimed := e.emitted.Snapshot()
	for p := range e.docs.Snapshot() {
		delete(claimed, p)
	}
	return sets.Sorted(claimed)
}

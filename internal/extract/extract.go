// Package extract turns module sources into markdown documentation. A
// Registry dispatches on the module's file extension to one of the built-in
// extractors.
package extract

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	derrors "git.home.luguber.info/inful/docstage/internal/errors"
)

// Kind names a built-in extractor.
type Kind string

const (
	KindGoDoc    Kind = "godoc"
	KindMarkdown Kind = "markdown"
)

// Extractor is the contract shared with the transform stage.
type Extractor interface {
	Extract(ctx context.Context, moduleID string) (string, error)
}

// DefaultKinds maps extensions to extractors when configuration names none.
func DefaultKinds() map[string]Kind {
	return map[string]Kind{
		".go":       KindGoDoc,
		".md":       KindMarkdown,
		".markdown": KindMarkdown,
	}
}

// Registry selects an extractor by file extension. Modules with an unknown
// extension have nothing to document.
type Registry struct {
	byExt map[string]Extractor
}

// NewRegistry builds a Registry for the given extension to kind table.
func NewRegistry(kinds map[string]Kind) (*Registry, error) {
	if len(kinds) == 0 {
		kinds = DefaultKinds()
	}
	r := &Registry{byExt: make(map[string]Extractor, len(kinds))}
	for ext, kind := range kinds {
		ex, err := byKind(kind)
		if err != nil {
			return nil, err
		}
		r.Register(ext, ex)
	}
	return r, nil
}

func byKind(kind Kind) (Extractor, error) {
	switch kind {
	case KindGoDoc:
		return GoDoc{}, nil
	case KindMarkdown:
		return Markdown{}, nil
	default:
		return nil, derrors.ConfigInvalid("extract", "unknown extractor kind: "+string(kind))
	}
}

// Register binds ext (with or without the leading dot) to ex.
func (r *Registry) Register(ext string, ex Extractor) {
	r.byExt[normalizeExt(ext)] = ex
}

// Handles reports whether some extractor is registered for path.
func (r *Registry) Handles(path string) bool {
	_, ok := r.byExt[normalizeExt(filepath.Ext(path))]
	return ok
}

// Extensions lists the registered extensions, sorted.
func (r *Registry) Extensions() []string {
	out := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Extract dispatches moduleID to the extractor for its extension.
func (r *Registry) Extract(ctx context.Context, moduleID string) (string, error) {
	ex, ok := r.byExt[normalizeExt(filepath.Ext(moduleID))]
	if !ok {
		return "", nil
	}
	return ex.Extract(ctx, moduleID)
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

func readSource(ctx context.Context, moduleID string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(moduleID) // #nosec G304 -- module ids come from the host's own walk
}

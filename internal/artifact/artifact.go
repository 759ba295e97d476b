// Package artifact defines the emission request handed from the stage to the
// host, and the sinks that realise it.
package artifact

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"
)

// Extension is the file extension of every documentation artifact.
const Extension = ".md"

// IndexName is the base file name of a per-directory index artifact.
const IndexName = "index" + Extension

// Kind labels the artifact for the host. Only assets are emitted.
type Kind string

const KindAsset Kind = "asset"

// Artifact is a named text file in the logical output namespace.
type Artifact struct {
	Kind     Kind
	FileName string // slash separated, relative to the output root
	Content  string
	Index    bool // synthesised directory index rather than module docs
}

// New builds a documentation asset.
func New(fileName, content string) Artifact {
	return Artifact{Kind: KindAsset, FileName: fileName, Content: content}
}

// NewIndex builds a directory index asset.
func NewIndex(fileName, content string) Artifact {
	return Artifact{Kind: KindAsset, FileName: fileName, Content: content, Index: true}
}

// Validate rejects names that would escape the output namespace.
func (a Artifact) Validate() error {
	if a.FileName == "" {
		return fmt.Errorf("artifact file name is empty")
	}
	if strings.HasPrefix(a.FileName, "/") {
		return fmt.Errorf("artifact file name must be relative: %s", a.FileName)
	}
	clean := path.Clean(a.FileName)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("artifact file name escapes the output root: %s", a.FileName)
	}
	return nil
}

// Sink receives emission requests. Implementations must be safe for concurrent use.
type Sink interface {
	Emit(ctx context.Context, a Artifact) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, a Artifact) error

func (f SinkFunc) Emit(ctx context.Context, a Artifact) error { return f(ctx, a) }

// MemorySink records artifacts in emission order.
type MemorySink struct {
	mu        sync.Mutex
	artifacts []Artifact
}

func (m *MemorySink) Emit(_ context.Context, a Artifact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.artifacts = append(m.artifacts, a)
	return nil
}

// Artifacts returns a copy of everything emitted so far.
func (m *MemorySink) Artifacts() []Artifact {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Artifact(nil), m.artifacts...)
}

// FileNames returns the emitted file names in emission order.
func (m *MemorySink) FileNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.artifacts))
	for i, a := range m.artifacts {
		out[i] = a.FileName
	}
	return out
}

// Get returns the first artifact emitted under name.
func (m *MemorySink) Get(name string) (Artifact, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.artifacts {
		if a.FileName == name {
			return a, true
		}
	}
	return Artifact{}, false
}

// MultiSink fans an artifact out to every sink in order, stopping at the first error.
type MultiSink []Sink

func (ms MultiSink) Emit(ctx context.Context, a Artifact) error {
	for _, s := range ms {
		if err := s.Emit(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// Package stage is the documentation transform stage. A host calls
// OnBuildStart once per build and OnModule for every module it processes; the
// stage emits a markdown artifact beside each documented module and, when
// enabled, an index artifact for every directory on the way up to the prefix.
// The stage never changes a module's own output.
package stage

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"git.home.luguber.info/inful/docstage/internal/artifact"
	derrors "git.home.luguber.info/inful/docstage/internal/errors"
	"git.home.luguber.info/inful/docstage/internal/metrics"
)

// Extractor returns the markdown documentation of a module. An empty string
// means the module has nothing to document.
type Extractor interface {
	Extract(ctx context.Context, moduleID string) (string, error)
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(ctx context.Context, moduleID string) (string, error)

func (f ExtractorFunc) Extract(ctx context.Context, moduleID string) (string, error) {
	return f(ctx, moduleID)
}

// Outcome is what the stage did with one module.
type Outcome = metrics.ModuleOutcome

const (
	OutcomeFiltered   = metrics.ModuleFiltered
	OutcomeEmpty      = metrics.ModuleEmpty
	OutcomeDocumented = metrics.ModuleDocumented
)

// Result reports the side effects of OnModule. The module's code always
// passes through unchanged.
type Result struct {
	Outcome   Outcome
	Artifacts []string // doc artifact first, then any indexes it triggered
}

// Stage holds validated options and collaborators shared by every build.
type Stage struct {
	opts      Options
	extractor Extractor
	sink      artifact.Sink
	recorder  metrics.Recorder
	logger    *slog.Logger

	mu      sync.RWMutex
	current *Session
}

// Option configures a Stage.
type Option func(*Stage)

// WithRecorder attaches a metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(s *Stage) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithLogger sets the logger used for stage events.
func WithLogger(l *slog.Logger) Option {
	return func(s *Stage) {
		if l != nil {
			s.logger = l
		}
	}
}

// New validates opts and builds a Stage.
func New(opts Options, extractor Extractor, sink artifact.Sink, options ...Option) (*Stage, error) {
	if extractor == nil {
		return nil, derrors.ConfigInvalid("extractor", "an extractor is required")
	}
	if sink == nil {
		return nil, derrors.ConfigInvalid("sink", "an artifact sink is required")
	}
	normalized, err := opts.normalize()
	if err != nil {
		return nil, err
	}
	s := &Stage{
		opts:      normalized,
		extractor: extractor,
		sink:      sink,
		recorder:  metrics.NoopRecorder{},
		logger:    slog.Default(),
	}
	for _, o := range options {
		o(s)
	}
	return s, nil
}

// Options returns the normalised options.
func (s *Stage) Options() Options { return s.opts }

// OnBuildStart begins a new build: the root is computed from inputs and the
// emitted index set starts empty. The session also becomes the target of
// subsequent OnModule calls.
func (s *Stage) OnBuildStart(ctx context.Context, inputs []string) (*Session, error) {
	sess, err := s.Start(ctx, inputs)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.current = sess
	s.mu.Unlock()
	return sess, nil
}

// OnModule processes one module in the build started by the last OnBuildStart.
func (s *Stage) OnModule(ctx context.Context, code, moduleID string) (Result, error) {
	s.mu.RLock()
	sess := s.current
	s.mu.RUnlock()
	if sess == nil {
		return Result{}, derrors.New(derrors.CategoryRuntime, derrors.SeverityFatal, "module transformed before build start").
			WithContext("module", moduleID)
	}
	return sess.Transform(ctx, code, moduleID)
}

// compose applies replace and wrap to extracted text.
func (s *Stage) compose(moduleID, extracted string) (string, error) {
	body := s.opts.Replace.Apply(extracted)
	intro, err := s.opts.Intro.Resolve(moduleID)
	if err != nil {
		return "", derrors.Wrap(err, derrors.CategoryBuild, derrors.SeverityFatal, "intro rendering failed").
			WithContext("module", moduleID)
	}
	outro, err := s.opts.Outro.Resolve(moduleID)
	if err != nil {
		return "", derrors.Wrap(err, derrors.CategoryBuild, derrors.SeverityFatal, "outro rendering failed").
			WithContext("module", moduleID)
	}
	var b strings.Builder
	b.Grow(len(intro) + len(body) + len(outro) + 2)
	if intro != "" {
		b.WriteString(intro)
		b.WriteByte('\n')
	}
	b.WriteString(body)
	if outro != "" {
		b.WriteByte('\n')
		b.WriteString(outro)
	}
	return b.String(), nil
}

func (s *Stage) extract(ctx context.Context, moduleID string) (string, error) {
	start := time.Now()
	defer func() { s.recorder.ObserveExtractDuration(time.Since(start)) }()
	return s.extractor.Extract(ctx, moduleID)
}

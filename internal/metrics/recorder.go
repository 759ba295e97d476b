package metrics

import "time"

// ModuleOutcome enumerates what the stage did with a module.
type ModuleOutcome string

const (
	ModuleFiltered   ModuleOutcome = "filtered"
	ModuleEmpty      ModuleOutcome = "empty"
	ModuleDocumented ModuleOutcome = "documented"
	ModuleFailed     ModuleOutcome = "failed"
)

// ArtifactKind separates module documentation from synthesised indexes.
type ArtifactKind string

const (
	ArtifactDoc   ArtifactKind = "doc"
	ArtifactIndex ArtifactKind = "index"
)

// BuildOutcome is the final status of one build.
type BuildOutcome string

const (
	BuildSuccess  BuildOutcome = "success"
	BuildFailed   BuildOutcome = "failed"
	BuildCanceled BuildOutcome = "canceled"
)

// Recorder defines observability hooks for the documentation stage.
// Implementations may forward to Prometheus; NoopRecorder is the default.
type Recorder interface {
	IncModule(outcome ModuleOutcome)
	AddArtifacts(kind ArtifactKind, n int)
	ObserveExtractDuration(d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome BuildOutcome)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncModule(ModuleOutcome)          {}
func (NoopRecorder) AddArtifacts(ArtifactKind, int)   {}
func (NoopRecorder) ObserveExtractDuration(time.Duration) {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)   {}
func (NoopRecorder) IncBuildOutcome(BuildOutcome)     {}

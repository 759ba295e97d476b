package metrics

import (
	"sync"
	"time"
)

// testRecorder counts calls; shared with other tests in this package.
type testRecorder struct {
	mu            sync.Mutex
	modules       map[ModuleOutcome]int
	artifacts     map[ArtifactKind]int
	extracts      int
	builds        int
	buildOutcomes map[BuildOutcome]int
}

func newTestRecorder() *testRecorder {
	return &testRecorder{
		modules:       map[ModuleOutcome]int{},
		artifacts:     map[ArtifactKind]int{},
		buildOutcomes: map[BuildOutcome]int{},
	}
}

func (t *testRecorder) IncModule(o ModuleOutcome) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.modules[o]++
}

func (t *testRecorder) AddArtifacts(k ArtifactKind, n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.artifacts[k] += n
}

func (t *testRecorder) ObserveExtractDuration(time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.extracts++
}

func (t *testRecorder) ObserveBuildDuration(time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.builds++
}

func (t *testRecorder) IncBuildOutcome(o BuildOutcome) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buildOutcomes[o]++
}

var (
	_ Recorder = NoopRecorder{}
	_ Recorder = (*testRecorder)(nil)
)

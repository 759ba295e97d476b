package eventstore

import (
	"context"
	"sort"
	"time"
)

// Build statuses in a BuildSummary.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// BuildSummary is the read model of one build.
type BuildSummary struct {
	BuildID     string        `json:"build_id"`
	Status      string        `json:"status"`
	Outcome     string        `json:"outcome,omitempty"`
	Root        string        `json:"root"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	Duration    time.Duration `json:"duration,omitempty"`
	Modules     int           `json:"modules"`
	Documented  int           `json:"documented"`
	Indexes     int           `json:"indexes"`
	Artifacts   []string      `json:"artifacts,omitempty"` // in emission order
	Error       string        `json:"error,omitempty"`
}

// History folds ledger events into build summaries.
type History struct {
	store   Store
	maxSize int
}

// NewHistory keeps at most maxSize builds, newest first.
func NewHistory(store Store, maxSize int) *History {
	if maxSize <= 0 {
		maxSize = 100
	}
	return &History{store: store, maxSize: maxSize}
}

// Builds replays every event and returns the summaries, newest first.
func (h *History) Builds(ctx context.Context) ([]*BuildSummary, error) {
	events, err := h.store.GetRange(ctx, time.Unix(0, 0), time.Now().Add(time.Hour))
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*BuildSummary)
	for _, e := range events {
		apply(byID, e)
	}
	out := make([]*BuildSummary, 0, len(byID))
	for _, s := range byID {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if len(out) > h.maxSize {
		out = out[:h.maxSize]
	}
	return out, nil
}

// Build returns one build, or false if the ledger has no events for it.
func (h *History) Build(ctx context.Context, buildID string) (*BuildSummary, bool, error) {
	events, err := h.store.GetByBuildID(ctx, buildID)
	if err != nil || len(events) == 0 {
		return nil, false, err
	}
	byID := make(map[string]*BuildSummary, 1)
	for _, e := range events {
		apply(byID, e)
	}
	return byID[buildID], true, nil
}

func apply(byID map[string]*BuildSummary, e Event) {
	if e.BuildID == "" {
		return
	}
	s, ok := byID[e.BuildID]
	if !ok {
		s = &BuildSummary{BuildID: e.BuildID, Status: StatusRunning, StartedAt: e.Timestamp}
		byID[e.BuildID] = s
	}

	switch e.Type {
	case TypeBuildStarted:
		var p BuildStartedPayload
		if e.Decode(&p) == nil {
			s.Root = p.Root
			s.Modules = p.Modules
		}
		s.StartedAt = e.Timestamp
	case TypeArtifactEmitted:
		s.Artifacts = append(s.Artifacts, e.Subject)
	case TypeBuildCompleted, TypeBuildFailed:
		var p BuildFinishedPayload
		if e.Decode(&p) == nil {
			s.Outcome = p.Outcome
			s.Documented = p.Documented
			s.Indexes = p.Indexes
			s.Error = p.Error
		}
		at := e.Timestamp
		s.CompletedAt = &at
		s.Duration = at.Sub(s.StartedAt)
		s.Status = StatusCompleted
		if e.Type == TypeBuildFailed {
			s.Status = StatusFailed
		}
	}
}

package eventstore

import (
	"encoding/json"
	"time"

	"git.home.luguber.info/inful/docstage/internal/artifact"
	derrors "git.home.luguber.info/inful/docstage/internal/errors"
	"git.home.luguber.info/inful/docstage/internal/host"
)

// BuildStartedPayload is recorded when a build session opens.
type BuildStartedPayload struct {
	Root    string   `json:"root"`
	Prefix  string   `json:"prefix,omitempty"`
	Inputs  []string `json:"inputs"`
	Modules int      `json:"modules"`
}

// ArtifactEmittedPayload is recorded for every artifact the sink accepted.
type ArtifactEmittedPayload struct {
	Index       bool   `json:"index"`
	Bytes       int    `json:"bytes"`
	Fingerprint string `json:"fingerprint"`
}

// BuildFinishedPayload closes a build, successful or not.
type BuildFinishedPayload struct {
	Outcome    string `json:"outcome"`
	Documented int    `json:"documented"`
	Empty      int    `json:"empty"`
	Filtered   int    `json:"filtered"`
	Indexes    int    `json:"indexes"`
	Artifacts  int    `json:"artifacts"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

func newEvent(buildID string, typ EventType, subject string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, derrors.StoreError("marshal "+string(typ), err).WithContext("build_id", buildID)
	}
	return Event{
		BuildID:   buildID,
		Type:      typ,
		Subject:   subject,
		Timestamp: time.Now(),
		Payload:   data,
	}, nil
}

// NewBuildStarted records the start of a build.
func NewBuildStarted(info host.BuildInfo) (Event, error) {
	return newEvent(info.ID, TypeBuildStarted, "", BuildStartedPayload{
		Root:    info.Root,
		Prefix:  info.Prefix,
		Inputs:  info.Inputs,
		Modules: info.Modules,
	})
}

// NewArtifactEmitted records one emitted artifact.
func NewArtifactEmitted(buildID string, a artifact.Artifact) (Event, error) {
	return newEvent(buildID, TypeArtifactEmitted, a.FileName, ArtifactEmittedPayload{
		Index:       a.Index,
		Bytes:       len(a.Content),
		Fingerprint: artifact.Fingerprint(a.Content),
	})
}

// NewBuildFinished records the end of a build. A non-nil err yields a
// BuildFailed event.
func NewBuildFinished(r *host.Report, err error) (Event, error) {
	p := BuildFinishedPayload{
		Outcome:    string(r.Outcome),
		Documented: r.Documented,
		Empty:      r.Empty,
		Filtered:   r.Filtered,
		Indexes:    r.Indexes,
		Artifacts:  len(r.Artifacts),
		DurationMS: r.Duration.Milliseconds(),
	}
	typ := TypeBuildCompleted
	if err != nil {
		typ = TypeBuildFailed
		p.Error = err.Error()
	}
	return newEvent(r.ID, typ, "", p)
}

// Package eventstore is the build ledger: an append-only sqlite log of build
// and artifact events, plus a projection that folds it into build history.
package eventstore

import (
	"encoding/json"
	"time"
)

// EventType names a ledger event.
type EventType string

const (
	TypeBuildStarted    EventType = "BuildStarted"
	TypeArtifactEmitted EventType = "ArtifactEmitted"
	TypeBuildCompleted  EventType = "BuildCompleted"
	TypeBuildFailed     EventType = "BuildFailed"
)

// Event is one row of the ledger. Payload is JSON.
type Event struct {
	ID        int64
	BuildID   string
	Type      EventType
	Subject   string // artifact path for artifact events, empty otherwise
	Timestamp time.Time
	Payload   []byte
}

// Decode unmarshals the payload into v.
func (e Event) Decode(v any) error {
	return json.Unmarshal(e.Payload, v)
}

package eventstore

import (
	"context"
	"time"
)

// Store persists and retrieves ledger events.
type Store interface {
	// Append adds an event and returns it with its assigned ID.
	Append(ctx context.Context, e Event) (Event, error)

	// GetByBuildID returns the events of one build in append order.
	GetByBuildID(ctx context.Context, buildID string) ([]Event, error)

	// GetRange returns events with start <= timestamp <= end in append order.
	GetRange(ctx context.Context, start, end time.Time) ([]Event, error)

	Close() error
}

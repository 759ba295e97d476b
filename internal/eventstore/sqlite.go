package eventstore

import (
	"context"
	"database/sql"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	derrors "git.home.luguber.info/inful/docstage/internal/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	build_id TEXT NOT NULL,
	event_type TEXT NOT NULL,
	subject TEXT NOT NULL DEFAULT '',
	timestamp INTEGER NOT NULL,
	payload BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_build_id ON events(build_id);
CREATE INDEX IF NOT EXISTS idx_events_timestamp ON events(timestamp);
`

const selectColumns = "SELECT id, build_id, event_type, subject, timestamp, payload FROM events"

// SQLiteStore implements Store on modernc sqlite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens or creates the ledger at dbPath. ":memory:" keeps it
// in memory for the lifetime of the store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, derrors.StoreError("open", err).WithContext("path", dbPath)
	}
	// one connection, otherwise every pooled connection gets its own :memory: database
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, derrors.StoreError("initialize schema", err).WithContext("path", dbPath)
	}
	return &SQLiteStore{db: db}, nil
}

// Append inserts e. Timestamps are stored with nanosecond precision.
func (s *SQLiteStore) Append(ctx context.Context, e Event) (Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO events (build_id, event_type, subject, timestamp, payload) VALUES (?, ?, ?, ?, ?)",
		e.BuildID, string(e.Type), e.Subject, e.Timestamp.UnixNano(), e.Payload,
	)
	if err != nil {
		return Event{}, derrors.StoreError("append", err).WithContext("build_id", e.BuildID)
	}
	if e.ID, err = res.LastInsertId(); err != nil {
		return Event{}, derrors.StoreError("append", err).WithContext("build_id", e.BuildID)
	}
	return e, nil
}

func (s *SQLiteStore) GetByBuildID(ctx context.Context, buildID string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, selectColumns+" WHERE build_id = ? ORDER BY id", buildID)
	if err != nil {
		return nil, derrors.StoreError("query", err).WithContext("build_id", buildID)
	}
	defer func() { _ = rows.Close() }()
	return scanEvents(rows)
}

func (s *SQLiteStore) GetRange(ctx context.Context, start, end time.Time) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, selectColumns+" WHERE timestamp >= ? AND timestamp <= ? ORDER BY id",
		start.UnixNano(), end.UnixNano())
	if err != nil {
		return nil, derrors.StoreError("query", err)
	}
	defer func() { _ = rows.Close() }()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]Event, error) {
	var events []Event
	for rows.Next() {
		var (
			e   Event
			typ string
			ts  int64
		)
		if err := rows.Scan(&e.ID, &e.BuildID, &typ, &e.Subject, &ts, &e.Payload); err != nil {
			return nil, derrors.StoreError("scan", err)
		}
		e.Type = EventType(typ)
		e.Timestamp = time.Unix(0, ts)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, derrors.StoreError("iterate", err)
	}
	return events, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

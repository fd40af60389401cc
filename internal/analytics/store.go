package analytics

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Event is one client-side analytics beacon (page_load_time, cta_click,
// product_interest, ...). Props carry whatever the frontend attached.
type Event struct {
	ID        string         `json:"id"`
	Name      string         `json:"event"`
	Props     map[string]any `json:"data,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

const schema = `
CREATE TABLE IF NOT EXISTS events (
	event_id   TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	props      TEXT NOT NULL DEFAULT '{}',
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_events_created_at ON events (created_at);
CREATE INDEX IF NOT EXISTS idx_events_name ON events (name);
`

// Store persists analytics events to SQLite. Form submissions are never
// written here; only the anonymous event stream is kept.
type Store struct {
	db *sqlx.DB
}

func NewStore(dbPath string) (*Store, error) {
	db, err := sqlx.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores one event and returns it with ID and timestamp filled in.
func (s *Store) Record(name string, props map[string]any) (Event, error) {
	ev := Event{
		ID:        uuid.NewString(),
		Name:      name,
		Props:     props,
		CreatedAt: time.Now().UTC(),
	}
	propsJSON := "{}"
	if len(props) > 0 {
		blob, err := json.Marshal(props)
		if err != nil {
			return Event{}, fmt.Errorf("encode props: %w", err)
		}
		propsJSON = string(blob)
	}
	_, err := s.db.Exec(
		`INSERT INTO events (event_id, name, props, created_at) VALUES (?, ?, ?, ?)`,
		ev.ID, ev.Name, propsJSON, ev.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Event{}, fmt.Errorf("insert event: %w", err)
	}
	return ev, nil
}

// Recent returns up to limit events, newest first.
func (s *Store) Recent(limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT event_id, name, props, created_at FROM events ORDER BY created_at DESC, event_id LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var ev Event
		var propsJSON, createdAt string
		if err := rows.Scan(&ev.ID, &ev.Name, &propsJSON, &createdAt); err != nil {
			return nil, err
		}
		if propsJSON != "" && propsJSON != "{}" {
			_ = json.Unmarshal([]byte(propsJSON), &ev.Props)
		}
		ev.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		out = append(out, ev)
	}
	return out, rows.Err()
}

// CountsByName aggregates total events per event name.
func (s *Store) CountsByName() (map[string]int, error) {
	rows, err := s.db.Query(`SELECT name, COUNT(*) FROM events GROUP BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, err
		}
		counts[name] = n
	}
	return counts, rows.Err()
}

// Total returns the number of recorded events.
func (s *Store) Total() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM events`).Scan(&n)
	return n, err
}

package store

import (
	"database/sql"
	"time"
)

// EventKind is the status a hand changed to.
type EventKind string

const (
	EventOpen EventKind = "open"
	EventFist EventKind = "fist"
	// EventLost means the hand left the frame.
	EventLost EventKind = "lost"
)

// Event is one gesture status change within a session. X and Y are the
// normalized palm position and are nil for EventLost.
type Event struct {
	ID        string
	SessionID string
	Seq       uint64
	Kind      EventKind
	X, Y      *float64
	CreatedAt time.Time
}

// EventRepository provides access to gesture events.
type EventRepository struct {
	db *sql.DB
}

// Events returns the gesture event repository for this store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{db: s.db}
}

// Create inserts an event.
func (r *EventRepository) Create(e *Event) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := r.db.Exec(
		`INSERT INTO gesture_events (id, session_id, seq, kind, x, y, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.SessionID, e.Seq, string(e.Kind), e.X, e.Y, e.CreatedAt,
	)
	return err
}

// ListBySession returns a session's events in frame order.
func (r *EventRepository) ListBySession(sessionID string) ([]*Event, error) {
	rows, err := r.db.Query(
		`SELECT id, session_id, seq, kind, x, y, created_at
		 FROM gesture_events WHERE session_id = ? ORDER BY seq ASC`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		e := &Event{}
		var kind string
		var x, y sql.NullFloat64
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Seq, &kind, &x, &y, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Kind = EventKind(kind)
		if x.Valid && y.Valid {
			e.X, e.Y = &x.Float64, &y.Float64
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// CountByKind returns how many events of each kind a session has.
func (r *EventRepository) CountByKind(sessionID string) (map[EventKind]int, error) {
	rows, err := r.db.Query(
		`SELECT kind, COUNT(*) FROM gesture_events WHERE session_id = ? GROUP BY kind`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[EventKind]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		counts[EventKind(kind)] = n
	}
	return counts, rows.Err()
}

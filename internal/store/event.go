package store

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// EventRecord is a persisted move event.
type EventRecord struct {
	ID         string
	SessionID  string
	Move       string
	FrameIndex int
	FPS        float64
	Detector   string
	CreatedAt  time.Time
}

// EventRepository stores the events emitted during sessions.
type EventRepository struct {
	db *sql.DB
}

// Events returns the event repository for this store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{db: s.db}
}

// Append inserts an event. ID and CreatedAt are filled when empty.
func (r *EventRepository) Append(e *EventRecord) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO events (id, session_id, move, frame_index, fps, detector, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.SessionID, e.Move, e.FrameIndex, e.FPS, e.Detector, e.CreatedAt,
	)
	return err
}

// ListBySession returns a session's events in emission order.
func (r *EventRepository) ListBySession(sessionID string) ([]*EventRecord, error) {
	rows, err := r.db.Query(
		`SELECT id, session_id, move, frame_index, fps, detector, created_at
		 FROM events WHERE session_id = ? ORDER BY frame_index, created_at`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*EventRecord
	for rows.Next() {
		e := &EventRecord{}
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Move, &e.FrameIndex, &e.FPS, &e.Detector, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// CountsByMove returns how often each move was emitted in a session.
func (r *EventRepository) CountsByMove(sessionID string) (map[string]int, error) {
	rows, err := r.db.Query(
		`SELECT move, COUNT(*) FROM events WHERE session_id = ? GROUP BY move`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var move string
		var n int
		if err := rows.Scan(&move, &n); err != nil {
			return nil, err
		}
		counts[move] = n
	}
	return counts, rows.Err()
}

// DeleteBySession removes every event of a session and returns how many
// were removed.
func (r *EventRepository) DeleteBySession(sessionID string) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM events WHERE session_id = ?`, sessionID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

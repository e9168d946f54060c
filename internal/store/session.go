package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Session is one detection run, from pipeline start to stop.
type Session struct {
	ID         string
	Preset     string
	StartedAt  time.Time
	EndedAt    *time.Time
	Calibrated bool
	Height     float64

	// Events is the number of events recorded for the session. It is
	// filled by GetByID and List.
	Events int
}

// SessionRepository provides operations for detection sessions.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Create inserts a new session. ID and StartedAt are filled when empty.
func (r *SessionRepository) Create(sess *Session) error {
	if sess.ID == "" {
		sess.ID = uuid.New().String()
	}
	if sess.StartedAt.IsZero() {
		sess.StartedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO sessions (id, preset, started_at, calibrated, height) VALUES (?, ?, ?, ?, ?)`,
		sess.ID, sess.Preset, sess.StartedAt, sess.Calibrated, sess.Height,
	)
	return err
}

// MarkCalibrated records the calibrated body height of a session.
func (r *SessionRepository) MarkCalibrated(id string, height float64) error {
	result, err := r.db.Exec(
		`UPDATE sessions SET calibrated = 1, height = ? WHERE id = ?`,
		height, id,
	)
	if err != nil {
		return err
	}
	return expectOne(result)
}

// End stamps the session end time.
func (r *SessionRepository) End(id string, at time.Time) error {
	result, err := r.db.Exec(`UPDATE sessions SET ended_at = ? WHERE id = ?`, at, id)
	if err != nil {
		return err
	}
	return expectOne(result)
}

const sessionColumns = `s.id, s.preset, s.started_at, s.ended_at, s.calibrated, s.height,
	(SELECT COUNT(*) FROM events e WHERE e.session_id = s.id)`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*Session, error) {
	sess := &Session{}
	var ended sql.NullTime
	var calibrated int

	if err := row.Scan(&sess.ID, &sess.Preset, &sess.StartedAt, &ended, &calibrated, &sess.Height, &sess.Events); err != nil {
		return nil, err
	}
	if ended.Valid {
		t := ended.Time
		sess.EndedAt = &t
	}
	sess.Calibrated = calibrated != 0
	return sess, nil
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(id string) (*Session, error) {
	sess, err := scanSession(r.db.QueryRow(
		`SELECT `+sessionColumns+` FROM sessions s WHERE s.id = ?`, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return sess, nil
}

// List returns the most recent sessions first. A limit of 0 or less
// returns every session.
func (r *SessionRepository) List(limit int) ([]*Session, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.Query(
		`SELECT `+sessionColumns+` FROM sessions s ORDER BY s.started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// Delete removes a session and its events.
func (r *SessionRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectOne(result)
}

func expectOne(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

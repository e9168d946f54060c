package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Profile is a named set of tuning overrides, stored as the same JSON a
// tuning file holds.
type Profile struct {
	ID        string
	Name      string
	Tuning    json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProfileRepository provides CRUD operations for profiles.
type ProfileRepository struct {
	db *sql.DB
}

// Profiles returns the profile repository for this store.
func (s *Store) Profiles() *ProfileRepository {
	return &ProfileRepository{db: s.db}
}

const profileColumns = `id, name, tuning, created_at, updated_at`

func scanProfile(row rowScanner) (*Profile, error) {
	p := &Profile{}
	var tuning string
	if err := row.Scan(&p.ID, &p.Name, &tuning, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Tuning = json.RawMessage(tuning)
	return p, nil
}

func profileTuning(p *Profile) string {
	if len(p.Tuning) == 0 {
		return "{}"
	}
	return string(p.Tuning)
}

// Create inserts a new profile.
func (r *ProfileRepository) Create(p *Profile) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := r.db.Exec(
		`INSERT INTO profiles (`+profileColumns+`) VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Name, profileTuning(p), p.CreatedAt, p.UpdatedAt,
	)
	return err
}

func (r *ProfileRepository) get(query string, arg string) (*Profile, error) {
	p, err := scanProfile(r.db.QueryRow(query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// GetByID retrieves a profile by its ID.
func (r *ProfileRepository) GetByID(id string) (*Profile, error) {
	return r.get(`SELECT `+profileColumns+` FROM profiles WHERE id = ?`, id)
}

// GetByName retrieves a profile by its unique name.
func (r *ProfileRepository) GetByName(name string) (*Profile, error) {
	return r.get(`SELECT `+profileColumns+` FROM profiles WHERE name = ?`, name)
}

// List retrieves all profiles ordered by name.
func (r *ProfileRepository) List() ([]*Profile, error) {
	rows, err := r.db.Query(`SELECT ` + profileColumns + ` FROM profiles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return profiles, nil
}

// Update replaces a profile's name and tuning.
func (r *ProfileRepository) Update(p *Profile) error {
	p.UpdatedAt = time.Now()
	result, err := r.db.Exec(
		`UPDATE profiles SET name = ?, tuning = ?, updated_at = ? WHERE id = ?`,
		p.Name, profileTuning(p), p.UpdatedAt, p.ID,
	)
	if err != nil {
		return err
	}
	return expectOne(result)
}

// Delete removes a profile by its ID.
func (r *ProfileRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM profiles WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectOne(result)
}

package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dan/aero/internal/models"
)

// BackendStore handles persistence for Backend connection profiles.
type BackendStore struct {
	db *sql.DB
}

// NewBackendStore creates a BackendStore backed by the given connection.
func NewBackendStore(db *sql.DB) *BackendStore {
	return &BackendStore{db: db}
}

// column list shared by all SELECT queries.
const backendCols = `id, name, base_url, explorer_provider, explorer_cluster, enabled,
	last_check_at, last_check_ok, last_check_err, consec_fails,
	created_at, updated_at`

// scanBackend scans a full row into a Backend.
func scanBackend(sc interface{ Scan(...any) error }) (*models.Backend, error) {
	b := &models.Backend{}
	var lastCheckAt string
	err := sc.Scan(
		&b.ID, &b.Name, &b.BaseURL, &b.ExplorerProvider, &b.ExplorerCluster, &b.Enabled,
		&lastCheckAt, &b.LastCheckOK, &b.LastCheckErr, &b.ConsecFails,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lastCheckAt != "" {
		b.LastCheckAt, _ = time.Parse(time.RFC3339, lastCheckAt)
	}
	return b, nil
}

// Create inserts a new backend profile.
func (s *BackendStore) Create(b *models.Backend) error {
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now

	_, err := s.db.Exec(`
		INSERT INTO backends (id, name, base_url, explorer_provider, explorer_cluster, enabled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Name, b.BaseURL, b.ExplorerProvider, b.ExplorerCluster, b.Enabled, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return fmt.Errorf("a backend named %q already exists", b.Name)
		}
		return fmt.Errorf("insert backend: %w", err)
	}
	return nil
}

// GetByID returns a backend profile by ID, or nil if not found.
func (s *BackendStore) GetByID(id string) (*models.Backend, error) {
	row := s.db.QueryRow(`SELECT `+backendCols+` FROM backends WHERE id = ?`, id)
	b, err := scanBackend(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get backend: %w", err)
	}
	return b, nil
}

// GetByName returns a backend profile by its unique name, or nil.
func (s *BackendStore) GetByName(name string) (*models.Backend, error) {
	row := s.db.QueryRow(`SELECT `+backendCols+` FROM backends WHERE name = ?`, name)
	b, err := scanBackend(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get backend: %w", err)
	}
	return b, nil
}

// Active returns the enabled backend the dashboard should talk to. When
// several are enabled the oldest wins, so enabling a new profile never
// silently reroutes live sessions.
func (s *BackendStore) Active() (*models.Backend, error) {
	row := s.db.QueryRow(`SELECT ` + backendCols + ` FROM backends WHERE enabled = 1 ORDER BY created_at ASC LIMIT 1`)
	b, err := scanBackend(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("active backend: %w", err)
	}
	return b, nil
}

// ListAll returns every backend profile, newest first.
func (s *BackendStore) ListAll() ([]models.Backend, error) {
	rows, err := s.db.Query(`SELECT ` + backendCols + ` FROM backends ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list backends: %w", err)
	}
	defer rows.Close()

	var backends []models.Backend
	for rows.Next() {
		b, err := scanBackend(rows)
		if err != nil {
			return nil, fmt.Errorf("scan backend: %w", err)
		}
		backends = append(backends, *b)
	}
	return backends, rows.Err()
}

// ListEnabled returns the enabled backends, oldest first.
func (s *BackendStore) ListEnabled() ([]models.Backend, error) {
	rows, err := s.db.Query(`SELECT ` + backendCols + ` FROM backends WHERE enabled = 1 ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list enabled backends: %w", err)
	}
	defer rows.Close()

	var backends []models.Backend
	for rows.Next() {
		b, err := scanBackend(rows)
		if err != nil {
			return nil, fmt.Errorf("scan backend: %w", err)
		}
		backends = append(backends, *b)
	}
	return backends, rows.Err()
}

// Update modifies an existing backend profile by ID.
func (s *BackendStore) Update(b *models.Backend) error {
	b.UpdatedAt = time.Now().UTC()

	res, err := s.db.Exec(`
		UPDATE backends SET
			name = ?, base_url = ?, explorer_provider = ?, explorer_cluster = ?,
			enabled = ?, updated_at = ?
		WHERE id = ?`,
		b.Name, b.BaseURL, b.ExplorerProvider, b.ExplorerCluster,
		b.Enabled, b.UpdatedAt, b.ID,
	)
	if err != nil {
		return fmt.Errorf("update backend: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("backend not found: %s", b.ID)
	}
	return nil
}

// SetEnabled flips the enabled flag.
func (s *BackendStore) SetEnabled(id string, enabled bool) error {
	res, err := s.db.Exec(`UPDATE backends SET enabled = ?, updated_at = ? WHERE id = ?`,
		enabled, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("toggle backend: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("backend not found: %s", id)
	}
	return nil
}

// Delete removes a backend profile by ID.
func (s *BackendStore) Delete(id string) error {
	res, err := s.db.Exec("DELETE FROM backends WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete backend: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("backend not found: %s", id)
	}
	return nil
}

// RecordCheckResult updates reachability bookkeeping after a poll.
func (s *BackendStore) RecordCheckResult(name string, ok bool, checkErr string, consecFails int) error {
	_, err := s.db.Exec(`
		UPDATE backends SET
			last_check_at = ?, last_check_ok = ?, last_check_err = ?, consec_fails = ?, updated_at = ?
		WHERE name = ?`,
		time.Now().UTC().Format(time.RFC3339), ok, checkErr, consecFails, time.Now().UTC(), name,
	)
	if err != nil {
		return fmt.Errorf("record check result: %w", err)
	}
	return nil
}

// Count returns the total number of backend profiles.
func (s *BackendStore) Count() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM backends").Scan(&count)
	return count, err
}

// Package store persists the model catalog and comparison records in SQLite.
package store

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"aistudio/internal/stream"
)

var ErrNotFound = errors.New("record not found")

// ModelConfig is one entry of the AI model catalog.
type ModelConfig struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Provider string `json:"provider"`
	ModelID  string `json:"model_id"`
	Active   bool   `json:"active"`
}

// Comparison is one persisted model-comparison result.
type Comparison struct {
	ID          string    `json:"id"`
	Prompt      string    `json:"prompt"`
	Model1Name  string    `json:"model1_name"`
	Model2Name  string    `json:"model2_name"`
	Response1   string    `json:"response1"`
	Response2   string    `json:"response2"`
	Duration1MS int64     `json:"duration1_ms"`
	Duration2MS int64     `json:"duration2_ms"`
	CreatedAt   time.Time `json:"created_at"`
}

type Store struct {
	db *sql.DB
}

func NewStore(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, errors.New("db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) init() error {
	stmts := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=5000;",
		`CREATE TABLE IF NOT EXISTS models (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			provider TEXT NOT NULL,
			model_id TEXT NOT NULL,
			active INTEGER NOT NULL DEFAULT 1,
			created_at_utc TEXT NOT NULL,
			UNIQUE(provider, model_id)
		);`,
		`CREATE TABLE IF NOT EXISTS comparisons (
			id TEXT PRIMARY KEY,
			prompt TEXT NOT NULL,
			model1_name TEXT NOT NULL,
			model2_name TEXT NOT NULL,
			response1 TEXT NOT NULL DEFAULT '',
			response2 TEXT NOT NULL DEFAULT '',
			duration1_ms INTEGER NOT NULL DEFAULT 0,
			duration2_ms INTEGER NOT NULL DEFAULT 0,
			created_at_utc TEXT NOT NULL
		);`,
		"CREATE INDEX IF NOT EXISTS idx_comparisons_created ON comparisons(created_at_utc);",
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// UpsertModel inserts a catalog entry or reactivates/renames an existing one
// with the same (provider, model_id). Returns the row id.
func (s *Store) UpsertModel(name, provider, modelID string) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(
		`INSERT INTO models (name, provider, model_id, active, created_at_utc)
		VALUES (?, ?, ?, 1, ?)
		ON CONFLICT(provider, model_id) DO UPDATE SET name=excluded.name, active=1`,
		name, provider, modelID, now,
	)
	if err != nil {
		return 0, err
	}
	var id int64
	err = s.db.QueryRow("SELECT id FROM models WHERE provider=? AND model_id=?", provider, modelID).Scan(&id)
	return id, err
}

// GetModelConfig returns one active catalog entry by id, or ErrNotFound.
func (s *Store) GetModelConfig(id int64) (*ModelConfig, error) {
	var m ModelConfig
	var active int
	err := s.db.QueryRow(
		"SELECT id, name, provider, model_id, active FROM models WHERE id=? AND active=1", id,
	).Scan(&m.ID, &m.Name, &m.Provider, &m.ModelID, &active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	m.Active = active == 1
	return &m, nil
}

// ListActiveModels returns the active catalog ordered by name.
func (s *Store) ListActiveModels() ([]ModelConfig, error) {
	rows, err := s.db.Query("SELECT id, name, provider, model_id, active FROM models WHERE active=1 ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	models := make([]ModelConfig, 0)
	for rows.Next() {
		var m ModelConfig
		var active int
		if err := rows.Scan(&m.ID, &m.Name, &m.Provider, &m.ModelID, &active); err != nil {
			return nil, err
		}
		m.Active = active == 1
		models = append(models, m)
	}
	return models, rows.Err()
}

// DeactivateModel soft-removes a catalog entry.
func (s *Store) DeactivateModel(id int64) error {
	res, err := s.db.Exec("UPDATE models SET active=0 WHERE id=?", id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveComparison implements stream.Recorder.
func (s *Store) SaveComparison(rec stream.ComparisonRecord) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(
		`INSERT INTO comparisons (id, prompt, model1_name, model2_name, response1, response2, duration1_ms, duration2_ms, created_at_utc)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), rec.Prompt, rec.Model1Name, rec.Model2Name,
		rec.Response1, rec.Response2,
		rec.Duration1.Milliseconds(), rec.Duration2.Milliseconds(), now,
	)
	return err
}

// ListComparisons returns the most recent comparison records.
func (s *Store) ListComparisons(limit int) ([]Comparison, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT id, prompt, model1_name, model2_name, response1, response2, duration1_ms, duration2_ms, created_at_utc
		FROM comparisons ORDER BY created_at_utc DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comparisons := make([]Comparison, 0)
	for rows.Next() {
		var c Comparison
		var created string
		if err := rows.Scan(&c.ID, &c.Prompt, &c.Model1Name, &c.Model2Name, &c.Response1, &c.Response2, &c.Duration1MS, &c.Duration2MS, &created); err != nil {
			return nil, err
		}
		c.CreatedAt, _ = time.Parse(time.RFC3339, created)
		comparisons = append(comparisons, c)
	}
	return comparisons, rows.Err()
}

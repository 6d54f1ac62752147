package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/callflow/pkg/domain"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Store implements ports.SessionStore on a SQLite database.
// Uses WAL mode and a single connection, so writes are serialized by the driver.
type Store struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path and applies the schema.
// Missing parent directories are created. Use ":memory:" for a throwaway database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Set upserts the record inside a transaction so the created/updated report is exact.
func (s *Store) Set(ctx context.Context, callID string, rec *domain.SessionRecord) (domain.SetResult, error) {
	dataJSON, err := json.Marshal(rec.Data)
	if err != nil {
		return 0, fmt.Errorf("set session: %w", err)
	}
	callJSON, err := json.Marshal(rec.Call)
	if err != nil {
		return 0, fmt.Errorf("set session: %w", err)
	}

	now := time.Now().UTC()
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	updatedAt := rec.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = now
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("set session: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions WHERE call_id = ?`, callID).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("set session: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (call_id, data, call, revision, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(call_id) DO UPDATE SET
			data = excluded.data,
			call = excluded.call,
			revision = excluded.revision,
			updated_at = excluded.updated_at
	`,
		callID,
		string(dataJSON),
		string(callJSON),
		rec.Revision,
		createdAt.Format(time.RFC3339Nano),
		updatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("set session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("set session: %w", err)
	}

	if exists > 0 {
		return domain.SetUpdated, nil
	}
	return domain.SetCreated, nil
}

// Get loads the record for a call.
func (s *Store) Get(ctx context.Context, callID string) (*domain.SessionRecord, error) {
	var (
		dataJSON, callJSON   string
		revision             int64
		createdAt, updatedAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT data, call, revision, created_at, updated_at
		FROM sessions WHERE call_id = ?
	`, callID).Scan(&dataJSON, &callJSON, &revision, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	rec := &domain.SessionRecord{Revision: revision}
	if err := json.Unmarshal([]byte(dataJSON), &rec.Data); err != nil {
		return nil, fmt.Errorf("get session: decode data: %w", err)
	}
	if err := json.Unmarshal([]byte(callJSON), &rec.Call); err != nil {
		return nil, fmt.Errorf("get session: decode call: %w", err)
	}
	if rec.Data.Fields == nil {
		rec.Data.Fields = make(map[string]any)
	}
	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("get session: created_at: %w", err)
	}
	if rec.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("get session: updated_at: %w", err)
	}
	return rec, nil
}

// Destroy deletes the record for a call.
func (s *Store) Destroy(ctx context.Context, callID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE call_id = ?`, callID)
	if err != nil {
		return false, fmt.Errorf("destroy session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("destroy session: %w", err)
	}
	return n > 0, nil
}

// List returns the stored call identifiers, oldest first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT call_id FROM sessions ORDER BY created_at, call_id`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var calls []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("list sessions: %w", err)
		}
		calls = append(calls, id)
	}
	return calls, rows.Err()
}

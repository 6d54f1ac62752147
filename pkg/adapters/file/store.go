package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/aretw0/callflow/pkg/domain"
)

const ext = ".json"

// Store implements ports.SessionStore using the local filesystem.
// It stores one JSON file per call in a configured directory.
type Store struct {
	BasePath string
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".callflow/sessions".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".callflow", "sessions")
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(callID string) (string, error) {
	if callID == "" {
		return "", fmt.Errorf("call id cannot be empty")
	}
	if strings.ContainsAny(callID, `/\`) || strings.HasPrefix(callID, ".") {
		return "", fmt.Errorf("invalid call id %q", callID)
	}
	return filepath.Join(s.BasePath, callID+ext), nil
}

// Set persists the record atomically.
// It writes to a temporary file first, syncs via fsync, and then renames it to the destination.
func (s *Store) Set(ctx context.Context, callID string, rec *domain.SessionRecord) (domain.SetResult, error) {
	destPath, err := s.path(callID)
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return 0, fmt.Errorf("failed to ensure session directory: %w", err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("failed to marshal session: %w", err)
	}

	result := domain.SetCreated
	if _, err := os.Stat(destPath); err == nil {
		result = domain.SetUpdated
	}

	// Same directory so the rename stays on one filesystem
	tmpFile, err := os.CreateTemp(s.BasePath, ".tmp-"+callID+"-*")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return 0, fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return 0, fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return 0, fmt.Errorf("failed to close temp file: %w", err)
	}

	// os.Rename does not replace an existing file on Windows
	if runtime.GOOS == "windows" && result == domain.SetUpdated {
		if err := os.Remove(destPath); err != nil {
			return 0, fmt.Errorf("failed to remove existing session file for overwrite: %w", err)
		}
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return 0, fmt.Errorf("failed to rename temp file to session: %w", err)
	}

	return result, nil
}

// Get retrieves the record from its JSON file.
func (s *Store) Get(ctx context.Context, callID string) (*domain.SessionRecord, error) {
	filePath, err := s.path(callID)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var rec domain.SessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	if rec.Data.Fields == nil {
		rec.Data.Fields = make(map[string]any)
	}

	return &rec, nil
}

// Destroy removes the session file.
func (s *Store) Destroy(ctx context.Context, callID string) (bool, error) {
	filePath, err := s.path(callID)
	if err != nil {
		return false, err
	}

	err = os.Remove(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to delete session file: %w", err)
	}
	return true, nil
}

// List returns all stored call identifiers.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	var calls []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != ext {
			continue
		}
		calls = append(calls, strings.TrimSuffix(name, ext))
	}

	return calls, nil
}

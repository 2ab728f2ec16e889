// Package credentials persists the current token pair and derived identity
// on the local filesystem. The store knows nothing about session semantics;
// it only holds whatever the session controller last wrote.
package credentials

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

const credentialsFile = "credentials.json"

// Record holds the three persisted values. Any subset may be present;
// a partially populated record is valid.
type Record struct {
	AccessToken    string `json:"access_token,omitempty"`
	RefreshToken   string `json:"refresh_token,omitempty"`
	OrganizationID string `json:"organization_id,omitempty"`
}

// IsZero returns true if no value is present.
func (r Record) IsZero() bool {
	return r.AccessToken == "" && r.RefreshToken == "" && r.OrganizationID == ""
}

// Store is the persistence capability injected into the session controller.
// Write replaces the whole record; Erase removes it entirely.
type Store interface {
	Load() (Record, error)
	Write(Record) error
	Erase() error
}

// FileStore keeps the record in a single JSON file with 0600 permissions.
type FileStore struct {
	path string
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a file-backed store under baseDir.
// If baseDir is empty, uses ~/.calcli/
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		baseDir = filepath.Join(home, ".calcli")
	}

	// Create directory with 0700 permissions
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create credentials directory: %w", err)
	}

	log.Debug().Str("baseDir", baseDir).Msg("credential store initialized")

	return &FileStore{path: filepath.Join(baseDir, credentialsFile)}, nil
}

// Load reads the persisted record. A missing file is not an error; it
// returns an empty record, which the session initializer treats as
// "no session".
func (s *FileStore) Load() (Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Record{}, nil
		}
		return Record{}, fmt.Errorf("failed to read credentials: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("failed to parse credentials: %w", err)
	}

	return rec, nil
}

// Write replaces the stored record as a whole, via temp file and atomic
// rename so a crash never leaves a torn record behind.
func (s *FileStore) Write(rec Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	tempPath := s.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}

	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to save credentials: %w", err)
	}

	log.Debug().Str("path", s.path).Msg("credentials written")

	return nil
}

// Erase removes the whole record. Removing an absent record is not an error.
func (s *FileStore) Erase() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to erase credentials: %w", err)
	}
	return nil
}

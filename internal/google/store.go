package google

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// ErrNoRecord is returned by TokenStore.Load when nothing has been stored yet.
var ErrNoRecord = errors.New("no credential record stored")

// TokenStore persists the single credential record of the file strategy.
type TokenStore interface {
	Load() (*CredentialRecord, error)
	Save(rec *CredentialRecord) error
}

// FileTokenStore keeps the record as JSON in one file.
// Saves are serialized and atomic: readers see either the old or the new file.
type FileTokenStore struct {
	path string
	mu   sync.Mutex
}

// NewFileTokenStore returns a store for path. Relative paths resolve against
// the working directory at the time of each call.
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

// Path returns the file the store reads and writes.
func (s *FileTokenStore) Path() string {
	return s.path
}

// Load reads and decodes the record.
func (s *FileTokenStore) Load() (*CredentialRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoRecord
		}
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var rec CredentialRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse token file %s: %w", s.path, err)
	}
	if err := rec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid token file %s: %w", s.path, err)
	}

	return &rec, nil
}

// Save writes the record with 0600 permissions, creating the parent
// directory with 0700 when needed.
func (s *FileTokenStore) Save(rec *CredentialRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode credential record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".token-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary token file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to set token file permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close token file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace token file: %w", err)
	}

	return nil
}

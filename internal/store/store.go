// Package store persists per-user settings, projects, and issues in a
// single JSON file. The whole document is rewritten synchronously on
// every mutation; persistence is best-effort and never blocks callers.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"digest/internal/models"
)

// UserData is everything stored for one user: scalar preferences plus
// the project and issue maps. Field layout is the stable on-disk schema.
type UserData struct {
	CustomPrompt string                     `json:"custom_prompt,omitempty"`
	Keywords     []string                   `json:"keywords,omitempty"`
	DefaultHours int                        `json:"default_hours,omitempty"`
	Projects     map[string]*models.Project `json:"projects,omitempty"`
	Issues       map[string]*models.Issue   `json:"issues,omitempty"`
}

// FileStore holds all user records in memory, backed by a JSON file.
// Single-process, single-writer: there is no cross-process locking, and
// the last successful write wins.
type FileStore struct {
	path string
	log  *slog.Logger

	mu    sync.Mutex
	users map[string]*UserData
}

// Open loads the store from path. An absent or unreadable file yields
// an empty store: load problems are logged, never returned.
func Open(path string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.Default()
	}
	s := &FileStore{
		path:  path,
		log:   logger,
		users: make(map[string]*UserData),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.log.Warn("settings file unreadable, starting empty", "path", path, "error", err)
		}
		return s
	}
	if err := json.Unmarshal(data, &s.users); err != nil {
		s.log.Warn("settings file corrupt, starting empty", "path", path, "error", err)
		s.users = make(map[string]*UserData)
	}
	return s
}

// Path returns the backing file path.
func (s *FileStore) Path() string { return s.path }

// User returns the record for a user, creating an empty one if needed.
func (s *FileStore) User(id string) *UserData {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		u = &UserData{}
		s.users[id] = u
	}
	return u
}

// Users returns the ids of all users with stored data.
func (s *FileStore) Users() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	return ids
}

// Reset drops all stored data for a user.
func (s *FileStore) Reset(id string) {
	s.mu.Lock()
	delete(s.users, id)
	s.mu.Unlock()
}

// Save rewrites the entire store to the backing file. The error is for
// the caller to log; in-memory state remains authoritative either way.
// The lock is held across the write so the file always holds a
// consistent snapshot.
func (s *FileStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(s.users, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create settings directory: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// Package auth manages the persisted access token and its lifecycle.
package auth

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// TokenStore persists the bearer token between sessions.
type TokenStore interface {
	// Token returns the current token, or "" when logged out.
	Token() string
	// SetToken stores a new token.
	SetToken(token string) error
	// Clear removes the stored token.
	Clear() error
}

// FileStore keeps the token in a single file. Token() re-reads the file on
// every call, so a rotation written by another process is visible on the next
// request.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed token store at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Token reads the token from disk. A missing or unreadable file means logged
// out.
func (s *FileStore) Token() string {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// SetToken writes the token atomically with owner-only permissions.
func (s *FileStore) SetToken(token string) error {
	if token == "" {
		return errors.New("token must not be empty")
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".token-*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.WriteString(token); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return err
	}
	return os.Rename(name, s.path)
}

// Clear removes the token file. A missing file is not an error.
func (s *FileStore) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// MemoryStore is an in-memory TokenStore for tests.
type MemoryStore struct {
	mu    sync.Mutex
	token string
}

// NewMemoryStore creates an in-memory token store.
func NewMemoryStore(token string) *MemoryStore {
	return &MemoryStore{token: token}
}

// Token returns the current token.
func (s *MemoryStore) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// SetToken stores a new token.
func (s *MemoryStore) SetToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

// Clear removes the token.
func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}

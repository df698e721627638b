// ABOUTME: Durable storage for the access/refresh token pair
// ABOUTME: Stores session.json in the XDG config directory with owner-only permissions

package session

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
)

// Tokens is the persisted credential pair. Both values are opaque to the client.
type Tokens struct {
	Access  string `json:"token,omitempty"`
	Refresh string `json:"refresh_token,omitempty"`
}

// IsZero reports whether neither token is held
func (t Tokens) IsZero() bool {
	return t.Access == "" && t.Refresh == ""
}

// TokenStore persists the token pair across process restarts
type TokenStore interface {
	Load() (Tokens, error)
	Save(Tokens) error
	Clear() error
}

const sessionFileName = "session.json"

// FileStore keeps the tokens in a JSON file inside configDir
type FileStore struct {
	configDir string
}

// NewFileStore creates a FileStore rooted at configDir
func NewFileStore(configDir string) *FileStore {
	return &FileStore{configDir: configDir}
}

// Path returns the location of the session file
func (s *FileStore) Path() string {
	return filepath.Join(s.configDir, sessionFileName)
}

// Load reads the token pair. A missing or unreadable file yields empty tokens.
func (s *FileStore) Load() (Tokens, error) {
	data, err := os.ReadFile(s.Path())
	if errors.Is(err, os.ErrNotExist) {
		return Tokens{}, nil
	}
	if err != nil {
		return Tokens{}, err
	}

	var t Tokens
	if err := json.Unmarshal(data, &t); err != nil {
		// Corrupt file, start fresh
		return Tokens{}, nil
	}
	return t, nil
}

// Save writes the token pair atomically
func (s *FileStore) Save(t Tokens) error {
	if err := os.MkdirAll(s.configDir, 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.configDir, sessionFileName+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.Path())
}

// Clear removes the session file
func (s *FileStore) Clear() error {
	err := os.Remove(s.Path())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// MemoryStore keeps tokens in process memory only
type MemoryStore struct {
	mu     sync.Mutex
	tokens Tokens
}

// NewMemoryStore creates a MemoryStore seeded with t
func NewMemoryStore(t Tokens) *MemoryStore {
	return &MemoryStore{tokens: t}
}

func (s *MemoryStore) Load() (Tokens, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens, nil
}

func (s *MemoryStore) Save(t Tokens) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = t
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = Tokens{}
	return nil
}

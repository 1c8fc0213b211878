package session

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// FileStore keeps the token in a single file readable only by the owner.
type FileStore struct {
	path string
	mu   sync.Mutex
	nowF func() time.Time
}

// NewFileStore returns a store backed by path. The file and its directory are created on Put.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, nowF: time.Now}
}

// Path returns the token file location.
func (s *FileStore) Path() string { return s.path }

// Token reads the token file. A missing, empty or expired token reports false; an expired one is removed.
func (s *FileStore) Token(ctx context.Context) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Printf("session: read token file: %v", err)
		}
		return "", false
	}
	tok := strings.TrimSpace(string(raw))
	if tok == "" {
		return "", false
	}
	if expired(tok, s.nowF()) {
		if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Printf("session: remove expired token: %v", err)
		}
		return "", false
	}
	return tok, true
}

// Put writes token with mode 0600, creating the directory with 0700.
func (s *FileStore) Put(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("session: create token dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("session: write token: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("session: write token: %w", err)
	}
	return nil
}

// Clear deletes the token file.
func (s *FileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("session: remove token: %w", err)
	}
	return nil
}

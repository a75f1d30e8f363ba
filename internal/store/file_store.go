package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"secretsanta/internal/models"
)

const (
	stateSuffix = ".state.json"
	authSuffix  = ".auth"
)

// FileStore writes one JSON document and one auth file per key into dir.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates dir if needed and returns a FileStore rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// path maps a key to a file name that cannot escape dir.
func (s *FileStore) path(key, suffix string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, key)
	return filepath.Join(s.dir, safe+suffix)
}

func (s *FileStore) Load(_ context.Context, key string) (*models.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := readFile(s.path(key, stateSuffix))
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrStateNotFound
	}
	state := models.NewState()
	if err := json.Unmarshal(b, state); err != nil {
		return nil, fmt.Errorf("decode state %s: %w", key, err)
	}
	if state.Participants == nil {
		state.Participants = make([]string, 0)
	}
	if state.Passwords == nil {
		state.Passwords = make(map[string]string)
	}
	return state, nil
}

func (s *FileStore) Save(_ context.Context, key string, state *models.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeJSON(s.path(key, stateSuffix), state, 0o600)
}

func (s *FileStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := removeFile(s.path(key, stateSuffix)); err != nil {
		return err
	}
	return removeFile(s.path(key, authSuffix))
}

func (s *FileStore) LoadAuth(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := readFile(s.path(key, authSuffix))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func (s *FileStore) SaveAuth(_ context.Context, key, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeFile(s.path(key, authSuffix), []byte(name), 0o600)
}

func (s *FileStore) ClearAuth(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return removeFile(s.path(key, authSuffix))
}

func (s *FileStore) Close() error { return nil }

var _ Store = (*FileStore)(nil)

package store

import (
	"context"
	"errors"
	"fmt"

	"secretsanta/internal/models"
)

// ErrStateNotFound is returned by Load when no document exists for a key.
var ErrStateNotFound = errors.New("state not found")

// Store holds state documents and the authenticated participant per key.
type Store interface {
	// Load returns the document for key or ErrStateNotFound.
	Load(ctx context.Context, key string) (*models.State, error)
	// Save replaces the document for key.
	Save(ctx context.Context, key string, state *models.State) error
	// Delete removes the document and the auth value for key.
	Delete(ctx context.Context, key string) error
	// LoadAuth returns the logged-in participant, or "" if nobody is.
	LoadAuth(ctx context.Context, key string) (string, error)
	// SaveAuth records name as logged in.
	SaveAuth(ctx context.Context, key, name string) error
	// ClearAuth logs out.
	ClearAuth(ctx context.Context, key string) error
	Close() error
}

// Kinds accepted by Open.
const (
	KindMemory = "memory"
	KindFile   = "file"
	KindSQLite = "sqlite"
)

// Open builds the store named by kind rooted at dir.
func Open(kind, dir string) (Store, error) {
	switch kind {
	case KindMemory, "":
		return NewMemoryStore(), nil
	case KindFile:
		return NewFileStore(dir)
	case KindSQLite:
		return NewSQLiteStore(dir)
	default:
		return nil, fmt.Errorf("unknown store kind %q", kind)
	}
}

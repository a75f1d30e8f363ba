package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"secretsanta/internal/models"
)

// SQLiteStore keeps one JSON document per key in SQLite.
type SQLiteStore struct {
	conn *sql.DB
}

// NewSQLiteStore opens secretsanta.db inside dataDir and migrates it.
func NewSQLiteStore(dataDir string) (*SQLiteStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", filepath.Join(dataDir, "secretsanta.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SQLite database: %w", err)
	}
	// one writer at a time
	conn.SetMaxOpenConns(1)

	if err := Migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize database tables: %w", err)
	}

	return &SQLiteStore{conn: conn}, nil
}

func (s *SQLiteStore) Load(ctx context.Context, key string) (*models.State, error) {
	var document string
	err := s.conn.QueryRowContext(ctx,
		`SELECT document FROM states WHERE key = ?`, key).Scan(&document)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStateNotFound
	}
	if err != nil {
		return nil, err
	}

	state := models.NewState()
	if err := json.Unmarshal([]byte(document), state); err != nil {
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

func (s *SQLiteStore) Save(ctx context.Context, key string, state *models.State) error {
	document, err := json.Marshal(state)
	if err != nil {
		return err
	}
	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO states (key, document, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET document = excluded.document, updated_at = excluded.updated_at`,
		key, string(document), time.Now().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM states WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete state: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM auth WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete auth: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil
	return nil
}

func (s *SQLiteStore) LoadAuth(ctx context.Context, key string) (string, error) {
	var name string
	err := s.conn.QueryRowContext(ctx,
		`SELECT participant FROM auth WHERE key = ?`, key).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return name, err
}

func (s *SQLiteStore) SaveAuth(ctx context.Context, key, name string) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO auth (key, participant, logged_in_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET participant = excluded.participant, logged_in_at = excluded.logged_in_at`,
		key, name, time.Now().Format(time.RFC3339))
	return err
}

func (s *SQLiteStore) ClearAuth(ctx context.Context, key string) error {
	_, err := s.conn.ExecContext(ctx, `DELETE FROM auth WHERE key = ?`, key)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

var _ Store = (*SQLiteStore)(nil)

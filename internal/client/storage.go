package client

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/yesid10/taskflow-api/internal/client/migrations"
	"github.com/yesid10/taskflow-api/internal/model"
)

// ErrNoSession is returned by Storage.Load when nothing is stored.
var ErrNoSession = errors.New("no stored session")

// Session is what survives a client restart.
type Session struct {
	Token string
	User  *model.User
}

// Storage is durable session storage. Save and Clear complete before they
// return.
type Storage interface {
	Load(ctx context.Context) (Session, error)
	Save(ctx context.Context, s Session) error
	Clear(ctx context.Context) error
	Close() error
}

// MemoryStorage keeps the session in process memory.
type MemoryStorage struct {
	mu sync.Mutex
	s  *Session
}

func NewMemoryStorage() *MemoryStorage { return &MemoryStorage{} }

func (m *MemoryStorage) Load(context.Context) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.s == nil {
		return Session{}, ErrNoSession
	}
	return *m.s, nil
}

func (m *MemoryStorage) Save(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = &s
	return nil
}

func (m *MemoryStorage) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = nil
	return nil
}

func (m *MemoryStorage) Close() error { return nil }

const (
	keyToken = "token"
	keyUser  = "user"
)

// SQLStorage keeps the session in a SQLite key/value table.
type SQLStorage struct {
	db *sql.DB
}

// OpenSQLStorage opens (creating if needed) the SQLite database at dsn and
// applies the embedded migrations.
func OpenSQLStorage(ctx context.Context, dsn string) (*SQLStorage, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// a single connection keeps ":memory:" databases consistent
	db.SetMaxOpenConns(1)

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("sqlite3"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	return &SQLStorage{db: db}, nil
}

func (s *SQLStorage) Load(ctx context.Context) (Session, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM session`)
	if err != nil {
		return Session{}, fmt.Errorf("failed to load session: %w", err)
	}
	defer rows.Close()

	var out Session
	for rows.Next() {
		var (
			key   string
			value []byte
		)
		if err := rows.Scan(&key, &value); err != nil {
			return Session{}, fmt.Errorf("failed to scan session row: %w", err)
		}
		switch key {
		case keyToken:
			out.Token = string(value)
		case keyUser:
			var u model.User
			if err := json.Unmarshal(value, &u); err != nil {
				return Session{}, fmt.Errorf("failed to decode stored user: %w", err)
			}
			out.User = &u
		}
	}
	if err := rows.Err(); err != nil {
		return Session{}, fmt.Errorf("failed to iterate session rows: %w", err)
	}
	if out.Token == "" {
		return Session{}, ErrNoSession
	}
	return out, nil
}

// Save replaces the stored session in one transaction.
func (s *SQLStorage) Save(ctx context.Context, sess Session) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM session`); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO session (key, value) VALUES (?, ?)`, keyToken, []byte(sess.Token)); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	if sess.User != nil {
		b, err := json.Marshal(sess.User)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO session (key, value) VALUES (?, ?)`, keyUser, b); err != nil {
			return fmt.Errorf("failed to save user: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLStorage) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session`); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func (s *SQLStorage) Close() error { return s.db.Close() }

// Package conversation persists conversation state in SQLite.
package conversation

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"sync"
	"time"

	// SQLite driver (required for database/sql registration).
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	apperrors "github.com/touchline-ai/touchline/internal/errors"
)

// Store persists conversations keyed by conversation id.
type Store struct {
	db   *sql.DB
	path string
	log  *zap.Logger

	// one mutex per conversation id with in-flight turns; entries are
	// reference counted and removed when the last holder releases
	mu    sync.Mutex
	locks map[string]*turnLock
}

type turnLock struct {
	mu   sync.Mutex
	refs int
}

// Open opens the SQLite database at the given path, creating the
// schema if needed.
func Open(path string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}

	pragmas := []string{
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, err
		}
	}

	store := &Store{db: db, path: path, log: log, locks: make(map[string]*turnLock)}
	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) init() error {
	schema := `
	CREATE TABLE IF NOT EXISTS conversations (
		id         TEXT PRIMARY KEY,
		data       TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_conversations_updated ON conversations(updated_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Size returns the database file size in bytes, zero if unknown.
func (s *Store) Size() int64 {
	fi, err := os.Stat(s.path)
	if err != nil {
		return 0
	}
	return fi.Size()
}

// Get returns the state for the conversation id, or a NotFound error.
func (s *Store) Get(ctx context.Context, conversationID string) (*State, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM conversations WHERE id = ?`, conversationID,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound(apperrors.CodeStoreNotFound, "conversation not found")
	}
	if err != nil {
		s.log.Error("conversation lookup failed", zap.String("id", conversationID), zap.Error(err))
		return nil, apperrors.Storage(apperrors.CodeStoreFailed, "failed to load conversation", err)
	}

	var state State
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		s.log.Error("conversation decode failed", zap.String("id", conversationID), zap.Error(err))
		return nil, apperrors.Storage(apperrors.CodeStoreFailed, "failed to decode conversation", err)
	}
	return &state, nil
}

// Save upserts the state under its conversation id, preserving
// created_at across updates and refreshing updated_at. The write is a
// single statement, atomic per turn.
func (s *Store) Save(ctx context.Context, state *State) error {
	now := time.Now().UTC()
	state.UpdatedAt = now

	data, err := json.Marshal(state)
	if err != nil {
		return apperrors.Storage(apperrors.CodeStoreFailed, "failed to encode conversation", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO conversations (id, data, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			data = excluded.data,
			updated_at = excluded.updated_at
	`, state.ConversationID, string(data), state.CreatedAt.Unix(), now.Unix())
	if err != nil {
		s.log.Error("conversation save failed", zap.String("id", state.ConversationID), zap.Error(err))
		return apperrors.Storage(apperrors.CodeStoreFailed, "failed to save conversation", err)
	}
	return nil
}

// Delete removes a conversation, reporting NotFound if absent.
func (s *Store) Delete(ctx context.Context, conversationID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM conversations WHERE id = ?`, conversationID)
	if err != nil {
		return apperrors.Storage(apperrors.CodeStoreFailed, "failed to delete conversation", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.NotFound(apperrors.CodeStoreNotFound, "conversation not found")
	}
	return nil
}

// Reap removes conversations not updated within maxAge. Advisory
// maintenance, not part of the per-turn contract.
func (s *Store) Reap(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-maxAge).Unix()
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM conversations WHERE updated_at < ?`, cutoff)
	if err != nil {
		return 0, apperrors.Storage(apperrors.CodeStoreFailed, "failed to reap conversations", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		s.log.Info("reaped stale conversations", zap.Int64("count", n))
	}
	return int(n), nil
}

// StartReaper runs Reap on a ticker until ctx is done.
func (s *Store) StartReaper(ctx context.Context, interval, maxAge time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.Reap(ctx, maxAge); err != nil {
					s.log.Warn("reap failed", zap.Error(err))
				}
			}
		}
	}()
}

// Lock serializes turns for one conversation id. The returned function
// releases the lock. Turns for different ids proceed in parallel.
func (s *Store) Lock(conversationID string) func() {
	s.mu.Lock()
	l, ok := s.locks[conversationID]
	if !ok {
		l = &turnLock{}
		s.locks[conversationID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, conversationID)
		}
		s.mu.Unlock()
	}
}

package session

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/deepgram/qabot/internal/infrastructure/redis"
	"github.com/deepgram/qabot/internal/infrastructure/sqlite"
)

// ErrNotFound is returned by a SessionStore when no live entry exists
var ErrNotFound = errors.New("session not found")

const redisKeyPrefix = "qabot:session:"

// SessionStore keeps serialised sessions for ttl after their last write
type SessionStore interface {
	Get(ctx context.Context, id string) ([]byte, error)
	Set(ctx context.Context, id string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

type RedisStore struct {
	redisService *redis.Service
}

func NewRedisStore(redisService *redis.Service) *RedisStore {
	return &RedisStore{redisService: redisService}
}

func (rs *RedisStore) Get(ctx context.Context, id string) ([]byte, error) {
	data, err := rs.redisService.Get(ctx, redisKeyPrefix+id)
	if errors.Is(err, redis.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(data), nil
}

func (rs *RedisStore) Set(ctx context.Context, id string, data []byte, ttl time.Duration) error {
	return rs.redisService.Set(ctx, redisKeyPrefix+id, string(data), ttl)
}

func (rs *RedisStore) Delete(ctx context.Context, id string) error {
	return rs.redisService.Delete(ctx, redisKeyPrefix+id)
}

type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteStore(sqliteService *sqlite.Service) *SQLiteStore {
	return &SQLiteStore{db: sqliteService.DB(), now: time.Now}
}

func (ss *SQLiteStore) Get(ctx context.Context, id string) ([]byte, error) {
	var data string
	err := ss.db.QueryRowContext(ctx,
		`SELECT data FROM sessions WHERE session_id = ? AND expires_at > ?`,
		id, ss.now().Unix(),
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(data), nil
}

func (ss *SQLiteStore) Set(ctx context.Context, id string, data []byte, ttl time.Duration) error {
	now := ss.now()
	_, err := ss.db.ExecContext(ctx, `
		INSERT INTO sessions (session_id, data, expires_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			data = excluded.data,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at`,
		id, string(data), now.Add(ttl).Unix(), now.Unix(),
	)
	return err
}

func (ss *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := ss.db.ExecContext(ctx, `DELETE FROM sessions WHERE session_id = ?`, id)
	return err
}

// Sweep deletes expired rows and returns how many were removed
func (ss *SQLiteStore) Sweep(ctx context.Context) (int64, error) {
	res, err := ss.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, ss.now().Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]memoryEntry
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]memoryEntry),
		now:      time.Now,
	}
}

func (ms *MemoryStore) Get(ctx context.Context, id string) ([]byte, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	entry, exists := ms.sessions[id]
	if !exists || !ms.now().Before(entry.expiresAt) {
		return nil, ErrNotFound
	}
	return append([]byte(nil), entry.data...), nil
}

func (ms *MemoryStore) Set(ctx context.Context, id string, data []byte, ttl time.Duration) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.sessions[id] = memoryEntry{
		data:      append([]byte(nil), data...),
		expiresAt: ms.now().Add(ttl),
	}
	return nil
}

func (ms *MemoryStore) Delete(ctx context.Context, id string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	delete(ms.sessions, id)
	return nil
}

// Sweep drops expired entries and returns how many were removed
func (ms *MemoryStore) Sweep(ctx context.Context) (int64, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	now := ms.now()
	var removed int64
	for id, entry := range ms.sessions {
		if !now.Before(entry.expiresAt) {
			delete(ms.sessions, id)
			removed++
		}
	}
	return removed, nil
}

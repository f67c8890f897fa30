package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/formday/formday/internal/logging"
)

// KVStore handles the durable key-value slots in SQLite. Every logical
// slot (day records, weekly plan, templates, profile, prayer cache,
// notification flags) is one row holding a JSON document.
type KVStore struct {
	base   *DB
	db     *sql.DB
	logger zerolog.Logger
}

// NewKVStore creates a new key-value store on top of an open database
func NewKVStore(db *DB) (*KVStore, error) {
	logger := logging.GetLogger("kv-store")
	return &KVStore{base: db, db: db.Conn(), logger: logger}, nil
}

// Ping verifies the durable storage is reachable. Slot hydration is
// gated behind this check.
func (s *KVStore) Ping() error {
	if err := s.db.Ping(); err != nil {
		return fmt.Errorf("durable storage unreachable: %w", err)
	}
	return nil
}

// Get retrieves the raw document stored under key. The second return
// value reports whether the key exists.
func (s *KVStore) Get(key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRow(`
SELECT value FROM kv WHERE key = ?
`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read key %q: %w", key, err)
	}
	return value, true, nil
}

// Set stores the raw document under key, replacing any previous value
func (s *KVStore) Set(key string, value []byte) error {
	_, err := s.db.Exec(`
INSERT INTO kv (key, value, updated_at)
VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET
	value = excluded.value,
	updated_at = excluded.updated_at
`, key, value, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}
	return nil
}

// Delete removes the document stored under key. Deleting a missing key
// is not an error.
func (s *KVStore) Delete(key string) error {
	_, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete key %q: %w", key, err)
	}
	return nil
}

// DeleteKeys removes the given keys in a single transaction, so a batch
// cleanup either lands completely or not at all.
func (s *KVStore) DeleteKeys(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.base.WithTransaction(ctx, func(tx *sql.Tx) error {
		for _, key := range keys {
			if _, err := tx.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
				return fmt.Errorf("failed to delete key %q: %w", key, err)
			}
		}
		return nil
	})
}

// Keys returns all keys starting with the given prefix
func (s *KVStore) Keys(prefix string) ([]string, error) {
	// ESCAPE guards against prefixes containing LIKE wildcards
	pattern := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(prefix) + "%"
	rows, err := s.db.Query(`SELECT key FROM kv WHERE key LIKE ? ESCAPE '\' ORDER BY key`, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys with prefix %q: %w", prefix, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate keys: %w", err)
	}
	return keys, nil
}

// ChangedSince returns every row written after the given unix-millis
// stamp together with the newest stamp seen. The store watcher uses it
// to pick up writes made by another process sharing the state file.
func (s *KVStore) ChangedSince(since int64) (map[string][]byte, int64, error) {
	rows, err := s.db.Query(`
SELECT key, value, updated_at FROM kv WHERE updated_at > ?
`, since)
	if err != nil {
		return nil, since, fmt.Errorf("failed to query changed keys: %w", err)
	}
	defer rows.Close()

	changed := make(map[string][]byte)
	latest := since
	for rows.Next() {
		var key string
		var value []byte
		var updatedAt int64
		if err := rows.Scan(&key, &value, &updatedAt); err != nil {
			return nil, since, fmt.Errorf("failed to scan changed row: %w", err)
		}
		changed[key] = value
		if updatedAt > latest {
			latest = updatedAt
		}
	}
	if err := rows.Err(); err != nil {
		return nil, since, fmt.Errorf("failed to iterate changed rows: %w", err)
	}
	return changed, latest, nil
}

// LatestStamp returns the newest updated_at value in the table, or zero
// when the table is empty.
func (s *KVStore) LatestStamp() (int64, error) {
	var stamp sql.NullInt64
	err := s.db.QueryRow(`SELECT MAX(updated_at) FROM kv`).Scan(&stamp)
	if err != nil {
		return 0, fmt.Errorf("failed to read latest stamp: %w", err)
	}
	return stamp.Int64, nil
}

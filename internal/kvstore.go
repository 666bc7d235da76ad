package internal

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// KVStore is the durable string-keyed store backing local history and the
// persisted cookie jar. It is a single SQLite table so writes are atomic and
// synchronous: the caller updates memory first and persists immediately
// after, keeping the two from observably diverging between user actions.
type KVStore struct {
	db *sql.DB
}

// OpenKVStore opens (creating if needed) the store at path.
func OpenKVStore(path string) (*KVStore, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &StorageError{Op: "open", Key: path, Err: err}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &StorageError{Op: "open", Key: path, Err: err}
	}

	if err := initKVSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &KVStore{db: db}, nil
}

// NewKVStore wraps an already open database (used by tests with :memory:).
func NewKVStore(db *sql.DB) (*KVStore, error) {
	if err := initKVSchema(db); err != nil {
		return nil, err
	}
	return &KVStore{db: db}, nil
}

func initKVSchema(db *sql.DB) error {
	const schema = `CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		return &StorageError{Op: "open", Key: "kv", Err: fmt.Errorf("create schema: %w", err)}
	}
	return nil
}

// Get returns the value for key and whether it was present.
func (s *KVStore) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, &StorageError{Op: "get", Key: key, Err: err}
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous value.
func (s *KVStore) Set(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return &StorageError{Op: "set", Key: key, Err: err}
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *KVStore) Delete(key string) error {
	if _, err := s.db.Exec("DELETE FROM kv WHERE key = ?", key); err != nil {
		return &StorageError{Op: "delete", Key: key, Err: err}
	}
	return nil
}

// Close closes the underlying database.
func (s *KVStore) Close() error {
	return s.db.Close()
}

// Package state is the durable local store: a key/value table for settings
// and session fields, and ordered track lists for the library.
package state

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite" // SQLite driver
)

const (
	appName    = "vyra"
	dbFileName = "vyra.db"
)

type Manager struct {
	db *sql.DB
}

// Open opens the database at its default XDG data location.
func Open() (*Manager, error) {
	dbPath, err := getDBPath()
	if err != nil {
		return nil, err
	}
	return OpenPath(dbPath)
}

// OpenPath opens or creates the database at path. ":memory:" gives a
// throwaway store.
func OpenPath(path string) (*Manager, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Manager{db: db}, nil
}

func (m *Manager) Close() error {
	return m.db.Close()
}

func (m *Manager) DB() *sql.DB {
	return m.db
}

// Get returns the value stored under key. ok is false when the key is unset.
func (m *Manager) Get(key string) ([]byte, bool, error) {
	var value []byte
	err := m.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Set stores value under key.
func (m *Manager) Set(key string, value []byte) error {
	return m.SetMany(map[string][]byte{key: value})
}

// SetMany stores every entry in one transaction.
func (m *Manager) SetMany(values map[string][]byte) error {
	if len(values) == 0 {
		return nil
	}
	now := time.Now().Unix()
	return withTx(m.db, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET
				value = excluded.value,
				updated_at = excluded.updated_at
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for k, v := range values {
			if _, err := stmt.Exec(k, v, now); err != nil {
				return fmt.Errorf("set %s: %w", k, err)
			}
		}
		return nil
	})
}

// Delete removes key. Deleting an unset key is not an error.
func (m *Manager) Delete(key string) error {
	_, err := m.db.Exec(`DELETE FROM kv WHERE key = ?`, key)
	return err
}

func getDBPath() (string, error) {
	return xdg.DataFile(filepath.Join(appName, dbFileName))
}

// withTx executes fn within a transaction, rolling back on error.
func withTx(db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// DB is a SQLite-backed key-value store for quiz progress.
type DB struct {
	conn *sqlx.DB
}

// New opens (or creates) the database file and initializes tables.
func New(dbPath string) (*DB, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	conn, err := sqlx.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed open db: %w", err)
	}
	// Writes must land in order; one connection serializes them.
	conn.SetMaxOpenConns(1)

	if err = conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed db ping: %w", err)
	}

	if err = createTables(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed create tables: %w", err)
	}

	return &DB{conn: conn}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

func createTables(conn *sqlx.DB) error {
	_, err := conn.Exec(`
		CREATE TABLE IF NOT EXISTS kv_store (
			namespace INTEGER NOT NULL,
			key TEXT NOT NULL,
			value TEXT NOT NULL,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (namespace, key)
		)
	`)
	return err
}

// Get returns the value stored under key, ok=false if there is none.
func (db *DB) Get(namespace int64, key string) (string, bool, error) {
	var value string
	err := db.conn.Get(&value,
		"SELECT value FROM kv_store WHERE namespace = ? AND key = ?",
		namespace, key,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous value.
func (db *DB) Set(namespace int64, key, value string) error {
	_, err := db.conn.Exec(`
		INSERT INTO kv_store (namespace, key, value, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (namespace, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		namespace, key, value, time.Now().Unix(),
	)
	return err
}

// Delete removes key. Deleting a missing key is not an error.
func (db *DB) Delete(namespace int64, key string) error {
	_, err := db.conn.Exec(
		"DELETE FROM kv_store WHERE namespace = ? AND key = ?",
		namespace, key,
	)
	return err
}

// Namespaces lists the namespaces that have stored progress.
func (db *DB) Namespaces() ([]int64, error) {
	var namespaces []int64
	err := db.conn.Select(&namespaces, "SELECT DISTINCT namespace FROM kv_store ORDER BY namespace")
	return namespaces, err
}

// Namespace returns a view of the store scoped to ns.
func (db *DB) Namespace(ns int64) *Namespace {
	return NewNamespace(db, ns)
}

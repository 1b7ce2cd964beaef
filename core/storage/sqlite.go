package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"curachain/core/storage/migrations"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the key-value arena in a single SQLite table.
type SQLiteStore struct {
	sqlDB *sql.DB
}

// OpenSQLite opens a SQLite store and applies embedded migrations.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &SQLiteStore{sqlDB: sqlDB}, nil
}

func (s *SQLiteStore) Get(key []byte) ([]byte, error) {
	var v []byte
	err := s.sqlDB.QueryRow(`SELECT v FROM kv WHERE k = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get key: %w", err)
	}
	return v, nil
}

// Iterate loads the matching rows before calling fn so fn may read the store.
func (s *SQLiteStore) Iterate(prefix []byte, fn func(key, value []byte) error) error {
	var (
		rows *sql.Rows
		err  error
	)
	upper := prefixEnd(prefix)
	switch {
	case len(prefix) == 0:
		rows, err = s.sqlDB.Query(`SELECT k, v FROM kv ORDER BY k`)
	case upper == nil:
		rows, err = s.sqlDB.Query(`SELECT k, v FROM kv WHERE k >= ? ORDER BY k`, prefix)
	default:
		rows, err = s.sqlDB.Query(`SELECT k, v FROM kv WHERE k >= ? AND k < ? ORDER BY k`, prefix, upper)
	}
	if err != nil {
		return fmt.Errorf("iterate: %w", err)
	}
	type kv struct{ k, v []byte }
	var out []kv
	for rows.Next() {
		var item kv
		if err := rows.Scan(&item.k, &item.v); err != nil {
			_ = rows.Close()
			return fmt.Errorf("scan row: %w", err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return fmt.Errorf("iterate rows: %w", err)
	}
	_ = rows.Close()
	for _, item := range out {
		if err := fn(item.k, item.v); err != nil {
			return err
		}
	}
	return nil
}

// Write applies the batch inside one SQL transaction.
func (s *SQLiteStore) Write(batch *Batch) error {
	tx, err := s.sqlDB.BeginTx(context.Background(), nil)
	if err != nil {
		return fmt.Errorf("begin write: %w", err)
	}
	err = batch.Replay(func(key, value []byte, deleted bool) error {
		if deleted {
			_, err := tx.Exec(`DELETE FROM kv WHERE k = ?`, key)
			return err
		}
		_, err := tx.Exec(`INSERT INTO kv (k, v) VALUES (?, ?) ON CONFLICT(k) DO UPDATE SET v = excluded.v`, key, value)
		return err
	})
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("apply batch: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

// Close closes the SQLite handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// prefixEnd returns the smallest key greater than every key with prefix,
// or nil when no such key exists.
func prefixEnd(prefix []byte) []byte {
	end := append([]byte{}, prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}

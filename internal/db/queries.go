package db

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/hpungsan/eventrank/internal/errors"
)

// Well-known keys in the kv table.
const (
	KeyClassifications = "eventClassifications"
	KeyPreferences     = "userPreferences"
)

// UpdateFunc receives the current value (ok=false when the key is absent)
// and returns the value to store.
type UpdateFunc func(current string, ok bool) (string, error)

// Get returns the value stored under key.
func Get(ctx context.Context, db *sql.DB, key string) (string, bool, error) {
	var value string
	err := db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, errors.NewInternal(err)
	}
	return value, true, nil
}

// Put stores value under key, replacing any previous value.
func Put(ctx context.Context, db *sql.DB, key, value string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().Unix())
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// Update runs a read-modify-write of key inside one transaction.
// Concurrent Update calls on the same database serialize.
func Update(ctx context.Context, db *sql.DB, key string, fn UpdateFunc) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewInternal(err)
	}
	defer func() { _ = tx.Rollback() }()

	var current string
	ok := true
	err = tx.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&current)
	if err != nil {
		if !stderrors.Is(err, sql.ErrNoRows) {
			return errors.NewInternal(err)
		}
		ok = false
	}

	next, err := fn(current, ok)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, next, time.Now().Unix())
	if err != nil {
		return errors.NewInternal(err)
	}

	if err := tx.Commit(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// Delete removes key. Returns true if a row was removed.
func Delete(ctx context.Context, db *sql.DB, key string) (bool, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
	if err != nil {
		return false, errors.NewInternal(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.NewInternal(err)
	}
	return n > 0, nil
}

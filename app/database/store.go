package database

import (
	"database/sql"
	"errors"
	"fmt"
)

// ErrKeyNotFound is returned by Conn.Get when the key has no value.
var ErrKeyNotFound = errors.New("key not found")

// StoreName identifies one of the named key-value stores.
type StoreName string

const (
	StoreHistory StoreName = "history"
	StoreEmails  StoreName = "emails"
)

var validStores = map[StoreName]bool{
	StoreHistory: true,
	StoreEmails:  true,
}

// session owns the lazily-begun sql transaction behind one or more store
// connections. sqlite allows a single write transaction at a time, so
// connections that must stage writes concurrently share a session instead of
// competing for the write lock.
type session struct {
	db *DB
	tx *sql.Tx
}

func (s *session) begin() (*sql.Tx, error) {
	if s.tx == nil {
		tx, err := s.db.Begin()
		if err != nil {
			return nil, fmt.Errorf("failed to begin transaction: %w", err)
		}
		s.tx = tx
	}
	return s.tx, nil
}

func (s *session) commit() error {
	if s.tx == nil {
		return nil
	}
	err := s.tx.Commit()
	s.tx = nil
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *session) rollback() error {
	if s.tx == nil {
		return nil
	}
	err := s.tx.Rollback()
	s.tx = nil
	if err != nil && err != sql.ErrTxDone {
		return fmt.Errorf("failed to roll back transaction: %w", err)
	}
	return nil
}

// Conn is a connection to one named store. All reads and staged writes run
// inside a single deferred transaction that begins lazily on first access and
// finalizes only on Commit. Connections opened against the same store under
// a different session do not observe staged puts until the transaction
// commits. After a commit the connection is reusable: a fresh transaction
// begins on next access.
type Conn struct {
	sess     *session
	store    StoreName
	onCommit []func()
	closed   bool
}

// OpenStore opens a connection to the named store with its own session.
func OpenStore(db *DB, store StoreName) (*Conn, error) {
	if !validStores[store] {
		return nil, fmt.Errorf("unknown store: %s", store)
	}
	return &Conn{sess: &session{db: db}, store: store}, nil
}

// WithStore opens a connection, runs fn, and guarantees release of the
// underlying transaction regardless of exit path. Uncommitted staged writes
// are rolled back.
func WithStore(db *DB, store StoreName, fn func(*Conn) error) error {
	conn, err := OpenStore(db, store)
	if err != nil {
		return err
	}
	defer conn.Close()
	return fn(conn)
}

// WithStores opens connections to the history and emails stores sharing one
// session, so both can stage writes inside the same sqlite write transaction.
// Committing either connection finalizes the shared transaction; the other
// connection's Commit then only fires its callbacks.
func WithStores(db *DB, fn func(history, emails *Conn) error) error {
	sess := &session{db: db}
	history := &Conn{sess: sess, store: StoreHistory}
	emails := &Conn{sess: sess, store: StoreEmails}
	defer history.Close()
	defer emails.Close()
	return fn(history, emails)
}

func (c *Conn) begin() (*sql.Tx, error) {
	if c.closed {
		return nil, fmt.Errorf("store connection already closed")
	}
	return c.sess.begin()
}

// Get returns the value stored under key, or ErrKeyNotFound.
func (c *Conn) Get(key string) ([]byte, error) {
	tx, err := c.begin()
	if err != nil {
		return nil, err
	}

	var value []byte
	err = tx.QueryRow(fmt.Sprintf(`SELECT value FROM %s WHERE key = ?`, c.store), key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("store %s, key %q: %w", c.store, key, ErrKeyNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get key %q: %w", key, err)
	}
	return value, nil
}

// GetAll returns every value in the store.
func (c *Conn) GetAll() ([][]byte, error) {
	tx, err := c.begin()
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(fmt.Sprintf(`SELECT value FROM %s ORDER BY key`, c.store))
	if err != nil {
		return nil, fmt.Errorf("failed to query values: %w", err)
	}
	defer rows.Close()

	var values [][]byte
	for rows.Next() {
		var value []byte
		if err := rows.Scan(&value); err != nil {
			return nil, fmt.Errorf("failed to scan value: %w", err)
		}
		values = append(values, value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating values: %w", err)
	}
	return values, nil
}

// Keys returns every key in the store.
func (c *Conn) Keys() ([]string, error) {
	tx, err := c.begin()
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(fmt.Sprintf(`SELECT key FROM %s ORDER BY key`, c.store))
	if err != nil {
		return nil, fmt.Errorf("failed to query keys: %w", err)
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
		return nil, fmt.Errorf("error iterating keys: %w", err)
	}
	return keys, nil
}

// Put stages a write. It is not visible to other connections until Commit.
func (c *Conn) Put(key string, value []byte) error {
	tx, err := c.begin()
	if err != nil {
		return err
	}

	_, err = tx.Exec(fmt.Sprintf(`
		INSERT INTO %s (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value
	`, c.store), key, value)
	if err != nil {
		return fmt.Errorf("failed to put key %q: %w", key, err)
	}
	return nil
}

// Clear stages removal of every record in the store.
func (c *Conn) Clear() error {
	tx, err := c.begin()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(fmt.Sprintf(`DELETE FROM %s`, c.store)); err != nil {
		return fmt.Errorf("failed to clear store %s: %w", c.store, err)
	}
	return nil
}

// OnCommit registers a callback fired exactly once after the next Commit.
func (c *Conn) OnCommit(fn func()) {
	c.onCommit = append(c.onCommit, fn)
}

// Commit finalizes all staged operations atomically. Calling Commit with
// nothing staged is a no-op that still completes the pending callbacks.
// After Commit the connection may be reused; a fresh transaction begins
// lazily on next access.
func (c *Conn) Commit() error {
	if err := c.sess.commit(); err != nil {
		return fmt.Errorf("store %s: %w", c.store, err)
	}

	callbacks := c.onCommit
	c.onCommit = nil
	for _, fn := range callbacks {
		fn()
	}
	return nil
}

// Close releases the connection. Staged writes that were never committed are
// rolled back.
func (c *Conn) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	if err := c.sess.rollback(); err != nil {
		return fmt.Errorf("store %s: %w", c.store, err)
	}
	return nil
}

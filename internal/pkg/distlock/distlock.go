// Package distlock provides the lock that keeps batch loyalty recalculation
// to a single instance at a time.
package distlock

import (
	"context"
	"database/sql"
	"errors"
	"hash/fnv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotHeld is returned by Release and Extend when the caller does not own
// the lock.
var ErrNotHeld = errors.New("distlock: lock not held")

// Lock is a non-blocking mutual exclusion lock.
type Lock interface {
	// Acquire reports whether the lock was taken.
	Acquire(ctx context.Context) (bool, error)
	// Release gives the lock up if this instance still owns it.
	Release(ctx context.Context) error
	// Extend resets the expiry to TTL while the lock is still owned.
	Extend(ctx context.Context) error
	// TTL is how long the lock lives without an Extend. Zero means it never
	// expires on its own.
	TTL() time.Duration
}

// New picks a backend: Redis when a client is given, then a Postgres
// advisory lock, then an in-process lock.
func New(rdb redis.UniversalClient, db *sql.DB, key string, ttl time.Duration) Lock {
	switch {
	case rdb != nil:
		return NewRedisLock(rdb, key, ttl)
	case db != nil:
		return NewPGAdvisoryLock(db, key)
	default:
		return &Local{}
	}
}

// PGAdvisoryLock uses pg_try_advisory_lock. Advisory locks are session
// scoped, so the lock pins one pooled connection until Release.
type PGAdvisoryLock struct {
	db     *sql.DB
	lockID int64

	mu   sync.Mutex
	conn *sql.Conn
}

// NewPGAdvisoryLock derives a stable lock id from key.
func NewPGAdvisoryLock(db *sql.DB, key string) *PGAdvisoryLock {
	h := fnv.New64a()
	h.Write([]byte(key))
	return &PGAdvisoryLock{db: db, lockID: int64(h.Sum64())}
}

func (l *PGAdvisoryLock) Acquire(ctx context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn != nil {
		return false, nil
	}

	conn, err := l.db.Conn(ctx)
	if err != nil {
		return false, err
	}
	var acquired bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", l.lockID).Scan(&acquired); err != nil {
		conn.Close()
		return false, err
	}
	if !acquired {
		conn.Close()
		return false, nil
	}
	l.conn = conn
	return true, nil
}

func (l *PGAdvisoryLock) Release(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn == nil {
		return ErrNotHeld
	}
	_, err := l.conn.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", l.lockID)
	cerr := l.conn.Close()
	l.conn = nil
	if err != nil {
		return err
	}
	return cerr
}

// Extend only checks ownership; advisory locks last as long as the session.
func (l *PGAdvisoryLock) Extend(context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn == nil {
		return ErrNotHeld
	}
	return nil
}

func (l *PGAdvisoryLock) TTL() time.Duration { return 0 }

// Local is an in-process lock for single-instance deployments.
type Local struct {
	mu   sync.Mutex
	held bool
}

func (l *Local) Acquire(context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held {
		return false, nil
	}
	l.held = true
	return true, nil
}

func (l *Local) Release(context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.held {
		return ErrNotHeld
	}
	l.held = false
	return nil
}

func (l *Local) Extend(context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.held {
		return ErrNotHeld
	}
	return nil
}

func (l *Local) TTL() time.Duration { return 0 }

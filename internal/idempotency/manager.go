// Package idempotency makes update processing at-most-once per update key under
// at-least-once delivery.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const defaultLockTTL = 2 * time.Minute

// ErrDuplicate is returned when the key was already processed or is being processed.
var ErrDuplicate = errors.New("update already handled")

// Operation is the work guarded by a key.
type Operation func(ctx context.Context) error

// Manager runs an Operation at most once per key within the ttl.
type Manager interface {
	Execute(ctx context.Context, key string, fn Operation) error
}

type manager struct {
	store   Store
	ttl     time.Duration
	lockTTL time.Duration
	log     *slog.Logger
}

// NewManager creates a Manager remembering processed keys for ttl.
func NewManager(store Store, ttl time.Duration, log *slog.Logger) Manager {
	if log == nil {
		log = slog.Default()
	}

	return &manager{
		store:   store,
		ttl:     ttl,
		lockTTL: defaultLockTTL,
		log:     log,
	}
}

// Execute runs fn unless key was seen before, in which case ErrDuplicate is returned.
// A failed fn releases the key so a redelivery is processed again.
func (m *manager) Execute(ctx context.Context, key string, fn Operation) error {
	if fn == nil {
		return errors.New("operation fn cannot be nil")
	}

	acquired, err := m.store.Acquire(ctx, key, m.lockTTL)
	if err != nil {
		return err
	}

	if !acquired {
		status, err := m.store.Status(ctx, key)
		if err != nil {
			return err
		}
		m.log.DebugContext(ctx, "duplicate update skipped", slog.String("key", key), slog.String("status", status))
		return fmt.Errorf("%w (%s)", ErrDuplicate, status)
	}

	if err := fn(ctx); err != nil {
		if releaseErr := m.store.Release(context.WithoutCancel(ctx), key); releaseErr != nil {
			return errors.Join(err, releaseErr)
		}
		return err
	}

	return m.store.Complete(context.WithoutCancel(ctx), key, m.ttl)
}

// Package idempotency makes an operation run at most once per key, replaying
// the stored response for repeats.
package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"
)

const defaultLockTTL = 2 * time.Minute

var ErrRequestInProgress = errors.New("request with this key is already in progress")

// Operation returns a JSON-encodable response.
type Operation func(ctx context.Context) (any, error)

type Result struct {
	// Response is the operation's value, or its JSON when FromCache is set.
	Response  any
	FromCache bool
}

type Manager interface {
	Execute(ctx context.Context, key string, ttl time.Duration, fn Operation) (*Result, error)
}

type manager struct {
	store   Store
	lockTTL time.Duration
	log     *slog.Logger
}

func NewManager(store Store, log *slog.Logger) Manager {
	if log == nil {
		log = slog.Default()
	}

	return &manager{
		store:   store,
		lockTTL: defaultLockTTL,
		log:     log,
	}
}

// Execute runs fn once for key and keeps its response for ttl. A failed fn
// stores nothing, so the next attempt runs again.
func (m *manager) Execute(ctx context.Context, key string, ttl time.Duration, fn Operation) (*Result, error) {
	if fn == nil {
		return nil, errors.New("operation fn cannot be nil")
	}

	if cached, err := m.cached(ctx, key); cached != nil || err != nil {
		return cached, err
	}

	locked, err := m.store.Lock(ctx, key, m.lockTTL)
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, ErrRequestInProgress
	}
	defer func() {
		if err := m.store.ReleaseLock(context.WithoutCancel(ctx), key); err != nil {
			m.log.WarnContext(ctx, "failed to release idempotency lock", slog.String("key", key), slog.Any("error", err))
		}
	}()

	// another worker may have finished between the first read and the lock
	if cached, err := m.cached(ctx, key); cached != nil || err != nil {
		return cached, err
	}

	response, err := fn(ctx)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(response)
	if err != nil {
		return nil, err
	}

	if err := m.store.Set(ctx, key, &Record{Status: StatusCompleted, Response: encoded}, ttl); err != nil {
		return nil, err
	}

	return &Result{Response: response}, nil
}

func (m *manager) cached(ctx context.Context, key string) (*Result, error) {
	record, err := m.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if record == nil || record.Status != StatusCompleted {
		return nil, nil
	}

	m.log.DebugContext(ctx, "idempotent replay", slog.String("key", key))
	return &Result{Response: json.RawMessage(record.Response), FromCache: true}, nil
}

// Package staffcache puts a Redis read-through cache in front of staff
// lookups, which run on every Telegram update.
package staffcache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/Proton-105/oficina-bot/internal/domain"
)

const (
	defaultTTL    = 5 * time.Minute
	negativeTTL   = time.Minute
	unknownMarker = "-"
)

// Source is the authoritative staff lookup.
type Source interface {
	FindByTelegramID(ctx context.Context, telegramID int64) (*domain.StaffUser, error)
}

type Cache struct {
	client *redis.Client
	source Source
	ttl    time.Duration
	log    *slog.Logger
}

func New(client *redis.Client, source Source, ttl time.Duration, log *slog.Logger) *Cache {
	if log == nil {
		log = slog.Default()
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}

	return &Cache{
		client: client,
		source: source,
		ttl:    ttl,
		log:    log,
	}
}

// FindByTelegramID behaves like the source, including sql.ErrNoRows for
// unknown users. Misses are remembered for a shorter time than hits. Cache
// failures fall through to the source.
func (c *Cache) FindByTelegramID(ctx context.Context, telegramID int64) (*domain.StaffUser, error) {
	key := cacheKey(telegramID)

	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if string(data) == unknownMarker {
			return nil, sql.ErrNoRows
		}
		var user domain.StaffUser
		if err := json.Unmarshal(data, &user); err == nil {
			return &user, nil
		}
		c.log.WarnContext(ctx, "dropping undecodable staff cache entry", slog.Int64("telegram_id", telegramID))
	case !errors.Is(err, redis.Nil):
		c.log.WarnContext(ctx, "staff cache unavailable", slog.Any("error", err))
	}

	user, err := c.source.FindByTelegramID(ctx, telegramID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		c.store(ctx, key, []byte(unknownMarker), negativeTTL)
		return nil, err
	case err != nil:
		return nil, err
	}

	if payload, err := json.Marshal(user); err == nil {
		c.store(ctx, key, payload, c.ttl)
	}

	return user, nil
}

// Invalidate forgets a user, e.g. after their account was deactivated.
func (c *Cache) Invalidate(ctx context.Context, telegramID int64) error {
	if err := c.client.Del(ctx, cacheKey(telegramID)).Err(); err != nil {
		return fmt.Errorf("delete cached staff user: %w", err)
	}
	return nil
}

func (c *Cache) store(ctx context.Context, key string, payload []byte, ttl time.Duration) {
	if err := c.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		c.log.WarnContext(ctx, "failed to cache staff user", slog.String("key", key), slog.Any("error", err))
	}
}

func cacheKey(telegramID int64) string {
	return fmt.Sprintf("staff:tg:%d", telegramID)
}

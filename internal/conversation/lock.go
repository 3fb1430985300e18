package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	lockKeyPattern = "conversation:lock:%s"
	defaultLockTTL = 10 * time.Second
)

// ErrLocked means another turn of the same session is still running.
var ErrLocked = errors.New("conversation is busy, try again later")

// releaseScript deletes the lock only if it still holds our token, so a turn
// that outlived its TTL cannot release someone else's lock.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker hands out per-session locks backed by SET NX.
type Locker struct {
	client *redis.Client
	ttl    time.Duration
	log    *slog.Logger
}

func NewLocker(client *redis.Client, ttl time.Duration, log *slog.Logger) *Locker {
	if log == nil {
		log = slog.Default()
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}

	return &Locker{
		client: client,
		ttl:    ttl,
		log:    log,
	}
}

// Lock acquires the session lock. The returned func releases it and is safe
// to call once.
func (l *Locker) Lock(ctx context.Context, sessionID string) (func(), error) {
	key := fmt.Sprintf(lockKeyPattern, sessionID)
	token := uuid.NewString()

	acquired, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		l.log.ErrorContext(ctx, "failed to acquire conversation lock", slog.String("session_id", sessionID), slog.Any("error", err))
		return nil, err
	}
	if !acquired {
		l.log.WarnContext(ctx, "conversation lock already held", slog.String("session_id", sessionID))
		return nil, ErrLocked
	}

	return func() {
		// the turn's ctx may already be cancelled
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()

		if err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil {
			l.log.ErrorContext(ctx, "failed to release conversation lock", slog.String("session_id", sessionID), slog.Any("error", err))
		}
	}, nil
}

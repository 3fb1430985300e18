// Package conversation persists assistant conversation state in Redis and
// serializes turns of the same session.
package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Proton-105/oficina-bot/internal/assistant"
)

const (
	stateKeyPattern     = "conversation:state:%s"
	stateScanPattern    = "conversation:state:*"
	stateScanBatchCount = 100

	defaultStateTTL = 30 * time.Minute
)

// ErrStateCorrupted is returned when a stored state cannot be decoded. The
// offending key is removed before returning.
var ErrStateCorrupted = errors.New("conversation state corrupted")

// Store keeps one ConversationState per session id.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	log    *slog.Logger
}

// NewStore creates a Redis-backed Store. A non-positive ttl falls back to 30 minutes.
func NewStore(client *redis.Client, ttl time.Duration, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	if ttl <= 0 {
		ttl = defaultStateTTL
	}

	return &Store{
		client: client,
		ttl:    ttl,
		log:    log,
	}
}

// Load returns the stored state, or nil when the session is idle.
func (s *Store) Load(ctx context.Context, sessionID string) (*assistant.ConversationState, error) {
	key := stateKey(sessionID)

	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}

		s.log.ErrorContext(ctx, "failed to get conversation state", slog.String("session_id", sessionID), slog.Any("error", err))
		return nil, err
	}

	var state assistant.ConversationState
	if err := json.Unmarshal(data, &state); err != nil {
		s.log.WarnContext(ctx, "dropping undecodable conversation state", slog.String("session_id", sessionID), slog.Any("error", err))
		if delErr := s.client.Del(ctx, key).Err(); delErr != nil {
			s.log.ErrorContext(ctx, "failed to drop conversation state", slog.String("session_id", sessionID), slog.Any("error", delErr))
		}
		return nil, fmt.Errorf("%w: %w", ErrStateCorrupted, err)
	}

	return &state, nil
}

// Save stores state with the configured TTL. An inactive state clears the session.
func (s *Store) Save(ctx context.Context, sessionID string, state *assistant.ConversationState) error {
	if !state.Active() {
		return s.Clear(ctx, sessionID)
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode conversation state: %w", err)
	}

	if err := s.client.Set(ctx, stateKey(sessionID), data, s.ttl).Err(); err != nil {
		s.log.ErrorContext(ctx, "failed to save conversation state", slog.String("session_id", sessionID), slog.Any("error", err))
		return err
	}

	return nil
}

// Clear removes the session's state.
func (s *Store) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, stateKey(sessionID)).Err(); err != nil {
		s.log.ErrorContext(ctx, "failed to clear conversation state", slog.String("session_id", sessionID), slog.Any("error", err))
		return err
	}

	return nil
}

// CountByMode scans stored states and counts in-flight flows per mode.
func (s *Store) CountByMode(ctx context.Context) (map[assistant.Mode]int, error) {
	counts := make(map[assistant.Mode]int)

	iter := s.client.Scan(ctx, 0, stateScanPattern, stateScanBatchCount).Iterator()
	for iter.Next(ctx) {
		data, err := s.client.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return nil, err
		}

		var state assistant.ConversationState
		if err := json.Unmarshal(data, &state); err != nil {
			continue
		}
		if state.Active() {
			counts[state.Mode]++
		}
	}
	if err := iter.Err(); err != nil {
		s.log.ErrorContext(ctx, "failed to scan conversation states", slog.Any("error", err))
		return nil, err
	}

	return counts, nil
}

func stateKey(sessionID string) string {
	return fmt.Sprintf(stateKeyPattern, sessionID)
}

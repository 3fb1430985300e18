// Package middleware holds cross-cutting handlers for the Telegram and HTTP transports.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/oficina-bot/internal/bot/handlers"
	"github.com/Proton-105/oficina-bot/internal/idempotency"
)

const updateTTL = 24 * time.Hour

// Idempotency drops Telegram updates that were already handled, e.g. webhook
// redeliveries after a timeout.
func Idempotency(manager idempotency.Manager, log *slog.Logger) handlers.Middleware {
	if manager == nil {
		return func(next handlers.Handler) handlers.Handler {
			return next
		}
	}
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		return func(c telebot.Context) error {
			key := updateKey(c)
			if key == "" {
				return next(c)
			}

			result, err := manager.Execute(context.Background(), key, updateTTL, func(context.Context) (any, error) {
				return nil, next(c)
			})
			switch {
			case errors.Is(err, idempotency.ErrRequestInProgress):
				log.Debug("update already in progress", slog.String("key", key))
				return nil
			case err != nil:
				return err
			case result.FromCache:
				log.Debug("duplicate update skipped", slog.String("key", key))
			}

			return nil
		}
	}
}

func updateKey(c telebot.Context) string {
	if id := c.Update().ID; id != 0 {
		return fmt.Sprintf("tg:update:%d", id)
	}

	if msg := c.Message(); msg != nil && msg.ID != 0 && msg.Chat != nil {
		return fmt.Sprintf("tg:msg:%d:%d", msg.Chat.ID, msg.ID)
	}

	return ""
}

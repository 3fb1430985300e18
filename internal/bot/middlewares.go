package bot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"slices"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/oficina-bot/internal/bot/handlers"
	"github.com/Proton-105/oficina-bot/internal/domain"
	apperrors "github.com/Proton-105/oficina-bot/internal/errors"
	"github.com/Proton-105/oficina-bot/internal/i18n"
)

// StaffDirectory resolves Telegram users to shop employees.
type StaffDirectory interface {
	FindByTelegramID(ctx context.Context, telegramID int64) (*domain.StaffUser, error)
}

// RecoveryMiddleware catches panics, reports them via the centralized handler, and notifies the user.
func RecoveryMiddleware(log *slog.Logger, errHandler *apperrors.Handler, tr i18n.Translator) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		return func(c telebot.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}

				log.Error("panic recovered in handler", slog.Any("panic", r), slog.String("stack", string(debug.Stack())))

				userMsg := tr.T("bot.internal_error")
				if errHandler != nil {
					if msg, _ := errHandler.Handle(context.Background(), fmt.Errorf("panic recovered: %v", r)); msg != "" {
						userMsg = msg
					}
				}

				if sendErr := c.Send(userMsg); sendErr != nil {
					log.Error("failed to notify user about panic", slog.Any("error", sendErr))
				}

				err = nil
			}()

			return next(c)
		}
	}
}

// ErrorHandlingMiddleware turns handler errors into a user message.
func ErrorHandlingMiddleware(errHandler *apperrors.Handler, tr i18n.Translator) handlers.Middleware {
	return func(next handlers.Handler) handlers.Handler {
		return func(c telebot.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			userMsg := tr.T("bot.internal_error")
			if errHandler != nil {
				if msg, _ := errHandler.Handle(context.Background(), err); msg != "" {
					userMsg = msg
				}
			}

			_ = c.Send(userMsg)
			return nil
		}
	}
}

// LoggingMiddleware logs one line per update. Message text is left out; it
// carries customer data.
func LoggingMiddleware(log *slog.Logger) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		return func(c telebot.Context) error {
			start := time.Now()

			var userID int64
			if c.Sender() != nil {
				userID = c.Sender().ID
			}

			err := next(c)
			log.Info("handled update",
				slog.Int64("user_id", userID),
				slog.String("session_id", handlers.SessionID(c)),
				slog.Duration("duration", time.Since(start)),
				slog.Any("error", err),
			)

			return err
		}
	}
}

// AuthMiddleware admits active employees with a registered telegram_id and
// the ids whitelisted in configuration.
func AuthMiddleware(staff StaffDirectory, allowed []int64, tr i18n.Translator, log *slog.Logger) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		return func(c telebot.Context) error {
			sender := c.Sender()
			if sender == nil {
				return nil
			}

			if slices.Contains(allowed, sender.ID) {
				return next(c)
			}

			if staff != nil {
				user, err := staff.FindByTelegramID(context.Background(), sender.ID)
				switch {
				case err == nil && user.Active:
					return next(c)
				case err != nil && !errors.Is(err, sql.ErrNoRows):
					return apperrors.NewDatabaseError(err)
				}
			}

			log.Warn("rejected update from unknown user", slog.Int64("user_id", sender.ID))
			return c.Send(tr.T("bot.unauthorized"))
		}
	}
}

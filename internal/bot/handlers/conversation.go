package handlers

import (
	"context"
	"errors"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/oficina-bot/internal/assistant"
	"github.com/Proton-105/oficina-bot/internal/bot/keyboard"
	"github.com/Proton-105/oficina-bot/internal/chat"
	"github.com/Proton-105/oficina-bot/internal/conversation"
	apperrors "github.com/Proton-105/oficina-bot/internal/errors"
	"github.com/Proton-105/oficina-bot/internal/i18n"
	"github.com/Proton-105/oficina-bot/pkg/logger"
)

// ConversationDeps wires the text handler.
type ConversationDeps struct {
	Store      StateStore
	Locker     SessionLocker
	Turns      TurnHandler
	Queries    QueryLimiter
	ErrHandler *apperrors.Handler
	Translator i18n.Translator
	Logger     *slog.Logger
}

// NewConversationHandler feeds every plain text message to the assistant.
// Turns of the same chat never overlap: a message arriving while the
// previous one is still processed gets a "busy" reply.
func NewConversationHandler(deps ConversationDeps) Handler {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	tr := deps.Translator

	return func(c telebot.Context) error {
		ctx := chat.WithChannel(logger.WithCorrelationID(context.Background(), ""), chat.ChannelTelegram)
		sessionID := SessionID(c)

		unlock, err := deps.Locker.Lock(ctx, sessionID)
		if err != nil {
			if errors.Is(err, conversation.ErrLocked) {
				return c.Send(tr.T("bot.busy"))
			}
			return err
		}
		defer unlock()

		prior, err := deps.Store.Load(ctx, sessionID)
		if err != nil {
			if !errors.Is(err, conversation.ErrStateCorrupted) {
				return err
			}
			// the store already dropped it; tell the user the flow is gone
			return c.Send(tr.T("assistant.flow_error"), keyboard.MainMenu(tr))
		}

		if !prior.Active() && deps.Queries != nil && c.Sender() != nil {
			if !deps.Queries.AllowQuery(ctx, c.Sender().ID) {
				return c.Send(tr.T("bot.rate_limited"))
			}
		}

		result, err := deps.Turns.Handle(ctx, c.Text(), prior)
		if err != nil {
			msg, _ := deps.ErrHandler.Handle(ctx, err)
			return c.Send(msg, keyboard.ForState(tr, prior))
		}

		if err := deps.Store.Save(ctx, sessionID, result.State); err != nil {
			log.ErrorContext(ctx, "failed to save conversation state", slog.String("session_id", sessionID), slog.Any("error", err))
			return err
		}

		log.DebugContext(ctx, "assistant turn",
			slog.String("session_id", sessionID),
			slog.String("kind", string(result.Data.Kind)),
			slog.Int("step", stepOf(result.State)),
		)

		return c.Send(result.Reply, keyboard.ForState(tr, result.State))
	}
}

func stepOf(st *assistant.ConversationState) int {
	if st == nil {
		return 0
	}
	return st.Step
}

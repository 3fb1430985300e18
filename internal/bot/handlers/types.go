// Package handlers holds the Telegram command and message handlers.
package handlers

import (
	"context"
	"strconv"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/oficina-bot/internal/assistant"
)

// Handler processes one Telegram update.
type Handler func(c telebot.Context) error

// Middleware wraps handlers with additional behavior.
type Middleware func(Handler) Handler

// StateStore persists conversation state per session.
type StateStore interface {
	Load(ctx context.Context, sessionID string) (*assistant.ConversationState, error)
	Save(ctx context.Context, sessionID string, state *assistant.ConversationState) error
	Clear(ctx context.Context, sessionID string) error
}

// SessionLocker serializes turns of one session.
type SessionLocker interface {
	Lock(ctx context.Context, sessionID string) (func(), error)
}

// TurnHandler runs one assistant turn.
type TurnHandler interface {
	Handle(ctx context.Context, utterance string, prior *assistant.ConversationState) (*assistant.TurnResult, error)
}

// QueryLimiter rations turns that may reach the completion service.
type QueryLimiter interface {
	AllowQuery(ctx context.Context, userID int64) bool
}

// SessionID is the conversation key of a Telegram chat.
func SessionID(c telebot.Context) string {
	if chat := c.Chat(); chat != nil {
		return "tg:" + strconv.FormatInt(chat.ID, 10)
	}
	if sender := c.Sender(); sender != nil {
		return "tg:" + strconv.FormatInt(sender.ID, 10)
	}
	return ""
}

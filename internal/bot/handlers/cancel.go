package handlers

import (
	"context"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/oficina-bot/internal/bot/keyboard"
	"github.com/Proton-105/oficina-bot/internal/i18n"
)

// NewCancelHandler drops the chat's flow and returns to the main menu.
func NewCancelHandler(store StateStore, tr i18n.Translator, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		ctx := context.Background()
		sessionID := SessionID(c)

		// a corrupted state still counts as something to cancel
		prior, loadErr := store.Load(ctx, sessionID)

		if err := store.Clear(ctx, sessionID); err != nil {
			log.Error("failed to clear conversation state", slog.String("session_id", sessionID), slog.Any("error", err))
			return err
		}

		reply := tr.T("bot.nothing_to_cancel")
		if prior.Active() || loadErr != nil {
			reply = tr.T("assistant.cancelled")
		}

		return c.Send(reply, keyboard.MainMenu(tr))
	}
}

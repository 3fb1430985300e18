package handlers

import (
	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/oficina-bot/internal/bot/keyboard"
	"github.com/Proton-105/oficina-bot/internal/i18n"
)

// NewStartHandler greets the user with the main menu. Any flow in progress is kept.
func NewStartHandler(tr i18n.Translator) Handler {
	return func(c telebot.Context) error {
		return c.Send(tr.T("bot.welcome"), keyboard.MainMenu(tr))
	}
}

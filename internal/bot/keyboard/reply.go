// Package keyboard builds the reply keyboards shown under assistant messages.
package keyboard

import (
	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/oficina-bot/internal/assistant"
	"github.com/Proton-105/oficina-bot/internal/i18n"
)

// Customer flow steps that offer buttons.
const (
	stepConfirm        = 4
	stepChooseOptional = 5
)

// ForState picks the keyboard matching the conversation's next expected input.
func ForState(t i18n.Translator, st *assistant.ConversationState) *telebot.ReplyMarkup {
	switch {
	case !st.Active():
		return MainMenu(t)
	case st.Mode == assistant.ModeCustomer && st.Step == stepConfirm:
		return ConfirmMenu(t)
	case st.Mode == assistant.ModeCustomer && st.Step == stepChooseOptional:
		return OptionalFieldsMenu(t)
	default:
		return CancelOnly(t)
	}
}

// MainMenu lists the creation flows and two common questions.
func MainMenu(t i18n.Translator) *telebot.ReplyMarkup {
	markup := newMarkup()
	markup.Reply(
		markup.Row(markup.Text(lookup(t, "menu.new_customer")), markup.Text(lookup(t, "menu.new_work_order"))),
		markup.Row(markup.Text(lookup(t, "menu.new_product"))),
		markup.Row(markup.Text(lookup(t, "menu.low_stock")), markup.Text(lookup(t, "menu.revenue"))),
	)
	return markup
}

func ConfirmMenu(t i18n.Translator) *telebot.ReplyMarkup {
	markup := newMarkup()
	markup.Reply(
		markup.Row(markup.Text(lookup(t, "menu.confirm")), markup.Text(lookup(t, "menu.more"))),
		markup.Row(markup.Text(lookup(t, "menu.cancel"))),
	)
	return markup
}

func OptionalFieldsMenu(t i18n.Translator) *telebot.ReplyMarkup {
	markup := newMarkup()
	markup.Reply(
		markup.Row(
			markup.Text(lookup(t, "menu.email")),
			markup.Text(lookup(t, "menu.address")),
			markup.Text(lookup(t, "menu.notes")),
		),
		markup.Row(markup.Text(lookup(t, "menu.cancel"))),
	)
	return markup
}

// CancelOnly is shown while free text is expected.
func CancelOnly(t i18n.Translator) *telebot.ReplyMarkup {
	markup := newMarkup()
	markup.Reply(markup.Row(markup.Text(lookup(t, "menu.cancel"))))
	return markup
}

func newMarkup() *telebot.ReplyMarkup {
	return &telebot.ReplyMarkup{ResizeKeyboard: true}
}

func lookup(t i18n.Translator, key string) string {
	if t == nil {
		return key
	}
	return t.T(key)
}

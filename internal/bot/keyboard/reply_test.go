package keyboard_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/oficina-bot/internal/assistant"
	"github.com/Proton-105/oficina-bot/internal/bot/keyboard"
	"github.com/Proton-105/oficina-bot/internal/i18n"
)

func rows(markup *telebot.ReplyMarkup) [][]string {
	out := make([][]string, 0, len(markup.ReplyKeyboard))
	for _, row := range markup.ReplyKeyboard {
		texts := make([]string, 0, len(row))
		for _, btn := range row {
			texts = append(texts, btn.Text)
		}
		out = append(out, texts)
	}
	return out
}

func TestForState(t *testing.T) {
	tr := i18n.MustLoad("pt").Translator("pt")

	testCases := []struct {
		name  string
		state *assistant.ConversationState
		want  [][]string
	}{
		{
			name:  "idle",
			state: nil,
			want: [][]string{
				{"Novo cliente", "Nova OS"},
				{"Novo produto"},
				{"Produtos com estoque baixo", "Faturamento"},
			},
		},
		{
			name:  "confirmation",
			state: &assistant.ConversationState{Mode: assistant.ModeCustomer, Step: 4},
			want:  [][]string{{"Sim", "Mais"}, {"Cancelar"}},
		},
		{
			name:  "optional field choice",
			state: &assistant.ConversationState{Mode: assistant.ModeCustomer, Step: 5},
			want:  [][]string{{"Email", "Endereço", "Observações"}, {"Cancelar"}},
		},
		{
			name:  "free text step",
			state: &assistant.ConversationState{Mode: assistant.ModeCustomer, Step: 2},
			want:  [][]string{{"Cancelar"}},
		},
		{
			name:  "stub flow",
			state: &assistant.ConversationState{Mode: assistant.ModeProduct, Step: 1},
			want:  [][]string{{"Cancelar"}},
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			markup := keyboard.ForState(tr, tc.state)
			require.True(t, markup.ResizeKeyboard)
			assert.Equal(t, tc.want, rows(markup))
		})
	}
}

func TestMainMenu_WithoutTranslator(t *testing.T) {
	markup := keyboard.MainMenu(nil)
	assert.Equal(t, "menu.new_customer", markup.ReplyKeyboard[0][0].Text)
}

package bot

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/oficina-bot/internal/domain"
	apperrors "github.com/Proton-105/oficina-bot/internal/errors"
	"github.com/Proton-105/oficina-bot/internal/i18n"
)

func translator() i18n.Translator {
	return i18n.MustLoad("pt").Translator("pt")
}

type userContext struct {
	telebot.Context
	sender *telebot.User
	sent   []string
}

func (c *userContext) Sender() *telebot.User { return c.sender }
func (c *userContext) Chat() *telebot.Chat   { return &telebot.Chat{ID: c.sender.ID} }

func (c *userContext) Send(what interface{}, _ ...interface{}) error {
	c.sent = append(c.sent, what.(string))
	return nil
}

type staffMap map[int64]*domain.StaffUser

func (s staffMap) FindByTelegramID(_ context.Context, id int64) (*domain.StaffUser, error) {
	if id == 13 {
		return nil, errors.New("connection reset")
	}
	u, ok := s[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

func TestAuthMiddleware(t *testing.T) {
	staff := staffMap{
		1: {ID: 10, Name: "Ana", Active: true},
		2: {ID: 11, Name: "Bruno", Active: false},
	}

	tests := []struct {
		name    string
		userID  int64
		allowed bool
		wantErr bool
	}{
		{name: "active employee", userID: 1, allowed: true},
		{name: "inactive employee", userID: 2},
		{name: "unknown user", userID: 3},
		{name: "whitelisted", userID: 42, allowed: true},
		{name: "lookup failure", userID: 13, wantErr: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			called := false
			h := AuthMiddleware(staff, []int64{42}, translator(), testLogger())(func(telebot.Context) error {
				called = true
				return nil
			})

			c := &userContext{sender: &telebot.User{ID: tc.userID}}
			err := h(c)

			assert.Equal(t, tc.allowed, called)
			if tc.wantErr {
				var appErr *apperrors.AppError
				require.ErrorAs(t, err, &appErr)
				assert.Equal(t, apperrors.CodeDatabase, appErr.Code)
				return
			}

			require.NoError(t, err)
			if !tc.allowed {
				assert.Equal(t, []string{translator().T("bot.unauthorized")}, c.sent)
			}
		})
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	h := RecoveryMiddleware(testLogger(), apperrors.NewHandler(testLogger(), false), translator())(func(telebot.Context) error {
		panic("nil map")
	})

	c := &userContext{sender: &telebot.User{ID: 1}}
	require.NoError(t, h(c))
	require.Len(t, c.sent, 1)
	assert.NotEmpty(t, c.sent[0])
}

func TestErrorHandlingMiddleware(t *testing.T) {
	h := ErrorHandlingMiddleware(apperrors.NewHandler(testLogger(), false), translator())(func(telebot.Context) error {
		return apperrors.NewDatabaseError(errors.New("db down"))
	})

	c := &userContext{sender: &telebot.User{ID: 1}}
	require.NoError(t, h(c))
	assert.Equal(t, []string{"Problema temporário, tente novamente em instantes."}, c.sent)
}

package completion

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Proton-105/oficina-bot/internal/errors"
	"github.com/Proton-105/oficina-bot/pkg/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockChatAPI struct {
	mock.Mock
}

func (m *mockChatAPI) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(openai.ChatCompletionResponse), args.Error(1)
}

func reply(text string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: text}},
		},
	}
}

func TestClient_Complete(t *testing.T) {
	api := new(mockChatAPI)
	api.On("CreateChatCompletion", mock.Anything, mock.MatchedBy(func(req openai.ChatCompletionRequest) bool {
		return req.Model == "mistral-large-latest" &&
			req.MaxTokens == 500 &&
			len(req.Messages) == 1 &&
			req.Messages[0].Content == "quantos clientes?"
	})).Return(reply("  Temos 3 clientes.\n"), nil).Once()

	c := NewWithAPI(api, config.CompletionConfig{Model: "mistral-large-latest", Temperature: 0.3, MaxTokens: 500}, testLogger())

	answer, err := c.Complete(context.Background(), "quantos clientes?")
	require.NoError(t, err)
	assert.Equal(t, "Temos 3 clientes.", answer)
	api.AssertExpectations(t)
}

func TestClient_CompleteErrors(t *testing.T) {
	testCases := []struct {
		name string
		resp openai.ChatCompletionResponse
		err  error
	}{
		{name: "transport error", err: errors.New("connection reset")},
		{name: "no choices", resp: openai.ChatCompletionResponse{}},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			api := new(mockChatAPI)
			api.On("CreateChatCompletion", mock.Anything, mock.Anything).Return(tc.resp, tc.err)

			c := NewWithAPI(api, config.CompletionConfig{Model: "m"}, testLogger())
			_, err := c.Complete(context.Background(), "oi")

			var appErr *apperrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, apperrors.CodeExternalAPI, appErr.Code)
			assert.True(t, apperrors.IsRetryable(err))
		})
	}
}

func TestClient_BreakerOpens(t *testing.T) {
	api := new(mockChatAPI)
	api.On("CreateChatCompletion", mock.Anything, mock.Anything).Return(openai.ChatCompletionResponse{}, errors.New("503"))

	c := NewWithAPI(api, config.CompletionConfig{Model: "m"}, testLogger())
	for i := 0; i < apperrors.MinRequests; i++ {
		_, _ = c.Complete(context.Background(), "oi")
	}
	require.Equal(t, apperrors.StateOpen, c.State())

	_, err := c.Complete(context.Background(), "oi")
	assert.ErrorIs(t, err, apperrors.ErrCircuitOpen)
	api.AssertNumberOfCalls(t, "CreateChatCompletion", apperrors.MinRequests)
}

func TestNew_UsesBaseURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(reply("Nenhuma OS aberta."))
	}))
	t.Cleanup(srv.Close)

	c := New(config.CompletionConfig{APIKey: "secret", BaseURL: srv.URL + "/v1/", Model: "m"}, testLogger())

	answer, err := c.Complete(context.Background(), "quantas OS abertas?")
	require.NoError(t, err)
	assert.Equal(t, "Nenhuma OS aberta.", answer)
}

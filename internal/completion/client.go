// Package completion talks to an OpenAI-compatible chat completion API.
package completion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	apperrors "github.com/Proton-105/oficina-bot/internal/errors"
	"github.com/Proton-105/oficina-bot/pkg/config"
	"github.com/Proton-105/oficina-bot/pkg/metrics"
)

const serviceName = "completion"

var errEmptyChoices = errors.New("completion returned no choices")

// ChatAPI is the part of the go-openai client used here.
type ChatAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Client answers single-turn prompts. It implements assistant.Completer.
type Client struct {
	api         ChatAPI
	model       string
	temperature float32
	maxTokens   int
	breaker     *apperrors.CircuitBreaker
	log         *slog.Logger
}

// New builds a client for cfg. The API key may be empty for local gateways.
func New(cfg config.CompletionConfig, log *slog.Logger) *Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	return NewWithAPI(openai.NewClientWithConfig(clientCfg), cfg, log)
}

// NewWithAPI is New with an injected transport.
func NewWithAPI(api ChatAPI, cfg config.CompletionConfig, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}

	onStateChange := func(name string, from, to apperrors.State) {
		log.Warn("circuit breaker state changed",
			slog.String("breaker", name),
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
		metrics.SetCircuitState(name, int(to))
	}

	return &Client{
		api:         api,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		breaker:     apperrors.NewCircuitBreaker(serviceName, onStateChange),
		log:         log,
	}
}

// Complete sends prompt as a single user message and returns the first choice.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}

	var answer string
	start := time.Now()

	err := c.breaker.Call(func() error {
		resp, err := c.api.CreateChatCompletion(ctx, req)
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return errEmptyChoices
		}
		answer = strings.TrimSpace(resp.Choices[0].Message.Content)
		return nil
	})

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.ObserveCompletion(status, time.Since(start))

	if err != nil {
		c.log.Warn("completion request failed",
			slog.String("model", c.model),
			slog.Duration("duration", time.Since(start)),
			slog.Any("error", err),
		)
		return "", apperrors.NewExternalAPIError(serviceName, fmt.Errorf("chat completion: %w", err))
	}

	return answer, nil
}

// State exposes the breaker state for health reporting.
func (c *Client) State() apperrors.State {
	return c.breaker.State()
}

package bot

import (
	"fmt"
	"log/slog"
	"net/http"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/oficina-bot/internal/bot/handlers"
	apperrors "github.com/Proton-105/oficina-bot/internal/errors"
	"github.com/Proton-105/oficina-bot/internal/i18n"
	"github.com/Proton-105/oficina-bot/internal/idempotency"
	"github.com/Proton-105/oficina-bot/internal/middleware"
	"github.com/Proton-105/oficina-bot/pkg/config"
)

// Deps are the collaborators the Telegram transport needs.
type Deps struct {
	Store       handlers.StateStore
	Locker      handlers.SessionLocker
	Turns       handlers.TurnHandler
	Staff       StaffDirectory
	RateLimit   *middleware.RateLimitMiddleware
	Idempotency idempotency.Manager
	ErrHandler  *apperrors.Handler
	Translator  i18n.Translator
}

// Bot wraps telebot.Bot with application dependencies required for handling updates.
type Bot struct {
	telebot *telebot.Bot
	webhook *telebot.Webhook
	router  *Router
	log     *slog.Logger
}

// New builds a telegram bot instance configured according to the application settings.
// In webhook mode updates arrive through WebhookHandler instead of a listener of its own.
func New(cfg config.BotConfig, log *slog.Logger, deps Deps) (*Bot, error) {
	if log == nil {
		log = slog.Default()
	}

	settings := telebot.Settings{
		Token: cfg.Token,
		OnError: func(err error, c telebot.Context) {
			log.Error("telebot error", slog.Any("error", err))
		},
	}

	var webhook *telebot.Webhook
	if cfg.Mode == "webhook" {
		webhook = &telebot.Webhook{
			Endpoint: &telebot.WebhookEndpoint{PublicURL: cfg.WebhookURL},
		}
		settings.Poller = webhook
	} else {
		settings.Poller = &telebot.LongPoller{
			Timeout: cfg.Timeout,
		}
	}

	tb, err := telebot.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("initialize telebot: %w", err)
	}

	b := &Bot{
		telebot: tb,
		webhook: webhook,
		router:  NewRouter(log),
		log:     log,
	}

	b.setupRouter(cfg, deps)
	b.telebot.Handle(telebot.OnText, b.router.Route)

	return b, nil
}

// Start runs the telegram bot event loop. It blocks until Stop.
func (b *Bot) Start() {
	if b.telebot != nil {
		b.telebot.Start()
	}
}

// Stop gracefully stops the telegram bot.
func (b *Bot) Stop() {
	if b.telebot == nil {
		return
	}

	b.log.Info("stopping telegram bot...")
	b.telebot.Stop()
}

// Telebot exposes the underlying telebot.Bot instance for integrations such as health checks.
func (b *Bot) Telebot() *telebot.Bot {
	return b.telebot
}

// WebhookHandler receives Telegram updates in webhook mode; nil when polling.
func (b *Bot) WebhookHandler() http.Handler {
	if b.webhook == nil {
		return nil
	}
	return b.webhook
}

func (b *Bot) setupRouter(cfg config.BotConfig, deps Deps) {
	tr := deps.Translator

	b.router.Use(
		RecoveryMiddleware(b.log, deps.ErrHandler, tr),
		middleware.Idempotency(deps.Idempotency, b.log),
		ErrorHandlingMiddleware(deps.ErrHandler, tr),
		LoggingMiddleware(b.log),
		AuthMiddleware(deps.Staff, cfg.StaffIDs, tr, b.log),
		middleware.Metrics,
	)
	if deps.RateLimit != nil {
		b.router.Use(deps.RateLimit.Handle)
	}

	b.router.RegisterCommand(handlers.NewStartHandler(tr), CommandStart, CommandHelp)
	b.router.RegisterCommand(handlers.NewCancelHandler(deps.Store, tr, b.log), CommandCancel)

	var queries handlers.QueryLimiter
	if deps.RateLimit != nil {
		queries = deps.RateLimit
	}

	b.router.SetDefault(handlers.NewConversationHandler(handlers.ConversationDeps{
		Store:      deps.Store,
		Locker:     deps.Locker,
		Turns:      deps.Turns,
		Queries:    queries,
		ErrHandler: deps.ErrHandler,
		Translator: tr,
		Logger:     b.log,
	}))
}

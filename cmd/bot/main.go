package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	_ "github.com/lib/pq"

	"github.com/Proton-105/oficina-bot/internal/assistant"
	"github.com/Proton-105/oficina-bot/internal/bot"
	"github.com/Proton-105/oficina-bot/internal/chat"
	"github.com/Proton-105/oficina-bot/internal/completion"
	"github.com/Proton-105/oficina-bot/internal/conversation"
	"github.com/Proton-105/oficina-bot/internal/customer"
	"github.com/Proton-105/oficina-bot/internal/database"
	apperrors "github.com/Proton-105/oficina-bot/internal/errors"
	"github.com/Proton-105/oficina-bot/internal/health"
	"github.com/Proton-105/oficina-bot/internal/httpapi"
	"github.com/Proton-105/oficina-bot/internal/i18n"
	"github.com/Proton-105/oficina-bot/internal/idempotency"
	"github.com/Proton-105/oficina-bot/internal/jobs"
	jobhandlers "github.com/Proton-105/oficina-bot/internal/jobs/handlers"
	"github.com/Proton-105/oficina-bot/internal/lifecycle"
	"github.com/Proton-105/oficina-bot/internal/middleware"
	"github.com/Proton-105/oficina-bot/internal/ratelimit"
	"github.com/Proton-105/oficina-bot/internal/repository"
	"github.com/Proton-105/oficina-bot/internal/staffcache"
	"github.com/Proton-105/oficina-bot/pkg/config"
	"github.com/Proton-105/oficina-bot/pkg/graceful"
	"github.com/Proton-105/oficina-bot/pkg/logger"
	"github.com/Proton-105/oficina-bot/pkg/metrics"
	pkgredis "github.com/Proton-105/oficina-bot/pkg/redis"
)

const (
	staffCacheTTL       = 5 * time.Minute
	limiterCleanupEvery = time.Minute
	limiterMaxAge       = 10 * time.Minute
	metricsInterval     = 30 * time.Second
)

func main() {
	if err := run(); err != nil {
		slog.Error("oficina-bot stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, v, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.InitSentry(cfg.Sentry); err != nil {
		return fmt.Errorf("init sentry: %w", err)
	}

	log := logger.New(*cfg)
	slog.SetDefault(log)
	config.Watch(v, log, func(next *config.Config) {
		logger.SetLevel(next.Logger.Level)
	})

	log.Info("starting oficina-bot",
		slog.String("env", cfg.AppEnv),
		slog.String("http_port", cfg.Server.Port),
		slog.String("bot_mode", cfg.Bot.Mode),
	)

	db, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}

	if _, err := database.NewMigrator(db, log).Apply(ctx, os.DirFS(cfg.Database.MigrationsDir)); err != nil {
		_ = db.Close()
		return fmt.Errorf("apply migrations: %w", err)
	}

	rdb, err := pkgredis.New(ctx, cfg.Redis)
	if err != nil {
		_ = db.Close()
		return err
	}

	shutdown := lifecycle.NewShutdown(log)
	shutdown.Register(lifecycle.StageStores, "database", func(context.Context) error { return db.Close() })
	shutdown.Register(lifecycle.StageStores, "redis", func(context.Context) error { return rdb.Close() })

	lang := cfg.Assistant.Language
	catalog, err := i18n.Load(lang)
	if err != nil {
		return fmt.Errorf("load translations: %w", err)
	}
	tr := catalog.Translator(lang)

	errHandler := apperrors.NewHandler(log, cfg.Sentry.Enabled)

	// repositories
	customers := repository.NewCustomerRepository(db, log)
	staff := repository.NewStaffRepository(db, log)
	notifications := repository.NewNotificationRepository(db, log)
	snapshots := repository.NewSnapshotLoader(
		customers,
		repository.NewWorkOrderRepository(db, log),
		repository.NewProductRepository(db, log),
	)

	// jobs
	redisOpt := asynq.RedisClientOpt{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}
	jobManager := jobs.NewManager(redisOpt, log)
	shutdown.Register(lifecycle.StageStores, "jobs client", func(context.Context) error { return jobManager.Close() })

	// assistant
	completer := completion.New(cfg.Completion, log)
	router := assistant.NewRouter(tr, assistant.Options{
		Classifier:        assistant.NewClassifier(intentRules(cfg.Assistant.Intents)),
		Completer:         completer,
		CompletionTimeout: cfg.Assistant.CompletionTimeout,
		Logger:            log,
	})
	customerService := customer.NewService(customers, jobs.NewCustomerNotifier(jobManager), log)
	chatService := chat.NewService(router, snapshots, customerService, errHandler, tr, cfg.Assistant.SnapshotTimeout, log)

	// shared redis-backed infrastructure
	store := conversation.NewStore(rdb.Client, cfg.Conversation.StateTTL, log)
	locker := conversation.NewLocker(rdb.Client, cfg.Conversation.LockTTL, log)
	idem := idempotency.NewManager(idempotency.NewRedisStore(rdb.Client, log), log)

	memoryLimiter := ratelimit.NewMemoryLimiter()
	go ratelimit.RunCleanup(ctx, memoryLimiter, limiterCleanupEvery, limiterMaxAge, log)
	limiter := ratelimit.NewAdaptiveLimiter(ratelimit.NewRedisLimiter(rdb.Client, log), memoryLimiter, log)
	rateLimit := middleware.NewRateLimitMiddleware(limiter, ratelimit.NewRules(cfg.RateLimit), tr, log)

	go metrics.NewConversationCollector(store, metricsInterval).Run(ctx)

	checker := health.NewChecker(log)
	checker.AddCheck("database", health.NewDBChecker(db))
	checker.AddCheck("redis", health.NewRedisChecker(rdb.Client))
	checker.AddCheck("completion", health.CheckFunc(func(context.Context) error {
		if completer.State() == apperrors.StateOpen {
			return errors.New("circuit breaker open")
		}
		return nil
	}))

	// telegram
	var webhook http.Handler
	if cfg.Bot.Token != "" {
		tgBot, err := bot.New(cfg.Bot, log, bot.Deps{
			Store:       store,
			Locker:      locker,
			Turns:       chatService,
			Staff:       staffcache.New(rdb.Client, staff, staffCacheTTL, log),
			RateLimit:   rateLimit,
			Idempotency: idem,
			ErrHandler:  errHandler,
			Translator:  tr,
		})
		if err != nil {
			return err
		}

		checker.AddCheck("telegram", health.NewTelegramChecker(tgBot.Telebot()))
		webhook = tgBot.WebhookHandler()

		go tgBot.Start()
		shutdown.Register(lifecycle.StageIntake, "telegram", func(context.Context) error {
			tgBot.Stop()
			return nil
		})
	} else {
		log.Warn("bot token is empty, telegram transport disabled")
	}

	// background jobs
	if cfg.Jobs.Enabled {
		worker := jobs.NewWorker(redisOpt, cfg.Jobs, log)
		worker.RegisterHandler(jobs.TaskTypeCustomerCreated, jobhandlers.NewCustomerCreatedHandler(staff, notifications, tr, log))
		worker.RegisterHandler(jobs.TaskTypeNotificationCheck, jobhandlers.NewNotificationCheckHandler(staff, snapshots, notifications, tr, log))

		go func() {
			if err := worker.Run(); err != nil {
				log.Error("jobs worker stopped", slog.Any("error", err))
			}
		}()
		shutdown.Register(lifecycle.StageWorkers, "jobs worker", func(context.Context) error {
			worker.Shutdown()
			return nil
		})

		scheduler := jobs.NewScheduler(redisOpt, cfg.Jobs.NotificationCheck, log)
		if err := scheduler.RegisterTasks(); err != nil {
			return fmt.Errorf("register scheduled tasks: %w", err)
		}
		scheduler.Run()
		shutdown.Register(lifecycle.StageWorkers, "scheduler", func(context.Context) error {
			scheduler.Shutdown()
			return nil
		})
	}

	// http
	engine := httpapi.NewRouter(httpapi.RouterOptions{
		Handler:   httpapi.NewHandler(chatService, idem, errHandler, tr, log),
		Health:    checker,
		RateLimit: rateLimit,
		Webhook:   webhook,
		Logger:    log,
	})
	server := graceful.NewServer(log, &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      logger.Middleware(engine),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, cfg.Server.ShutdownTimeout)

	serveErr := server.ListenAndServe(ctx)
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	log.Info("oficina-bot shutting down")
	return errors.Join(serveErr, shutdown.Execute(shutdownCtx))
}

func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLife)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

func intentRules(cfg []config.IntentRuleConfig) []assistant.IntentRule {
	rules := make([]assistant.IntentRule, 0, len(cfg))
	for _, r := range cfg {
		rules = append(rules, assistant.IntentRule{Intent: assistant.Intent(r.Intent), Phrases: r.Phrases})
	}
	return rules
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Proton-105/shop-bot/internal/bot"
	"github.com/Proton-105/shop-bot/internal/catalog"
	apperrors "github.com/Proton-105/shop-bot/internal/errors"
	"github.com/Proton-105/shop-bot/internal/health"
	"github.com/Proton-105/shop-bot/internal/i18n"
	"github.com/Proton-105/shop-bot/internal/idempotency"
	"github.com/Proton-105/shop-bot/internal/lifecycle"
	"github.com/Proton-105/shop-bot/internal/middleware"
	"github.com/Proton-105/shop-bot/internal/ratelimit"
	"github.com/Proton-105/shop-bot/internal/shop"
	"github.com/Proton-105/shop-bot/internal/state"
	"github.com/Proton-105/shop-bot/pkg/config"
	"github.com/Proton-105/shop-bot/pkg/graceful"
	"github.com/Proton-105/shop-bot/pkg/logger"
	"github.com/Proton-105/shop-bot/pkg/metrics"
	redisclient "github.com/Proton-105/shop-bot/pkg/redis"
)

const (
	stateCollectInterval  = 30 * time.Second
	cleanupInterval       = 10 * time.Minute
	rateLimitEntryMaxAge  = time.Hour
	idempotencyCleanupTTL = 48 * time.Hour
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "shop bot: %v\n", err)
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

	if cfg.Sentry.Enabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: sentryEnvironment(cfg),
			SampleRate:  cfg.Sentry.SampleRate,
		}); err != nil {
			return fmt.Errorf("init sentry: %w", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	log := logger.New(*cfg)
	slog.SetDefault(log)

	config.Watch(v, func(next *config.Config) {
		logger.SetLevel(next.Logger.Level)
		log.Info("configuration reloaded", slog.String("log_level", next.Logger.Level))
	})

	log.Info("starting shop bot",
		slog.String("mode", cfg.Bot.Mode),
		slog.String("storage", cfg.Storage.Driver),
		slog.String("language", cfg.Bot.Language),
	)

	shutdown := lifecycle.NewShutdown(log)
	checker := health.NewChecker(log)

	var rdb *redisclient.Client
	if cfg.UsesRedis() {
		rdb, err = redisclient.New(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		shutdown.Register(lifecycle.PhaseResources, "redis", func(context.Context) error {
			return rdb.Close()
		})
		checker.AddCheck("redis", health.NewRedisChecker(rdb))
	}

	var store state.Storage
	if cfg.Storage.Driver == "redis" {
		store = state.NewRedisStorage(rdb.Client, log)
	} else {
		store = state.NewMemoryStorage()
	}

	translations, err := i18n.Load(cfg.Bot.Language)
	if err != nil {
		return fmt.Errorf("load translations: %w", err)
	}
	tr := translations.Translator(cfg.Bot.Language)

	catalogClient := catalog.NewClient(cfg.Catalog, log)
	checker.AddCheck("catalog", catalogClient)

	tgBot, err := bot.New(*cfg, log)
	if err != nil {
		return err
	}
	checker.AddCheck("telegram", health.NewTelegramChecker(tgBot.Telebot()))

	errHandler := apperrors.NewHandler(log, cfg.Sentry.Enabled)
	reporter := bot.NewReporter(errHandler, tgBot.Telebot(), cfg.Bot.NotifyUserOnError, log)
	executor := bot.NewExecutor(tgBot.Telebot(), tr, log)

	engineOpts := []shop.EngineOption{
		shop.WithObserver(reporter),
		shop.WithLogger(log),
	}
	if cfg.Bot.SerializePerUser {
		engineOpts = append(engineOpts, shop.WithLocker(shop.NewUserLocker()))
	}
	engine := shop.NewEngine(shop.NewMachine(catalogClient, tr), store, executor, engineOpts...)

	var workers sync.WaitGroup
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	startWorker := func(fn func(context.Context)) {
		workers.Add(1)
		go func() {
			defer workers.Done()
			fn(workerCtx)
		}()
	}

	deps := bot.Deps{Processor: engine, Reporter: reporter}

	if cfg.Idempotency.Enabled {
		deps.Idempotency = idempotency.NewManager(idempotency.NewRedisStore(rdb.Client, log), cfg.Idempotency.TTL, log)
		startWorker(idempotency.NewCleaner(rdb.Client, log, cleanupInterval, idempotencyCleanupTTL).Run)
	}

	if cfg.RateLimit.Enabled {
		policy, err := ratelimit.NewPolicy(cfg.RateLimit)
		if err != nil {
			return fmt.Errorf("rate limit policy: %w", err)
		}

		memory := ratelimit.NewMemoryLimiter()
		limiter := ratelimit.NewFallbackLimiter(ratelimit.NewRedisLimiter(rdb.Client, log), memory, log)
		deps.RateLimit = middleware.NewRateLimitMiddleware(limiter, policy, reporter.ReportUpdate, log)
		startWorker(ratelimit.NewCleaner(rdb.Client, memory, log, cleanupInterval, rateLimitEntryMaxAge).Run)
	}

	startWorker(metrics.NewStateCollector(store, log, stateCollectInterval).Run)

	tgBot.Mount(deps)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", checker.Handler())

	server := graceful.NewServer(log, &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           logger.Middleware(middleware.HTTPLogging(log)(mux)),
		ReadHeaderTimeout: 5 * time.Second,
	}, cfg.Server.ShutdownTimeout)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe(ctx)
	}()

	go tgBot.Start()

	shutdown.Register(lifecycle.PhaseIntake, "telegram", func(context.Context) error {
		tgBot.Stop()
		return nil
	})
	shutdown.Register(lifecycle.PhaseIntake, "http", func(context.Context) error {
		return <-serverErr
	})
	shutdown.Register(lifecycle.PhaseWorkers, "workers", func(ctx context.Context) error {
		stopWorkers()

		done := make(chan struct{})
		go func() {
			workers.Wait()
			close(done)
		}()

		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serverErr:
		runErr = err
		serverErr <- nil
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := shutdown.Execute(shutdownCtx); err != nil {
		runErr = errors.Join(runErr, err)
	}

	log.Info("shop bot stopped")
	return runErr
}

func sentryEnvironment(cfg *config.Config) string {
	if cfg.Sentry.Environment != "" {
		return cfg.Sentry.Environment
	}
	return cfg.AppEnv
}

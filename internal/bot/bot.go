package bot

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	telebot "gopkg.in/telebot.v3"

	apperrors "github.com/Proton-105/shop-bot/internal/errors"
	"github.com/Proton-105/shop-bot/internal/idempotency"
	"github.com/Proton-105/shop-bot/internal/middleware"
	"github.com/Proton-105/shop-bot/pkg/config"
)

// Option customizes the underlying telebot settings.
type Option func(*telebot.Settings)

// WithOffline skips the getMe call made at construction.
func WithOffline() Option {
	return func(s *telebot.Settings) { s.Offline = true }
}

// Deps are the components an update passes through once the bot is mounted.
type Deps struct {
	Processor   Processor
	Reporter    *Reporter
	Idempotency idempotency.Manager
	RateLimit   *middleware.RateLimitMiddleware
}

// Bot wraps telebot.Bot with the update router.
type Bot struct {
	telebot *telebot.Bot
	router  *Router
	log     *slog.Logger
	cfg     config.Config
	started atomic.Bool
}

// New builds a telegram bot configured for polling or webhook delivery.
func New(cfg config.Config, log *slog.Logger, opts ...Option) (*Bot, error) {
	if log == nil {
		log = slog.Default()
	}

	settings := telebot.Settings{
		Token: cfg.Bot.Token,
		OnError: func(err error, c telebot.Context) {
			log.Error("telebot error", slog.Any("error", err))
		},
	}

	if cfg.Bot.Mode == "webhook" {
		settings.Poller = &telebot.Webhook{
			Listen:   cfg.Bot.WebhookListen,
			Endpoint: &telebot.WebhookEndpoint{PublicURL: cfg.Bot.WebhookURL},
		}
	} else {
		settings.Poller = &telebot.LongPoller{
			Timeout: cfg.Bot.Timeout,
		}
	}

	for _, opt := range opts {
		opt(&settings)
	}

	tb, err := telebot.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("initialize telebot: %w", err)
	}

	return &Bot{
		telebot: tb,
		log:     log,
		cfg:     cfg,
	}, nil
}

// Mount builds the middleware chain around d.Processor and registers it for the start
// command, text messages and button presses.
func (b *Bot) Mount(d Deps) {
	router := NewRouter(d.Processor, b.log)

	var report func(telebot.Context, *apperrors.AppError)
	if d.Reporter != nil {
		report = d.Reporter.ReportUpdate
	}

	router.Use(CallbackAckMiddleware(b.telebot, b.log))
	router.Use(RecoveryMiddleware(b.log, report))
	router.Use(middleware.Idempotency(d.Idempotency, b.log))
	router.Use(LoggingMiddleware(b.log))
	if d.RateLimit != nil {
		router.Use(d.RateLimit.Handle)
	}
	router.Use(middleware.Metrics)

	b.router = router
	b.telebot.Handle(CommandStart, router.Route)
	b.telebot.Handle(telebot.OnText, router.Route)
	b.telebot.Handle(telebot.OnCallback, router.Route)
}

// Start runs the update loop until Stop is called.
func (b *Bot) Start() {
	if b.telebot == nil {
		return
	}

	b.started.Store(true)
	b.log.Info("telegram bot started", slog.String("mode", b.cfg.Bot.Mode))
	b.telebot.Start()
}

// Stop gracefully stops the telegram bot. It is a no-op for a bot that was never started.
func (b *Bot) Stop() {
	if b.telebot == nil || !b.started.CompareAndSwap(true, false) {
		return
	}

	b.log.Info("stopping telegram bot...")
	b.telebot.Stop()
}

// Telebot exposes the underlying telebot.Bot instance for integrations such as health checks.
func (b *Bot) Telebot() *telebot.Bot {
	return b.telebot
}

// Router returns the mounted router, or nil before Mount.
func (b *Bot) Router() *Router {
	return b.router
}

package bot

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/shop-bot/internal/bot/handlers"
	"github.com/Proton-105/shop-bot/internal/shop"
	"github.com/Proton-105/shop-bot/pkg/logger"
)

// Processor consumes normalized dialog events.
type Processor interface {
	Process(ctx context.Context, ev shop.Event) error
}

// Router turns telegram updates into dialog events and runs them through the middleware chain.
type Router struct {
	mu          sync.RWMutex
	processor   Processor
	middlewares []handlers.Middleware
	log         *slog.Logger
}

// NewRouter builds a Router delivering events to processor.
func NewRouter(processor Processor, log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}

	return &Router{
		processor:   processor,
		middlewares: make([]handlers.Middleware, 0),
		log:         log,
	}
}

// Use appends a middleware to the chain. The first registered middleware is the outermost.
func (r *Router) Use(mw handlers.Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middlewares = append(r.middlewares, mw)
}

// Route handles one update. Failures are reported inside the chain, so Route always returns nil.
func (r *Router) Route(c telebot.Context) error {
	if c == nil {
		return nil
	}

	ctx := logger.WithCorrelationID(handlers.Context(c))
	handlers.WithContext(c, ctx)

	h := handlers.Chain(r.dispatch, r.middlewaresSnapshot()...)
	if err := h(c); err != nil {
		r.log.DebugContext(ctx, "update finished with error",
			slog.Int64("user_id", handlers.UserID(c)),
			slog.String("kind", handlers.UpdateKind(c)),
			slog.Any("error", err),
		)
	}

	return nil
}

func (r *Router) dispatch(c telebot.Context) error {
	ev, ok := NormalizeUpdate(c)
	if !ok {
		r.log.DebugContext(handlers.Context(c), "unsupported update skipped")
		return nil
	}

	if r.processor == nil {
		return nil
	}

	return r.processor.Process(handlers.Context(c), ev)
}

func (r *Router) middlewaresSnapshot() []handlers.Middleware {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.middlewares) == 0 {
		return nil
	}

	snapshot := make([]handlers.Middleware, len(r.middlewares))
	copy(snapshot, r.middlewares)
	return snapshot
}

// NormalizeUpdate converts a callback into a ButtonPress and any text message into a
// TextMessage. The user is identified by the chat the update belongs to.
func NormalizeUpdate(c telebot.Context) (shop.Event, bool) {
	if c == nil {
		return nil, false
	}

	userID := chatID(c)
	if userID == 0 {
		return nil, false
	}

	if cb := c.Callback(); cb != nil {
		press := shop.ButtonPress{
			UserID:     userID,
			Payload:    cb.Data,
			CallbackID: cb.ID,
		}
		if cb.Message != nil {
			press.MessageID = cb.Message.ID
		}
		return press, true
	}

	msg := c.Message()
	if msg == nil {
		return nil, false
	}

	text := msg.Text
	if isStartCommand(text) {
		text = shop.StartCommand
	}

	return shop.TextMessage{UserID: userID, Text: text}, true
}

func chatID(c telebot.Context) int64 {
	if chat := c.Chat(); chat != nil && chat.ID != 0 {
		return chat.ID
	}
	return handlers.UserID(c)
}

// isStartCommand accepts "/start", "/start@botname" and "/start <payload>".
func isStartCommand(text string) bool {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return false
	}

	cmd, _, _ := strings.Cut(fields[0], "@")
	return cmd == CommandStart
}

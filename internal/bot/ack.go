package bot

import (
	"context"
	"log/slog"
	"sync/atomic"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/shop-bot/internal/bot/handlers"
)

// Responder answers callback queries.
type Responder interface {
	Respond(c *telebot.Callback, resp ...*telebot.CallbackResponse) error
}

type ackKey struct{}

// callbackAck records whether the callback of the current update has been answered.
type callbackAck struct {
	answered atomic.Bool
}

// claimAnswer reports whether the caller is the first to answer the callback carried by ctx.
// Without a tracker in ctx every caller may answer.
func claimAnswer(ctx context.Context) bool {
	ack, ok := ctx.Value(ackKey{}).(*callbackAck)
	if !ok || ack == nil {
		return true
	}
	return ack.answered.CompareAndSwap(false, true)
}

// CallbackAckMiddleware answers a button press that is still unanswered once the rest of
// the chain returns, whether the update was dropped, failed or panicked further in.
func CallbackAckMiddleware(api Responder, log *slog.Logger) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			if c == nil || api == nil {
				return next(c)
			}

			cb := c.Callback()
			if cb == nil || cb.ID == "" {
				return next(c)
			}

			ack := &callbackAck{}
			ctx := context.WithValue(handlers.Context(c), ackKey{}, ack)
			handlers.WithContext(c, ctx)

			defer func() {
				if !ack.answered.CompareAndSwap(false, true) {
					return
				}
				if err := api.Respond(&telebot.Callback{ID: cb.ID}, &telebot.CallbackResponse{}); err != nil {
					log.WarnContext(ctx, "failed to answer callback",
						slog.Int64("user_id", handlers.UserID(c)),
						slog.Any("error", err),
					)
				}
			}()

			return next(c)
		}
	}
}

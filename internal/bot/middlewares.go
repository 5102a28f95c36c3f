package bot

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/shop-bot/internal/bot/handlers"
	apperrors "github.com/Proton-105/shop-bot/internal/errors"
)

// RecoveryMiddleware turns a panic in the chain into an internal error handed to report.
func RecoveryMiddleware(log *slog.Logger, report func(c telebot.Context, err *apperrors.AppError)) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}

				log.ErrorContext(handlers.Context(c), "panic recovered in handler",
					slog.Any("panic", r),
					slog.String("stack", string(debug.Stack())),
				)

				appErr := apperrors.NewInternalError(fmt.Errorf("panic recovered: %v", r))
				if report != nil {
					report(c, appErr)
				}
				err = appErr
			}()

			return next(c)
		}
	}
}

// LoggingMiddleware logs every update with its outcome and duration.
func LoggingMiddleware(log *slog.Logger) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			start := time.Now()
			ctx := handlers.Context(c)
			userID := handlers.UserID(c)

			action := ""
			if c != nil {
				if cb := c.Callback(); cb != nil {
					action = cb.Data
				} else {
					action = c.Text()
				}
			}

			log.DebugContext(ctx, "handling update",
				slog.Int64("user_id", userID),
				slog.String("kind", handlers.UpdateKind(c)),
				slog.String("action", action),
			)

			err := next(c)

			log.InfoContext(ctx, "handled update",
				slog.Int64("user_id", userID),
				slog.String("kind", handlers.UpdateKind(c)),
				slog.String("action", action),
				slog.Duration("duration", time.Since(start)),
				slog.Any("error", err),
			)

			return err
		}
	}
}

package middleware

import (
	"errors"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/shop-bot/internal/bot/handlers"
	apperrors "github.com/Proton-105/shop-bot/internal/errors"
	"github.com/Proton-105/shop-bot/pkg/metrics"
)

// Metrics measures execution time and outcome of every update.
func Metrics(next handlers.Handler) handlers.Handler {
	if next == nil {
		return nil
	}

	return func(c telebot.Context) error {
		start := time.Now()
		err := next(c)

		metrics.RecordUpdate(handlers.UpdateKind(c), statusOf(err), time.Since(start))

		return err
	}
}

func statusOf(err error) string {
	if err == nil {
		return "ok"
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return string(appErr.Kind)
	}
	return "error"
}

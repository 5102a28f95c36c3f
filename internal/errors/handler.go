package errors

import (
	"context"
	"errors"
	"log/slog"

	"github.com/getsentry/sentry-go"

	"github.com/Proton-105/shop-bot/pkg/logger"
	"github.com/Proton-105/shop-bot/pkg/metrics"
)

const defaultUserMessage = "Something went wrong. Please try again later."

// Handler is the single sink for per-update failures.
type Handler struct {
	log           *slog.Logger
	sentryEnabled bool
}

func NewHandler(log *slog.Logger, sentryEnabled bool) *Handler {
	if log == nil {
		log = slog.Default()
	}

	return &Handler{
		log:           log,
		sentryEnabled: sentryEnabled,
	}
}

// Handle logs err, records it in metrics, reports severe errors to Sentry and returns
// the message that may be shown to the user together with the retryable flag.
// Errors outside the taxonomy are handled as internal errors.
func (h *Handler) Handle(ctx context.Context, err error) (string, bool) {
	if err == nil {
		return "", false
	}

	if ctx == nil {
		ctx = context.Background()
	}

	appErr := asAppError(err)

	attrs := []slog.Attr{
		slog.String("code", appErr.Code),
		slog.String("kind", string(appErr.Kind)),
		slog.String("message", err.Error()),
		slog.String("severity", string(appErr.Severity)),
		slog.Bool("retryable", appErr.Retryable),
	}
	if correlationID := logger.CorrelationIDFromContext(ctx); correlationID != "" {
		attrs = append(attrs, slog.String("correlation_id", correlationID))
	}

	h.log.LogAttrs(ctx, levelOf(appErr.Severity), "application error", attrs...)
	metrics.RecordError(string(appErr.Kind), string(appErr.Severity))

	if h.sentryEnabled && (appErr.Severity == SeverityCritical || appErr.Severity == SeverityHigh) {
		h.sendToSentry(appErr)
	}

	if appErr.UserMessage == "" {
		return defaultUserMessage, appErr.Retryable
	}
	return appErr.UserMessage, appErr.Retryable
}

func asAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr != nil {
		return appErr
	}
	return NewInternalError(err)
}

func levelOf(severity Severity) slog.Level {
	if severity == SeverityLow {
		return slog.LevelWarn
	}
	return slog.LevelError
}

func (h *Handler) sendToSentry(appErr *AppError) {
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("code", appErr.Code)
		scope.SetTag("kind", string(appErr.Kind))
		scope.SetTag("severity", string(appErr.Severity))

		sentry.CaptureException(appErr)
	})
}

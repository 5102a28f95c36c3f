package bot

import (
	"context"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/shop-bot/internal/bot/handlers"
	apperrors "github.com/Proton-105/shop-bot/internal/errors"
	"github.com/Proton-105/shop-bot/internal/shop"
)

// Sender delivers plain text to a chat.
type Sender interface {
	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
}

// Reporter hands failed updates to the error handler and, when enabled, tells the user.
type Reporter struct {
	handler *apperrors.Handler
	sender  Sender
	notify  bool
	log     *slog.Logger
}

var _ shop.Observer = (*Reporter)(nil)

// NewReporter creates a Reporter. With notify unset failures are only logged and counted.
func NewReporter(handler *apperrors.Handler, sender Sender, notify bool, log *slog.Logger) *Reporter {
	if log == nil {
		log = slog.Default()
	}

	return &Reporter{
		handler: handler,
		sender:  sender,
		notify:  notify,
		log:     log,
	}
}

// Observe implements shop.Observer.
func (r *Reporter) Observe(ctx context.Context, ev shop.Event, err *apperrors.AppError) {
	r.report(ctx, ev.User(), err)
}

// ReportUpdate reports a failure raised by a transport middleware for update c.
func (r *Reporter) ReportUpdate(c telebot.Context, err *apperrors.AppError) {
	r.report(handlers.Context(c), handlers.UserID(c), err)
}

func (r *Reporter) report(ctx context.Context, userID int64, err *apperrors.AppError) {
	if err == nil {
		return
	}

	msg := err.UserMessage
	if r.handler != nil {
		msg, _ = r.handler.Handle(ctx, err)
	}

	if !r.notify || r.sender == nil || userID == 0 || err.Kind == apperrors.KindTransport || msg == "" {
		return
	}

	if _, sendErr := r.sender.Send(telebot.ChatID(userID), msg); sendErr != nil {
		r.log.WarnContext(ctx, "failed to notify user about error",
			slog.Int64("user_id", userID),
			slog.String("code", err.Code),
			slog.Any("error", sendErr),
		)
	}
}

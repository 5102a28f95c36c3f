package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/shop-bot/internal/bot/keyboard"
	"github.com/Proton-105/shop-bot/internal/i18n"
	"github.com/Proton-105/shop-bot/internal/shop"
)

// API is the part of telebot.Bot the executor talks to.
type API interface {
	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
	Delete(msg telebot.Editable) error
	Respond(c *telebot.Callback, resp ...*telebot.CallbackResponse) error
}

var _ API = (*telebot.Bot)(nil)

// Executor realizes dialog actions as telegram API calls.
type Executor struct {
	api API
	tr  i18n.Translator
	log *slog.Logger
}

var _ shop.Executor = (*Executor)(nil)

// NewExecutor builds an executor sending through api.
func NewExecutor(api API, tr i18n.Translator, log *slog.Logger) *Executor {
	if log == nil {
		log = slog.Default()
	}

	return &Executor{api: api, tr: tr, log: log}
}

// Execute sends the reply for ev. Every button press is acknowledged, even when sending fails.
func (e *Executor) Execute(ctx context.Context, ev shop.Event, action shop.Action) error {
	chat := telebot.ChatID(ev.User())
	press, isPress := ev.(shop.ButtonPress)

	var err error
	switch a := action.(type) {
	case shop.ReplyText:
		err = e.sendText(chat, a.Text, a.Keyboard)
	case shop.ReplacePhoto:
		if err = e.deleteMessage(ctx, chat, press); err == nil {
			err = e.sendPhoto(chat, a.PhotoURL, a.Caption, a.Keyboard)
		}
	case shop.ReplyTextReplacingPrior:
		if err = e.deleteMessage(ctx, chat, press); err == nil {
			err = e.sendText(chat, a.Text, a.Keyboard)
		}
	case shop.NoReply:
	default:
		err = fmt.Errorf("unsupported action %T", action)
	}

	if isPress {
		e.answer(ctx, press, action)
	}

	return err
}

func (e *Executor) sendText(chat telebot.ChatID, text string, kb shop.Keyboard) error {
	markup, err := keyboard.Render(kb)
	if err != nil {
		return fmt.Errorf("render keyboard: %w", err)
	}

	if _, err := e.api.Send(chat, text, markup); err != nil {
		return fmt.Errorf("send text: %w", err)
	}
	return nil
}

func (e *Executor) sendPhoto(chat telebot.ChatID, url, caption string, kb shop.Keyboard) error {
	markup, err := keyboard.Render(kb)
	if err != nil {
		return fmt.Errorf("render keyboard: %w", err)
	}

	photo := &telebot.Photo{File: telebot.FromURL(url), Caption: caption}
	if _, err := e.api.Send(chat, photo, markup); err != nil {
		return fmt.Errorf("send photo: %w", err)
	}
	return nil
}

// deleteMessage removes the message carrying the pressed button. A message that is already
// gone or too old to delete is skipped and the reply is still sent.
func (e *Executor) deleteMessage(ctx context.Context, chat telebot.ChatID, press shop.ButtonPress) error {
	if press.MessageID == 0 {
		return nil
	}

	msg := telebot.StoredMessage{
		MessageID: strconv.Itoa(press.MessageID),
		ChatID:    int64(chat),
	}

	err := e.api.Delete(msg)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, telebot.ErrNotFoundToDelete), errors.Is(err, telebot.ErrNoRightsToDelete):
		e.log.WarnContext(ctx, "prior message not deleted",
			slog.Int64("user_id", int64(chat)),
			slog.Int("message_id", press.MessageID),
			slog.Any("error", err),
		)
		return nil
	default:
		return fmt.Errorf("delete message: %w", err)
	}
}

func (e *Executor) answer(ctx context.Context, press shop.ButtonPress, action shop.Action) {
	if press.CallbackID == "" || !claimAnswer(ctx) {
		return
	}

	resp := &telebot.CallbackResponse{}
	if _, ok := action.(shop.NoReply); ok && e.tr != nil {
		resp.Text = e.tr.T("toast.added")
	}

	if err := e.api.Respond(&telebot.Callback{ID: press.CallbackID}, resp); err != nil {
		e.log.WarnContext(ctx, "failed to answer callback",
			slog.Int64("user_id", press.UserID),
			slog.Any("error", err),
		)
	}
}

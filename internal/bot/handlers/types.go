// Package handlers defines the handler and middleware shapes shared by the transport layer.
package handlers

import (
	"context"

	telebot "gopkg.in/telebot.v3"
)

const contextKey = "shop.ctx"

// Handler processes one telegram update.
type Handler func(c telebot.Context) error

// Middleware wraps handlers with additional behavior.
type Middleware func(Handler) Handler

// Chain applies middlewares so that the first one is the outermost.
func Chain(h Handler, middlewares ...Middleware) Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		if middlewares[i] != nil {
			h = middlewares[i](h)
		}
	}
	return h
}

// WithContext attaches a request context to the update.
func WithContext(c telebot.Context, ctx context.Context) {
	c.Set(contextKey, ctx)
}

// Context returns the request context attached to the update, or context.Background.
func Context(c telebot.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if ctx, ok := c.Get(contextKey).(context.Context); ok && ctx != nil {
		return ctx
	}
	return context.Background()
}

// UserID returns the sender id, or 0 for updates without a sender.
func UserID(c telebot.Context) int64 {
	if c == nil || c.Sender() == nil {
		return 0
	}
	return c.Sender().ID
}

// UpdateKind labels the update for logs and metrics.
func UpdateKind(c telebot.Context) string {
	switch {
	case c == nil:
		return "unknown"
	case c.Callback() != nil:
		return "button"
	case c.Message() != nil && c.Message().Text == "/start":
		return "command"
	case c.Message() != nil:
		return "text"
	default:
		return "unknown"
	}
}

// Package shop implements the shopping dialog: the per-state handlers, the views they
// render and the engine that loads, dispatches and persists one event at a time.
package shop

// StartCommand forces the dialog back to the product menu from any state.
const StartCommand = "/start"

// Event is an inbound user event. The set of implementations is closed.
type Event interface {
	User() int64
	isEvent()
}

// TextMessage is free text typed by the user.
type TextMessage struct {
	UserID int64
	Text   string
}

// ButtonPress is a tap on an inline button.
type ButtonPress struct {
	UserID  int64
	Payload string
	// MessageID identifies the message carrying the button; it is replaced by the reply.
	MessageID int
	// CallbackID is the transport handle used to acknowledge the press.
	CallbackID string
}

func (e TextMessage) User() int64 { return e.UserID }
func (e ButtonPress) User() int64 { return e.UserID }

func (TextMessage) isEvent() {}
func (ButtonPress) isEvent() {}

func isStartCommand(ev Event) bool {
	msg, ok := ev.(TextMessage)
	return ok && msg.Text == StartCommand
}

// EventKind names the event type for logs and metrics.
func EventKind(ev Event) string {
	switch ev.(type) {
	case TextMessage:
		return "text"
	case ButtonPress:
		return "button"
	default:
		return "unknown"
	}
}

// Package keyboard renders dialog keyboards as telegram inline markup.
package keyboard

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// CallbackDataLimitBytes is the telegram limit for inline button callback data.
const CallbackDataLimitBytes = 64

var (
	// ErrEmptyPayload is returned for buttons without callback data.
	ErrEmptyPayload = errors.New("callback data is empty")
	// ErrPayloadTooLong is returned when callback data exceeds CallbackDataLimitBytes.
	ErrPayloadTooLong = errors.New("callback data too long")
)

// EncodeCallback validates payload as telegram callback data and returns it unchanged.
func EncodeCallback(payload string) (string, error) {
	switch {
	case payload == "":
		return "", ErrEmptyPayload
	case len(payload) > CallbackDataLimitBytes:
		return "", fmt.Errorf("%w: %d bytes, limit %d", ErrPayloadTooLong, len(payload), CallbackDataLimitBytes)
	case !utf8.ValidString(payload):
		return "", fmt.Errorf("callback data is not valid utf-8: %q", payload)
	case payload[0] == '\f':
		// telebot reserves the form-feed prefix for its own unique handlers
		return "", fmt.Errorf("callback data starts with reserved prefix: %q", payload)
	}
	return payload, nil
}

package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
)

// GenerateKey builds a key of the form "<kind>:<hex digest>" from kind and the parts
// identifying one delivery.
func GenerateKey(kind string, parts ...any) string {
	h := sha256.New()
	h.Write([]byte(kind))
	for _, part := range parts {
		fmt.Fprintf(h, "|%v", part)
	}

	return kind + ":" + hex.EncodeToString(h.Sum(nil)[:16])
}

// CallbackKey identifies a button press by its callback query id.
func CallbackKey(callbackID string) string {
	return GenerateKey("callback", callbackID)
}

// MessageKey identifies a text message; message ids are unique per chat only.
func MessageKey(chatID int64, messageID int) string {
	return GenerateKey("message", strconv.FormatInt(chatID, 10), messageID)
}

package keyboard

import (
	"fmt"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/shop-bot/internal/shop"
)

// Render converts a dialog keyboard into inline markup. Buttons keep their payload as raw
// callback data so the callback arrives at the generic callback handler.
func Render(kb shop.Keyboard) (*telebot.ReplyMarkup, error) {
	if len(kb) == 0 {
		return nil, nil
	}

	rows := make([][]telebot.InlineButton, 0, len(kb))
	for i, row := range kb {
		if len(row) == 0 {
			continue
		}

		buttons := make([]telebot.InlineButton, len(row))
		for j, btn := range row {
			data, err := EncodeCallback(btn.Payload)
			if err != nil {
				return nil, fmt.Errorf("button %q at row %d: %w", btn.Label, i, err)
			}
			buttons[j] = telebot.InlineButton{Text: btn.Label, Data: data}
		}
		rows = append(rows, buttons)
	}

	return &telebot.ReplyMarkup{InlineKeyboard: rows}, nil
}

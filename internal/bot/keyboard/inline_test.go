package keyboard_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/shop-bot/internal/bot/keyboard"
	"github.com/Proton-105/shop-bot/internal/shop"
)

func TestRender(t *testing.T) {
	t.Run("rows and payloads", func(t *testing.T) {
		markup, err := keyboard.Render(shop.Keyboard{
			{{Label: "1 kg", Payload: "1"}, {Label: "5 kg", Payload: "5"}},
			{{Label: "Cart", Payload: shop.PayloadCart}},
		})
		require.NoError(t, err)
		require.NotNil(t, markup)

		require.Len(t, markup.InlineKeyboard, 2)
		require.Len(t, markup.InlineKeyboard[0], 2)
		assert.Equal(t, "5 kg", markup.InlineKeyboard[0][1].Text)
		assert.Equal(t, "5", markup.InlineKeyboard[0][1].Data)
		assert.Empty(t, markup.InlineKeyboard[0][1].Unique)
		assert.Equal(t, "cart", markup.InlineKeyboard[1][0].Data)
	})

	t.Run("empty keyboard", func(t *testing.T) {
		markup, err := keyboard.Render(nil)
		require.NoError(t, err)
		assert.Nil(t, markup)
	})

	t.Run("callback data overflow", func(t *testing.T) {
		_, err := keyboard.Render(shop.Keyboard{
			{{Label: "Long", Payload: strings.Repeat("y", keyboard.CallbackDataLimitBytes+1)}},
		})
		require.ErrorIs(t, err, keyboard.ErrPayloadTooLong)
	})
}

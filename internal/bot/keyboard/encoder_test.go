package keyboard_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/shop-bot/internal/bot/keyboard"
)

func TestEncodeCallback(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantErr error
	}{
		{name: "product id", payload: "8b2f6c1e-4f1a-4a57-9a55-0e0c3b3b4a10"},
		{name: "control token", payload: "main_menu"},
		{name: "at limit", payload: strings.Repeat("x", keyboard.CallbackDataLimitBytes)},
		{name: "empty", payload: "", wantErr: keyboard.ErrEmptyPayload},
		{name: "over limit", payload: strings.Repeat("x", keyboard.CallbackDataLimitBytes+1), wantErr: keyboard.ErrPayloadTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := keyboard.EncodeCallback(tt.payload)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.payload, got)
		})
	}
}

func TestEncodeCallback_ReservedPrefix(t *testing.T) {
	_, err := keyboard.EncodeCallback("\fbuy|1")
	require.Error(t, err)
}

package middleware

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/shop-bot/internal/bot/handlers"
	apperrors "github.com/Proton-105/shop-bot/internal/errors"
	"github.com/Proton-105/shop-bot/internal/idempotency"
	"github.com/Proton-105/shop-bot/internal/ratelimit"
	"github.com/Proton-105/shop-bot/pkg/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var offlineBot = func() *telebot.Bot {
	b, err := telebot.NewBot(telebot.Settings{Offline: true})
	if err != nil {
		panic(err)
	}
	return b
}()

func textUpdate(userID int64, messageID int, text string) telebot.Context {
	return offlineBot.NewContext(telebot.Update{
		ID: messageID,
		Message: &telebot.Message{
			ID:     messageID,
			Text:   text,
			Sender: &telebot.User{ID: userID},
			Chat:   &telebot.Chat{ID: userID},
		},
	})
}

func callbackUpdate(userID int64, callbackID, data string) telebot.Context {
	return offlineBot.NewContext(telebot.Update{
		Callback: &telebot.Callback{
			ID:     callbackID,
			Data:   data,
			Sender: &telebot.User{ID: userID},
			Message: &telebot.Message{
				ID:   7,
				Chat: &telebot.Chat{ID: userID},
			},
		},
	})
}

func TestIdempotency_DropsRedelivery(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	manager := idempotency.NewManager(idempotency.NewRedisStore(client, testLogger()), time.Hour, testLogger())

	calls := 0
	h := Idempotency(manager, testLogger())(func(telebot.Context) error {
		calls++
		return nil
	})

	require.NoError(t, h(callbackUpdate(1, "cb-1", "cart")))
	require.NoError(t, h(callbackUpdate(1, "cb-1", "cart")))
	require.NoError(t, h(callbackUpdate(1, "cb-2", "cart")))
	require.NoError(t, h(textUpdate(1, 10, "hi")))
	require.NoError(t, h(textUpdate(1, 10, "hi")))

	assert.Equal(t, 3, calls)
}

func TestIdempotency_NilManagerPassesThrough(t *testing.T) {
	calls := 0
	h := Idempotency(nil, nil)(func(telebot.Context) error {
		calls++
		return nil
	})

	require.NoError(t, h(textUpdate(1, 10, "hi")))
	require.NoError(t, h(textUpdate(1, 10, "hi")))
	assert.Equal(t, 2, calls)
}

func TestRateLimit_RejectsAboveLimit(t *testing.T) {
	policy, err := ratelimit.NewPolicy(config.RateLimitConfig{
		Enabled:   true,
		PerUser:   config.RateLimitRule{Limit: 2, Window: "1m"},
		Whitelist: []int64{99},
	})
	require.NoError(t, err)

	var reported []*apperrors.AppError
	mw := NewRateLimitMiddleware(ratelimit.NewMemoryLimiter(), policy, func(_ telebot.Context, err *apperrors.AppError) {
		reported = append(reported, err)
	}, testLogger())

	calls := 0
	h := mw.Handle(func(telebot.Context) error {
		calls++
		return nil
	})

	require.NoError(t, h(textUpdate(1, 1, "a")))
	require.NoError(t, h(textUpdate(1, 2, "b")))

	err = h(textUpdate(1, 3, "c"))
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.KindRateLimit, appErr.Kind)
	require.Len(t, reported, 1)

	for i := range 5 {
		require.NoError(t, h(textUpdate(99, i+1, "x")))
	}
	assert.Equal(t, 7, calls)
}

func TestMetrics_Status(t *testing.T) {
	assert.Equal(t, "ok", statusOf(nil))
	assert.Equal(t, "error", statusOf(errors.New("boom")))
	assert.Equal(t, string(apperrors.KindGateway), statusOf(apperrors.NewGatewayError("list_products", errors.New("boom"))))

	boom := errors.New("boom")
	h := Metrics(func(telebot.Context) error { return boom })
	assert.ErrorIs(t, h(callbackUpdate(1, "cb", "cart")), boom)
}

func TestHandlersContext(t *testing.T) {
	c := textUpdate(5, 1, "/start")
	assert.Equal(t, int64(5), handlers.UserID(c))
	assert.Equal(t, "command", handlers.UpdateKind(c))
	assert.Equal(t, "button", handlers.UpdateKind(callbackUpdate(5, "cb", "x")))
	assert.NotNil(t, handlers.Context(c))
}

func TestHTTPLogging_KeepsStatus(t *testing.T) {
	h := HTTPLogging(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, "down")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "down", rec.Body.String())
}

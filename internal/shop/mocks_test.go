package shop

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/shop-bot/internal/catalog"
	apperrors "github.com/Proton-105/shop-bot/internal/errors"
	"github.com/Proton-105/shop-bot/internal/i18n"
	"github.com/Proton-105/shop-bot/internal/state"
)

type catalogMock struct {
	mock.Mock
}

func (m *catalogMock) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	args := m.Called(ctx)
	products, _ := args.Get(0).([]catalog.Product)
	return products, args.Error(1)
}

func (m *catalogMock) GetProduct(ctx context.Context, id string) (catalog.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(catalog.Product), args.Error(1)
}

func (m *catalogMock) GetImageURL(ctx context.Context, imageID string) (string, error) {
	args := m.Called(ctx, imageID)
	return args.String(0), args.Error(1)
}

func (m *catalogMock) AddToCart(ctx context.Context, userID int64, productID string, quantity int) error {
	return m.Called(ctx, userID, productID, quantity).Error(0)
}

func (m *catalogMock) GetCartItems(ctx context.Context, userID int64) ([]catalog.LineItem, error) {
	args := m.Called(ctx, userID)
	items, _ := args.Get(0).([]catalog.LineItem)
	return items, args.Error(1)
}

func (m *catalogMock) GetCart(ctx context.Context, userID int64) (catalog.Cart, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(catalog.Cart), args.Error(1)
}

func (m *catalogMock) RemoveFromCart(ctx context.Context, userID int64, lineItemID string) error {
	return m.Called(ctx, userID, lineItemID).Error(0)
}

type executed struct {
	ev     Event
	action Action
}

type fakeExecutor struct {
	mu      sync.Mutex
	actions []executed
	err     error
}

func (f *fakeExecutor) Execute(_ context.Context, ev Event, action Action) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}
	f.actions = append(f.actions, executed{ev: ev, action: action})
	return nil
}

func (f *fakeExecutor) last(t *testing.T) Action {
	t.Helper()

	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.actions)
	return f.actions[len(f.actions)-1].action
}

func (f *fakeExecutor) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.actions)
}

type recordingObserver struct {
	mu   sync.Mutex
	errs []*apperrors.AppError
}

func (o *recordingObserver) Observe(_ context.Context, _ Event, err *apperrors.AppError) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.errs = append(o.errs, err)
}

func testTranslator(t *testing.T) i18n.Translator {
	t.Helper()

	m, err := i18n.Load("en")
	require.NoError(t, err)
	return m.Translator("en")
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func redisStorage(t *testing.T) state.Storage {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return state.NewRedisStorage(client, testLogger())
}

// storages runs engine tests against every session store.
func storages(t *testing.T) map[string]func() state.Storage {
	return map[string]func() state.Storage{
		"memory": func() state.Storage { return state.NewMemoryStorage() },
		"redis":  func() state.Storage { return redisStorage(t) },
	}
}

var testProducts = []catalog.Product{
	{ID: "p1", Name: "Salmon", Description: "Fresh", Price: "$10.00", MainImageID: "img1"},
	{ID: "p2", Name: "Trout", Description: "Smoked", Price: "$7.50"},
}

// held returns the number of users with a lock entry.
func (l *UserLocker) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

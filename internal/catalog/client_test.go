package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Proton-105/shop-bot/internal/errors"
	"github.com/Proton-105/shop-bot/pkg/config"
)

type fakeService struct {
	t          *testing.T
	authHits   atomic.Int32
	expiresIn  int64
	authDelay  time.Duration
	mux        *http.ServeMux
	lastBodyMu sync.Mutex
	lastBody   []byte
}

func newFakeService(t *testing.T) (*fakeService, *httptest.Server) {
	t.Helper()

	fs := &fakeService{t: t, expiresIn: 3600, mux: http.NewServeMux()}
	fs.mux.HandleFunc("POST /oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		fs.authHits.Add(1)
		if fs.authDelay > 0 {
			time.Sleep(fs.authDelay)
		}
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		assert.Equal(t, "id", r.PostForm.Get("client_id"))
		writeJSON(w, map[string]any{
			"access_token": "token-1",
			"token_type":   "Bearer",
			"expires_in":   fs.expiresIn,
		})
	})

	srv := httptest.NewServer(fs.mux)
	t.Cleanup(srv.Close)
	return fs, srv
}

func (fs *fakeService) handle(pattern string, h http.HandlerFunc) {
	fs.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(fs.t, "Bearer token-1", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		fs.lastBodyMu.Lock()
		fs.lastBody = body
		fs.lastBodyMu.Unlock()
		h(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(srv *httptest.Server, timeout time.Duration, opts ...Option) *Client {
	cfg := config.CatalogConfig{
		BaseURL:        srv.URL,
		ClientID:       "id",
		ClientSecret:   "secret",
		RequestTimeout: timeout,
		TokenLeeway:    30 * time.Second,
	}
	return NewClient(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), opts...)
}

func TestClient_ListProducts(t *testing.T) {
	fs, srv := newFakeService(t)
	fs.handle("GET /v2/products", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"data":[
			{"id":"p1","name":"Salmon","description":"Fresh","meta":{"display_price":{"with_tax":{"formatted":"$10.00"}}},
			 "relationships":{"main_image":{"data":{"id":"img1"}}}},
			{"id":"p2","name":"Trout","description":"Smoked","meta":{"display_price":{"with_tax":{"formatted":"$7.50"}}}}
		]}`)
	})

	client := newTestClient(srv, time.Second)

	products, err := client.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)

	assert.Equal(t, Product{ID: "p1", Name: "Salmon", Description: "Fresh", Price: "$10.00", MainImageID: "img1"}, products[0])
	assert.Equal(t, "p2", products[1].ID)
	assert.Empty(t, products[1].MainImageID)
}

func TestClient_CartOperations(t *testing.T) {
	fs, srv := newFakeService(t)
	fs.handle("POST /v2/carts/42/items", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{"data": []any{}})
	})
	fs.handle("GET /v2/carts/42/items", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"data":[{"id":"li1","product_id":"p1","name":"Salmon","description":"Fresh","quantity":5,
			"meta":{"display_price":{"with_tax":{"unit":{"formatted":"$10.00"},"value":{"formatted":"$50.00"}}}}}]}`)
	})
	fs.handle("GET /v2/carts/42", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"data":{"id":"42","meta":{"display_price":{"with_tax":{"formatted":"$50.00"}}}}}`)
	})

	client := newTestClient(srv, time.Second)
	ctx := context.Background()

	require.NoError(t, client.AddToCart(ctx, 42, "p1", 5))

	fs.lastBodyMu.Lock()
	var req struct {
		Data cartItemRequest `json:"data"`
	}
	require.NoError(t, json.Unmarshal(fs.lastBody, &req))
	fs.lastBodyMu.Unlock()
	assert.Equal(t, cartItemRequest{ID: "p1", Type: "cart_item", Quantity: 5}, req.Data)

	items, err := client.GetCartItems(ctx, 42)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, LineItem{
		ID:          "li1",
		ProductID:   "p1",
		Name:        "Salmon",
		Description: "Fresh",
		Quantity:    5,
		UnitPrice:   "$10.00",
		Total:       "$50.00",
	}, items[0])

	cart, err := client.GetCart(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, Cart{ID: "42", Total: "$50.00"}, cart)
}

func TestClient_GetImageURL(t *testing.T) {
	fs, srv := newFakeService(t)
	fs.handle("GET /v2/files/img1", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"data":{"link":{"href":"https://files.example.com/img1.jpg"}}}`)
	})

	client := newTestClient(srv, time.Second)

	link, err := client.GetImageURL(context.Background(), "img1")
	require.NoError(t, err)
	assert.Equal(t, "https://files.example.com/img1.jpg", link)
}

func TestClient_CreateCustomer(t *testing.T) {
	fs, srv := newFakeService(t)
	fs.handle("POST /v2/customers", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"data":{"id":"c1","type":"customer","name":"42","email":"ann@example.com"}}`)
	})

	client := newTestClient(srv, time.Second)

	customer, err := client.CreateCustomer(context.Background(), 42, "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, Customer{ID: "c1", Name: "42", Email: "ann@example.com"}, customer)

	fs.lastBodyMu.Lock()
	defer fs.lastBodyMu.Unlock()
	assert.JSONEq(t, `{"data":{"type":"customer","name":"42","email":"ann@example.com"}}`, string(fs.lastBody))
}

func TestClient_RemoveAbsentItem(t *testing.T) {
	fs, srv := newFakeService(t)
	fs.handle("DELETE /v2/carts/42/items/gone", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"errors":[{"status":404,"title":"Not Found"}]}`)
	})

	client := newTestClient(srv, time.Second)

	err := client.RemoveFromCart(context.Background(), 42, "gone")
	require.Error(t, err)

	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.True(t, gwErr.NotFound())
	assert.Equal(t, "remove_from_cart", gwErr.Op)
	assert.Contains(t, gwErr.Error(), "Not Found")
}

func TestClient_TimeoutIsGatewayError(t *testing.T) {
	fs, srv := newFakeService(t)
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	fs.handle("GET /v2/products", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})

	client := newTestClient(srv, 100*time.Millisecond)

	_, err := client.ListProducts(context.Background())
	require.Error(t, err)
	assert.True(t, IsGatewayError(err))
}

func TestClient_UndecodableBody(t *testing.T) {
	fs, srv := newFakeService(t)
	fs.handle("GET /v2/products/p1", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `not json`)
	})

	client := newTestClient(srv, time.Second)

	_, err := client.GetProduct(context.Background(), "p1")
	require.Error(t, err)
	assert.True(t, IsGatewayError(err))
	assert.Contains(t, err.Error(), "decode response")
}

func TestClient_ConcurrentCallsShareOneAuthentication(t *testing.T) {
	fs, srv := newFakeService(t)
	fs.authDelay = 50 * time.Millisecond
	fs.handle("GET /v2/products", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{"data": []any{}})
	})

	client := newTestClient(srv, time.Second)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.ListProducts(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), fs.authHits.Load())
}

func TestClient_TokenReusedUntilExpiry(t *testing.T) {
	fs, srv := newFakeService(t)
	fs.expiresIn = 3600
	fs.handle("GET /v2/products", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{"data": []any{}})
	})

	now := time.Now()
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}

	client := newTestClient(srv, time.Second, WithClock(clock))
	ctx := context.Background()

	_, err := client.ListProducts(ctx)
	require.NoError(t, err)
	_, err = client.ListProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), fs.authHits.Load())

	mu.Lock()
	now = now.Add(time.Hour)
	mu.Unlock()

	_, err = client.ListProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), fs.authHits.Load())
}

func TestClient_UnauthorizedDropsToken(t *testing.T) {
	fs, srv := newFakeService(t)
	var calls atomic.Int32
	fs.handle("GET /v2/products", func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, map[string]any{"data": []any{}})
	})

	client := newTestClient(srv, time.Second)
	ctx := context.Background()

	_, err := client.ListProducts(ctx)
	require.Error(t, err)

	_, err = client.ListProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), fs.authHits.Load())
}

func TestClient_AuthenticationFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /oauth/access_token", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"errors":[{"title":"invalid client"}]}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := newTestClient(srv, time.Second)

	_, err := client.ListProducts(context.Background())
	require.Error(t, err)
	assert.True(t, IsGatewayError(err))

	require.Error(t, client.HealthCheck(context.Background()))
}

func TestClient_CircuitOpensOnServerErrors(t *testing.T) {
	fs, srv := newFakeService(t)
	var hits atomic.Int32
	fs.handle("GET /v2/products", func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	client := newTestClient(srv, time.Second)
	ctx := context.Background()

	for range apperrors.MinRequests {
		_, err := client.ListProducts(ctx)
		require.Error(t, err)
	}
	require.Equal(t, int32(apperrors.MinRequests), hits.Load())

	_, err := client.ListProducts(ctx)
	require.Error(t, err)
	assert.True(t, IsGatewayError(err))
	assert.True(t, errors.Is(err, apperrors.ErrCircuitOpen))
	assert.Equal(t, int32(apperrors.MinRequests), hits.Load())
}

func TestClient_ClientErrorsDoNotTripCircuit(t *testing.T) {
	fs, srv := newFakeService(t)
	fs.handle("DELETE /v2/carts/1/items/x", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	client := newTestClient(srv, time.Second)
	ctx := context.Background()

	for range apperrors.MinRequests * 2 {
		require.Error(t, client.RemoveFromCart(ctx, 1, "x"))
	}
	assert.Equal(t, apperrors.StateClosed, client.breaker.State())
}

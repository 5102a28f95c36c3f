package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/Proton-105/shop-bot/internal/errors"
	"github.com/Proton-105/shop-bot/pkg/config"
	"github.com/Proton-105/shop-bot/pkg/metrics"
)

const (
	defaultRequestTimeout = 10 * time.Second
	maxErrorBodyBytes     = 512
)

// Client talks to the catalog/cart REST API. Every method authenticates transparently
// and fails with *GatewayError. Nothing is retried.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	tokens     *tokenSource
	breaker    *apperrors.CircuitBreaker
	log        *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
			c.tokens.httpClient = hc
		}
	}
}

// WithClock replaces the clock used for token expiry.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.tokens.now = now
		}
	}
}

// NewClient builds a Client from configuration.
func NewClient(cfg config.CatalogConfig, log *slog.Logger, opts ...Option) *Client {
	if log == nil {
		log = slog.Default()
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	httpClient := &http.Client{Timeout: timeout}

	c := &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		timeout:    timeout,
		tokens: &tokenSource{
			httpClient:   httpClient,
			endpoint:     baseURL + "/oauth/access_token",
			clientID:     cfg.ClientID,
			clientSecret: cfg.ClientSecret,
			leeway:       cfg.TokenLeeway,
			timeout:      timeout,
			now:          time.Now,
		},
		breaker: apperrors.NewCircuitBreaker(cfg.CircuitThreshold),
		log:     log,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// ListProducts returns every product of the catalog.
func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	var out envelope[[]productDTO]
	if err := c.do(ctx, "list_products", http.MethodGet, "/v2/products", nil, &out); err != nil {
		return nil, err
	}

	products := make([]Product, 0, len(out.Data))
	for _, p := range out.Data {
		products = append(products, p.toProduct())
	}
	return products, nil
}

// GetProduct returns a single product.
func (c *Client) GetProduct(ctx context.Context, id string) (Product, error) {
	var out envelope[productDTO]
	if err := c.do(ctx, "get_product", http.MethodGet, "/v2/products/"+url.PathEscape(id), nil, &out); err != nil {
		return Product{}, err
	}
	return out.Data.toProduct(), nil
}

// GetImageURL resolves a file id into its public link.
func (c *Client) GetImageURL(ctx context.Context, imageID string) (string, error) {
	var out envelope[fileDTO]
	if err := c.do(ctx, "get_file", http.MethodGet, "/v2/files/"+url.PathEscape(imageID), nil, &out); err != nil {
		return "", err
	}
	if out.Data.Link.Href == "" {
		return "", &GatewayError{Op: "get_file", Cause: errors.New("file without link")}
	}
	return out.Data.Link.Href, nil
}

// AddToCart puts quantity units of the product into the user's cart.
func (c *Client) AddToCart(ctx context.Context, userID int64, productID string, quantity int) error {
	body := envelope[cartItemRequest]{Data: cartItemRequest{
		ID:       productID,
		Type:     "cart_item",
		Quantity: quantity,
	}}
	return c.do(ctx, "add_to_cart", http.MethodPost, cartPath(userID)+"/items", body, nil)
}

// GetCartItems returns the line items of the user's cart in service order.
func (c *Client) GetCartItems(ctx context.Context, userID int64) ([]LineItem, error) {
	var out envelope[[]lineItemDTO]
	if err := c.do(ctx, "get_cart_items", http.MethodGet, cartPath(userID)+"/items", nil, &out); err != nil {
		return nil, err
	}

	items := make([]LineItem, 0, len(out.Data))
	for _, item := range out.Data {
		items = append(items, item.toLineItem())
	}
	return items, nil
}

// GetCart returns the user's cart summary.
func (c *Client) GetCart(ctx context.Context, userID int64) (Cart, error) {
	var out envelope[cartDTO]
	if err := c.do(ctx, "get_cart", http.MethodGet, cartPath(userID), nil, &out); err != nil {
		return Cart{}, err
	}
	return Cart{ID: out.Data.ID, Total: out.Data.Meta.DisplayPrice.WithTax.Formatted}, nil
}

// RemoveFromCart deletes a line item. Removing an absent item fails with a 404 GatewayError.
func (c *Client) RemoveFromCart(ctx context.Context, userID int64, lineItemID string) error {
	return c.do(ctx, "remove_from_cart", http.MethodDelete, cartPath(userID)+"/items/"+url.PathEscape(lineItemID), nil, nil)
}

// CreateCustomer registers the user as a customer named after the user id.
func (c *Client) CreateCustomer(ctx context.Context, userID int64, email string) (Customer, error) {
	body := envelope[customerDTO]{Data: customerDTO{
		Type:  "customer",
		Name:  strconv.FormatInt(userID, 10),
		Email: email,
	}}

	var out envelope[customerDTO]
	if err := c.do(ctx, "create_customer", http.MethodPost, "/v2/customers", body, &out); err != nil {
		return Customer{}, err
	}
	return Customer{ID: out.Data.ID, Name: out.Data.Name, Email: out.Data.Email}, nil
}

// HealthCheck verifies that the service accepts the configured credentials.
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if _, err := c.tokens.Token(ctx); err != nil {
		return &GatewayError{Op: "authenticate", Cause: err}
	}
	return nil
}

func cartPath(userID int64) string {
	return "/v2/carts/" + strconv.FormatInt(userID, 10)
}

// do runs one request through the circuit breaker. Client-side (4xx) failures are
// returned to the caller but do not count against the breaker.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	start := time.Now()

	var callErr error
	breakerErr := c.breaker.Call(func() error {
		callErr = c.roundTrip(ctx, op, method, path, body, out)

		var gwErr *GatewayError
		if errors.As(callErr, &gwErr) && gwErr.clientSide() {
			return nil
		}
		return callErr
	})
	if callErr == nil && breakerErr != nil {
		callErr = &GatewayError{Op: op, Cause: breakerErr}
	}

	metrics.RecordCatalogCall(op, statusLabel(callErr), time.Since(start))

	if callErr != nil {
		c.log.WarnContext(ctx, "catalog call failed", slog.String("op", op), slog.Any("error", callErr))
	}

	return callErr
}

func (c *Client) roundTrip(ctx context.Context, op, method, path string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return &GatewayError{Op: op, Cause: fmt.Errorf("authenticate: %w", err)}
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &GatewayError{Op: op, Cause: fmt.Errorf("encode request: %w", err)}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &GatewayError{Op: op, Cause: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &GatewayError{Op: op, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.tokens.Invalidate()
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return &GatewayError{
			Op:     op,
			Status: resp.StatusCode,
			Cause:  fmt.Errorf("unexpected response: %s", strings.TrimSpace(string(snippet))),
		}
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &GatewayError{Op: op, Status: resp.StatusCode, Cause: fmt.Errorf("decode response: %w", err)}
	}

	return nil
}

func statusLabel(err error) string {
	if err == nil {
		return "ok"
	}

	var gwErr *GatewayError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, apperrors.ErrCircuitOpen), errors.Is(err, apperrors.ErrHalfOpenTooManyRequests):
		return "circuit_open"
	case errors.As(err, &gwErr) && gwErr.Status != 0:
		return strconv.Itoa(gwErr.Status)
	default:
		return "error"
	}
}

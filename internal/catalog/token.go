package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const tokenFlightKey = "access_token"

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Expires     int64  `json:"expires"` // absolute unix time, preferred over ExpiresIn
	ExpiresIn   int64  `json:"expires_in"`
}

// tokenSource caches the client-credentials access token and refreshes it when absent or
// expired. Concurrent callers share a single in-flight refresh.
type tokenSource struct {
	httpClient   *http.Client
	endpoint     string
	clientID     string
	clientSecret string
	leeway       time.Duration
	timeout      time.Duration
	now          func() time.Time

	group singleflight.Group

	mu        sync.RWMutex
	token     string
	expiresAt time.Time
}

// Token returns a valid access token, refreshing it first when needed.
func (t *tokenSource) Token(ctx context.Context) (string, error) {
	if token, ok := t.cached(); ok {
		return token, nil
	}

	ch := t.group.DoChan(tokenFlightKey, func() (any, error) {
		if token, ok := t.cached(); ok {
			return token, nil
		}

		// the refresh outlives any single waiter
		refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), t.timeout)
		defer cancel()

		return t.refresh(refreshCtx)
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// Invalidate drops the cached token so the next call authenticates again.
func (t *tokenSource) Invalidate() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.token = ""
	t.expiresAt = time.Time{}
}

func (t *tokenSource) cached() (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.token == "" || !t.now().Before(t.expiresAt.Add(-t.leeway)) {
		return "", false
	}
	return t.token, true
}

func (t *tokenSource) refresh(ctx context.Context) (string, error) {
	form := url.Values{
		"client_id":     {t.clientID},
		"client_secret": {t.clientSecret},
		"grant_type":    {"client_credentials"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("auth request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("auth status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode auth response: %w", err)
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("auth response without access token")
	}

	expiresAt := t.now().Add(time.Duration(out.ExpiresIn) * time.Second)
	if out.Expires > 0 {
		expiresAt = time.Unix(out.Expires, 0)
	}

	t.mu.Lock()
	t.token = out.AccessToken
	t.expiresAt = expiresAt
	t.mu.Unlock()

	return out.AccessToken, nil
}

package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"cartscope/internal"
	"cartscope/internal/config"
)

// Client consumes the external inventory-matching and reservation service.
// The service scores candidate identifiers/names against warehouse stock and
// confirms reservations; only its wire contract is known here.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client

	paceMu      sync.Mutex
	minInterval time.Duration
	lastRequest time.Time
}

func NewClient(cfg config.Config) *Client {
	rps := cfg.LagerRateLimitRPS
	if rps <= 0 {
		rps = 1
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.LagerAPIBaseURL, "/"),
		token:       cfg.LagerAPIToken,
		httpClient:  &http.Client{Timeout: time.Duration(cfg.LagerTimeoutMs) * time.Millisecond},
		minInterval: time.Second / time.Duration(rps),
	}
}

// waitTurn spaces outgoing requests to the service's rate limit. Holding the
// lock through the sleep serializes concurrent callers, which is the pacing
// we want.
func (c *Client) waitTurn() {
	c.paceMu.Lock()
	defer c.paceMu.Unlock()
	if elapsed := time.Since(c.lastRequest); elapsed < c.minInterval {
		time.Sleep(c.minInterval - elapsed)
	}
	c.lastRequest = time.Now()
}

// SetToken replaces the bearer token, typically after Login.
func (c *Client) SetToken(token string) {
	c.token = token
}

type loginRequest struct {
	Email    string `json:"email"`
	Passwort string `json:"passwort"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

// Login exchanges credentials for a bearer token. The token is retained for
// subsequent calls and also returned so the caller can persist it.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	body, err := c.postJSON(ctx, "/login", loginRequest{Email: email, Passwort: password}, false)
	if err != nil {
		return "", err
	}
	var resp loginResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.AccessToken) == "" {
		return "", errors.New("login response without access_token")
	}
	c.token = resp.AccessToken
	return resp.AccessToken, nil
}

func (c *Client) BulkCheck(ctx context.Context, identifiers, names []string) (internal.BulkCheckResult, error) {
	req := internal.BulkCheckRequest{Artikelnummern: identifiers, Namen: names}
	if req.Artikelnummern == nil {
		req.Artikelnummern = []string{}
	}
	if req.Namen == nil {
		req.Namen = []string{}
	}

	body, err := c.postJSON(ctx, "/artikel/bulk-check", req, true)
	if err != nil {
		return internal.BulkCheckResult{}, err
	}
	var result internal.BulkCheckResult
	if err := json.Unmarshal(body, &result); err != nil {
		return internal.BulkCheckResult{}, err
	}
	return result, nil
}

// Reserve submits the user-approved subset. The returned reserved items are
// what should drive cart removal.
func (c *Client) Reserve(ctx context.Context, items []internal.ReservationItem) (internal.ReservationResult, error) {
	body, err := c.postJSON(ctx, "/artikel/reservieren", map[string]any{"artikel": items}, true)
	if err != nil {
		return internal.ReservationResult{}, err
	}
	var result internal.ReservationResult
	if err := json.Unmarshal(body, &result); err != nil {
		return internal.ReservationResult{}, err
	}
	return result, nil
}

func (c *Client) postJSON(ctx context.Context, endpoint string, payload any, authed bool) ([]byte, error) {
	if authed && strings.TrimSpace(c.token) == "" {
		return nil, errors.New("missing LAGER_API_TOKEN (login first)")
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= 5; attempt++ {
		c.waitTurn()

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(encoded))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		if authed {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			if isRetryableStatus(resp.StatusCode) && attempt < 5 {
				backoff := time.Duration(250*(1<<(attempt-1))+rand.Intn(100)) * time.Millisecond
				time.Sleep(backoff)
				lastErr = fmt.Errorf("lager status %d", resp.StatusCode)
				continue
			}
			return nil, fmt.Errorf("lager api error: status=%d body=%s", resp.StatusCode, string(body))
		}
		return body, nil
	}

	if lastErr == nil {
		lastErr = errors.New("lager request failed")
	}
	return nil, lastErr
}

func isRetryableStatus(status int) bool {
	switch status {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

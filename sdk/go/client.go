package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"lingokit/core"
)

// Option configures the Client.
type Option func(*Client)

// Client provides typed access to the lingokit HTTP + WebSocket API.
type Client struct {
	baseURL    string
	wsURL      string
	httpClient *http.Client
	headers    http.Header
}

// NewClient constructs a new SDK client targeting the given baseURL (e.g., http://localhost:8080/api).
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("baseURL is required")
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	c := &Client{
		baseURL:    baseURL,
		wsURL:      deriveWSURL(baseURL),
		httpClient: http.DefaultClient,
		headers:    make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithAuthToken adds an Authorization: Bearer token header to all requests (HTTP + WS).
func WithAuthToken(token string) Option {
	return func(c *Client) {
		if strings.TrimSpace(token) != "" {
			c.headers.Set("Authorization", "Bearer "+token)
		}
	}
}

// WithAPIKey adds an X-API-Key header.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		if strings.TrimSpace(key) != "" {
			c.headers.Set("X-API-Key", key)
		}
	}
}

// WithHeader sets an arbitrary header applied to HTTP and WS calls.
func WithHeader(k, v string) Option {
	return func(c *Client) {
		if k != "" {
			c.headers.Set(k, v)
		}
	}
}

// AwardPoints submits a completed activity for scoring and returns the award outcome.
func (c *Client) AwardPoints(ctx context.Context, userID string, req AwardRequest) (core.AwardResult, error) {
	if strings.TrimSpace(userID) == "" {
		return core.AwardResult{}, ErrEmptyUserID
	}
	u := fmt.Sprintf("%s/users/%s/awards", c.baseURL, url.PathEscape(userID))

	var result core.AwardResult
	if err := c.postJSON(ctx, u, req, &result); err != nil {
		return core.AwardResult{}, err
	}
	return result, nil
}

// GetPoints fetches the current points summary for a learner.
func (c *Client) GetPoints(ctx context.Context, userID string) (core.PointsSummary, error) {
	if strings.TrimSpace(userID) == "" {
		return core.PointsSummary{}, ErrEmptyUserID
	}
	u := fmt.Sprintf("%s/users/%s/points", c.baseURL, url.PathEscape(userID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return core.PointsSummary{}, err
	}
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return core.PointsSummary{}, err
	}
	defer resp.Body.Close()

	var sum core.PointsSummary
	if err := decodeJSON(resp, &sum); err != nil {
		return core.PointsSummary{}, err
	}
	return sum, nil
}

// RedeemPoints spends available points and returns the updated summary.
func (c *Client) RedeemPoints(ctx context.Context, userID string, points int64, reason string) (core.PointsSummary, error) {
	if strings.TrimSpace(userID) == "" {
		return core.PointsSummary{}, ErrEmptyUserID
	}
	u := fmt.Sprintf("%s/users/%s/redeem", c.baseURL, url.PathEscape(userID))

	var sum core.PointsSummary
	if err := c.postJSON(ctx, u, RedeemRequest{Points: points, Reason: reason}, &sum); err != nil {
		return core.PointsSummary{}, err
	}
	return sum, nil
}

// Leaderboard fetches the top entries, optionally computing asUser's own rank.
func (c *Client) Leaderboard(ctx context.Context, limit int, asUser string) (core.LeaderboardView, error) {
	u, err := url.Parse(c.baseURL + "/leaderboard")
	if err != nil {
		return core.LeaderboardView{}, err
	}
	q := u.Query()
	if limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", limit))
	}
	if asUser != "" {
		q.Set("user", asUser)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return core.LeaderboardView{}, err
	}
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return core.LeaderboardView{}, err
	}
	defer resp.Body.Close()

	var view core.LeaderboardView
	if err := decodeJSON(resp, &view); err != nil {
		return core.LeaderboardView{}, err
	}
	return view, nil
}

// Health probes /healthz and returns status + storage check.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	u := c.baseURL + "/healthz"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return HealthStatus{}, err
	}
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return HealthStatus{}, err
	}
	defer resp.Body.Close()

	var hs HealthStatus
	if err := decodeJSON(resp, &hs); err != nil {
		return HealthStatus{}, err
	}
	return hs, nil
}

// SubscribeEvents connects to the WebSocket stream and emits core.Event values.
// user narrows the stream to one learner; empty receives all events.
// The returned channel closes when ctx is done or the connection drops.
func (c *Client) SubscribeEvents(ctx context.Context, user string) (<-chan core.Event, error) {
	if c.wsURL == "" {
		return nil, errors.New("wsURL is not set; ensure baseURL is http/https")
	}
	wsURL := c.wsURL
	if user != "" {
		wsURL += "?user=" + url.QueryEscape(user)
	}
	dialer := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, wsURL, c.headers)
	if err != nil {
		return nil, err
	}

	out := make(chan core.Event, 32)
	go func() {
		defer close(out)
		defer conn.Close()
		for {
			select {
			case <-ctx.Done():
				return
			default:
				var evt core.Event
				if err := conn.ReadJSON(&evt); err != nil {
					return
				}
				select {
				case out <- evt:
				default:
					// drop if consumer is slow
				}
			}
		}
	}()
	return out, nil
}

func (c *Client) postJSON(ctx context.Context, u string, body any, target any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeJSON(resp, target)
}

func (c *Client) applyHeaders(r *http.Request) {
	for k, vals := range c.headers {
		for _, v := range vals {
			r.Header.Add(k, v)
		}
	}
}

func deriveWSURL(httpBase string) string {
	u, err := url.Parse(httpBase)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	default:
		// leave as-is for custom schemes
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	return u.String()
}

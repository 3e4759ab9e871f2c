package httpapi

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	wsadapter "lingokit/adapters/websocket"
	"lingokit/core"
	"lingokit/engine"
	"lingokit/realtime"
)

// Options configures the HTTP API surface.
type Options struct {
	// PathPrefix, if set, is prepended to all routes (e.g., "/api").
	PathPrefix string
	// AllowCORSOrigin, if non-empty, enables basic CORS with the given origin (use "*" for any).
	AllowCORSOrigin string
	// APIKeys, if non-empty, enables static API key auth via Authorization: Bearer or X-API-Key.
	APIKeys []string
	// RateLimitEnabled toggles rate limiting.
	RateLimitEnabled bool
	// RateLimitRPM is the allowed requests per minute per client key.
	RateLimitRPM int
	// RateLimitBurst defines burst capacity.
	RateLimitBurst int
	// DefaultLeaderboardLimit caps GET /leaderboard when no limit is given.
	DefaultLeaderboardLimit int
}

// awardRequest is the POST body for an award.
type awardRequest struct {
	ActivityType    string  `json:"activity_type"`
	Level           string  `json:"level,omitempty"`
	Quantity        int     `json:"quantity"`
	Difficulty      string  `json:"difficulty,omitempty"`
	MasteryAchieved bool    `json:"mastery_achieved,omitempty"`
	RetentionRate   float64 `json:"retention_rate,omitempty"`
	SessionMinutes  int     `json:"session_minutes,omitempty"`
}

// redeemRequest is the POST body for a redemption.
type redeemRequest struct {
	Points int64  `json:"points"`
	Reason string `json:"reason,omitempty"`
}

// NewMux builds an http.Handler exposing the points REST API and WebSocket stream.
// Routes:
//   - POST {prefix}/users/{id}/awards
//   - GET  {prefix}/users/{id}/points
//   - POST {prefix}/users/{id}/redeem
//   - GET  {prefix}/leaderboard?limit=10&user={id}
//   - GET  {prefix}/healthz
//   - WS   {prefix}/ws
func NewMux(svc *engine.Service, hub *realtime.Hub, opts Options) http.Handler {
	mux := http.NewServeMux()

	// health
	mux.HandleFunc(withPrefix(opts.PathPrefix, "/healthz"), func(w http.ResponseWriter, r *http.Request) {
		healthCheck(w, r, svc)
	})

	// WebSocket events
	if hub != nil {
		mux.Handle(withPrefix(opts.PathPrefix, "/ws"), wsadapter.Handler(hub))
	}

	// Leaderboard
	mux.HandleFunc(withPrefix(opts.PathPrefix, "/leaderboard"), func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusNotFound, "not_found", "route not found", nil)
			return
		}
		limit := opts.DefaultLeaderboardLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer", nil)
				return
			}
			limit = n
		}
		requesting := core.UserID(r.URL.Query().Get("user"))
		view, err := svc.Leaderboard(r.Context(), limit, requesting)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, view)
	})

	// Users API
	mux.HandleFunc(withPrefix(opts.PathPrefix, "/users/"), func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodPost {
			writeError(w, http.StatusNotFound, "not_found", "route not found", nil)
			return
		}
		path := strings.TrimPrefix(r.URL.Path, opts.PathPrefix)
		if path == "" || path[0] != '/' {
			path = "/" + path
		}
		parts := split(path, '/')
		if len(parts) < 3 {
			writeError(w, http.StatusNotFound, "not_found", "route not found", nil)
			return
		}
		user, err := core.NormalizeUserID(core.UserID(parts[1]))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_user", err.Error(), nil)
			return
		}
		switch {
		case r.Method == http.MethodPost && parts[2] == "awards":
			handleAward(w, r, svc, user)
		case r.Method == http.MethodGet && parts[2] == "points":
			handlePoints(w, r, svc, user)
		case r.Method == http.MethodPost && parts[2] == "redeem":
			handleRedeem(w, r, svc, user)
		default:
			writeError(w, http.StatusNotFound, "not_found", "route not found", nil)
		}
	})

	var handler http.Handler = mux
	if opts.AllowCORSOrigin != "" {
		handler = withCORS(handler, opts.AllowCORSOrigin)
	}
	if len(opts.APIKeys) > 0 {
		handler = withAPIKeyAuth(handler, opts.APIKeys)
	}
	if opts.RateLimitEnabled && opts.RateLimitRPM > 0 && opts.RateLimitBurst > 0 {
		handler = withRateLimit(handler, opts.RateLimitRPM, opts.RateLimitBurst)
	}
	return handler
}

func handleAward(w http.ResponseWriter, r *http.Request, svc *engine.Service, user core.UserID) {
	var req awardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "malformed JSON body", nil)
		return
	}
	level, ok := core.ParseCEFR(req.Level)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_level", "unknown CEFR level", nil)
		return
	}
	res, err := svc.AwardPoints(r.Context(), user, core.ActivityEvent{
		Type:            core.ActivityType(req.ActivityType),
		Level:           level,
		Quantity:        req.Quantity,
		Difficulty:      core.Difficulty(req.Difficulty),
		MasteryAchieved: req.MasteryAchieved,
		RetentionRate:   req.RetentionRate,
		SessionMinutes:  req.SessionMinutes,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, res)
}

func handlePoints(w http.ResponseWriter, r *http.Request, svc *engine.Service, user core.UserID) {
	sum, err := svc.GetUserPoints(r.Context(), user)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, sum)
}

func handleRedeem(w http.ResponseWriter, r *http.Request, svc *engine.Service, user core.UserID) {
	var req redeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "malformed JSON body", nil)
		return
	}
	sum, err := svc.RedeemPoints(r.Context(), user, req.Points, req.Reason)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, sum)
}

// writeServiceError maps engine sentinels onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "user_not_found", err.Error(), nil)
	case errors.Is(err, core.ErrInvalidActivityType), errors.Is(err, core.ErrInvalidMetadata):
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error(), nil)
	case errors.Is(err, core.ErrInsufficientPoints):
		writeError(w, http.StatusConflict, "insufficient_points", err.Error(), nil)
	case errors.Is(err, core.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err.Error(), nil)
	default:
		writeError(w, http.StatusInternalServerError, "internal", err.Error(), nil)
	}
}

// Helpers

// healthCheck verifies storage reads work before reporting healthy.
func healthCheck(w http.ResponseWriter, r *http.Request, svc *engine.Service) {
	ctx := r.Context()

	// Safe, lightweight probe that never touches real learner data.
	probe := core.UserID("healthcheck_probe")
	_, err := svc.GetUserPoints(ctx, probe)
	if err != nil && errors.Is(err, core.ErrUserNotFound) {
		// A strict user directory rejects the probe; storage itself is fine.
		err = nil
	}

	status := map[string]any{
		"status": "healthy",
		"checks": map[string]any{
			"storage": "ok",
		},
	}

	if err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		status["status"] = "unhealthy"
		status["checks"].(map[string]any)["storage"] = "failed"
	} else {
		w.WriteHeader(http.StatusOK)
	}

	writeJSON(w, status)
}

func withPrefix(prefix, path string) string {
	if prefix == "" || prefix == "/" {
		return path
	}
	if prefix[len(prefix)-1] == '/' {
		return prefix[:len(prefix)-1] + path
	}
	return prefix + path
}

func split(p string, sep rune) []string {
	var parts []string
	cur := make([]rune, 0, len(p))
	// trim leading '/'
	for len(p) > 0 && p[0] == '/' {
		p = p[1:]
	}
	for _, r := range p {
		if r == sep {
			if len(cur) > 0 {
				parts = append(parts, string(cur))
				cur = cur[:0]
			}
			continue
		}
		cur = append(cur, r)
	}
	if len(cur) > 0 {
		parts = append(parts, string(cur))
	}
	return parts
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, msg string, details any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiError{Code: code, Message: msg, Details: details})
}

// withCORS wraps a handler with a minimal CORS policy.
func withCORS(next http.Handler, origin string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Vary", "Origin")
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withAPIKeyAuth enforces a shared API key list.
func withAPIKeyAuth(next http.Handler, apiKeys []string) http.Handler {
	allowed := make(map[string]struct{}, len(apiKeys))
	for _, k := range apiKeys {
		k = strings.TrimSpace(k)
		if k != "" {
			allowed[k] = struct{}{}
		}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := extractAPIKey(r)
		if key == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing API key", nil)
			return
		}
		if _, ok := allowed[key]; !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized", "invalid API key", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withRateLimit applies a simple token-bucket limiter per client key.
func withRateLimit(next http.Handler, rpm int, burst int) http.Handler {
	limiter := newRateLimiter(rpm, burst)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientKey(r)
		if !limiter.allow(key) {
			writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func extractAPIKey(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	return ""
}

// clientKey uses API key if present, otherwise remote IP.
func clientKey(r *http.Request) string {
	if key := extractAPIKey(r); key != "" {
		return key
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type rateLimiter struct {
	rpm   float64
	burst float64
	mu    sync.Mutex
	b     map[string]*bucket
}

type bucket struct {
	tokens float64
	last   time.Time
}

func newRateLimiter(rpm, burst int) *rateLimiter {
	return &rateLimiter{
		rpm:   float64(rpm),
		burst: float64(burst),
		b:     make(map[string]*bucket),
	}
}

func (l *rateLimiter) allow(key string) bool {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.b[key]
	if !ok {
		l.b[key] = &bucket{tokens: l.burst - 1, last: now}
		return true
	}

	elapsed := now.Sub(b.last).Minutes()
	b.tokens += elapsed * l.rpm
	if b.tokens > l.burst {
		b.tokens = l.burst
	}
	if b.tokens < 1 {
		b.last = now
		return false
	}
	b.tokens--
	b.last = now
	return true
}

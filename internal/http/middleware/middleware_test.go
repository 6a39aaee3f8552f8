package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/princekumarofficial/assets-service/internal/logger"
	"github.com/princekumarofficial/assets-service/internal/ratelimit"
	"github.com/princekumarofficial/assets-service/internal/utils/response"
)

func setupTestRedis(t *testing.T) *redis.Client {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return client
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestRateLimitMiddleware(t *testing.T) {
	client := setupTestRedis(t)
	limited := 0
	rlc := NewRateLimitConfig(ratelimit.NewTokenBucket(client, 2, 2), func() { limited++ })
	h := rlc.RateLimitedHandler(UploadAction, okHandler)

	send := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/assets/videos/x", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 2; i++ {
		rec := send("192.0.2.1:5000")
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected request %d to pass, got %d", i+1, rec.Code)
		}
	}

	rec := send("192.0.2.1:5001")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("Expected 429, got %d", rec.Code)
	}
	if got := rec.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Fatalf("Expected 0 remaining, got %q", got)
	}
	if got := rec.Header().Get("X-RateLimit-Limit"); got != "2" {
		t.Fatalf("Expected limit 2, got %q", got)
	}
	if limited != 1 {
		t.Fatalf("Expected onLimit to run once, ran %d times", limited)
	}

	// Another client has its own bucket.
	if rec := send("192.0.2.2:5000"); rec.Code != http.StatusOK {
		t.Fatalf("Expected other client to pass, got %d", rec.Code)
	}
}

type brokenLimiter struct{}

func (brokenLimiter) Take(context.Context, string, string) (ratelimit.Result, error) {
	return ratelimit.Result{}, errors.New("redis unavailable")
}

func (brokenLimiter) GetRemaining(context.Context, string, string) (int64, error) {
	return 0, errors.New("redis unavailable")
}

func TestRateLimitMiddlewareFailsOpen(t *testing.T) {
	h := NewRateLimitConfig(brokenLimiter{}, nil).RateLimitedHandler(UploadAction, okHandler)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected request to pass when limiter fails, got %d", rec.Code)
	}
}

func TestQuotaHandler(t *testing.T) {
	client := setupTestRedis(t)
	rlc := NewRateLimitConfig(ratelimit.NewTokenBucket(client, 3, 3), nil)
	upload := rlc.RateLimitedHandler(UploadAction, okHandler)
	quota := rlc.QuotaHandler(UploadAction)

	get := func() (*httptest.ResponseRecorder, response.Response) {
		req := httptest.NewRequest(http.MethodGet, "/assets/uploads/quota", nil)
		req.RemoteAddr = "192.0.2.9:4000"
		rec := httptest.NewRecorder()
		quota.ServeHTTP(rec, req)
		var body response.Response
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("Failed to decode body: %v", err)
		}
		return rec, body
	}

	rec, body := get()
	if rec.Code != http.StatusOK || body.Status != response.StatusSuccess {
		t.Fatalf("Expected success, got %d %+v", rec.Code, body)
	}
	if got := rec.Header().Get("X-RateLimit-Remaining"); got != "3" {
		t.Fatalf("Expected 3 remaining, got %q", got)
	}

	req := httptest.NewRequest(http.MethodPost, "/assets/videos/x", nil)
	req.RemoteAddr = "192.0.2.9:4001"
	upload.ServeHTTP(httptest.NewRecorder(), req)

	// Asking twice does not spend tokens.
	get()
	rec, body = get()
	if got := rec.Header().Get("X-RateLimit-Remaining"); got != "2" {
		t.Fatalf("Expected 2 remaining, got %q", got)
	}
	data, ok := body.Data.(map[string]interface{})
	if !ok || data["remaining"] != float64(2) || data["action"] != UploadAction {
		t.Fatalf("Unexpected quota body %+v", body.Data)
	}
}

func TestQuotaHandlerLimiterFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	NewRateLimitConfig(brokenLimiter{}, nil).QuotaHandler(UploadAction).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assets/uploads/quota", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected 503, got %d", rec.Code)
	}
}

type observed struct {
	route, method, status string
}

type fakeObserver struct {
	calls []observed
}

func (f *fakeObserver) ObserveRequest(route, method, status string, _ time.Duration) {
	f.calls = append(f.calls, observed{route, method, status})
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	base := logger.InitWriter(&buf, "info", "text")
	obs := &fakeObserver{}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /assets/thumbnails/{videoID}", func(w http.ResponseWriter, r *http.Request) {
		logger.FromContext(r.Context()).Info("inside handler")
		w.WriteHeader(http.StatusNotFound)
	})
	h := Logging(base, obs)(mux)

	req := httptest.NewRequest(http.MethodGet, "/assets/thumbnails/abc", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Header().Get(RequestIDHeader) != "req-123" {
		t.Fatalf("Expected request id to be echoed")
	}
	if len(obs.calls) != 1 {
		t.Fatalf("Expected one observation, got %d", len(obs.calls))
	}
	want := observed{"GET /assets/thumbnails/{videoID}", http.MethodGet, "404"}
	if obs.calls[0] != want {
		t.Fatalf("Expected %+v, got %+v", want, obs.calls[0])
	}

	out := buf.String()
	if strings.Count(out, "request_id=req-123") != 2 {
		t.Fatalf("Expected both log lines to carry the request id, got:\n%s", out)
	}
	if !strings.Contains(out, "status=404") {
		t.Fatalf("Expected status in log line, got:\n%s", out)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "[2001:db8::1]:443"
	if got := ClientIP(req); got != "2001:db8::1" {
		t.Fatalf("Expected 2001:db8::1, got %q", got)
	}
	req.RemoteAddr = "unix"
	if got := ClientIP(req); got != "unix" {
		t.Fatalf("Expected raw address fallback, got %q", got)
	}
}

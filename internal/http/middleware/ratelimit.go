package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/princekumarofficial/assets-service/internal/logger"
	"github.com/princekumarofficial/assets-service/internal/ratelimit"
	"github.com/princekumarofficial/assets-service/internal/utils/response"
)

// UploadAction is the rate limit bucket shared by both upload routes.
const UploadAction = "uploads"

// Limiter takes one token for subject performing action, or reports the
// tokens left without taking one.
type Limiter interface {
	Take(ctx context.Context, subject, action string) (ratelimit.Result, error)
	GetRemaining(ctx context.Context, subject, action string) (int64, error)
}

// Quota is the body of the quota endpoint.
type Quota struct {
	Action    string `json:"action"`
	Remaining int64  `json:"remaining"`
}

type RateLimitConfig struct {
	limiter Limiter
	onLimit func()
}

// NewRateLimitConfig builds the upload limiter. onLimit, if set, runs for
// every rejected request.
func NewRateLimitConfig(limiter Limiter, onLimit func()) *RateLimitConfig {
	return &RateLimitConfig{limiter: limiter, onLimit: onLimit}
}

// RateLimitMiddleware limits requests per client address. Uploads are
// authenticated inside the handler, so the address is the only identity
// available here. A limiter failure lets the request through.
func (rlc *RateLimitConfig) RateLimitMiddleware(action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := ClientIP(r)

			res, err := rlc.limiter.Take(r.Context(), subject, action)
			if err != nil {
				logger.FromContext(r.Context()).Warn("rate limit check failed, allowing request",
					slog.String("client", subject), slog.String("error", err.Error()))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(res.Limit, 10))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
			w.Header().Set("X-RateLimit-Reset", "60")

			if !res.Allowed {
				if rlc.onLimit != nil {
					rlc.onLimit()
				}
				response.WriteJSON(w, http.StatusTooManyRequests, response.GeneralError(
					errors.New("rate limit exceeded")))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitedHandler wraps a handler with rate limiting for a specific action
func (rlc *RateLimitConfig) RateLimitedHandler(action string, handler http.HandlerFunc) http.Handler {
	return rlc.RateLimitMiddleware(action)(handler)
}

// QuotaHandler reports how many action requests the calling client has left.
// It never consumes a token.
//
// @Summary Upload quota
// @Description Returns the remaining upload tokens for the calling address
// @Tags assets
// @Produce json
// @Success 200 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /assets/uploads/quota [get]
func (rlc *RateLimitConfig) QuotaHandler(action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subject := ClientIP(r)

		remaining, err := rlc.limiter.GetRemaining(r.Context(), subject, action)
		if err != nil {
			logger.FromContext(r.Context()).Error("rate limit lookup failed",
				slog.String("client", subject), slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusServiceUnavailable, response.GeneralError(
				errors.New("rate limit state unavailable")))
			return
		}

		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		response.WriteJSON(w, http.StatusOK, response.RequestOK("upload quota",
			Quota{Action: action, Remaining: remaining}))
	}
}

// ClientIP returns the host part of the connection's remote address.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

package health

import (
	"context"
	"net/http"
	"time"

	"github.com/princekumarofficial/assets-service/internal/utils/response"
)

// Checker probes one dependency.
type Checker interface {
	Ping(ctx context.Context) error
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) Ping(ctx context.Context) error { return f(ctx) }

// Status is the health report body.
type Status struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Health reports whether every dependency answers
// @Summary Health check
// @Description Pings the metadata store and, when configured, Redis.
// @Tags health
// @Produce json
// @Success 200 {object} Status "All dependencies reachable"
// @Failure 503 {object} Status "A dependency is down"
// @Router /health [get]
func Health(checks map[string]Checker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := Status{Status: "UP", Checks: make(map[string]string, len(checks))}
		code := http.StatusOK
		for name, c := range checks {
			if err := c.Ping(ctx); err != nil {
				status.Checks[name] = "DOWN: " + err.Error()
				status.Status = "DOWN"
				code = http.StatusServiceUnavailable
				continue
			}
			status.Checks[name] = "UP"
		}

		response.WriteJSON(w, code, status)
	}
}

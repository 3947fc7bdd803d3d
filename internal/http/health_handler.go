package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/volunteer-bot/internal/persistence/sqlite/pool"
)

// HealthChecker is satisfied by *sqlite.Storage.
type HealthChecker interface {
	Ping(ctx context.Context) error
	Pool() *pool.Pool
}

// HealthHandler reports whether the database is reachable through the pool.
type HealthHandler struct {
	checker HealthChecker
	timeout time.Duration
	resp    responder
	logger  *slog.Logger
}

// NewHealthHandler creates a handler that bounds each check by timeout.
func NewHealthHandler(checker HealthChecker, timeout time.Duration, logger *slog.Logger) *HealthHandler {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &HealthHandler{
		checker: checker,
		timeout: timeout,
		resp:    newResponder(logger),
		logger:  logger,
	}
}

type healthResponse struct {
	Status string    `json:"status"`
	Pool   poolStats `json:"pool"`
}

type poolStats struct {
	MaxConnections int   `json:"max_connections"`
	Created        int   `json:"created"`
	Idle           int   `json:"idle"`
	InUse          int   `json:"in_use"`
	WaitCount      int64 `json:"wait_count"`
	Timeouts       int64 `json:"timeouts"`
	Discarded      int64 `json:"discarded"`
}

// ServeHTTP handles GET /healthz.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.checker.Ping(ctx); err != nil {
		h.resp.writeError(r.Context(), w, http.StatusServiceUnavailable, err)
		return
	}

	stats := h.checker.Pool().Stats()
	handlerLogger(r.Context(), h.logger, "health").DebugContext(r.Context(), "database reachable", "in_use", stats.InUse)
	h.resp.writeJSON(r.Context(), w, http.StatusOK, healthResponse{
		Status: "ok",
		Pool: poolStats{
			MaxConnections: stats.MaxConnections,
			Created:        stats.Created,
			Idle:           stats.Idle,
			InUse:          stats.InUse,
			WaitCount:      stats.WaitCount,
			Timeouts:       stats.Timeouts,
			Discarded:      stats.Discarded,
		},
	})
}

package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/example/volunteer-bot/internal/logging"
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Or(ctx, r.logger).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	kind := logging.ErrorKind(err)
	logging.Or(ctx, r.logger).ErrorContext(ctx, "request failed", "status", status, "error_kind", kind, "error", err)
	r.writeJSON(ctx, w, status, errorResponse{
		Status:    "unavailable",
		ErrorKind: kind,
		Message:   http.StatusText(status),
	})
}

type errorResponse struct {
	Status    string `json:"status"`
	ErrorKind string `json:"error_kind,omitempty"`
	Message   string `json:"message"`
}

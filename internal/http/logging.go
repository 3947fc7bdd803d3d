package http

import (
	"context"
	"log/slog"

	"github.com/example/volunteer-bot/internal/logging"
)

func handlerLogger(ctx context.Context, fallback *slog.Logger, handlerName string, attrs ...any) *slog.Logger {
	pairs := append([]any{"handler", handlerName}, attrs...)
	return logging.Or(ctx, fallback).With(pairs...)
}

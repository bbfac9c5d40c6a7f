package utils

import (
	"log/slog"

	"github.com/samber/oops"
)

// LogError logs err at error level. oops errors contribute their code and context as attributes.
func LogError(logger *slog.Logger, msg string, err error) {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		logger.Error(msg, slog.Any("error", err))
		return
	}

	attrs := []any{slog.String("error", oopsErr.Error())}
	if code := oopsErr.Code(); code != "" {
		attrs = append(attrs, slog.Any("code", code))
	}
	if ctx := oopsErr.Context(); len(ctx) > 0 {
		attrs = append(attrs, slog.Any("context", ctx))
	}
	logger.Error(msg, attrs...)
}

// Package logging sets up the process-wide slog logger.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/samber/oops"
)

// requestHandler stamps every record with the service identity and, when
// the record was logged with a request context, the chi request ID.
type requestHandler struct {
	handler slog.Handler
	service string
	version string
}

func (h *requestHandler) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(
		slog.String("service", h.service),
		slog.String("version", h.version),
	)
	if ctx != nil {
		if id := chimiddleware.GetReqID(ctx); id != "" {
			r.AddAttrs(slog.String("request_id", id))
		}
	}
	return h.handler.Handle(ctx, r)
}

func (h *requestHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *requestHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &requestHandler{handler: h.handler.WithAttrs(attrs), service: h.service, version: h.version}
}

func (h *requestHandler) WithGroup(name string) slog.Handler {
	return &requestHandler{handler: h.handler.WithGroup(name), service: h.service, version: h.version}
}

// Setup creates a configured slog.Logger.
// format is "json" or "text" (json when empty). A nil w writes to os.Stderr.
func Setup(service, version, format string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	var base slog.Handler
	if format == "text" {
		base = slog.NewTextHandler(w, opts)
	} else {
		base = slog.NewJSONHandler(w, opts)
	}

	return slog.New(&requestHandler{handler: base, service: service, version: version})
}

// LogError logs err with its oops code and context when it carries them.
func LogError(ctx context.Context, logger *slog.Logger, msg string, err error) {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		logger.ErrorContext(ctx, msg, "error", err)
		return
	}

	attrs := []any{"error", oopsErr.Error()}
	if code := oopsErr.Code(); code != nil && code != "" {
		attrs = append(attrs, "code", code)
	}
	if c := oopsErr.Context(); len(c) > 0 {
		attrs = append(attrs, "context", c)
	}
	logger.ErrorContext(ctx, msg, attrs...)
}

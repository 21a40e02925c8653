package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/trace"

	"autodraft.app/assistant/core/config"
)

// Setup installs the process-wide slog default. otel.Setup must run first so
// the bridge picks up the exporting provider.
func Setup(cfg config.Config) {
	slog.SetDefault(slog.New(NewHandler(cfg, os.Stdout)))
}

func NewHandler(cfg config.Config, w io.Writer) slog.Handler {
	level := slog.LevelInfo
	if cfg.IsDevelopment() {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	if !cfg.IsProduction() {
		return &ContextHandler{next: slog.NewTextHandler(w, opts)}
	}
	if cfg.OTel.Enabled() {
		// The bridge reads trace ids from ctx itself; LogFields still need adding.
		return &ContextHandler{
			next:    otelslog.NewHandler(cfg.OTel.ServiceName, otelslog.WithLoggerProvider(global.GetLoggerProvider())),
			noTrace: true,
		}
	}
	return &ContextHandler{next: slog.NewJSONHandler(w, opts)}
}

// ContextHandler adds LogFields and the active trace/span ids from the
// record's context.
type ContextHandler struct {
	next    slog.Handler
	noTrace bool
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() && !h.noTrace {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	r.AddAttrs(GetLogFields(ctx).attrs()...)
	return h.next.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{next: h.next.WithAttrs(attrs), noTrace: h.noTrace}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{next: h.next.WithGroup(name), noTrace: h.noTrace}
}

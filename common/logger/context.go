package logger

import (
	"context"
	"log/slog"
	"unicode/utf8"
)

type fieldsKey struct{}

// LogFields are attached to every record logged with the context. The gate
// sets them once per run and once per message; collaborators only log.
type LogFields struct {
	RunID     *int64
	MessageID *string
	ThreadID  *string
	Artist    *string // name hint from the notes subject
	DryRun    *bool
	Component string // e.g. "autodraft.gate"
}

// WithLogFields returns a context carrying fields merged over any already set.
// Unset (nil or empty) fields never clear an existing value.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	merged := GetLogFields(ctx)
	override(&merged.RunID, fields.RunID)
	override(&merged.MessageID, fields.MessageID)
	override(&merged.ThreadID, fields.ThreadID)
	override(&merged.Artist, fields.Artist)
	override(&merged.DryRun, fields.DryRun)
	if fields.Component != "" {
		merged.Component = fields.Component
	}
	return context.WithValue(ctx, fieldsKey{}, merged)
}

func GetLogFields(ctx context.Context) LogFields {
	fields, _ := ctx.Value(fieldsKey{}).(LogFields)
	return fields
}

func override[T any](dst **T, src *T) {
	if src != nil {
		*dst = src
	}
}

func (f LogFields) attrs() []slog.Attr {
	var attrs []slog.Attr
	if f.RunID != nil {
		attrs = append(attrs, slog.Int64("run_id", *f.RunID))
	}
	if f.MessageID != nil {
		attrs = append(attrs, slog.String("message_id", *f.MessageID))
	}
	if f.ThreadID != nil {
		attrs = append(attrs, slog.String("thread_id", *f.ThreadID))
	}
	if f.Artist != nil {
		attrs = append(attrs, slog.String("artist", *f.Artist))
	}
	if f.DryRun != nil {
		attrs = append(attrs, slog.Bool("dry_run", *f.DryRun))
	}
	if f.Component != "" {
		attrs = append(attrs, slog.String("component", f.Component))
	}
	return attrs
}

func Ptr[T any](v T) *T {
	return &v
}

// Truncate shortens s to at most maxLen bytes without splitting a rune, for
// logging oracle output and message bodies.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

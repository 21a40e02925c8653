package logger

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("autodraft")

// Span pairs a started span with the context that carries it.
//
//	sp := logger.StartSpan(ctx, "gate.process_message", attribute.String("message.id", id))
//	defer sp.End()
//	ctx = sp.Context()
type Span struct {
	ctx  context.Context
	span trace.Span
}

func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) *Span {
	ctx, span := tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	return &Span{ctx: ctx, span: span}
}

func (s *Span) Context() context.Context { return s.ctx }

func (s *Span) End() { s.span.End() }

// RecordError marks the span failed. A nil err is ignored.
func (s *Span) RecordError(err error) {
	if err == nil {
		return
	}
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

func (s *Span) SetAttributes(attrs ...attribute.KeyValue) {
	s.span.SetAttributes(attrs...)
}

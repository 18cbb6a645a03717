// Package tracer wraps query execution in tracing spans. Spans carry the
// OpenTelemetry database semantic-convention attributes.
package tracer

import (
	"context"
	"regexp"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName identifies spans created by quill.
const InstrumentationName = "github.com/coregx/quill"

// Tracer starts spans.
type Tracer interface {
	StartSpan(ctx context.Context, name string) (context.Context, Span)
}

// Span is an in-flight unit of traced work.
type Span interface {
	SetAttributes(attrs ...attribute.KeyValue)
	RecordError(err error)
	SetStatus(code codes.Code, description string)
	End()
}

// NoopTracer creates spans that record nothing. It is the default tracer.
type NoopTracer struct{}

// StartSpan returns ctx unchanged with a no-op span.
func (n *NoopTracer) StartSpan(ctx context.Context, _ string) (context.Context, Span) {
	return ctx, &NoopSpan{}
}

// NoopSpan discards everything.
type NoopSpan struct{}

// SetAttributes does nothing.
func (n *NoopSpan) SetAttributes(_ ...attribute.KeyValue) {}

// RecordError does nothing.
func (n *NoopSpan) RecordError(_ error) {}

// SetStatus does nothing.
func (n *NoopSpan) SetStatus(_ codes.Code, _ string) {}

// End does nothing.
func (n *NoopSpan) End() {}

// OtelTracer adapts an OpenTelemetry tracer.
type OtelTracer struct {
	tracer trace.Tracer
}

// NewOtelTracer wraps an OpenTelemetry tracer.
func NewOtelTracer(tracer trace.Tracer) *OtelTracer {
	return &OtelTracer{tracer: tracer}
}

// NewOtelTracerFromProvider creates a tracer named after quill from provider.
func NewOtelTracerFromProvider(provider trace.TracerProvider) *OtelTracer {
	return NewOtelTracer(provider.Tracer(InstrumentationName))
}

// StartSpan starts a client span.
func (t *OtelTracer) StartSpan(ctx context.Context, name string) (context.Context, Span) {
	ctx, span := t.tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindClient))
	return ctx, &OtelSpan{span: span}
}

// OtelSpan adapts an OpenTelemetry span.
type OtelSpan struct {
	span trace.Span
}

// SetAttributes sets span attributes.
func (s *OtelSpan) SetAttributes(attrs ...attribute.KeyValue) {
	s.span.SetAttributes(attrs...)
}

// RecordError records err as a span event.
func (s *OtelSpan) RecordError(err error) {
	s.span.RecordError(err)
}

// SetStatus sets the span status.
func (s *OtelSpan) SetStatus(code codes.Code, description string) {
	s.span.SetStatus(code, description)
}

// End ends the span.
func (s *OtelSpan) End() {
	s.span.End()
}

// QueryMetadata describes one executed statement.
type QueryMetadata struct {
	SQL          string
	Args         []interface{}
	Duration     time.Duration
	RowsAffected int64
	Error        error
	Database     string // db.system: postgres, mysql, sqlite
	Operation    string // SELECT, INSERT, UPDATE, DELETE, TRUNCATE, EXPLAIN
	Table        string
}

// AddQueryAttributes records meta on span following the OpenTelemetry
// database semantic conventions, and sets the span status.
// See: https://opentelemetry.io/docs/specs/semconv/database/
func AddQueryAttributes(span Span, meta *QueryMetadata) {
	attrs := []attribute.KeyValue{
		attribute.String("db.system", meta.Database),
		attribute.String("db.statement", meta.SQL),
		attribute.String("db.operation", meta.Operation),
		attribute.Int("db.bind_count", len(meta.Args)),
		attribute.Float64("db.duration_ms", float64(meta.Duration.Microseconds())/1000.0),
	}
	if meta.Table != "" {
		attrs = append(attrs, attribute.String("db.sql.table", meta.Table))
	}
	if meta.RowsAffected > 0 {
		attrs = append(attrs, attribute.Int64("db.rows_affected", meta.RowsAffected))
	}
	span.SetAttributes(attrs...)

	if meta.Error != nil {
		span.RecordError(meta.Error)
		span.SetStatus(codes.Error, meta.Error.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}

// DetectOperation returns the upper-cased statement verb of sql: SELECT,
// INSERT, UPDATE, DELETE, TRUNCATE, EXPLAIN or UNKNOWN.
func DetectOperation(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "UNKNOWN"
	}
	switch verb := strings.ToUpper(fields[0]); verb {
	case "SELECT", "WITH":
		return "SELECT"
	case "INSERT", "UPDATE", "DELETE", "TRUNCATE", "EXPLAIN":
		return verb
	case "REPLACE":
		return "INSERT"
	}
	return "UNKNOWN"
}

var tableRe = regexp.MustCompile("(?is)^\\s*(?:select\\b.*?\\bfrom|insert\\s+(?:or\\s+ignore\\s+|ignore\\s+)?into|update|delete\\s+from|truncate(?:\\s+table)?)\\s+[`\"]?([\\w.]+)")

// DetectTable returns the first table sql reads from or writes to, without
// quotes, or "" when it cannot tell (e.g. a select from a subquery).
func DetectTable(sql string) string {
	m := tableRe.FindStringSubmatch(sql)
	if m == nil {
		return ""
	}
	return m[1]
}

// SpanName returns the span name for an operation, e.g. "quill.select".
func SpanName(operation string) string {
	return "quill." + strings.ToLower(operation)
}

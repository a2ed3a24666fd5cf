// Package middleware provides decorators that add cross-cutting concerns
// to the grading ports.
package middleware

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/go-prograde/internal/domain"
	"github.com/ahrav/go-prograde/internal/ports"
)

var _ ports.MarkLocator = (*TracingLocator)(nil)

// TracingLocator wraps a MarkLocator with an OpenTelemetry span and a
// latency metric per lookup. It holds no state of its own.
type TracingLocator struct {
	next    ports.MarkLocator
	metrics ports.MetricsCollector
}

// NewTracingLocator creates a TracingLocator around next.
func NewTracingLocator(next ports.MarkLocator, metrics ports.MetricsCollector) *TracingLocator {
	if next == nil {
		panic("tracing locator: next locator is required")
	}
	if metrics == nil {
		panic("tracing locator: metrics collector is required")
	}
	return &TracingLocator{next: next, metrics: metrics}
}

// Locate delegates to the wrapped locator.
func (tl *TracingLocator) Locate(ctx context.Context, dir string) (domain.MarkSet, bool, error) {
	tracer := otel.Tracer("mark-locator")
	ctx, span := tracer.Start(ctx, "MarkLocator.Locate", trace.WithAttributes(
		attribute.String("locator.dir", dir),
	))
	defer span.End()

	start := time.Now()
	marks, found, err := tl.next.Locate(ctx, dir)
	tl.metrics.RecordLatency("locate", time.Since(start), map[string]string{"dir": dir})

	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, false, err
	}
	span.SetAttributes(
		attribute.Bool("marks.found", found),
		attribute.Int("marks.count", len(marks)),
	)
	span.SetStatus(codes.Ok, "lookup completed")
	return marks, found, nil
}

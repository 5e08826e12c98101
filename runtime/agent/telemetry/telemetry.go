// Package telemetry defines the logging, metrics, and tracing seams used by
// the session controller and condensers. Production wiring delegates to
// goa.design/clue logging and OTEL instruments; tests use the no-op
// implementations.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
)

type (
	// Logger emits structured log records with alternating key/value pairs.
	Logger interface {
		Debug(ctx context.Context, msg string, keyvals ...any)
		Info(ctx context.Context, msg string, keyvals ...any)
		Warn(ctx context.Context, msg string, keyvals ...any)
		Error(ctx context.Context, msg string, keyvals ...any)
	}

	// Metrics records counters and timers for session activity: steps taken,
	// condensations applied, parse retries, model call latency.
	Metrics interface {
		IncCounter(name string, value float64, tags ...string)
		RecordTimer(name string, duration time.Duration, tags ...string)
	}

	// Tracer opens spans around model calls and executor round-trips.
	Tracer interface {
		Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, Span)
	}

	// Span is the handle returned by Tracer.Start.
	Span interface {
		End(opts ...trace.SpanEndOption)
		AddEvent(name string, attrs ...any)
		RecordError(err error, opts ...trace.EventOption)
	}
)

// Package telemetry wires the optional stdout trace exporter used to
// debug pipeline timing. When tracing is disabled the global provider
// stays a no-op and spans cost nothing.
package telemetry

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Init installs a stderr span exporter as the global tracer provider and
// returns a shutdown function that flushes pending spans. Call only when
// tracing is enabled.
func Init() (func(context.Context) error, error) {
	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(os.Stderr),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}

	// A per-invocation process: the simple (synchronous) span processor
	// guarantees spans are flushed before exit.
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
	)
	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}

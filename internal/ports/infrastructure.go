// Package ports defines the interfaces between the examiner's
// application core and its infrastructure adapters. Implementations
// live under infrastructure/; the application layer depends only on
// these contracts.
package ports

import (
	"context"
	"time"

	"github.com/gradeband/examiner/internal/domain"
)

// Dispatcher issues one grading generation against the external
// generative-content service, failing over across the configured
// credentials.
// Implementations must treat the credential collection as read-only and
// attempt credentials strictly one at a time; a dispatch either returns
// the first successful generation or a failure value describing the
// attempts made.
type Dispatcher interface {
	// Dispatch sends the request and returns the first successful
	// generation. The returned error is a data value describing the
	// aggregate failure; implementations never panic across this
	// boundary.
	//
	// Dispatch is synchronous and may block for the duration of the
	// outbound network calls. Callers own cancellation via ctx.
	Dispatch(ctx context.Context, req domain.GenerationRequest) (domain.Generation, error)
}

// Interpreter converts raw model output into a structured report.
// Implementations must be pure and total: any input, including empty or
// unrecognizable text, yields a valid (possibly mostly-empty) report.
type Interpreter interface {
	Interpret(raw string) domain.ParsedReport
}

// MetricsCollector defines the interface for collecting operational
// metrics. Implementations should integrate with observability
// platforms like Prometheus or custom monitoring solutions.
type MetricsCollector interface {
	// RecordLatency records the execution time of an operation.
	// The labels map provides additional context for the metric.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a counter metric.
	// This is useful for tracking events like dispatch attempts,
	// quota rejections, and parse degradations.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordGauge sets the current value of a gauge metric.
	RecordGauge(metric string, value float64, labels map[string]string)

	// RecordHistogram records a value in a histogram, e.g. token usage
	// distributions.
	RecordHistogram(metric string, value float64, labels map[string]string)
}

package llm

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/gradeband/examiner/internal/domain"
)

// tracerName identifies this instrumentation scope to the OpenTelemetry
// provider.
const tracerName = "examiner/llm"

// tracedLLM wraps generation calls in OpenTelemetry spans so individual
// credential attempts show up in distributed traces with model, prompt
// size, and token usage attributes.
type tracedLLM struct {
	next        CoreLLM
	serviceName string
	tracer      trace.Tracer
}

// TracingMiddleware creates middleware that adds OpenTelemetry tracing
// to generation requests.
func TracingMiddleware(serviceName string) Middleware {
	return func(next CoreLLM) CoreLLM {
		return &tracedLLM{
			next:        next,
			serviceName: serviceName,
			tracer:      otel.Tracer(tracerName),
		}
	}
}

// DoRequest executes the request within a span carrying request and
// usage attributes.
func (t *tracedLLM) DoRequest(ctx context.Context, req domain.GenerationRequest) (string, int, int, error) {
	ctx, span := t.tracer.Start(ctx, "llm.generate",
		trace.WithAttributes(
			attribute.String("service.name", t.serviceName),
			attribute.String("llm.model", t.next.GetModel()),
			attribute.Int("llm.prompt.length", len(req.Prompt)),
			attribute.Bool("llm.request.has_image", req.Image != nil),
		),
	)
	defer span.End()

	response, tokensIn, tokensOut, err := t.next.DoRequest(ctx, req)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(
			attribute.Int("llm.tokens.input", tokensIn),
			attribute.Int("llm.tokens.output", tokensOut),
		)
	}

	return response, tokensIn, tokensOut, err
}

// GetModel returns the model name from the wrapped implementation.
func (t *tracedLLM) GetModel() string { return t.next.GetModel() }

// SetModel updates the model name in the wrapped implementation.
func (t *tracedLLM) SetModel(m string) { t.next.SetModel(m) }

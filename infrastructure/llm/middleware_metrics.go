package llm

import (
	"context"
	"time"

	"github.com/gradeband/examiner/internal/domain"
	"github.com/gradeband/examiner/internal/ports"
)

// metricsLLM collects request metrics: latency, status, and token usage
// per model, for operational monitoring of grading traffic.
type metricsLLM struct {
	next      CoreLLM
	collector ports.MetricsCollector
}

// MetricsMiddleware creates middleware that collects request metrics
// through the given collector. A nil collector disables recording while
// keeping the chain intact.
func MetricsMiddleware(collector ports.MetricsCollector) Middleware {
	return func(next CoreLLM) CoreLLM {
		return &metricsLLM{
			next:      next,
			collector: collector,
		}
	}
}

// DoRequest executes the request while recording latency, outcome
// status, and token usage.
func (m *metricsLLM) DoRequest(ctx context.Context, req domain.GenerationRequest) (string, int, int, error) {
	start := time.Now()
	response, tokensIn, tokensOut, err := m.next.DoRequest(ctx, req)

	labels := map[string]string{
		"model":  m.next.GetModel(),
		"status": "success",
	}

	if err != nil {
		switch {
		case ctx.Err() == context.DeadlineExceeded:
			labels["status"] = "timeout"
		case IsQuotaExhausted(err):
			labels["status"] = "quota_exhausted"
		default:
			labels["status"] = "error"
		}
	}

	if m.collector != nil {
		m.collector.RecordHistogram("generation_latency_seconds", time.Since(start).Seconds(), labels)
		m.collector.RecordCounter("generation_requests_total", 1, labels)

		if err == nil {
			labels["token_type"] = "input"
			m.collector.RecordCounter("generation_tokens_total", float64(tokensIn), labels)

			labels["token_type"] = "output"
			m.collector.RecordCounter("generation_tokens_total", float64(tokensOut), labels)
		}
	}

	return response, tokensIn, tokensOut, err
}

// GetModel returns the model name from the wrapped implementation.
func (m *metricsLLM) GetModel() string { return m.next.GetModel() }

// SetModel updates the model name in the wrapped implementation.
func (m *metricsLLM) SetModel(model string) { m.next.SetModel(model) }

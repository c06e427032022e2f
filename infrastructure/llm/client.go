// Package llm provides the outbound interface to the generative-content
// service used for grading: a minimal provider abstraction, a Gemini
// implementation, structured error classification, a middleware chain
// for cross-cutting concerns, and the credential-failover dispatcher.
//
// Architecture:
//   - CoreLLM abstracts a single account's generation capability
//   - GenerativeAccount adds per-credential model discovery
//   - Pluggable middleware for timeouts, rate limiting, metrics, tracing
//   - Dispatcher walks the credential list with a quota-aware
//     retry-or-abort policy
//
// Basic usage:
//
//	d := llm.NewDispatcher(cfg.Credentials,
//	    llm.WithMiddleware(llm.TimeoutMiddleware(2*time.Minute)),
//	)
//	gen, err := d.Dispatch(ctx, req)
package llm

import (
	"context"

	"github.com/gradeband/examiner/internal/domain"
)

// CoreLLM defines the minimal interface a provider account must
// implement to serve generation requests. The middleware system wraps
// any conforming implementation.
type CoreLLM interface {
	// DoRequest sends one generation request and returns the produced
	// text together with input/output token counts.
	DoRequest(ctx context.Context, req domain.GenerationRequest) (response string, tokensIn, tokensOut int, err error)

	// GetModel returns the currently selected model identifier.
	GetModel() string

	// SetModel updates the model used for subsequent requests. The
	// dispatcher calls this after ranking the account's usable models.
	SetModel(model string)
}

// GenerativeAccount is a CoreLLM bound to a single credential that can
// also report which model identifiers the credential's account exposes
// for content generation.
type GenerativeAccount interface {
	CoreLLM

	// UsableModels returns the identifiers currently usable with this
	// account for content generation.
	UsableModels(ctx context.Context) ([]string, error)
}

// AccountFactory builds a GenerativeAccount for one credential. The
// dispatcher invokes it once per attempted credential; implementations
// must not retain or mutate the credential.
type AccountFactory func(ctx context.Context, cred domain.Credential) (GenerativeAccount, error)

// Middleware wraps a CoreLLM implementation to add cross-cutting
// functionality such as timeouts, rate limiting, metrics collection,
// or tracing without modifying provider logic.
type Middleware func(CoreLLM) CoreLLM

// Chain applies middleware in reverse order so the first listed
// middleware is the outermost wrapper.
func Chain(core CoreLLM, middleware []Middleware) CoreLLM {
	for i := len(middleware) - 1; i >= 0; i-- {
		core = middleware[i](core)
	}
	return core
}

// TokenEstimator provides pluggable token estimation for cases where
// the provider response carries no usage metadata.
type TokenEstimator interface {
	// EstimateTokens returns an approximate token count for the text.
	EstimateTokens(text string) int
}

// SimpleTokenEstimator provides basic character-based token estimation,
// assuming roughly four characters per token for English text.
type SimpleTokenEstimator struct{}

// EstimateTokens returns an approximate token count using the
// four-characters-per-token heuristic.
func (e *SimpleTokenEstimator) EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}

package llm

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/gradeband/examiner/internal/domain"
	"github.com/gradeband/examiner/internal/ports"
)

// DefaultModelPriority is the ranked capability list, most capable
// first. Each entry is matched as a substring against the identifiers a
// credential's account actually exposes; the first ranked entry with a
// match is selected.
var DefaultModelPriority = []string{
	"gemini-3-flash-preview",
	"gemini-2.5-flash",
	"gemini-2.5-flash-lite",
	"gemini-2.0-flash",
	"gemini-1.5-pro",
	"gemini-1.5-flash",
}

// FallbackModel is the minimal-capability identifier used when no
// ranked entry matches the account's usable models.
const FallbackModel = "gemini-1.5-flash"

var _ ports.Dispatcher = (*Dispatcher)(nil)

// Dispatcher walks the configured credentials in a freshly randomized
// order per request and returns the first successful generation.
//
// Credentials are attempted strictly one at a time; there is no
// concurrent racing. Failures matching the quota heuristic move the
// loop to the next credential; any other failure aborts the pass
// immediately. The dispatcher retains no state between invocations and
// is safe for concurrent use: the credential and priority slices are
// read-only after construction.
type Dispatcher struct {
	credentials []domain.Credential
	priority    []string
	fallback    string
	factory     AccountFactory
	middleware  []Middleware
}

// DispatcherOption customizes a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithModelPriority overrides the ranked model list.
func WithModelPriority(priority []string) DispatcherOption {
	return func(d *Dispatcher) { d.priority = priority }
}

// WithFallbackModel overrides the minimal-capability fallback.
func WithFallbackModel(model string) DispatcherOption {
	return func(d *Dispatcher) { d.fallback = model }
}

// WithAccountFactory replaces the Gemini account factory. Tests use
// this to substitute fake accounts.
func WithAccountFactory(factory AccountFactory) DispatcherOption {
	return func(d *Dispatcher) { d.factory = factory }
}

// WithMiddleware wraps every attempted account's generation call with
// the given middleware, outermost first.
func WithMiddleware(middleware ...Middleware) DispatcherOption {
	return func(d *Dispatcher) { d.middleware = middleware }
}

// NewDispatcher creates a Dispatcher over the given credential
// collection. The slice is treated as read-only; the dispatcher
// randomizes only its traversal order, never the collection itself.
func NewDispatcher(credentials []domain.Credential, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		credentials: credentials,
		priority:    DefaultModelPriority,
		fallback:    FallbackModel,
		factory:     NewGoogleAccount,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch implements ports.Dispatcher. It tries each credential in a
// uniformly random order: discover the account's usable models, select
// the best ranked match, issue one generation call, and short-circuit
// on the first success. Quota-style failures continue to the next
// credential; any other failure stops the loop. Exhaustion or an abort
// yields a *DispatchError carrying the last error and the number of
// credentials attempted.
func (d *Dispatcher) Dispatch(ctx context.Context, req domain.GenerationRequest) (domain.Generation, error) {
	if len(d.credentials) == 0 {
		return domain.Generation{}, &DispatchError{LastErr: ErrNoCredentials}
	}

	var lastErr error
	attempts := 0

	// A fresh permutation per request spreads load across credentials
	// instead of always hammering the first-listed one.
	// #nosec G404 - traversal order randomization needs no crypto rand
	for _, i := range rand.Perm(len(d.credentials)) {
		attempts++

		gen, err := d.tryCredential(ctx, d.credentials[i], req)
		if err == nil {
			gen.Attempts = attempts
			return gen, nil
		}

		lastErr = err
		if !IsQuotaExhausted(err) {
			// Fail fast on unexpected errors rather than burning
			// through the remaining credentials.
			break
		}
	}

	return domain.Generation{}, &DispatchError{Attempts: attempts, LastErr: lastErr}
}

// tryCredential makes exactly one generation attempt with one
// credential.
func (d *Dispatcher) tryCredential(ctx context.Context, cred domain.Credential, req domain.GenerationRequest) (domain.Generation, error) {
	account, err := d.factory(ctx, cred)
	if err != nil {
		return domain.Generation{}, fmt.Errorf("account for %s: %w", cred.Masked(), err)
	}

	usable, err := account.UsableModels(ctx)
	if err != nil {
		return domain.Generation{}, fmt.Errorf("model discovery for %s: %w", cred.Masked(), err)
	}

	account.SetModel(selectModel(d.priority, usable, d.fallback))

	core := Chain(account, d.middleware)
	text, tokensIn, tokensOut, err := core.DoRequest(ctx, req)
	if err != nil {
		return domain.Generation{}, err
	}

	return domain.Generation{
		Text:      text,
		Model:     account.GetModel(),
		TokensIn:  tokensIn,
		TokensOut: tokensOut,
	}, nil
}

// selectModel walks the ranked priority list top to bottom and returns
// the first entry that is a substring of any usable identifier, or the
// fallback when nothing matches.
func selectModel(priority, usable []string, fallback string) string {
	for _, target := range priority {
		for _, name := range usable {
			if strings.Contains(name, target) {
				return target
			}
		}
	}
	return fallback
}

// DispatchError is the aggregate failure of one dispatch pass: either
// every credential hit a quota condition, or an earlier credential
// failed with a non-retryable error and the pass was aborted.
type DispatchError struct {
	// Attempts is the number of credentials tried before giving up.
	Attempts int
	// LastErr is the final underlying error observed.
	LastErr error
}

// Error formats the consolidated failure message shown to callers.
func (e *DispatchError) Error() string {
	if e.Attempts == 0 {
		return fmt.Sprintf("dispatch failed: %v", e.LastErr)
	}
	return fmt.Sprintf("dispatch failed after %d credential attempt(s): %v", e.Attempts, e.LastErr)
}

// Unwrap returns the last underlying error.
func (e *DispatchError) Unwrap() error { return e.LastErr }

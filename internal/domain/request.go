// Package domain contains the core value types for the examiner:
// generation requests and results, band scores, and parsed assessment
// reports. The types are plain values with no infrastructure
// dependencies so they can flow between the dispatcher, the
// interpreter, and presentation code without coupling.
package domain

import "fmt"

// Default generation parameters used for grading calls.
// These mirror the settings the grading prompt was tuned against.
const (
	// DefaultTemperature keeps scoring output stable across runs.
	DefaultTemperature = 0.3
	// DefaultTopP is the nucleus-sampling threshold for grading calls.
	DefaultTopP = 0.95
	// DefaultTopK caps the candidate token pool per step.
	DefaultTopK = 64
	// DefaultMaxOutputTokens bounds the length of the produced critique.
	DefaultMaxOutputTokens = 32000
	// DefaultThinkingBudget is the extended-reasoning token budget applied
	// only when the selected model supports a thinking mode.
	DefaultThinkingBudget = 32000
)

// Credential is an opaque API secret used to authenticate against the
// generative-content service. The process-wide credential list is loaded
// once at startup and is never mutated afterwards; dispatchers randomize
// only their traversal order over it.
type Credential string

// Masked returns a redacted form of the credential suitable for logs and
// diagnostics, keeping only the last four characters.
func (c Credential) Masked() string {
	s := string(c)
	if len(s) <= 4 {
		return "****"
	}
	return fmt.Sprintf("****%s", s[len(s)-4:])
}

// ImagePayload carries an uploaded image (chart, graph, table, or
// diagram) alongside the textual prompt.
type ImagePayload struct {
	// Data is the raw image bytes.
	Data []byte
	// MIMEType identifies the image format, e.g. "image/png".
	MIMEType string
}

// GenerationParams holds the sampling and output parameters for a single
// generation call.
type GenerationParams struct {
	// Temperature controls sampling randomness.
	Temperature float64
	// TopP is the nucleus-sampling threshold.
	TopP float64
	// TopK caps the number of candidate tokens considered per step.
	TopK int
	// MaxOutputTokens bounds the response length.
	MaxOutputTokens int
	// ThinkingBudget is the extended-reasoning token budget. It is only
	// applied when the selected model's identifier indicates support for
	// a thinking mode; zero disables it.
	ThinkingBudget int
}

// DefaultGenerationParams returns the standard parameter set for grading
// calls.
func DefaultGenerationParams() GenerationParams {
	return GenerationParams{
		Temperature:     DefaultTemperature,
		TopP:            DefaultTopP,
		TopK:            DefaultTopK,
		MaxOutputTokens: DefaultMaxOutputTokens,
		ThinkingBudget:  DefaultThinkingBudget,
	}
}

// GenerationRequest is the immutable input to a dispatch: the assembled
// instruction text, an optional image, and the generation parameters.
// It is created once per submission and never mutated.
type GenerationRequest struct {
	// Prompt is the full instruction text sent to the model.
	Prompt string
	// Image is the optional visual attachment for the task.
	Image *ImagePayload
	// Params are the sampling parameters for this call.
	Params GenerationParams
}

// Generation is the successful outcome of a dispatch: the raw text the
// model produced and the identity of the model that produced it.
type Generation struct {
	// Text is the raw response text, narrative and structured block
	// included.
	Text string
	// Model is the identifier of the model that served the request.
	Model string
	// Attempts counts how many credentials were tried before success.
	Attempts int
	// TokensIn and TokensOut report token usage when the provider
	// exposes it, otherwise estimates.
	TokensIn  int
	TokensOut int
}

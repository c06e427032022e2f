package llm

import (
	"context"
	"errors"
	"math"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/genai"

	"github.com/gradeband/examiner/internal/domain"
)

const (
	// googleProviderName labels classified errors from this backend.
	googleProviderName = "google"

	// generateContentAction is the capability an account-visible model
	// must support to be usable for grading calls.
	generateContentAction = "generateContent"

	// thinkingMarker identifies models that accept an extended-reasoning
	// budget.
	thinkingMarker = "thinking"
)

// googleAccount implements GenerativeAccount for Google's Gemini API,
// bound to a single credential. It handles authentication, request
// formatting, model discovery, and error classification while
// conforming to the common interface for middleware compatibility.
type googleAccount struct {
	client          *genai.Client
	model           string
	tokenEstimator  TokenEstimator
	errorClassifier *ErrorClassifier
}

var _ GenerativeAccount = (*googleAccount)(nil)

// NewGoogleAccount creates a Gemini account handle for one credential.
// It satisfies AccountFactory. The model starts at the minimal-capability
// fallback; the dispatcher upgrades it after ranking the account's
// usable models.
func NewGoogleAccount(ctx context.Context, cred domain.Credential) (GenerativeAccount, error) {
	if cred == "" {
		return nil, ErrEmptyCredential
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  string(cred),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, NewProviderError(googleProviderName, ErrorTypeAuthentication, 0,
			"failed to create client", err)
	}

	return &googleAccount{
		client:          client,
		model:           FallbackModel,
		tokenEstimator:  &SimpleTokenEstimator{},
		errorClassifier: &ErrorClassifier{Provider: googleProviderName},
	}, nil
}

// UsableModels returns the identifiers this credential's account exposes
// for content generation.
func (a *googleAccount) UsableModels(ctx context.Context) ([]string, error) {
	var names []string
	for model, err := range a.client.Models.All(ctx) {
		if err != nil {
			return nil, a.handleError(err)
		}
		if supportsGeneration(model) {
			names = append(names, model.Name)
		}
	}
	return names, nil
}

func supportsGeneration(m *genai.Model) bool {
	for _, action := range m.SupportedActions {
		if action == generateContentAction {
			return true
		}
	}
	return false
}

// DoRequest sends a grading request to the Gemini API and returns the
// produced text. Token counts come from the response usage metadata
// when present, otherwise from estimation.
func (a *googleAccount) DoRequest(ctx context.Context, req domain.GenerationRequest) (string, int, int, error) {
	contents := a.buildContents(req)
	config := a.buildGenerationConfig(req.Params)

	resp, err := a.client.Models.GenerateContent(ctx, a.model, contents, config)
	if err != nil {
		return "", 0, 0, a.handleError(err)
	}

	content := resp.Text()
	if content == "" {
		return "", 0, 0, ErrEmptyResponse
	}

	tokensIn := a.tokenCount(resp.UsageMetadata, true, req.Prompt)
	tokensOut := a.tokenCount(resp.UsageMetadata, false, content)

	return content, tokensIn, tokensOut, nil
}

// GetModel returns the currently selected model identifier.
func (a *googleAccount) GetModel() string { return a.model }

// SetModel updates the model used for subsequent requests.
func (a *googleAccount) SetModel(model string) { a.model = model }

// buildContents assembles the request parts: the instruction text plus
// the optional image attachment.
func (a *googleAccount) buildContents(req domain.GenerationRequest) []*genai.Content {
	parts := []*genai.Part{genai.NewPartFromText(req.Prompt)}
	if req.Image != nil {
		parts = append(parts, genai.NewPartFromBytes(req.Image.Data, req.Image.MIMEType))
	}
	return []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
}

// buildGenerationConfig maps the request parameters onto the Gemini
// generation config, clamping values to the API's supported ranges.
// The extended-reasoning budget is applied only when the selected
// model's identifier indicates thinking support.
func (a *googleAccount) buildGenerationConfig(params domain.GenerationParams) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}

	// Gemini accepts temperatures between 0.0 and 2.0.
	config.Temperature = genai.Ptr(float32(clamp(params.Temperature, 0.0, 2.0)))

	if params.MaxOutputTokens > 0 {
		if params.MaxOutputTokens > math.MaxInt32 {
			config.MaxOutputTokens = math.MaxInt32
		} else {
			config.MaxOutputTokens = int32(params.MaxOutputTokens)
		}
	}

	if params.TopP > 0 {
		config.TopP = genai.Ptr(float32(clamp(params.TopP, 0.0, 1.0)))
	}

	if params.TopK > 0 {
		config.TopK = genai.Ptr(float32(params.TopK))
	}

	if params.ThinkingBudget > 0 && strings.Contains(strings.ToLower(a.model), thinkingMarker) {
		config.ThinkingConfig = &genai.ThinkingConfig{
			IncludeThoughts: true,
			ThinkingBudget:  genai.Ptr(int32(params.ThinkingBudget)),
		}
	}

	return config
}

// tokenCount retrieves the token count from the API response metadata,
// falling back to estimation when usage is not reported.
func (a *googleAccount) tokenCount(usage *genai.GenerateContentResponseUsageMetadata, isInput bool, text string) int {
	if usage != nil {
		if isInput && usage.PromptTokenCount > 0 {
			return int(usage.PromptTokenCount)
		}
		if !isInput && usage.CandidatesTokenCount > 0 {
			return int(usage.CandidatesTokenCount)
		}
	}
	return a.tokenEstimator.EstimateTokens(text)
}

// handleError classifies Gemini API failures into ProviderErrors.
func (a *googleAccount) handleError(err error) error {
	if isContextError(err) {
		return a.errorClassifier.ClassifyContextError(err)
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		message := apiErr.Message
		if message == "" && len(apiErr.Errors) > 0 {
			message = apiErr.Errors[0].Message
		}

		if containsContentPolicyError(apiErr) {
			return NewProviderError(googleProviderName, ErrorTypeContentPolicy, apiErr.Code,
				"request blocked by safety filters", err)
		}

		return a.errorClassifier.ClassifyHTTPError(apiErr.Code, message, err)
	}

	return NewProviderError(googleProviderName, ErrorTypeUnknown, 0, "request failed", err)
}

// containsContentPolicyError checks whether an API error stems from
// safety filtering rather than a transport problem.
func containsContentPolicyError(apiErr *googleapi.Error) bool {
	msg := strings.ToLower(apiErr.Message)
	return strings.Contains(msg, "safety") || strings.Contains(msg, "blocked")
}

// isContextError checks if an error is a context cancellation or
// deadline expiry.
func isContextError(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

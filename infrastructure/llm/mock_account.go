package llm

import (
	"context"
	"sync"
	"time"

	"github.com/gradeband/examiner/internal/domain"
)

// MockAccount provides a configurable GenerativeAccount for testing.
// It allows precise control over model discovery, response behavior,
// timing, and error conditions to facilitate dispatcher and middleware
// testing.
type MockAccount struct {
	mu sync.Mutex

	// Response configuration
	Response      string
	TokensIn      int
	TokensOut     int
	Err           error
	Models        []string
	ModelsErr     error
	ResponseDelay time.Duration

	// Behavior flags
	FailUntilAttempt int // Fail for the first N calls, then succeed

	// Tracking
	model        string
	CallCount    int
	LastRequest  domain.GenerationRequest
	LastContext  context.Context
	SetModelLog  []string
	CallInstants []time.Time
}

// NewMockAccount creates a mock account with default successful
// behavior.
func NewMockAccount() *MockAccount {
	return &MockAccount{
		Response:  "test response",
		TokensIn:  10,
		TokensOut: 20,
		Models:    []string{"models/gemini-2.5-flash"},
		model:     FallbackModel,
	}
}

// UsableModels implements GenerativeAccount with the configured list.
func (m *MockAccount) UsableModels(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ModelsErr != nil {
		return nil, m.ModelsErr
	}
	return m.Models, nil
}

// DoRequest implements CoreLLM with configurable behavior.
func (m *MockAccount) DoRequest(ctx context.Context, req domain.GenerationRequest) (string, int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CallCount++
	m.LastRequest = req
	m.LastContext = ctx
	m.CallInstants = append(m.CallInstants, time.Now())

	if m.ResponseDelay > 0 {
		m.mu.Unlock()
		select {
		case <-time.After(m.ResponseDelay):
		case <-ctx.Done():
			m.mu.Lock()
			return "", 0, 0, ctx.Err()
		}
		m.mu.Lock()
	}

	if m.FailUntilAttempt > 0 && m.CallCount <= m.FailUntilAttempt {
		if m.Err != nil {
			return "", 0, 0, m.Err
		}
		return "", 0, 0, ErrEmptyResponse
	}

	if m.Err != nil && m.FailUntilAttempt == 0 {
		return "", 0, 0, m.Err
	}

	return m.Response, m.TokensIn, m.TokensOut, nil
}

// GetModel returns the currently selected model.
func (m *MockAccount) GetModel() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.model
}

// SetModel records and applies the model selection.
func (m *MockAccount) SetModel(model string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.model = model
	m.SetModelLog = append(m.SetModelLog, model)
}

// GetCallCount returns how many generation calls were made.
func (m *MockAccount) GetCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CallCount
}

package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/gradeband/examiner/internal/domain"
	"github.com/gradeband/examiner/internal/ports"
)

// Submission is one grading request from a candidate: the task prompt,
// the written report, and the optional chart or diagram image.
type Submission struct {
	// Topic is the original task question or instruction.
	Topic string `json:"topic" validate:"required"`
	// Essay is the candidate's written report. The minimum length
	// rejects accidental empty pastes, not short essays; those are the
	// examiner's problem to penalize.
	Essay string `json:"essay" validate:"required,min=10"`
	// Image is the visual resource the task refers to, if provided.
	Image *domain.ImagePayload `json:"-"`
}

// Assessment is the outcome of grading one submission.
type Assessment struct {
	// ID uniquely identifies this assessment.
	ID string `json:"id"`
	// Report is the interpreted grading result.
	Report domain.ParsedReport `json:"report"`
	// Model identifies the backend model that produced the critique.
	Model string `json:"model"`
	// Attempts counts the credentials tried before success.
	Attempts int `json:"attempts"`
	// TokensIn and TokensOut report token usage for the grading call.
	TokensIn  int `json:"tokens_in"`
	TokensOut int `json:"tokens_out"`
}

// Service grades submissions by composing the failover dispatcher with
// the response interpreter. It is stateless apart from its read-only
// collaborators and safe for concurrent use.
type Service struct {
	dispatcher     ports.Dispatcher
	interpreter    ports.Interpreter
	prompts        *PromptBuilder
	params         domain.GenerationParams
	metrics        ports.MetricsCollector
	maxConcurrency int
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithGenerationParams overrides the default generation parameters.
func WithGenerationParams(params domain.GenerationParams) ServiceOption {
	return func(s *Service) { s.params = params }
}

// WithMetrics attaches a metrics collector for grading-level
// observability.
func WithMetrics(collector ports.MetricsCollector) ServiceOption {
	return func(s *Service) { s.metrics = collector }
}

// WithMaxConcurrency caps concurrent gradings in GradeBatch.
func WithMaxConcurrency(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.maxConcurrency = n
		}
	}
}

// NewService creates a grading service. The dispatcher and interpreter
// are required; the prompt builder renders the grading instruction for
// each submission.
func NewService(dispatcher ports.Dispatcher, interpreter ports.Interpreter, prompts *PromptBuilder, opts ...ServiceOption) (*Service, error) {
	if dispatcher == nil {
		return nil, fmt.Errorf("dispatcher cannot be nil")
	}
	if interpreter == nil {
		return nil, fmt.Errorf("interpreter cannot be nil")
	}
	if prompts == nil {
		return nil, fmt.Errorf("prompt builder cannot be nil")
	}

	s := &Service{
		dispatcher:     dispatcher,
		interpreter:    interpreter,
		prompts:        prompts,
		params:         domain.DefaultGenerationParams(),
		maxConcurrency: DefaultMaxConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Grade validates the submission, assembles the grading prompt,
// dispatches one generation across the configured credentials, and
// interprets the response into an Assessment.
//
// Dispatch failures surface as the returned error; interpretation never
// fails, it degrades to unavailable placeholders instead.
func (s *Service) Grade(ctx context.Context, sub Submission) (Assessment, error) {
	start := time.Now()

	if err := validate.Struct(sub); err != nil {
		return Assessment{}, fmt.Errorf("invalid submission: %w", err)
	}

	prompt, err := s.prompts.Build(sub)
	if err != nil {
		return Assessment{}, err
	}

	gen, err := s.dispatcher.Dispatch(ctx, domain.GenerationRequest{
		Prompt: prompt,
		Image:  sub.Image,
		Params: s.params,
	})
	if err != nil {
		s.observe("grade", "dispatch_failed", start)
		return Assessment{}, err
	}

	report := s.interpreter.Interpret(gen.Text)
	s.observe("grade", "success", start)

	return Assessment{
		ID:        uuid.NewString(),
		Report:    report,
		Model:     gen.Model,
		Attempts:  gen.Attempts,
		TokensIn:  gen.TokensIn,
		TokensOut: gen.TokensOut,
	}, nil
}

// GradeBatch grades several submissions concurrently, bounded by the
// configured concurrency limit. Results keep the input order. The first
// failure cancels the remaining gradings.
func (s *Service) GradeBatch(ctx context.Context, subs []Submission) ([]Assessment, error) {
	results := make([]Assessment, len(subs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrency)

	for i, sub := range subs {
		g.Go(func() error {
			a, err := s.Grade(gctx, sub)
			if err != nil {
				return fmt.Errorf("submission %d: %w", i+1, err)
			}
			results[i] = a
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) observe(operation, status string, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordLatency(operation, time.Since(start), map[string]string{"status": status})
	s.metrics.RecordCounter("grade_operations_total", 1, map[string]string{"status": status})
}

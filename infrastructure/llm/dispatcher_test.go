package llm

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradeband/examiner/internal/domain"
)

// scriptedFactory builds mock accounts per credential and records the
// order in which credentials are attempted.
type scriptedFactory struct {
	mu        sync.Mutex
	accounts  map[domain.Credential]*MockAccount
	factoryFn map[domain.Credential]error
	attempted []domain.Credential
}

func newScriptedFactory() *scriptedFactory {
	return &scriptedFactory{
		accounts:  make(map[domain.Credential]*MockAccount),
		factoryFn: make(map[domain.Credential]error),
	}
}

func (f *scriptedFactory) set(cred domain.Credential, account *MockAccount) {
	f.accounts[cred] = account
}

func (f *scriptedFactory) factory(ctx context.Context, cred domain.Credential) (GenerativeAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempted = append(f.attempted, cred)
	if err, ok := f.factoryFn[cred]; ok && err != nil {
		return nil, err
	}
	account, ok := f.accounts[cred]
	if !ok {
		account = NewMockAccount()
		f.accounts[cred] = account
	}
	return account, nil
}

func (f *scriptedFactory) attemptedCreds() []domain.Credential {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Credential(nil), f.attempted...)
}

func quotaErr() error {
	return NewProviderError("google", ErrorTypeRateLimit, 429, "google rate limit exceeded", nil)
}

func creds(n int) []domain.Credential {
	out := make([]domain.Credential, n)
	for i := range out {
		out[i] = domain.Credential(string(rune('a'+i)) + "-key-0000")
	}
	return out
}

func TestDispatch_AllCredentialsQuotaExhausted(t *testing.T) {
	// Given five credentials that all fail with quota-style errors
	cc := creds(5)
	factory := newScriptedFactory()
	for _, c := range cc {
		account := NewMockAccount()
		account.Err = quotaErr()
		factory.set(c, account)
	}
	d := NewDispatcher(cc, WithAccountFactory(factory.factory))

	// When dispatching
	_, err := d.Dispatch(context.Background(), domain.GenerationRequest{Prompt: "grade this"})

	// Then every credential is attempted exactly once and the failure
	// reports the full attempt count.
	var de *DispatchError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, 5, de.Attempts)
	assert.ErrorContains(t, de, "rate limit")

	attempted := factory.attemptedCreds()
	assert.Len(t, attempted, 5)
	seen := make(map[domain.Credential]bool)
	for _, c := range attempted {
		assert.False(t, seen[c], "credential %s attempted twice", c.Masked())
		seen[c] = true
	}
}

func TestDispatch_ShortCircuitsOnFirstSuccess(t *testing.T) {
	// Given several credentials where exactly one succeeds and the rest
	// are quota-exhausted
	cc := creds(4)
	winner := cc[2]
	factory := newScriptedFactory()
	for _, c := range cc {
		account := NewMockAccount()
		if c != winner {
			account.Err = quotaErr()
		} else {
			account.Response = "the critique"
			account.Models = []string{"models/gemini-2.5-flash", "models/gemini-1.5-flash"}
		}
		factory.set(c, account)
	}
	d := NewDispatcher(cc, WithAccountFactory(factory.factory))

	// When dispatching
	gen, err := d.Dispatch(context.Background(), domain.GenerationRequest{Prompt: "grade this"})

	// Then the result is attributable to the winning credential's model
	require.NoError(t, err)
	assert.Equal(t, "the critique", gen.Text)
	assert.Equal(t, "gemini-2.5-flash", gen.Model)

	// And the winner is the last credential attempted, with attempts
	// equal to its position in the traversal order.
	attempted := factory.attemptedCreds()
	require.NotEmpty(t, attempted)
	assert.Equal(t, winner, attempted[len(attempted)-1])
	assert.Equal(t, len(attempted), gen.Attempts)

	// And the loop stopped: the winner made exactly one generation call.
	assert.Equal(t, 1, factory.accounts[winner].GetCallCount())
}

func TestDispatch_NonRetryableErrorStopsImmediately(t *testing.T) {
	// Given credentials that all fail with a non-quota error
	cc := creds(4)
	factory := newScriptedFactory()
	fatal := NewProviderError("google", ErrorTypeAuthentication, 403, "google authentication failed", nil)
	for _, c := range cc {
		account := NewMockAccount()
		account.Err = fatal
		factory.set(c, account)
	}
	d := NewDispatcher(cc, WithAccountFactory(factory.factory))

	// When dispatching
	_, err := d.Dispatch(context.Background(), domain.GenerationRequest{Prompt: "grade this"})

	// Then the loop aborts after the first attempt
	var de *DispatchError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, 1, de.Attempts)
	assert.Len(t, factory.attemptedCreds(), 1)
	assert.ErrorIs(t, err, fatal)
}

func TestDispatch_SingleCredentialSuccess(t *testing.T) {
	cc := creds(1)
	factory := newScriptedFactory()
	d := NewDispatcher(cc, WithAccountFactory(factory.factory))

	gen, err := d.Dispatch(context.Background(), domain.GenerationRequest{Prompt: "grade this"})

	require.NoError(t, err)
	assert.Equal(t, 1, gen.Attempts)
	assert.Equal(t, "test response", gen.Text)
	assert.Equal(t, 10, gen.TokensIn)
	assert.Equal(t, 20, gen.TokensOut)
}

func TestDispatch_NoCredentials(t *testing.T) {
	d := NewDispatcher(nil)

	_, err := d.Dispatch(context.Background(), domain.GenerationRequest{})

	var de *DispatchError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, 0, de.Attempts)
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestDispatch_ModelDiscoveryQuotaFailureContinues(t *testing.T) {
	// Given one credential whose model listing hits quota and one that
	// succeeds
	cc := creds(2)
	factory := newScriptedFactory()
	listFail := NewMockAccount()
	listFail.ModelsErr = quotaErr()
	factory.set(cc[0], listFail)
	ok := NewMockAccount()
	factory.set(cc[1], ok)
	d := NewDispatcher(cc, WithAccountFactory(factory.factory))

	gen, err := d.Dispatch(context.Background(), domain.GenerationRequest{Prompt: "grade this"})

	require.NoError(t, err)
	assert.NotZero(t, gen.Attempts)
}

func TestDispatch_FallbackModelWhenNothingMatches(t *testing.T) {
	cc := creds(1)
	factory := newScriptedFactory()
	account := NewMockAccount()
	account.Models = []string{"models/imagen-3"}
	factory.set(cc[0], account)
	d := NewDispatcher(cc, WithAccountFactory(factory.factory))

	gen, err := d.Dispatch(context.Background(), domain.GenerationRequest{Prompt: "grade this"})

	require.NoError(t, err)
	assert.Equal(t, FallbackModel, gen.Model)
}

func TestDispatch_AppliesMiddleware(t *testing.T) {
	// Given a middleware that counts wrapped calls
	var calls int
	counting := func(next CoreLLM) CoreLLM {
		return &countingLLM{next: next, calls: &calls}
	}
	cc := creds(1)
	factory := newScriptedFactory()
	d := NewDispatcher(cc,
		WithAccountFactory(factory.factory),
		WithMiddleware(counting),
	)

	_, err := d.Dispatch(context.Background(), domain.GenerationRequest{Prompt: "grade this"})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

type countingLLM struct {
	next  CoreLLM
	calls *int
}

func (c *countingLLM) DoRequest(ctx context.Context, req domain.GenerationRequest) (string, int, int, error) {
	*c.calls++
	return c.next.DoRequest(ctx, req)
}

func (c *countingLLM) GetModel() string  { return c.next.GetModel() }
func (c *countingLLM) SetModel(m string) { c.next.SetModel(m) }

func TestSelectModel(t *testing.T) {
	usable := []string{
		"models/gemini-1.5-flash",
		"models/gemini-2.0-flash",
		"models/gemini-2.5-flash-lite",
	}

	tests := []struct {
		name     string
		priority []string
		want     string
	}{
		{
			name:     "highest ranked match wins",
			priority: []string{"gemini-2.5-flash", "gemini-2.0-flash"},
			want:     "gemini-2.5-flash",
		},
		{
			name:     "substring match against full identifier",
			priority: []string{"gemini-3-pro", "gemini-2.0-flash"},
			want:     "gemini-2.0-flash",
		},
		{
			name:     "fallback when nothing matches",
			priority: []string{"gemini-9"},
			want:     FallbackModel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, selectModel(tt.priority, usable, FallbackModel))
		})
	}
}

func TestDispatchError_Message(t *testing.T) {
	err := &DispatchError{Attempts: 3, LastErr: errors.New("google rate limit exceeded")}

	assert.Contains(t, err.Error(), "3 credential attempt(s)")
	assert.Contains(t, err.Error(), "rate limit")
}

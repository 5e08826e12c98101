package middleware

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/skeinworks/skein/runtime/agent/model"
)

type fakeClient struct {
	completeErr   error
	completeCalls int
}

func (f *fakeClient) Complete(_ context.Context, _ *model.Request) (*model.Response, error) {
	f.completeCalls++
	return nil, f.completeErr
}

func (f *fakeClient) Capabilities() model.Capabilities {
	return model.Capabilities{FunctionCalling: true}
}

func userRequest(text string) *model.Request {
	return &model.Request{
		Messages: []*model.Message{
			{Role: model.ConversationRoleUser, Content: text},
		},
		MaxTokens: 10,
	}
}

func TestAdaptiveRateLimiterBackoffOnRateLimited(t *testing.T) {
	limiter := newAdaptiveRateLimiter(60000, 60000)
	initialTPM := limiter.currentTPM

	client := &fakeClient{completeErr: model.ErrRateLimited}
	wrapped := limiter.Middleware()(client)

	_, err := wrapped.Complete(context.Background(), userRequest("hello"))
	require.True(t, errors.Is(err, model.ErrRateLimited))

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	require.Less(t, limiter.currentTPM, initialTPM)
}

func TestAdaptiveRateLimiterProbeOnSuccess(t *testing.T) {
	limiter := newAdaptiveRateLimiter(60000, 120000)

	limiter.mu.Lock()
	initialTPM := limiter.currentTPM
	limiter.recoveryRate = 1000
	limiter.mu.Unlock()

	client := &fakeClient{}
	wrapped := limiter.Middleware()(client)

	_, err := wrapped.Complete(context.Background(), userRequest("hello"))
	require.NoError(t, err)

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	require.Greater(t, limiter.currentTPM, initialTPM)
}

func TestAdaptiveRateLimiterBlocksBeforeDelegating(t *testing.T) {
	limiter := newAdaptiveRateLimiter(60, 60)

	limiter.mu.Lock()
	// An impossible limiter makes any non-zero token request fail immediately,
	// exercising the error path without relying on timing.
	limiter.limiter = rate.NewLimiter(0, 0)
	limiter.mu.Unlock()

	client := &fakeClient{}
	wrapped := limiter.Middleware()(client)

	_, err := wrapped.Complete(context.Background(), userRequest("hello"))
	require.Error(t, err)
	require.Zero(t, client.completeCalls)
}

func TestLimitedClientForwardsCapabilities(t *testing.T) {
	limiter := newAdaptiveRateLimiter(60000, 60000)
	wrapped := limiter.Middleware()(&fakeClient{})

	cr, ok := wrapped.(model.CapabilityReporter)
	require.True(t, ok)
	require.True(t, cr.Capabilities().FunctionCalling)
}

func TestBackoffClampsToFloor(t *testing.T) {
	limiter := newAdaptiveRateLimiter(1000, 1000)

	for i := 0; i < 20; i++ {
		limiter.backoff()
	}

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	require.Equal(t, limiter.minTPM, limiter.currentTPM)
}

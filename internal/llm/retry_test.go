package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/sales-coach/internal/apperr"
	"github.com/capitalize-ai/sales-coach/pkg/logger"
)

// instantTimer fires immediately and records requested waits.
type instantTimer struct {
	c     chan time.Time
	waits []time.Duration
}

func newInstantTimer() *instantTimer {
	return &instantTimer{c: make(chan time.Time, 1)}
}

func (t *instantTimer) Start(d time.Duration) {
	t.waits = append(t.waits, d)
	t.c <- time.Now()
}

func (t *instantTimer) Stop() {}

func (t *instantTimer) C() <-chan time.Time { return t.c }

func transientErr() error {
	return fmt.Errorf("%w: 429", apperr.ErrTransientGeneration)
}

func TestRetryingClient_RetriesTransientThenSucceeds(t *testing.T) {
	attempts := 0
	mock := &MockClient{CompleteFunc: func(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
		attempts++
		if attempts < 3 {
			return nil, transientErr()
		}
		return &CompletionResponse{Content: "ok"}, nil
	}}
	timer := newInstantTimer()
	c := NewRetryingClient(mock, DefaultRetryConfig(), logger.NewNop(), WithTimer(timer))

	resp, err := c.Complete(context.Background(), &CompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []time.Duration{time.Second, 1500 * time.Millisecond}, timer.waits)
}

func TestRetryingClient_GivesUpAfterMaxAttempts(t *testing.T) {
	mock := &MockClient{CompleteFunc: func(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
		return nil, transientErr()
	}}
	c := NewRetryingClient(mock, DefaultRetryConfig(), logger.NewNop(), WithTimer(newInstantTimer()))

	_, err := c.Complete(context.Background(), &CompletionRequest{})
	require.ErrorIs(t, err, apperr.ErrTransientGeneration)
	assert.Equal(t, 3, mock.CallCount())
}

func TestRetryingClient_PermanentNotRetried(t *testing.T) {
	mock := &MockClient{CompleteFunc: func(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
		return nil, fmt.Errorf("%w: bad request", apperr.ErrPermanentGeneration)
	}}
	c := NewRetryingClient(mock, DefaultRetryConfig(), logger.NewNop(), WithTimer(newInstantTimer()))

	_, err := c.Complete(context.Background(), &CompletionRequest{})
	require.ErrorIs(t, err, apperr.ErrPermanentGeneration)
	assert.Equal(t, 1, mock.CallCount())
}

func TestRetryingClient_UnclassifiedErrorIsPermanent(t *testing.T) {
	mock := &MockClient{CompleteFunc: func(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
		return nil, errors.New("weird")
	}}
	c := NewRetryingClient(mock, DefaultRetryConfig(), logger.NewNop(), WithTimer(newInstantTimer()))

	_, err := c.Complete(context.Background(), &CompletionRequest{})
	require.ErrorIs(t, err, apperr.ErrPermanentGeneration)
	assert.Equal(t, 1, mock.CallCount())
}

func TestRetryingClient_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	mock := &MockClient{CompleteFunc: func(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
		cancel()
		return nil, transientErr()
	}}
	c := NewRetryingClient(mock, DefaultRetryConfig(), logger.NewNop(), WithTimer(newInstantTimer()))

	_, err := c.Complete(ctx, &CompletionRequest{})
	require.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, apperr.ErrPermanentGeneration)
	assert.Equal(t, 1, mock.CallCount())
}

func TestClassify_CancellationPassesThrough(t *testing.T) {
	err := fmt.Errorf("post: %w", context.Canceled)

	got := classify(err)
	assert.Same(t, err, got)
	assert.NotErrorIs(t, got, apperr.ErrPermanentGeneration)
	assert.NotErrorIs(t, got, apperr.ErrTransientGeneration)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "rate limited", err: &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests}, want: apperr.ErrTransientGeneration},
		{name: "server error", err: &openai.APIError{HTTPStatusCode: http.StatusBadGateway}, want: apperr.ErrTransientGeneration},
		{name: "bad request", err: &openai.APIError{HTTPStatusCode: http.StatusBadRequest}, want: apperr.ErrPermanentGeneration},
		{name: "unauthorized", err: &openai.RequestError{HTTPStatusCode: http.StatusUnauthorized, Err: errors.New("x")}, want: apperr.ErrPermanentGeneration},
		{name: "deadline", err: context.DeadlineExceeded, want: apperr.ErrTransientGeneration},
		{name: "unknown", err: errors.New("boom"), want: apperr.ErrPermanentGeneration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, classify(tt.err), tt.want)
		})
	}
}

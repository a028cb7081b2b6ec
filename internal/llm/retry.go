package llm

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/capitalize-ai/sales-coach/internal/apperr"
	"github.com/capitalize-ai/sales-coach/pkg/logger"
	"github.com/capitalize-ai/sales-coach/pkg/metrics"
)

// RetryConfig controls how transient generation failures are retried.
type RetryConfig struct {
	// MaxAttempts is the total number of calls, the first one included.
	MaxAttempts int
	// BaseDelay is the wait before the second attempt.
	BaseDelay time.Duration
	// Multiplier grows the delay between consecutive attempts.
	Multiplier float64
}

// DefaultRetryConfig waits 1s and then 1.5s across three attempts.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxAttempts: 3, BaseDelay: time.Second, Multiplier: 1.5}
}

// RetryingClient retries transient failures of the wrapped client.
type RetryingClient struct {
	next  Client
	cfg   RetryConfig
	log   *logger.Logger
	timer backoff.Timer
}

// RetryOption customises a RetryingClient.
type RetryOption func(*RetryingClient)

// WithTimer replaces the wall-clock timer used between attempts.
func WithTimer(t backoff.Timer) RetryOption {
	return func(c *RetryingClient) { c.timer = t }
}

// NewRetryingClient wraps next with retries.
func NewRetryingClient(next Client, cfg RetryConfig, log *logger.Logger, opts ...RetryOption) *RetryingClient {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.Multiplier < 1 {
		cfg.Multiplier = 1
	}
	c := &RetryingClient{next: next, cfg: cfg, log: log}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the wrapped provider name.
func (c *RetryingClient) Name() string {
	return c.next.Name()
}

// Complete calls the wrapped client until it succeeds, fails permanently or
// runs out of attempts.
func (c *RetryingClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()
	var resp *CompletionResponse

	op := func() error {
		r, err := c.next.Complete(ctx, req)
		if err == nil {
			resp = r
			return nil
		}
		if errors.Is(err, apperr.ErrTransientGeneration) {
			return err
		}
		return backoff.Permanent(err)
	}

	notify := func(err error, wait time.Duration) {
		metrics.LLMRetriesTotal.WithLabelValues(c.Name()).Inc()
		c.log.Warn("text generation failed, retrying",
			zap.String("provider", c.Name()),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}

	err := backoff.RetryNotifyWithTimer(op, backoff.WithContext(c.policy(), ctx), notify, c.timer)
	if err != nil {
		metrics.RecordLLMRequest(c.Name(), "error", time.Since(start).Seconds(), 0, 0)
		if !errors.Is(err, apperr.ErrTransientGeneration) && !errors.Is(err, apperr.ErrPermanentGeneration) {
			err = classify(err)
		}
		return nil, err
	}

	metrics.RecordLLMRequest(c.Name(), "ok", time.Since(start).Seconds(), resp.TokensIn, resp.TokensOut)
	return resp, nil
}

func (c *RetryingClient) policy() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.BaseDelay
	b.Multiplier = c.cfg.Multiplier
	b.RandomizationFactor = 0
	b.MaxInterval = time.Minute
	b.MaxElapsedTime = 0
	b.Reset()
	return backoff.WithMaxRetries(b, uint64(c.cfg.MaxAttempts-1))
}

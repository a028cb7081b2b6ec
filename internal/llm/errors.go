package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"

	"github.com/capitalize-ai/sales-coach/internal/apperr"
)

// classify wraps a provider error in the matching generation error kind.
// Rate limits, server errors and connectivity failures are transient;
// everything else is permanent. Cancellation is returned unchanged.
func classify(err error) error {
	if err == nil || errors.Is(err, context.Canceled) {
		return err
	}
	if transient(err) {
		return fmt.Errorf("%w: %w", apperr.ErrTransientGeneration, err)
	}
	return fmt.Errorf("%w: %w", apperr.ErrPermanentGeneration, err)
}

func transient(err error) bool {
	if status, ok := statusCode(err); ok {
		return transientStatus(status)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func statusCode(err error) (int, bool) {
	var anthropicErr *anthropic.Error
	if errors.As(err, &anthropicErr) {
		return anthropicErr.StatusCode, true
	}

	var openaiErr *openai.APIError
	if errors.As(err, &openaiErr) {
		return openaiErr.HTTPStatusCode, true
	}
	var openaiReqErr *openai.RequestError
	if errors.As(err, &openaiReqErr) {
		return openaiReqErr.HTTPStatusCode, true
	}

	var geminiErr genai.APIError
	if errors.As(err, &geminiErr) {
		return geminiErr.Code, true
	}
	var geminiPtrErr *genai.APIError
	if errors.As(err, &geminiPtrErr) {
		return geminiPtrErr.Code, true
	}
	return 0, false
}

func transientStatus(status int) bool {
	return status == http.StatusTooManyRequests ||
		status == http.StatusRequestTimeout ||
		status >= http.StatusInternalServerError
}

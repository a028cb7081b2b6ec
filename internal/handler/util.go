package handler

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/capitalize-ai/sales-coach/internal/apperr"
	"github.com/capitalize-ai/sales-coach/internal/middleware"
	"github.com/capitalize-ai/sales-coach/internal/model"
	"github.com/capitalize-ai/sales-coach/pkg/logger"
)

const maxBodyBytes = 1 << 20

// statusClientClosedRequest is the non-standard status for a caller that
// went away before the response was ready.
const statusClientClosedRequest = 499

// Generation failures are reported without provider detail.
const (
	transientGenerationMessage = "The AI coach is temporarily unavailable. Please try again in a moment."
	permanentGenerationMessage = "The AI coach could not respond. Please try again later."
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, model.ErrorResponse{Error: message})
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// writeServiceError maps service errors onto HTTP status codes.
func writeServiceError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	var retry *apperr.RetryAfterError
	switch {
	case errors.As(err, &retry):
		secs := int(math.Ceil(retry.RetryAfter.Seconds()))
		w.Header().Set("Retry-After", strconv.Itoa(secs))
		writeJSON(w, http.StatusTooManyRequests, model.ErrorResponse{Error: retry.Reason, RetryAfter: secs})
	case errors.Is(err, apperr.ErrValidation), errors.Is(err, apperr.ErrInsufficientHistory):
		writeError(w, http.StatusBadRequest, apperr.Message(err))
	case errors.Is(err, apperr.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, apperr.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, apperr.Message(err))
	case errors.Is(err, apperr.ErrConflict):
		writeError(w, http.StatusConflict, apperr.Message(err))
	case errors.Is(err, apperr.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, apperr.Message(err))
	case errors.Is(err, apperr.ErrTransientGeneration):
		requestLogger(r, log).Warn("text generation unavailable", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, transientGenerationMessage)
	case errors.Is(err, apperr.ErrPermanentGeneration):
		requestLogger(r, log).Error("text generation failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, permanentGenerationMessage)
	case errors.Is(err, context.Canceled):
		requestLogger(r, log).Info("request canceled by client")
		writeError(w, statusClientClosedRequest, "request canceled")
	case errors.Is(err, context.DeadlineExceeded):
		requestLogger(r, log).Warn("request timed out", zap.Error(err))
		writeError(w, http.StatusGatewayTimeout, "request timed out")
	default:
		requestLogger(r, log).Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func requestLogger(r *http.Request, log *logger.Logger) *logger.Logger {
	ctx := r.Context()
	return log.WithRequest(middleware.GetCorrelationID(ctx), middleware.GetUserID(ctx))
}

// Package apperr defines the error kinds surfaced by the coaching services.
package apperr

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrValidation indicates missing or malformed caller input.
	ErrValidation = errors.New("validation failed")

	// ErrInsufficientHistory indicates feedback was requested before the
	// conversation had enough turns to analyse.
	ErrInsufficientHistory = errors.New("not enough conversation history to generate feedback")

	// ErrTransientGeneration indicates the text-generation provider was rate
	// limited or unreachable and local retries were exhausted.
	ErrTransientGeneration = errors.New("text generation temporarily unavailable")

	// ErrPermanentGeneration indicates a non-retryable provider failure.
	ErrPermanentGeneration = errors.New("text generation failed")

	// ErrNotFound indicates the entity is absent or not owned by the requester.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates missing or invalid credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrConflict indicates a uniqueness violation such as a reused e-mail.
	ErrConflict = errors.New("conflict")

	// ErrRateLimited indicates the caller exceeded a request budget.
	ErrRateLimited = errors.New("rate limited")
)

// Error pairs a caller-facing message with the kind it belongs to.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// New returns an error of the given kind carrying msg for the caller.
func New(kind error, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

// Validation returns an ErrValidation with a caller-facing message.
func Validation(msg string) error {
	return New(ErrValidation, msg)
}

// RetryAfterError carries how long a rate-limited caller must wait.
type RetryAfterError struct {
	RetryAfter time.Duration
	Reason     string
}

func (e *RetryAfterError) Error() string {
	return fmt.Sprintf("%s: retry after %s", e.Reason, e.RetryAfter)
}

func (e *RetryAfterError) Unwrap() error {
	return ErrRateLimited
}

// Message returns the text to show the caller. Errors without a message of
// their own fall back to the text of their kind.
func Message(err error) string {
	var pub *Error
	if errors.As(err, &pub) {
		return pub.Msg
	}
	var ra *RetryAfterError
	if errors.As(err, &ra) {
		return ra.Reason
	}
	for _, kind := range []error{
		ErrValidation, ErrInsufficientHistory, ErrTransientGeneration, ErrPermanentGeneration,
		ErrNotFound, ErrUnauthorized, ErrConflict, ErrRateLimited,
	} {
		if errors.Is(err, kind) {
			return kind.Error()
		}
	}
	return "internal server error"
}

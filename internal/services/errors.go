package services

import (
	"errors"
	"fmt"
	"time"

	apperrors "github.com/SAP-F-2025/quiz-service/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	ErrValidationFailed = errors.New("validation failed")

	// Quiz specific errors
	ErrQuizNotFound   = errors.New("quiz not found")
	ErrNoQuestions    = errors.New("quiz has no questions to show")
	ErrLessonNotFound = errors.New("lesson not found")

	// Attempt specific errors
	ErrAttemptNotFound         = errors.New("attempt not found")
	ErrAttemptClosed           = errors.New("attempt is no longer in progress")
	ErrAttemptAlreadyCompleted = errors.New("attempt already submitted")
	ErrTimeExpired             = errors.New("time limit exceeded")
	ErrNoAnswers               = errors.New("no answers submitted")
	ErrQuestionNotInAttempt    = errors.New("question is not part of this attempt")
	ErrAttemptIDExhausted      = errors.New("could not allocate a unique attempt id")
	ErrResultNotAvailable      = errors.New("attempt has not been completed")

	ErrRateLimited = errors.New("too many attempts, please wait before trying again")
)

// ===== CUSTOM ERROR TYPES =====

type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// RateLimitError carries the retry hint for a rejected start
type RateLimitError struct {
	SessionID  string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s (retry after %s)", ErrRateLimited.Error(), e.RetryAfter.Round(time.Second))
}

func (e *RateLimitError) Unwrap() error {
	return ErrRateLimited
}

// ===== ERROR HELPERS =====

func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrQuizNotFound) ||
		errors.Is(err, ErrAttemptNotFound) ||
		errors.Is(err, ErrLessonNotFound)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) ||
		errors.Is(err, ErrNoQuestions) ||
		errors.Is(err, ErrNoAnswers) ||
		errors.Is(err, ErrQuestionNotInAttempt) {
		return true
	}
	var ve apperrors.ValidationErrors
	if errors.As(err, &ve) {
		return true
	}
	var single *apperrors.ValidationError
	return errors.As(err, &single)
}

// IsStateError checks if error was caused by the attempt's lifecycle state
func IsStateError(err error) bool {
	return errors.Is(err, ErrAttemptClosed) ||
		errors.Is(err, ErrAttemptAlreadyCompleted) ||
		errors.Is(err, ErrResultNotAvailable)
}

func IsTimeExpired(err error) bool {
	return errors.Is(err, ErrTimeExpired)
}

func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// RetryAfter extracts the retry hint from a rate limit error
func RetryAfter(err error) (time.Duration, bool) {
	var rle *RateLimitError
	if errors.As(err, &rle) {
		return rle.RetryAfter, true
	}
	return 0, false
}

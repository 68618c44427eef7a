package services

import (
	"errors"

	apperrors "github.com/quizforge/quiz-service/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrForbidden        = errors.New("forbidden - insufficient permissions")
	ErrValidationFailed = errors.New("validation failed")
	ErrInternalError    = errors.New("internal server error")
	ErrBadRequest       = errors.New("bad request")

	// Quiz specific errors
	ErrQuizNotFound     = errors.New("quiz not found")
	ErrQuizAccessDenied = errors.New("access denied to quiz")

	// Attempt specific errors
	ErrAttemptNotFound     = errors.New("attempt not found")
	ErrAttemptAccessDenied = errors.New("access denied to attempt")

	// Generation specific errors
	ErrGenerationFailed = errors.New("question generation failed")

	// Export specific errors
	ErrUnsupportedFormat = errors.New("unsupported export format")
)

// ===== ERROR CLASSIFICATION HELPERS =====

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrQuizNotFound) ||
		errors.Is(err, ErrAttemptNotFound)
}

func IsAccessDenied(err error) bool {
	return errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrQuizAccessDenied) ||
		errors.Is(err, ErrAttemptAccessDenied)
}

func IsValidationError(err error) bool {
	if errors.Is(err, ErrValidationFailed) || errors.Is(err, ErrBadRequest) {
		return true
	}
	var ve apperrors.ValidationErrors
	return errors.As(err, &ve)
}

func IsGenerationError(err error) bool {
	return errors.Is(err, ErrGenerationFailed)
}

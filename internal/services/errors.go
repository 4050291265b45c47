package services

import (
	"errors"
	"fmt"

	apperrors "github.com/SAP-F-2025/exam-session-service/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrValidationFailed = errors.New("validation failed")
	ErrInternalError    = errors.New("internal server error")
	ErrConflict         = errors.New("resource conflict")

	// Exam / policy errors
	ErrExamNotFound  = errors.New("exam not found")
	ErrExamNotActive = errors.New("exam is not active")
	ErrPolicyMissing = errors.New("exam policy unavailable - cannot compute session deadline")

	// Session errors
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionNotActive = errors.New("session is not in progress")

	// Response errors
	ErrQuestionNotFound = errors.New("question not found for this exam")
	ErrResponseNotFound = errors.New("response not found")
	ErrAnswerShape      = errors.New("answer must carry free text or an option index, not both")

	// Recovery errors
	ErrNoRecoveryData = errors.New("no recovery data available for session")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// FinalizeCauseError reports an unrecognized finalize cause. The three valid
// causes are fixed by the lifecycle contract, so this only fires on caller
// bugs.
type FinalizeCauseError struct {
	Cause string `json:"cause"`
}

func (fce *FinalizeCauseError) Error() string {
	return fmt.Sprintf("invalid finalize cause %q: must be manual, auto_time_expired or auto_violations", fce.Cause)
}

// ===== ERROR HELPERS =====

func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrExamNotFound) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrQuestionNotFound) ||
		errors.Is(err, ErrResponseNotFound)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) || errors.Is(err, ErrAnswerShape) {
		return true
	}
	var ve apperrors.ValidationErrors
	if errors.As(err, &ve) {
		return true
	}
	var fce *FinalizeCauseError
	return errors.As(err, &fce)
}

// IsConflict checks if error represents a resource conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrSessionNotActive) ||
		errors.Is(err, ErrExamNotActive)
}

// IsNoRecoveryData checks for the recovery-specific miss condition
func IsNoRecoveryData(err error) bool {
	return errors.Is(err, ErrNoRecoveryData)
}

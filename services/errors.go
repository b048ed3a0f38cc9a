package services

import (
	"fmt"
	"strings"

	"editorial-submission-api/models"
)

// Token validation failure reasons, surfaced to the boundary layer verbatim.
const (
	ReasonTokenInvalidFormat = "TOKEN_INVALID_FORMAT"
	ReasonTokenNotFound      = "TOKEN_NOT_FOUND"
	ReasonTokenExpired       = "TOKEN_EXPIRED"
	ReasonValidationError    = "VALIDATION_ERROR"
)

// ValidationError reports caller-supplied input that fails a declared
// constraint. Always recoverable by the caller, never a system fault.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError builds a ValidationError without a field reference.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// NotFoundError reports a referenced entity that does not exist or is not
// visible to the caller.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// TokenExpiredError reports a token whose format and lookup succeeded but
// whose expiry has passed. The stale submission snapshot rides along so the
// boundary can offer reactivation guidance.
type TokenExpiredError struct {
	Submission *models.Submission
	ExpiredAt  string
}

func (e *TokenExpiredError) Error() string {
	return "access token has expired"
}

// CanRecover is always true: an admin can reactivate the submission.
func (e *TokenExpiredError) CanRecover() bool { return true }

// InvalidTokenError reports a malformed token or an author-email mismatch.
// Always an authorization failure.
type InvalidTokenError struct {
	Reason string
}

func (e *InvalidTokenError) Error() string {
	return "invalid access token: " + e.Reason
}

// InvalidStatusError reports a state transition attempted from a status the
// transition table does not permit. Carries the current status and the set
// that would have been acceptable, for diagnostics.
type InvalidStatusError struct {
	Current models.SubmissionStatus
	Allowed []models.SubmissionStatus
	Attempt string
}

func (e *InvalidStatusError) Error() string {
	allowed := make([]string, len(e.Allowed))
	for i, s := range e.Allowed {
		allowed[i] = string(s)
	}
	return fmt.Sprintf("cannot %s from status %s (allowed: %s)",
		e.Attempt, e.Current, strings.Join(allowed, ", "))
}

// IncompleteSubmissionError reports a submit-for-review attempt with required
// fields still missing.
type IncompleteSubmissionError struct {
	Missing []string
}

func (e *IncompleteSubmissionError) Error() string {
	return "submission is incomplete: missing " + strings.Join(e.Missing, ", ")
}

// AttachmentError reports an upload validation failure (type, size or count).
type AttachmentError struct {
	Details []string
}

func (e *AttachmentError) Error() string {
	return "attachment rejected: " + strings.Join(e.Details, "; ")
}

// AuthorizationError reports an action attempted by someone other than the
// owner, e.g. deleting a file uploaded by a different author email.
type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string {
	return e.Message
}

package domain

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for common error conditions.
var (
	// ErrNotFound indicates that a requested entity was not found.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates that an entity with the same identity
	// already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrConfig indicates malformed topic or pipeline configuration.
	ErrConfig = errors.New("configuration error")

	// ErrInvalidQuery indicates query construction was attempted with
	// insufficient or invalid topic input.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrMissingScore indicates aggregation was attempted on a paper that
	// has not been fully enriched for the active pipeline variant.
	ErrMissingScore = errors.New("missing score")

	// ErrInvalidInput indicates that the input data is invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrRateLimited indicates that the request was rate limited.
	ErrRateLimited = errors.New("rate limited")

	// ErrServiceUnavailable indicates that an external service is unavailable.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrInternalError indicates an internal server error.
	ErrInternalError = errors.New("internal error")

	// ErrNoIdentifier indicates that a paper has no usable identifier.
	ErrNoIdentifier = errors.New("no identifier")
)

// ConfigError provides details about malformed configuration. Record is the
// 1-based record number within the source when the failure is row-scoped,
// zero otherwise.
type ConfigError struct {
	Source  string
	Record  int
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Record > 0 {
		return fmt.Sprintf("config error in %s, record %d: %s", e.Source, e.Record, e.Message)
	}
	return fmt.Sprintf("config error in %s: %s", e.Source, e.Message)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *ConfigError) Unwrap() error {
	return ErrConfig
}

// NotFoundError provides details about a not found entity.
type NotFoundError struct {
	Entity string
	ID     string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// AlreadyExistsError provides details about a uniqueness conflict.
type AlreadyExistsError struct {
	Entity string
	ID     string
}

// Error implements the error interface.
func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s already exists: %s", e.Entity, e.ID)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *AlreadyExistsError) Unwrap() error {
	return ErrAlreadyExists
}

// InvalidQueryError provides details about a query that could not be built.
type InvalidQueryError struct {
	Reason string
}

// Error implements the error interface.
func (e *InvalidQueryError) Error() string {
	return fmt.Sprintf("invalid query: %s", e.Reason)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *InvalidQueryError) Unwrap() error {
	return ErrInvalidQuery
}

// MissingScoreError reports a paper that is missing a score dimension
// required by the active pipeline variant. Aggregation never substitutes a
// default value for a missing dimension; doing so would mask upstream
// enrichment failures and corrupt ranking determinism.
type MissingScoreError struct {
	PaperID   string
	Dimension string
}

// Error implements the error interface.
func (e *MissingScoreError) Error() string {
	return fmt.Sprintf("paper %s is missing required score dimension %q", e.PaperID, e.Dimension)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *MissingScoreError) Unwrap() error {
	return ErrMissingScore
}

// ValidationError represents a validation error for a specific field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// RateLimitError provides details about a rate limit error.
type RateLimitError struct {
	Source     string
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited by %s: retry after %s", e.Source, e.RetryAfter)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *RateLimitError) Unwrap() error {
	return ErrRateLimited
}

// ExternalAPIError provides details about an external API error.
type ExternalAPIError struct {
	Source     string
	StatusCode int
	Message    string
	Cause      error
}

// Error implements the error interface.
func (e *ExternalAPIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Source, e.StatusCode, e.Message)
}

// Unwrap returns the underlying cause error.
func (e *ExternalAPIError) Unwrap() error {
	return e.Cause
}

// NewConfigError creates a new ConfigError scoped to a whole source.
func NewConfigError(source, message string) *ConfigError {
	return &ConfigError{
		Source:  source,
		Message: message,
	}
}

// NewRecordConfigError creates a new ConfigError scoped to a single record.
func NewRecordConfigError(source string, record int, message string) *ConfigError {
	return &ConfigError{
		Source:  source,
		Record:  record,
		Message: message,
	}
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{
		Entity: entity,
		ID:     id,
	}
}

// NewAlreadyExistsError creates a new AlreadyExistsError.
func NewAlreadyExistsError(entity, id string) *AlreadyExistsError {
	return &AlreadyExistsError{
		Entity: entity,
		ID:     id,
	}
}

// NewInvalidQueryError creates a new InvalidQueryError.
func NewInvalidQueryError(reason string) *InvalidQueryError {
	return &InvalidQueryError{Reason: reason}
}

// NewMissingScoreError creates a new MissingScoreError.
func NewMissingScoreError(paperID, dimension string) *MissingScoreError {
	return &MissingScoreError{
		PaperID:   paperID,
		Dimension: dimension,
	}
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewRateLimitError creates a new RateLimitError.
func NewRateLimitError(source string, retryAfter time.Duration) *RateLimitError {
	return &RateLimitError{
		Source:     source,
		RetryAfter: retryAfter,
	}
}

// NewExternalAPIError creates a new ExternalAPIError.
func NewExternalAPIError(source string, statusCode int, message string, cause error) *ExternalAPIError {
	return &ExternalAPIError{
		Source:     source,
		StatusCode: statusCode,
		Message:    message,
		Cause:      cause,
	}
}

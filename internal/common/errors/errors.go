// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Accounts and sessions
	ErrCodeUserAlreadyExists  ErrorCode = "USER_ALREADY_EXISTS"
	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeSessionNotFound    ErrorCode = "SESSION_NOT_FOUND"
	ErrCodeRoleMismatch       ErrorCode = "ROLE_MISMATCH"

	// Profiles
	ErrCodeProfileNotFound   ErrorCode = "PROFILE_NOT_FOUND"
	ErrCodeProfileIncomplete ErrorCode = "PROFILE_INCOMPLETE"
	ErrCodeValidationFailed  ErrorCode = "VALIDATION_FAILED"

	// Matching
	ErrCodeCapacityConflict     ErrorCode = "CAPACITY_CONFLICT"
	ErrCodeAlreadyMatched       ErrorCode = "ALREADY_MATCHED"
	ErrCodeMatchNotFound        ErrorCode = "MATCH_NOT_FOUND"
	ErrCodeMatchAlreadyReviewed ErrorCode = "MATCH_ALREADY_REVIEWED"
	ErrCodeMatchingInProgress   ErrorCode = "MATCHING_IN_PROGRESS"

	// Infrastructure
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeDatabaseInsertFailed     ErrorCode = "DATABASE_INSERT_FAILED"
	ErrCodeCacheUnavailable         ErrorCode = "CACHE_UNAVAILABLE"
	ErrCodeSearchQueryFailed        ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeIndexFailed              ErrorCode = "INDEX_FAILED"
	ErrCodeNotificationSendFailed   ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata attaches a key/value that ends up in the BPMN error variables.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// AsStandardError finds a StandardError anywhere in err's chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	stdErr, ok := AsStandardError(err)
	return ok && stdErr.Code == code
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

func NewUserAlreadyExistsError(identifier string) *StandardError {
	return newError(ErrCodeUserAlreadyExists, "User already exists", fmt.Sprintf("identifier: %s", identifier), false)
}

func NewInvalidCredentialsError() *StandardError {
	return newError(ErrCodeInvalidCredentials, "Invalid credentials", "", false)
}

func NewSessionNotFoundError(sessionID string) *StandardError {
	return newError(ErrCodeSessionNotFound, "Session not found or expired", fmt.Sprintf("sessionId: %s", sessionID), false)
}

func NewRoleMismatchError(expected, actual string) *StandardError {
	return newError(ErrCodeRoleMismatch, "User role does not allow this operation",
		fmt.Sprintf("expected: %s, actual: %s", expected, actual), false)
}

// NewProfileNotFoundError is returned when a student or advisor record is missing.
func NewProfileNotFoundError(kind, id string) *StandardError {
	return newError(ErrCodeProfileNotFound, fmt.Sprintf("%s profile not found", kind), fmt.Sprintf("id: %s", id), false)
}

// NewProfileIncompleteError blocks matching for profiles that were never completed.
func NewProfileIncompleteError(kind, id string) *StandardError {
	return newError(ErrCodeProfileIncomplete, fmt.Sprintf("%s profile is not completed", kind), fmt.Sprintf("id: %s", id), false)
}

func NewValidationError(details string) *StandardError {
	return newError(ErrCodeValidationFailed, "Input validation failed", details, false)
}

// NewCapacityConflictError means an advisor filled up between scoring and commit.
// It is retryable: a rerun scores against fresh loads.
func NewCapacityConflictError(advisorID string) *StandardError {
	return newError(ErrCodeCapacityConflict, "Advisor reached capacity before assignment was committed",
		fmt.Sprintf("advisorId: %s", advisorID), true)
}

func NewAlreadyMatchedError(studentID string) *StandardError {
	return newError(ErrCodeAlreadyMatched, "Student already has an advisor", fmt.Sprintf("studentId: %s", studentID), false)
}

func NewMatchNotFoundError(matchID string) *StandardError {
	return newError(ErrCodeMatchNotFound, "Match not found", fmt.Sprintf("matchId: %s", matchID), false)
}

func NewMatchAlreadyReviewedError(matchID, status string) *StandardError {
	return newError(ErrCodeMatchAlreadyReviewed, "Match was already reviewed",
		fmt.Sprintf("matchId: %s, status: %s", matchID, status), false)
}

func NewMatchingInProgressError(scope string) *StandardError {
	return newError(ErrCodeMatchingInProgress, "Another matching run holds the lock", fmt.Sprintf("scope: %s", scope), true)
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true)
}

func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return newError(ErrCodeQueryExecutionFailed, "Database query execution error",
		fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()), true)
}

func NewDatabaseInsertFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseInsertFailed, "Database insert error", err.Error(), true)
}

func NewCacheUnavailableError(err error) *StandardError {
	return newError(ErrCodeCacheUnavailable, "Redis unavailable", err.Error(), true)
}

func NewSearchQueryFailedError(index string, err error) *StandardError {
	return newError(ErrCodeSearchQueryFailed, "Search query failed", fmt.Sprintf("index: %s, error: %s", index, err.Error()), true)
}

func NewIndexFailedError(index string, err error) *StandardError {
	return newError(ErrCodeIndexFailed, "Indexing document failed", fmt.Sprintf("index: %s, error: %s", index, err.Error()), true)
}

func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification send error",
		fmt.Sprintf("channel: %s, error: %s", channel, err.Error()), true)
}

// Generic constructors

func NewBusinessRuleError(message, details string) *StandardError {
	return newError("BUSINESS_RULE_VIOLATION", message, details, false)
}

func NewExternalServiceError(service string, err error) *StandardError {
	return newError("EXTERNAL_SERVICE_ERROR", fmt.Sprintf("External service '%s' error", service), err.Error(), true)
}

func NewTimeoutError(service string, err error) *StandardError {
	return newError("TIMEOUT_ERROR", fmt.Sprintf("Service '%s' timeout", service), err.Error(), true)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeDatabaseInsertFailed,
		ErrCodeCacheUnavailable,
		ErrCodeSearchQueryFailed,
		ErrCodeIndexFailed,
		ErrCodeNotificationSendFailed,
		"EXTERNAL_SERVICE_ERROR":
		return 3

	case ErrCodeCapacityConflict,
		ErrCodeMatchingInProgress,
		"TIMEOUT_ERROR":
		return 2

	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
// BPMN error codes are identical to the internal codes.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           string(stdErr.Code),
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "USER") || strings.Contains(codeStr, "CREDENTIALS") ||
		strings.Contains(codeStr, "SESSION") || strings.Contains(codeStr, "ROLE"):
		return "AUTH"
	case strings.Contains(codeStr, "PROFILE"):
		return "PROFILE"
	case strings.Contains(codeStr, "MATCH") || strings.Contains(codeStr, "CAPACITY"):
		return "MATCHING"
	case strings.Contains(codeStr, "SEARCH") || strings.Contains(codeStr, "INDEX"):
		return "SEARCH"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY") || strings.Contains(codeStr, "CACHE"):
		return "DATABASE"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}

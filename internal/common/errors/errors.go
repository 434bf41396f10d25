// internal/common/errors/errors.go
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

type ErrorCode string

const (
	// Booking flow
	ErrCodeInvalidSelection   ErrorCode = "INVALID_SELECTION"
	ErrCodeIncompleteBooking  ErrorCode = "INCOMPLETE_BOOKING"
	ErrCodeStationNotFound    ErrorCode = "STATION_NOT_FOUND"
	ErrCodeServiceUnsupported ErrorCode = "SERVICE_UNSUPPORTED"
	ErrCodeSlotUnavailable    ErrorCode = "SLOT_UNAVAILABLE"
	ErrCodeInvalidTransition  ErrorCode = "INVALID_TRANSITION"

	// Oracle
	ErrCodeOracleFailure   ErrorCode = "ORACLE_FAILURE"
	ErrCodeOracleTimeout   ErrorCode = "ORACLE_TIMEOUT"
	ErrCodeInvalidResponse ErrorCode = "INVALID_RESPONSE"

	// Infrastructure
	ErrCodeCatalogLoadFailed  ErrorCode = "CATALOG_LOAD_FAILED"
	ErrCodeCacheFailure       ErrorCode = "CACHE_FAILURE"
	ErrCodeEventPublishFailed ErrorCode = "EVENT_PUBLISH_FAILED"
	ErrCodeInputValidation    ErrorCode = "INPUT_VALIDATION_FAILED"
	ErrCodeSessionNotFound    ErrorCode = "SESSION_NOT_FOUND"
	ErrCodeInternal           ErrorCode = "INTERNAL_ERROR"
)

// StandardError is the single error shape shared by every component.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Is matches any StandardError carrying the same code, so sentinels such as
// ErrOracleTimeout work with errors.Is.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

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

// Sentinels for errors.Is comparisons.
var (
	ErrInvalidSelection   = &StandardError{Code: ErrCodeInvalidSelection}
	ErrIncompleteBooking  = &StandardError{Code: ErrCodeIncompleteBooking}
	ErrStationNotFound    = &StandardError{Code: ErrCodeStationNotFound}
	ErrServiceUnsupported = &StandardError{Code: ErrCodeServiceUnsupported}
	ErrOracleFailure      = &StandardError{Code: ErrCodeOracleFailure}
	ErrOracleTimeout      = &StandardError{Code: ErrCodeOracleTimeout}
	ErrInvalidResponse    = &StandardError{Code: ErrCodeInvalidResponse}
)

func NewInvalidSelectionError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidSelection,
		Message:   "Please select both car type and service.",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewIncompleteBookingError(missing []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeIncompleteBooking,
		Message:   "Missing information for booking. Please select station, time slot, service, and car type.",
		Details:   fmt.Sprintf("missing: %s", strings.Join(missing, ", ")),
		Retryable: false,
		Metadata:  map[string]interface{}{"missing": missing},
		Timestamp: time.Now().UTC(),
	}
}

func NewStationNotFoundError(stationID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeStationNotFound,
		Message:   "Station not found in catalog",
		Details:   fmt.Sprintf("stationId: %s", stationID),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewServiceUnsupportedError(stationID, service string) *StandardError {
	return &StandardError{
		Code:      ErrCodeServiceUnsupported,
		Message:   "Station does not offer the requested service",
		Details:   fmt.Sprintf("stationId: %s, service: %s", stationID, service),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewSlotUnavailableError(slot string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSlotUnavailable,
		Message:   "Time slot is not in the loaded availability",
		Details:   fmt.Sprintf("slot: %s", slot),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidTransitionError(operation, state string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidTransition,
		Message:   "Operation not allowed in the current session state",
		Details:   fmt.Sprintf("operation: %s, state: %s", operation, state),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewOracleFailureError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeOracleFailure,
		Message:   "Scoring oracle error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewOracleTimeoutError(timeout time.Duration) *StandardError {
	return &StandardError{
		Code:      ErrCodeOracleTimeout,
		Message:   "Scoring oracle timeout",
		Details:   fmt.Sprintf("call exceeded %s", timeout),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidResponseError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidResponse,
		Message:   "Oracle response violates the contract",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewCatalogLoadFailedError(source string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCatalogLoadFailed,
		Message:   "Station catalog could not be loaded",
		Details:   fmt.Sprintf("source: %s, error: %s", source, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewCacheFailureError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheFailure,
		Message:   "Ranking cache error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewEventPublishFailedError(topic string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeEventPublishFailed,
		Message:   "Booking event could not be published",
		Details:   fmt.Sprintf("topic: %s, error: %s", topic, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewInputValidationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInputValidation,
		Message:   "Input validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewSessionNotFoundError(sessionID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionNotFound,
		Message:   "Booking session not found or expired",
		Details:   fmt.Sprintf("sessionId: %s", sessionID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// CodeOf extracts the code of the first StandardError in the chain.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ErrCodeInternal
}

// AsStandard returns the StandardError in the chain, wrapping anything else
// as an internal error.
func AsStandard(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInvalidSelection:   "INVALID_SELECTION",
	ErrCodeIncompleteBooking:  "INCOMPLETE_BOOKING",
	ErrCodeStationNotFound:    "STATION_NOT_FOUND",
	ErrCodeServiceUnsupported: "SERVICE_UNSUPPORTED",
	ErrCodeOracleFailure:      "ORACLE_FAILURE",
	ErrCodeOracleTimeout:      "ORACLE_TIMEOUT",
	ErrCodeInvalidResponse:    "INVALID_RESPONSE",
	ErrCodeCatalogLoadFailed:  "CATALOG_LOAD_FAILED",
	ErrCodeInputValidation:    "INPUT_VALIDATION_FAILED",
}

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeOracleFailure,
		ErrCodeCatalogLoadFailed,
		ErrCodeCacheFailure,
		ErrCodeEventPublishFailed:
		return 3
	case ErrCodeInvalidResponse:
		return 2
	case ErrCodeOracleTimeout:
		return 1
	default:
		return 0 // business errors
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "ORACLE") || strings.Contains(codeStr, "RESPONSE"):
		return "ORACLE"
	case strings.Contains(codeStr, "STATION") || strings.Contains(codeStr, "SERVICE") || strings.Contains(codeStr, "CATALOG"):
		return "CATALOG"
	case strings.Contains(codeStr, "SELECTION") || strings.Contains(codeStr, "BOOKING") ||
		strings.Contains(codeStr, "SLOT") || strings.Contains(codeStr, "TRANSITION") || strings.Contains(codeStr, "SESSION"):
		return "SESSION"
	case strings.Contains(codeStr, "CACHE") || strings.Contains(codeStr, "EVENT"):
		return "INFRASTRUCTURE"
	case strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}

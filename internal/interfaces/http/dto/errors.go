package dto

import "net/http"

// Error codes returned by the API. Every code carries the ERR_ prefix
// so clients can tell the standardized codes from raw domain codes.
const (
	// ErrCodeInternal is used for unexpected server errors
	ErrCodeInternal = "ERR_INTERNAL"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeInvalidInput is used when a field value is rejected
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"

	// ErrCodeUnauthorized is used when no identity was forwarded
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	// ErrCodeForbidden is used when the user may not touch the resource
	ErrCodeForbidden = "ERR_FORBIDDEN"

	// ErrCodeNotFound is used when a resource does not exist
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
	// ErrCodeConcurrencyConflict is used when an optimistic lock fails
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	// ErrCodeInvalidState is used when an operation is not allowed in the current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"

	// ErrCodeInvalidWorkbook is used when the uploaded workbook cannot be parsed
	ErrCodeInvalidWorkbook = "ERR_INVALID_WORKBOOK"
	// ErrCodeDuplicateUpload is used when an identical file was submitted recently
	ErrCodeDuplicateUpload = "ERR_DUPLICATE_UPLOAD"
	// ErrCodeReportNotReady is used when no error report exists for a batch
	ErrCodeReportNotReady = "ERR_REPORT_NOT_READY"

	// ErrCodeRateLimited is used when a client exceeds its request budget
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps every error code to its HTTP status.
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:     http.StatusInternalServerError,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeInvalidState:        http.StatusUnprocessableEntity,

	ErrCodeInvalidWorkbook: http.StatusUnprocessableEntity,
	ErrCodeDuplicateUpload: http.StatusConflict,
	ErrCodeReportNotReady:  http.StatusNotFound,

	ErrCodeRateLimited: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status for an error code, or 500 when
// the code is not in the map.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// LegacyErrorCodeMapping translates the bare codes the domain layer
// raises into the prefixed wire codes.
var LegacyErrorCodeMapping = map[string]string{
	"NOT_FOUND":            ErrCodeNotFound,
	"ALREADY_EXISTS":       ErrCodeAlreadyExists,
	"INVALID_INPUT":        ErrCodeInvalidInput,
	"INVALID_STATE":        ErrCodeInvalidState,
	"UNAUTHORIZED":         ErrCodeUnauthorized,
	"FORBIDDEN":            ErrCodeForbidden,
	"CONCURRENCY_CONFLICT": ErrCodeConcurrencyConflict,
	"DUPLICATE_UPLOAD":     ErrCodeDuplicateUpload,
	"REPORT_NOT_READY":     ErrCodeReportNotReady,
	"INVALID_WORKBOOK":     ErrCodeInvalidWorkbook,
	"VALIDATION_ERROR":     ErrCodeValidation,
	"BAD_REQUEST":          ErrCodeBadRequest,
	"INTERNAL_ERROR":       ErrCodeInternal,
}

// NormalizeErrorCode converts a legacy domain code to the wire format.
// Unknown codes pass through unchanged.
func NormalizeErrorCode(code string) string {
	if wire, ok := LegacyErrorCodeMapping[code]; ok {
		return wire
	}
	return code
}

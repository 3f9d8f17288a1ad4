// Package spreadsheet reads multi-sheet xlsx workbooks into relational
// record graphs and writes the matching templates and error reports.
package spreadsheet

import (
	"fmt"

	"github.com/logimaster/backend/internal/domain/bulk"
)

// Validation error codes carried on structured record errors
const (
	CodeRequiredField       = "REQUIRED_FIELD"
	CodeInvalidFormat       = "INVALID_FORMAT"
	CodeInvalidDate         = "INVALID_DATE"
	CodeInvalidNumber       = "INVALID_NUMBER"
	CodeInvalidEnum         = "INVALID_ENUM"
	CodeMaxLength           = "MAX_LENGTH"
	CodeOutOfRange          = "OUT_OF_RANGE"
	CodeDateOrder           = "DATE_ORDER"
	CodeBatchDuplicate      = "BATCH_DUPLICATE"
	CodePersistedDuplicate  = "PERSISTED_DUPLICATE"
	CodeUnresolvedReference = "UNRESOLVED_REFERENCE"
	CodeUnknownLookup       = "UNKNOWN_LOOKUP"
)

// ParseError is fatal to a whole batch: the workbook cannot be trusted at
// all, so no records are produced.
type ParseError struct {
	Sheet  string
	Reason string
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.Sheet != "" {
		return fmt.Sprintf("sheet %q: %s", e.Sheet, e.Reason)
	}
	return e.Reason
}

// NewMissingSheetError reports a required sheet that is absent
func NewMissingSheetError(sheet string) *ParseError {
	return &ParseError{Sheet: sheet, Reason: "required sheet is missing"}
}

// NewUnreadableError reports a workbook that cannot be opened
func NewUnreadableError(reason string) *ParseError {
	return &ParseError{Reason: "workbook is unreadable: " + reason}
}

// ErrorList accumulates structured errors during parsing and validation
type ErrorList struct {
	errors []bulk.RecordError
}

// Add appends a structured error
func (l *ErrorList) Add(sheet string, row int, field, code, message, value string) {
	l.errors = append(l.errors, bulk.RecordError{
		Sheet:   sheet,
		Row:     row,
		Field:   field,
		Code:    code,
		Message: message,
		Value:   value,
	})
}

// AddError appends a ready-made structured error
func (l *ErrorList) AddError(err bulk.RecordError) {
	l.errors = append(l.errors, err)
}

// Errors returns the accumulated errors
func (l *ErrorList) Errors() []bulk.RecordError {
	return l.errors
}

// HasErrors returns true if at least one error accumulated
func (l *ErrorList) HasErrors() bool {
	return len(l.errors) > 0
}

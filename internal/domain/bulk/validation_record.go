package bulk

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/logimaster/backend/internal/domain/shared"
)

// RecordStatus is the validation outcome of one logical record.
// It is decided exactly once; creation results never change it.
type RecordStatus string

const (
	RecordStatusValid   RecordStatus = "valid"
	RecordStatusInvalid RecordStatus = "invalid"
)

// RecordError is one validation error attributed to a sheet, row and field
type RecordError struct {
	Sheet   string `json:"sheet"`
	Row     int    `json:"row"`
	Field   string `json:"field,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

// ValidationRecord is the durable per-record outcome of a batch. One row
// exists for every logical record parsed from the workbook, valid or not,
// so error reports can be regenerated without re-reading the file.
type ValidationRecord struct {
	shared.BaseEntity
	BatchID       uuid.UUID       `json:"batch_id"`
	ReferenceID   string          `json:"reference_id"`
	DisplayName   string          `json:"display_name"`
	RowNumber     int             `json:"row_number"`
	Status        RecordStatus    `json:"status"`
	Errors        []RecordError   `json:"errors,omitempty"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	CreatedCode   *string         `json:"created_code,omitempty"`
	CreationError *string         `json:"creation_error,omitempty"`
}

// NewValidationRecord creates a record whose status follows from its errors
func NewValidationRecord(batchID uuid.UUID, referenceID, displayName string, rowNumber int, payload json.RawMessage, errs []RecordError) (*ValidationRecord, error) {
	if referenceID == "" {
		return nil, shared.NewDomainError("INVALID_REFERENCE_ID", "Reference ID cannot be empty")
	}

	status := RecordStatusValid
	if len(errs) > 0 {
		status = RecordStatusInvalid
	}

	return &ValidationRecord{
		BaseEntity:  shared.NewBaseEntity(),
		BatchID:     batchID,
		ReferenceID: referenceID,
		DisplayName: displayName,
		RowNumber:   rowNumber,
		Status:      status,
		Errors:      errs,
		Payload:     payload,
	}, nil
}

// IsValid returns true if the record passed validation
func (r *ValidationRecord) IsValid() bool {
	return r.Status == RecordStatusValid
}

// MarkCreated records the business identifier assigned during creation
func (r *ValidationRecord) MarkCreated(code string) error {
	if r.Status != RecordStatusValid {
		return shared.NewDomainError("INVALID_STATE", "Only valid records can be created")
	}
	if code == "" {
		return shared.NewDomainError("INVALID_CODE", "Created code cannot be empty")
	}
	r.CreatedCode = &code
	r.CreationError = nil
	r.UpdatedAt = time.Now()
	return nil
}

// MarkCreationFailed records a creation failure without flipping the
// validation status
func (r *ValidationRecord) MarkCreationFailed(reason string) error {
	if r.Status != RecordStatusValid {
		return shared.NewDomainError("INVALID_STATE", "Only valid records can fail creation")
	}
	r.CreationError = &reason
	r.UpdatedAt = time.Now()
	return nil
}

// ErrorsJSON returns the structured errors as a JSON string
func (r *ValidationRecord) ErrorsJSON() (string, error) {
	if len(r.Errors) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(r.Errors)
	if err != nil {
		return "", fmt.Errorf("failed to marshal record errors: %w", err)
	}
	return string(data), nil
}

// SetErrorsFromJSON parses structured errors from a JSON string
func (r *ValidationRecord) SetErrorsFromJSON(jsonStr string) error {
	if jsonStr == "" || jsonStr == "[]" {
		r.Errors = nil
		return nil
	}
	var errs []RecordError
	if err := json.Unmarshal([]byte(jsonStr), &errs); err != nil {
		return fmt.Errorf("failed to unmarshal record errors: %w", err)
	}
	r.Errors = errs
	return nil
}

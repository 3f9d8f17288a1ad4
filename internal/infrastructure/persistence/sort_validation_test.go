package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSortOrder(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty defaults to DESC", "", "DESC"},
		{"uppercase ASC", "ASC", "ASC"},
		{"lowercase asc", "asc", "ASC"},
		{"uppercase DESC", "DESC", "DESC"},
		{"mixed case Desc", "Desc", "DESC"},
		{"surrounding whitespace", "  asc  ", "ASC"},
		{"garbage defaults to DESC", "sideways", "DESC"},
		{"injection defaults to DESC", "ASC; DROP TABLE upload_batches;--", "DESC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateSortOrder(tt.input))
		})
	}
}

func TestValidateSortField(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty falls back to default", "", "created_at"},
		{"base column allowed", "id", "id"},
		{"batch column allowed", "error_rows", "error_rows"},
		{"surrounding whitespace trimmed", "  status  ", "status"},
		{"unknown column falls back", "report_key", "created_at"},
		{"case sensitive", "STATUS", "created_at"},
		{"embedded space rejected", "status asc", "created_at"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateSortField(tt.input, UploadBatchSortFields, "created_at"))
		})
	}
}

func TestSortValidationRejectsInjection(t *testing.T) {
	payloads := []string{
		"created_at; DROP TABLE upload_batches;--",
		"created_at' OR '1'='1",
		"created_at UNION SELECT report_key FROM upload_batches",
		"created_at, (SELECT dsn FROM secrets)",
		"created_at/**/;DELETE FROM validation_records",
		"created_at\n; TRUNCATE upload_batches",
		"' OR ''='",
	}

	for _, payload := range payloads {
		assert.Equal(t, "created_at", ValidateSortField(payload, UploadBatchSortFields, "created_at"),
			"payload must fall back to the default column: %q", payload)
		assert.Equal(t, "DESC", ValidateSortOrder(payload),
			"payload must fall back to descending: %q", payload)
	}
}

func TestUploadBatchSortFieldsCoverListing(t *testing.T) {
	for _, column := range []string{"id", "created_at", "updated_at", "status", "entity_kind", "total_rows"} {
		assert.True(t, UploadBatchSortFields[column], "expected %q to be sortable", column)
	}
}

package persistence

import "strings"

// ValidateSortOrder normalizes a sort direction to ASC or DESC. Anything
// that is not a case-insensitive "asc" sorts descending, which keeps
// caller-supplied input out of the ORDER BY clause verbatim.
func ValidateSortOrder(orderDir string) string {
	if strings.EqualFold(strings.TrimSpace(orderDir), "ASC") {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns sortField when the whitelist allows it,
// otherwise defaultField. Matching is exact after trimming whitespace,
// so injection payloads never reach the query builder.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// sortable builds a whitelist from the base columns plus entity columns.
func sortable(fields ...string) map[string]bool {
	allowed := map[string]bool{
		"id":         true,
		"created_at": true,
		"updated_at": true,
	}
	for _, f := range fields {
		allowed[f] = true
	}
	return allowed
}

// UploadBatchSortFields lists the columns batch listings may sort by.
var UploadBatchSortFields = sortable(
	"entity_kind",
	"file_name",
	"status",
	"total_rows",
	"valid_rows",
	"error_rows",
	"created_count",
	"started_at",
	"completed_at",
)

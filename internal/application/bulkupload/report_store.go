package bulkupload

import "context"

// ReportStore persists generated workbooks (error reports, templates) and
// serves them back for download.
type ReportStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
}

package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers recently seen submission keys so the same
// upload is not accepted twice while an earlier copy is still in flight.
type IdempotencyStore interface {
	// MarkProcessed marks a key as seen with a TTL.
	// Returns true if the key was newly marked, false if it was already present.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed checks whether a key has already been seen
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Close closes the store and releases resources
	Close() error
}

// IdempotencyConfig holds configuration for duplicate submission handling
type IdempotencyConfig struct {
	// TTL is how long a submission key is remembered.
	// After this duration the same file may be submitted again.
	TTL time.Duration

	// Enabled determines whether duplicate submission checking is enabled
	Enabled bool
}

// DefaultIdempotencyConfig returns the default configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     15 * time.Minute,
		Enabled: true,
	}
}

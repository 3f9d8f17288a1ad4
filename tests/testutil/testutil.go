// Package testutil carries helpers shared by the API-level tests of the
// bulk upload pipeline.
package testutil

import (
	"github.com/google/uuid"
)

// uploadNamespace seeds deterministic IDs so test fixtures are stable
// across runs
var uploadNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// DeterministicUUID derives a reproducible UUID from a seed string
func DeterministicUUID(seed string) uuid.UUID {
	return uuid.NewSHA1(uploadNamespace, []byte(seed))
}

// UploaderID returns the standing test identity used as X-User-ID
func UploaderID() uuid.UUID {
	return DeterministicUUID("test-uploader")
}

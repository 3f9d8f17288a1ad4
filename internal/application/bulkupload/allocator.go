// Package bulkupload implements the bulk upload pipeline: parsing, the
// three validation passes, durable per-record outcomes, error reports and
// transactional creation with allocated business identifiers.
package bulkupload

import (
	"context"
	"fmt"
	"sync"

	"github.com/logimaster/backend/internal/domain/masterdata"
	"github.com/logimaster/backend/internal/domain/shared"
)

// codeRule fixes the prefix and zero-padded width of one identifier
// sequence. The table is the single source of truth; no caller formats
// codes by hand.
type codeRule struct {
	Prefix string
	Width  int
}

var codeRules = map[masterdata.CodeKind]codeRule{
	masterdata.CodeKindWarehouse:   {Prefix: "WH", Width: 4},
	masterdata.CodeKindStorageZone: {Prefix: "WHZ", Width: 5},
	masterdata.CodeKindTransporter: {Prefix: "TRP", Width: 4},
	masterdata.CodeKindContact:     {Prefix: "CNT", Width: 5},
	masterdata.CodeKindDriver:      {Prefix: "DRV", Width: 6},
	masterdata.CodeKindVehicle:     {Prefix: "VEH", Width: 6},
	masterdata.CodeKindPermit:      {Prefix: "PRM", Width: 6},
	masterdata.CodeKindDocument:    {Prefix: "DOC", Width: 6},
}

// maxProbes caps how many candidates are tried before giving up on one
// allocation
const maxProbes = 100

// ErrAllocationExhausted is returned when no free identifier is found
// within the probe ceiling
var ErrAllocationExhausted = shared.NewDomainError("ALLOCATION_EXHAUSTED", "No free identifier found within the probe limit")

// Allocator hands out collision-free business identifiers. A candidate is
// derived from the current row count, probed for existence and advanced
// until a free one is found, which stays correct when identifiers were
// created out of sequence or rows were deleted. A per-kind mutex
// serializes in-process allocation, and handed-out codes are reserved in
// memory so concurrent workers cannot receive the same code before their
// transactions commit. Reservations live only as long as the Allocation
// scope they were taken through: a committed record is visible in the
// store, a rolled-back record frees its candidates for the next caller.
// Concurrent processes are caught by the store's unique index and surface
// as that record's creation failure.
type Allocator struct {
	store masterdata.CodeStore

	mu       sync.Mutex
	kinds    map[masterdata.CodeKind]*sync.Mutex
	reserved map[masterdata.CodeKind]map[string]struct{}
}

// NewAllocator creates an allocator over a code store
func NewAllocator(store masterdata.CodeStore) *Allocator {
	return &Allocator{
		store:    store,
		kinds:    make(map[masterdata.CodeKind]*sync.Mutex),
		reserved: make(map[masterdata.CodeKind]map[string]struct{}),
	}
}

// Allocation is a per-record allocation scope. Every code handed out
// through it stays reserved until Close, which the caller runs once the
// record's transaction has finished either way.
type Allocation struct {
	a     *Allocator
	codes map[masterdata.CodeKind][]string
}

// Scope opens an allocation scope for one record
func (a *Allocator) Scope() *Allocation {
	return &Allocation{a: a, codes: make(map[masterdata.CodeKind][]string)}
}

// Next allocates the next free identifier for a kind and tracks it for
// release on Close
func (al *Allocation) Next(ctx context.Context, kind masterdata.CodeKind) (string, error) {
	code, err := al.a.Next(ctx, kind)
	if err != nil {
		return "", err
	}
	al.codes[kind] = append(al.codes[kind], code)
	return code, nil
}

// Close drops every reservation taken through the scope. Safe to call
// after commit as well: the committed rows are visible in the store, so
// the in-memory reservation is redundant from that point on.
func (al *Allocation) Close() {
	for kind, codes := range al.codes {
		for _, code := range codes {
			al.a.release(kind, code)
		}
	}
	al.codes = nil
}

// Next allocates the next free identifier for a kind
func (a *Allocator) Next(ctx context.Context, kind masterdata.CodeKind) (string, error) {
	rule, ok := codeRules[kind]
	if !ok {
		return "", shared.NewDomainError("UNKNOWN_CODE_KIND", fmt.Sprintf("No identifier rule for kind %q", kind))
	}

	lock := a.kindLock(kind)
	lock.Lock()
	defer lock.Unlock()

	count, err := a.store.Count(ctx, kind)
	if err != nil {
		return "", fmt.Errorf("failed to count %s rows: %w", kind, err)
	}

	for offset := int64(0); offset < maxProbes; offset++ {
		candidate := fmt.Sprintf("%s%0*d", rule.Prefix, rule.Width, count+1+offset)
		if a.isReserved(kind, candidate) {
			continue
		}
		taken, err := a.store.CodeExists(ctx, kind, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to probe %s code %s: %w", kind, candidate, err)
		}
		if !taken {
			a.reserve(kind, candidate)
			return candidate, nil
		}
	}

	return "", ErrAllocationExhausted
}

func (a *Allocator) isReserved(kind masterdata.CodeKind, code string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.reserved[kind][code]
	return ok
}

func (a *Allocator) reserve(kind masterdata.CodeKind, code string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.reserved[kind] == nil {
		a.reserved[kind] = make(map[string]struct{})
	}
	a.reserved[kind][code] = struct{}{}
}

func (a *Allocator) release(kind masterdata.CodeKind, code string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.reserved[kind], code)
	if len(a.reserved[kind]) == 0 {
		delete(a.reserved, kind)
	}
}

func (a *Allocator) kindLock(kind masterdata.CodeKind) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()
	lock, ok := a.kinds[kind]
	if !ok {
		lock = &sync.Mutex{}
		a.kinds[kind] = lock
	}
	return lock
}

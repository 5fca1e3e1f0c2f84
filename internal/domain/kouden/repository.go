package kouden

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DeletedRecord identifies a removed return record and its ledger
type DeletedRecord struct {
	ID            uuid.UUID
	KoudenEntryID uuid.UUID
	KoudenID      uuid.UUID
}

// ReturnRecordRepository persists return records
type ReturnRecordRepository interface {
	// Create inserts record; a unique violation on the entry yields DUPLICATE_RECORD
	Create(ctx context.Context, record *ReturnEntryRecord) error

	FindByID(ctx context.Context, id uuid.UUID) (*ReturnEntryRecord, error)
	FindByEntryID(ctx context.Context, entryID uuid.UUID) (*ReturnEntryRecord, error)
	FindByLedger(ctx context.Context, koudenID uuid.UUID) ([]ReturnEntryRecord, error)

	// UpdateColumns writes cols plus updated_at=at in a single statement
	UpdateColumns(ctx context.Context, id uuid.UUID, cols map[string]any, at time.Time) error
	// SaveItems rewrites the item list and its cost
	SaveItems(ctx context.Context, record *ReturnEntryRecord) error

	DeleteByEntryID(ctx context.Context, entryID uuid.UUID) ([]DeletedRecord, error)
	DeleteByIDs(ctx context.Context, ids []uuid.UUID) ([]DeletedRecord, error)

	// FindMatchingIDs resolves a bulk filter against return records joined with gift entries
	FindMatchingIDs(ctx context.Context, koudenID uuid.UUID, filter BulkFilter) ([]uuid.UUID, error)
	// BulkUpdateColumns writes cols to every id in one transaction
	BulkUpdateColumns(ctx context.Context, ids []uuid.UUID, cols map[string]any, at time.Time) (int64, error)

	// FindPage returns up to limit+1 records after cursor
	FindPage(ctx context.Context, koudenID uuid.UUID, limit int, cursor *PageCursor, filter PageFilter) ([]ReturnEntryRecord, error)
}

// EntryReader reads gift entries from the ledger store
type EntryReader interface {
	GetEntry(ctx context.Context, id uuid.UUID) (*GiftEntry, error)
	ListEntries(ctx context.Context, koudenID uuid.UUID) ([]GiftEntry, error)
}

// RelationshipLookup lists a ledger's relationship labels
type RelationshipLookup interface {
	ListRelationships(ctx context.Context, koudenID uuid.UUID) ([]Relationship, error)
}

// OfferingAllocator reports how much offering value was allocated to an entry
type OfferingAllocator interface {
	AllocatedOfferingValue(ctx context.Context, entryID uuid.UUID) (int64, error)
}

// ViewCacheInvalidator receives a signal after a ledger's return data changed.
// Implementations must not block the caller on delivery.
type ViewCacheInvalidator interface {
	Invalidate(ctx context.Context, key string)
}

// LedgerCacheKey is the invalidation key of a ledger's return views
func LedgerCacheKey(koudenID uuid.UUID) string {
	return "/koudens/" + koudenID.String() + "/return_records"
}

// SummaryCache holds built summary lists keyed by LedgerCacheKey.
// A miss is reported as ok=false with a nil error.
type SummaryCache interface {
	Get(ctx context.Context, key string) (summaries []ReturnManagementSummary, ok bool, err error)
	Set(ctx context.Context, key string, summaries []ReturnManagementSummary) error
	Delete(ctx context.Context, key string) error
}

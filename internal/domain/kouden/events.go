package kouden

import (
	"github.com/google/uuid"
	"github.com/kouden/backend/internal/domain/shared"
)

// AggregateTypeReturnRecord is the aggregate type of return records
const AggregateTypeReturnRecord = "ReturnEntryRecord"

// Event type constants for return records
const (
	EventTypeReturnRecordCreated      = "ReturnRecordCreated"
	EventTypeReturnRecordUpdated      = "ReturnRecordUpdated"
	EventTypeReturnRecordsBulkUpdated = "ReturnRecordsBulkUpdated"
	EventTypeReturnRecordsDeleted     = "ReturnRecordsDeleted"
)

// ReturnRecordCreatedEvent is published when a return record is created
type ReturnRecordCreatedEvent struct {
	shared.BaseDomainEvent
	KoudenEntryID uuid.UUID    `json:"kouden_entry_id"`
	ReturnStatus  ReturnStatus `json:"return_status"`
	CreatedBy     uuid.UUID    `json:"created_by"`
}

// NewReturnRecordCreatedEvent creates a ReturnRecordCreatedEvent
func NewReturnRecordCreatedEvent(r *ReturnEntryRecord) *ReturnRecordCreatedEvent {
	return &ReturnRecordCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReturnRecordCreated, AggregateTypeReturnRecord, r.ID, r.KoudenID),
		KoudenEntryID:   r.KoudenEntryID,
		ReturnStatus:    r.ReturnStatus,
		CreatedBy:       r.CreatedBy,
	}
}

// ReturnRecordUpdatedEvent is published after one record had fields or items rewritten
type ReturnRecordUpdatedEvent struct {
	shared.BaseDomainEvent
	KoudenEntryID uuid.UUID `json:"kouden_entry_id"`
	Fields        []string  `json:"fields"`
	UpdatedBy     uuid.UUID `json:"updated_by"`
}

// NewReturnRecordUpdatedEvent creates a ReturnRecordUpdatedEvent
func NewReturnRecordUpdatedEvent(r *ReturnEntryRecord, fields []string, updatedBy uuid.UUID) *ReturnRecordUpdatedEvent {
	return &ReturnRecordUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReturnRecordUpdated, AggregateTypeReturnRecord, r.ID, r.KoudenID),
		KoudenEntryID:   r.KoudenEntryID,
		Fields:          fields,
		UpdatedBy:       updatedBy,
	}
}

// ReturnRecordsBulkUpdatedEvent is published once per successful bulk update
type ReturnRecordsBulkUpdatedEvent struct {
	shared.BaseDomainEvent
	RecordIDs []uuid.UUID `json:"record_ids"`
	Columns   []string    `json:"columns"`
	UpdatedBy uuid.UUID   `json:"updated_by"`
}

// NewReturnRecordsBulkUpdatedEvent creates a ReturnRecordsBulkUpdatedEvent.
// The aggregate id is the ledger since the event spans many records.
func NewReturnRecordsBulkUpdatedEvent(koudenID uuid.UUID, ids []uuid.UUID, columns []string, updatedBy uuid.UUID) *ReturnRecordsBulkUpdatedEvent {
	return &ReturnRecordsBulkUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReturnRecordsBulkUpdated, AggregateTypeReturnRecord, koudenID, koudenID),
		RecordIDs:       ids,
		Columns:         columns,
		UpdatedBy:       updatedBy,
	}
}

// ReturnRecordsDeletedEvent is published per ledger after records were removed
type ReturnRecordsDeletedEvent struct {
	shared.BaseDomainEvent
	RecordIDs []uuid.UUID `json:"record_ids"`
	DeletedBy uuid.UUID   `json:"deleted_by"`
}

// NewReturnRecordsDeletedEvent creates a ReturnRecordsDeletedEvent
func NewReturnRecordsDeletedEvent(koudenID uuid.UUID, ids []uuid.UUID, deletedBy uuid.UUID) *ReturnRecordsDeletedEvent {
	return &ReturnRecordsDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReturnRecordsDeleted, AggregateTypeReturnRecord, koudenID, koudenID),
		RecordIDs:       ids,
		DeletedBy:       deletedBy,
	}
}

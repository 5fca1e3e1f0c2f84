package kouden

import (
	"time"

	"github.com/google/uuid"
	"github.com/kouden/backend/internal/domain/shared"
)

// ReturnEntryRecord is the return-gift obligation attached to exactly one gift entry
type ReturnEntryRecord struct {
	shared.BaseAggregateRoot
	KoudenEntryID       uuid.UUID
	KoudenID            uuid.UUID
	ReturnStatus        ReturnStatus
	ReturnItems         []ReturnItem
	FuneralGiftAmount   int64
	ReturnItemsCost     int64
	ReturnMethod        *string
	ArrangementDate     *time.Time
	Remarks             *string
	ShippingPostalCode  *string
	ShippingAddress     *string
	ShippingPhoneNumber *string
	CreatedBy           uuid.UUID
}

// InitialFields are the optional values a record may be created with
type InitialFields struct {
	ReturnStatus        ReturnStatus
	ReturnItems         []ReturnItem
	FuneralGiftAmount   int64
	ReturnMethod        *string
	ArrangementDate     *time.Time
	Remarks             *string
	ShippingPostalCode  *string
	ShippingAddress     *string
	ShippingPhoneNumber *string
}

// NewReturnEntryRecord creates the return record for entry
func NewReturnEntryRecord(entry *GiftEntry, createdBy uuid.UUID, init InitialFields) (*ReturnEntryRecord, error) {
	if entry == nil || entry.ID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "gift entry is required")
	}
	status := init.ReturnStatus
	if status == "" {
		status = ReturnStatusPending
	}
	if !status.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidFieldValue, "unknown return status: "+string(status))
	}
	if init.FuneralGiftAmount < 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidFieldValue, "funeral gift amount cannot be negative")
	}
	if init.FuneralGiftAmount > MaxAmount {
		return nil, shared.NewDomainError(shared.CodeInvalidFieldValue, "funeral gift amount is too large")
	}
	if err := ValidateItems(init.ReturnItems); err != nil {
		return nil, err
	}

	items := init.ReturnItems
	if items == nil {
		items = []ReturnItem{}
	}
	record := &ReturnEntryRecord{
		BaseAggregateRoot:   shared.NewBaseAggregateRoot(),
		KoudenEntryID:       entry.ID,
		KoudenID:            entry.KoudenID,
		ReturnStatus:        status,
		ReturnItems:         items,
		FuneralGiftAmount:   init.FuneralGiftAmount,
		ReturnItemsCost:     ComputeItemsCost(items),
		ReturnMethod:        init.ReturnMethod,
		ArrangementDate:     init.ArrangementDate,
		Remarks:             init.Remarks,
		ShippingPostalCode:  init.ShippingPostalCode,
		ShippingAddress:     init.ShippingAddress,
		ShippingPhoneNumber: init.ShippingPhoneNumber,
		CreatedBy:           createdBy,
	}
	record.AddDomainEvent(NewReturnRecordCreatedEvent(record))
	return record, nil
}

// PlaceholderRecord stands in for an entry that has no return record yet.
// It has a nil ID and is never persisted.
func PlaceholderRecord(entry *GiftEntry) *ReturnEntryRecord {
	return &ReturnEntryRecord{
		KoudenEntryID: entry.ID,
		KoudenID:      entry.KoudenID,
		ReturnStatus:  ReturnStatusPending,
		ReturnItems:   []ReturnItem{},
	}
}

// IsPlaceholder reports whether r was synthesised by PlaceholderRecord
func (r *ReturnEntryRecord) IsPlaceholder() bool {
	return r.ID == uuid.Nil
}

// AdditionalReturnAmount is items cost plus the amount handed over at the funeral.
// It mirrors the generated column and is never stored from code.
func (r *ReturnEntryRecord) AdditionalReturnAmount() int64 {
	return r.ReturnItemsCost + r.FuneralGiftAmount
}

// ReplaceItems swaps the item list and recomputes the cost
func (r *ReturnEntryRecord) ReplaceItems(items []ReturnItem) error {
	if err := ValidateItems(items); err != nil {
		return err
	}
	if items == nil {
		items = []ReturnItem{}
	}
	r.ReturnItems = items
	r.ReturnItemsCost = ComputeItemsCost(items)
	r.Touch()
	return nil
}

// ApplyChanges mirrors already-persisted field changes onto the in-memory record
func (r *ReturnEntryRecord) ApplyChanges(changes []FieldChange, at time.Time) {
	for _, c := range changes {
		switch c.Field {
		case FieldReturnStatus:
			r.ReturnStatus = c.Value.(ReturnStatus)
		case FieldFuneralGiftAmount:
			r.FuneralGiftAmount = c.Value.(int64)
		case FieldReturnItemsCost:
			r.ReturnItemsCost = c.Value.(int64)
		case FieldArrangementDate:
			r.ArrangementDate = c.Value.(*time.Time)
		case FieldReturnMethod:
			r.ReturnMethod = c.Value.(*string)
		case FieldRemarks:
			r.Remarks = c.Value.(*string)
		case FieldShippingPostalCode:
			r.ShippingPostalCode = c.Value.(*string)
		case FieldShippingAddress:
			r.ShippingAddress = c.Value.(*string)
		case FieldShippingPhoneNumber:
			r.ShippingPhoneNumber = c.Value.(*string)
		}
	}
	r.UpdatedAt = at
}

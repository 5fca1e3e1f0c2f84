package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/kouden/backend/internal/domain/kouden"
	"github.com/kouden/backend/internal/domain/shared"
	"gorm.io/datatypes"
)

// ReturnEntryRecordModel is the persistence model for return_entry_records
type ReturnEntryRecordModel struct {
	BaseModel
	KoudenEntryID     uuid.UUID                              `gorm:"type:uuid;not null;uniqueIndex:uq_return_entry_records_entry"`
	KoudenID          uuid.UUID                              `gorm:"type:uuid;not null;index"`
	ReturnStatus      string                                 `gorm:"type:varchar(32);not null;default:'PENDING'"`
	ReturnItems       datatypes.JSONSlice[kouden.ReturnItem] `gorm:"not null"`
	FuneralGiftAmount int64                                  `gorm:"not null;default:0"`
	ReturnItemsCost   int64                                  `gorm:"not null;default:0"`
	// Generated by the database; GORM only ever reads it
	AdditionalReturnAmount int64      `gorm:"->"`
	ReturnMethod           *string    `gorm:"type:varchar(100)"`
	ArrangementDate        *time.Time `gorm:"type:date"`
	Remarks                *string    `gorm:"type:text"`
	ShippingPostalCode     *string    `gorm:"type:varchar(16)"`
	ShippingAddress        *string    `gorm:"type:text"`
	ShippingPhoneNumber    *string    `gorm:"type:varchar(32)"`
	CreatedBy              uuid.UUID  `gorm:"type:uuid;not null"`
}

// TableName returns the table name for GORM
func (ReturnEntryRecordModel) TableName() string {
	return "return_entry_records"
}

// ToDomain converts the persistence model to a domain entity
func (m *ReturnEntryRecordModel) ToDomain() *kouden.ReturnEntryRecord {
	items := []kouden.ReturnItem(m.ReturnItems)
	if items == nil {
		items = []kouden.ReturnItem{}
	}
	return &kouden.ReturnEntryRecord{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: m.BaseModel.ToDomain(),
		},
		KoudenEntryID:       m.KoudenEntryID,
		KoudenID:            m.KoudenID,
		ReturnStatus:        kouden.ReturnStatus(m.ReturnStatus),
		ReturnItems:         items,
		FuneralGiftAmount:   m.FuneralGiftAmount,
		ReturnItemsCost:     m.ReturnItemsCost,
		ReturnMethod:        m.ReturnMethod,
		ArrangementDate:     m.ArrangementDate,
		Remarks:             m.Remarks,
		ShippingPostalCode:  m.ShippingPostalCode,
		ShippingAddress:     m.ShippingAddress,
		ShippingPhoneNumber: m.ShippingPhoneNumber,
		CreatedBy:           m.CreatedBy,
	}
}

// FromDomain populates the persistence model from a domain entity
func (m *ReturnEntryRecordModel) FromDomain(r *kouden.ReturnEntryRecord) {
	m.FromDomainBaseEntity(r.BaseEntity)
	m.KoudenEntryID = r.KoudenEntryID
	m.KoudenID = r.KoudenID
	m.ReturnStatus = string(r.ReturnStatus)
	m.ReturnItems = datatypes.JSONSlice[kouden.ReturnItem](r.ReturnItems)
	if m.ReturnItems == nil {
		m.ReturnItems = datatypes.JSONSlice[kouden.ReturnItem]{}
	}
	m.FuneralGiftAmount = r.FuneralGiftAmount
	m.ReturnItemsCost = r.ReturnItemsCost
	m.ReturnMethod = r.ReturnMethod
	m.ArrangementDate = r.ArrangementDate
	m.Remarks = r.Remarks
	m.ShippingPostalCode = r.ShippingPostalCode
	m.ShippingAddress = r.ShippingAddress
	m.ShippingPhoneNumber = r.ShippingPhoneNumber
	m.CreatedBy = r.CreatedBy
}

// ReturnEntryRecordModelFromDomain creates a new persistence model from a domain entity
func ReturnEntryRecordModelFromDomain(r *kouden.ReturnEntryRecord) *ReturnEntryRecordModel {
	m := &ReturnEntryRecordModel{}
	m.FromDomain(r)
	return m
}

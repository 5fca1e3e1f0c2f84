package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/kouden/backend/internal/domain/kouden"
)

// GiftEntryModel maps kouden_entries. The return engine only reads it.
type GiftEntryModel struct {
	BaseModel
	KoudenID       uuid.UUID  `gorm:"type:uuid;not null;index"`
	Name           string     `gorm:"type:varchar(200);not null"`
	Organization   *string    `gorm:"type:varchar(200)"`
	Position       *string    `gorm:"type:varchar(100)"`
	Amount         int64      `gorm:"not null;default:0"`
	AttendanceType string     `gorm:"type:varchar(32);not null;default:'FUNERAL'"`
	RelationshipID *uuid.UUID `gorm:"type:uuid"`
	HasOffering    bool       `gorm:"not null;default:false"`
	Version        int        `gorm:"not null;default:1"`
}

// TableName returns the table name for GORM
func (GiftEntryModel) TableName() string {
	return "kouden_entries"
}

// ToDomain converts to the domain read model
func (m *GiftEntryModel) ToDomain() *kouden.GiftEntry {
	return &kouden.GiftEntry{
		ID:             m.ID,
		KoudenID:       m.KoudenID,
		Name:           m.Name,
		Organization:   m.Organization,
		Position:       m.Position,
		Amount:         m.Amount,
		AttendanceType: kouden.AttendanceType(m.AttendanceType),
		RelationshipID: m.RelationshipID,
		HasOffering:    m.HasOffering,
		Version:        m.Version,
		CreatedAt:      m.CreatedAt,
	}
}

// RelationshipModel maps kouden_relationships
type RelationshipModel struct {
	BaseModel
	KoudenID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name     string    `gorm:"type:varchar(100);not null"`
}

// TableName returns the table name for GORM
func (RelationshipModel) TableName() string {
	return "kouden_relationships"
}

// ToDomain converts to the domain read model
func (m *RelationshipModel) ToDomain() kouden.Relationship {
	return kouden.Relationship{ID: m.ID, KoudenID: m.KoudenID, Name: m.Name}
}

// OfferingAllocationModel maps offering_allocations
type OfferingAllocationModel struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key"`
	OfferingID      uuid.UUID `gorm:"type:uuid;not null"`
	KoudenEntryID   uuid.UUID `gorm:"type:uuid;not null;index"`
	AllocatedAmount int64     `gorm:"not null;default:0"`
	CreatedAt       time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OfferingAllocationModel) TableName() string {
	return "offering_allocations"
}

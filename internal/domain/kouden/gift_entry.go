package kouden

import (
	"time"

	"github.com/google/uuid"
)

// GiftEntry is the read model of a monetary gift recorded in a ledger.
// The ledger store owns it; this package only reads it.
type GiftEntry struct {
	ID             uuid.UUID
	KoudenID       uuid.UUID
	Name           string
	Organization   *string
	Position       *string
	Amount         int64
	AttendanceType AttendanceType
	RelationshipID *uuid.UUID
	HasOffering    bool
	// Version is carried by the ledger store and not checked here
	Version   int
	CreatedAt time.Time
}

// Relationship is a ledger-scoped label such as "colleague" or "relative"
type Relationship struct {
	ID       uuid.UUID
	KoudenID uuid.UUID
	Name     string
}

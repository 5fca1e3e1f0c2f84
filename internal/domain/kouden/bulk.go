package kouden

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kouden/backend/internal/domain/shared"
)

// AmountRange bounds a gift amount; either end may be open
type AmountRange struct {
	Min *int64
	Max *int64
}

// BulkFilter selects return records of one ledger. Every non-empty dimension
// must hold for a record to match; empty dimensions impose nothing.
type BulkFilter struct {
	AmountRange     *AmountRange
	RelationshipIDs []uuid.UUID
	CurrentStatuses []ReturnStatus
	AttendanceTypes []AttendanceType
	HasOffering     *bool
}

// Validate rejects malformed filter values before anything is read
func (f BulkFilter) Validate() error {
	if r := f.AmountRange; r != nil && r.Min != nil && r.Max != nil && *r.Min > *r.Max {
		return invalidFilter("amountRange.min %d exceeds max %d", *r.Min, *r.Max)
	}
	for _, id := range f.RelationshipIDs {
		if id == uuid.Nil {
			return invalidFilter("relationshipIds contains an empty id")
		}
	}
	for _, s := range f.CurrentStatuses {
		if !s.IsValid() {
			return invalidFilter("unknown status %q", s)
		}
	}
	for _, t := range f.AttendanceTypes {
		if !t.IsValid() {
			return invalidFilter("unknown attendance type %q", t)
		}
	}
	return nil
}

// ItemsInstructionMode says how a bulk items instruction would treat existing items
type ItemsInstructionMode string

const (
	ItemsModeAdd     ItemsInstructionMode = "add"
	ItemsModeReplace ItemsInstructionMode = "replace"
	ItemsModeRemove  ItemsInstructionMode = "remove"
)

// ItemsInstruction is an item-level bulk edit. It is carried through the API
// but not applied; see BulkUpdates.Columns.
type ItemsInstruction struct {
	Mode  ItemsInstructionMode
	Items []ReturnItem
}

// BulkUpdates is the uniform payload written to every matched record
type BulkUpdates struct {
	Status          *ReturnStatus
	ReturnMethod    *string
	ArrangementDate *time.Time
	Remarks         *string
	ReturnItems     *ItemsInstruction
}

// Validate checks the scalar payload values
func (u BulkUpdates) Validate() error {
	if u.Status != nil && !u.Status.IsValid() {
		return shared.NewDomainError(shared.CodeInvalidFieldValue, "unknown return status: "+string(*u.Status))
	}
	if u.ReturnItems != nil {
		switch u.ReturnItems.Mode {
		case ItemsModeAdd, ItemsModeReplace, ItemsModeRemove:
		default:
			return shared.NewDomainError(shared.CodeInvalidFieldValue, "unknown returnItems mode: "+string(u.ReturnItems.Mode))
		}
	}
	return nil
}

// Columns returns the scalar column assignments. Item instructions produce
// no columns. A blank text value clears the column.
func (u BulkUpdates) Columns() map[string]any {
	cols := make(map[string]any, 4)
	if u.Status != nil {
		cols[FieldReturnStatus.Column()] = string(*u.Status)
	}
	if u.ReturnMethod != nil {
		cols[FieldReturnMethod.Column()] = nullableText(*u.ReturnMethod)
	}
	if u.ArrangementDate != nil {
		cols[FieldArrangementDate.Column()] = *u.ArrangementDate
	}
	if u.Remarks != nil {
		cols[FieldRemarks.Column()] = nullableText(*u.Remarks)
	}
	return cols
}

func nullableText(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

// ColumnNames lists Columns keys in stable order
func ColumnNames(cols map[string]any) []string {
	names := make([]string, 0, len(cols))
	for k := range cols {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func invalidFilter(format string, args ...any) error {
	return shared.NewDomainError(shared.CodeInvalidFilter, fmt.Sprintf(format, args...))
}

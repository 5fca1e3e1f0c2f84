package kouden

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kouden/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
)

func int64Ptr(v int64) *int64 { return &v }

func TestBulkFilter_Validate(t *testing.T) {
	tests := []struct {
		name    string
		filter  BulkFilter
		wantErr bool
	}{
		{"empty filter", BulkFilter{}, false},
		{"open max", BulkFilter{AmountRange: &AmountRange{Min: int64Ptr(1000)}}, false},
		{"min equals max", BulkFilter{AmountRange: &AmountRange{Min: int64Ptr(5000), Max: int64Ptr(5000)}}, false},
		{"min above max", BulkFilter{AmountRange: &AmountRange{Min: int64Ptr(5001), Max: int64Ptr(5000)}}, true},
		{"nil relationship", BulkFilter{RelationshipIDs: []uuid.UUID{uuid.New(), uuid.Nil}}, true},
		{"unknown status", BulkFilter{CurrentStatuses: []ReturnStatus{ReturnStatusPending, "LOST"}}, true},
		{"unknown attendance", BulkFilter{AttendanceTypes: []AttendanceType{"REMOTE"}}, true},
		{"full filter", BulkFilter{
			AmountRange:     &AmountRange{Max: int64Ptr(10000)},
			RelationshipIDs: []uuid.UUID{uuid.New()},
			CurrentStatuses: []ReturnStatus{ReturnStatusPending},
			AttendanceTypes: []AttendanceType{AttendanceAbsent},
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.filter.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, shared.ErrInvalidFilter)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBulkUpdates_Columns(t *testing.T) {
	status := ReturnStatusCompleted
	method := "hand delivery"
	date := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	u := BulkUpdates{
		Status:          &status,
		ReturnMethod:    &method,
		ArrangementDate: &date,
		ReturnItems:     &ItemsInstruction{Mode: ItemsModeAdd, Items: []ReturnItem{{Name: "Tea", UnitPrice: 1, Quantity: 1}}},
	}
	cols := u.Columns()

	assert.Equal(t, map[string]any{
		"return_status":    "COMPLETED",
		"return_method":    "hand delivery",
		"arrangement_date": date,
	}, cols)
	assert.Equal(t, []string{"arrangement_date", "return_method", "return_status"}, ColumnNames(cols))
}

func TestBulkUpdates_Validate(t *testing.T) {
	bad := ReturnStatus("ARCHIVED")
	assert.ErrorIs(t, BulkUpdates{Status: &bad}.Validate(), shared.ErrInvalidFieldValue)
	assert.ErrorIs(t, BulkUpdates{ReturnItems: &ItemsInstruction{Mode: "merge"}}.Validate(), shared.ErrInvalidFieldValue)
	assert.NoError(t, BulkUpdates{}.Validate())
}

func TestBulkUpdates_BlankTextClears(t *testing.T) {
	blank := "  "
	u := BulkUpdates{ReturnMethod: &blank, Remarks: &blank}
	assert.Equal(t, map[string]any{"return_method": nil, "remarks": nil}, u.Columns())
}

func TestBulkUpdates_ItemsOnlyHasNoColumns(t *testing.T) {
	u := BulkUpdates{ReturnItems: &ItemsInstruction{Mode: ItemsModeReplace}}
	assert.Empty(t, u.Columns())
}

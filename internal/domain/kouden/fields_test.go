package kouden

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/kouden/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseField_AllowList(t *testing.T) {
	for _, f := range UpdatableFields() {
		t.Run(string(f), func(t *testing.T) {
			got, err := ParseField(string(f))
			require.NoError(t, err)
			assert.NotEmpty(t, got.Column())
		})
	}

	forbidden := []string{"additionalReturnAmount", "additional_return_amount", "id", "koudenEntryId", "createdBy", "returnItems", "ReturnStatus"}
	for _, name := range forbidden {
		t.Run("forbidden "+name, func(t *testing.T) {
			_, err := ParseField(name)
			require.Error(t, err)
			assert.ErrorIs(t, err, shared.ErrForbiddenField)
		})
	}
}

func TestUpdatableFields_ExcludeGeneratedColumn(t *testing.T) {
	for _, f := range UpdatableFields() {
		assert.NotEqual(t, "additional_return_amount", f.Column())
	}
	assert.Len(t, UpdatableFields(), 9)
}

func TestNewFieldChange_Coercion(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		c, err := NewFieldChange("returnStatus", "completed")
		require.NoError(t, err)
		assert.Equal(t, ReturnStatusCompleted, c.Value)
		assert.Equal(t, "COMPLETED", c.ColumnValue())
	})

	t.Run("status must be a string", func(t *testing.T) {
		_, err := NewFieldChange("returnStatus", 3.0)
		assert.ErrorIs(t, err, shared.ErrInvalidFieldValue)
	})

	t.Run("amount from json float", func(t *testing.T) {
		c, err := NewFieldChange("funeralGiftAmount", float64(3000))
		require.NoError(t, err)
		assert.Equal(t, int64(3000), c.Value)
	})

	t.Run("amount from json.Number", func(t *testing.T) {
		c, err := NewFieldChange("returnItemsCost", json.Number("4500"))
		require.NoError(t, err)
		assert.Equal(t, int64(4500), c.Value)
	})

	t.Run("fractional amount rejected", func(t *testing.T) {
		_, err := NewFieldChange("funeralGiftAmount", 10.5)
		assert.ErrorIs(t, err, shared.ErrInvalidFieldValue)
	})

	t.Run("negative amount rejected", func(t *testing.T) {
		_, err := NewFieldChange("funeralGiftAmount", -1)
		assert.ErrorIs(t, err, shared.ErrInvalidFieldValue)
	})

	t.Run("amount above the ceiling rejected", func(t *testing.T) {
		for _, raw := range []any{float64(1 << 63), float64(MaxAmount) * 2, json.Number("9223372036854775807"), int64(MaxAmount) + 1} {
			_, err := NewFieldChange("returnItemsCost", raw)
			require.ErrorIs(t, err, shared.ErrInvalidFieldValue, "%v", raw)
			assert.Contains(t, err.Error(), "cannot exceed")
		}

		c, err := NewFieldChange("returnItemsCost", MaxAmount)
		require.NoError(t, err)
		assert.Equal(t, MaxAmount, c.Value)
	})

	t.Run("negative float reports negative", func(t *testing.T) {
		_, err := NewFieldChange("funeralGiftAmount", float64(-1<<63))
		require.ErrorIs(t, err, shared.ErrInvalidFieldValue)
		assert.Contains(t, err.Error(), "cannot be negative")
	})

	t.Run("date", func(t *testing.T) {
		c, err := NewFieldChange("arrangementDate", "2026-03-14")
		require.NoError(t, err)
		d := c.Value.(*time.Time)
		require.NotNil(t, d)
		assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), *d)
	})

	t.Run("date cleared by null", func(t *testing.T) {
		c, err := NewFieldChange("arrangementDate", nil)
		require.NoError(t, err)
		assert.Nil(t, c.Value.(*time.Time))
	})

	t.Run("bad date", func(t *testing.T) {
		_, err := NewFieldChange("arrangementDate", "14/03/2026")
		assert.ErrorIs(t, err, shared.ErrInvalidFieldValue)
	})

	t.Run("text and blank text", func(t *testing.T) {
		c, err := NewFieldChange("remarks", "sent by courier")
		require.NoError(t, err)
		assert.Equal(t, "sent by courier", *c.Value.(*string))

		c, err = NewFieldChange("shippingAddress", "   ")
		require.NoError(t, err)
		assert.Nil(t, c.Value.(*string))
	})

	t.Run("text rejects numbers", func(t *testing.T) {
		_, err := NewFieldChange("shippingPostalCode", 1000001)
		assert.ErrorIs(t, err, shared.ErrInvalidFieldValue)
	})
}

func TestNewFieldChanges_RejectsWholePayloadOnForbiddenKey(t *testing.T) {
	_, err := NewFieldChanges(map[string]any{
		"returnStatus":           "COMPLETED",
		"remarks":                "ok",
		"additionalReturnAmount": 12000,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrForbiddenField)
}

func TestNewFieldChanges_ForbiddenWinsOverBadValue(t *testing.T) {
	_, err := NewFieldChanges(map[string]any{
		"funeralGiftAmount":      "not a number",
		"additionalReturnAmount": 1,
	})
	assert.ErrorIs(t, err, shared.ErrForbiddenField)
}

func TestNewFieldChanges_Columns(t *testing.T) {
	changes, err := NewFieldChanges(map[string]any{
		"returnStatus":      "PARTIAL_RETURNED",
		"funeralGiftAmount": float64(2000),
	})
	require.NoError(t, err)

	cols := Columns(changes)
	assert.Equal(t, map[string]any{
		"return_status":       "PARTIAL_RETURNED",
		"funeral_gift_amount": int64(2000),
	}, cols)
}

func TestNewFieldChanges_Empty(t *testing.T) {
	_, err := NewFieldChanges(map[string]any{})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

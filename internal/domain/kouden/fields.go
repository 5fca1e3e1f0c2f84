package kouden

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/kouden/backend/internal/domain/shared"
)

// Field names a return-record attribute that callers may set directly
type Field string

const (
	FieldReturnStatus        Field = "returnStatus"
	FieldFuneralGiftAmount   Field = "funeralGiftAmount"
	FieldReturnMethod        Field = "returnMethod"
	FieldArrangementDate     Field = "arrangementDate"
	FieldRemarks             Field = "remarks"
	FieldShippingPostalCode  Field = "shippingPostalCode"
	FieldShippingAddress     Field = "shippingAddress"
	FieldShippingPhoneNumber Field = "shippingPhoneNumber"
	FieldReturnItemsCost     Field = "returnItemsCost"
)

// DateLayout is the wire format of arrangementDate
const DateLayout = "2006-01-02"

// updatableColumns is the allow-list. Anything absent here, including the
// generated additionalReturnAmount, can never reach an update statement.
var updatableColumns = map[Field]string{
	FieldReturnStatus:        "return_status",
	FieldFuneralGiftAmount:   "funeral_gift_amount",
	FieldReturnMethod:        "return_method",
	FieldArrangementDate:     "arrangement_date",
	FieldRemarks:             "remarks",
	FieldShippingPostalCode:  "shipping_postal_code",
	FieldShippingAddress:     "shipping_address",
	FieldShippingPhoneNumber: "shipping_phone_number",
	FieldReturnItemsCost:     "return_items_cost",
}

// UpdatableFields returns the allow-listed field names, sorted
func UpdatableFields() []Field {
	fields := make([]Field, 0, len(updatableColumns))
	for f := range updatableColumns {
		fields = append(fields, f)
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i] < fields[j] })
	return fields
}

// ParseField resolves a caller-supplied name against the allow-list.
func ParseField(name string) (Field, error) {
	f := Field(name)
	if _, ok := updatableColumns[f]; !ok {
		return "", shared.NewDomainError(shared.CodeForbiddenField, fmt.Sprintf("field %q may not be updated", name))
	}
	return f, nil
}

// Column returns the storage column of an allow-listed field
func (f Field) Column() string {
	return updatableColumns[f]
}

// FieldChange is a validated, typed assignment of one field.
// Value holds ReturnStatus, int64, *time.Time or *string depending on Field.
type FieldChange struct {
	Field Field
	Value any
}

// NewFieldChange validates name against the allow-list and coerces raw into the
// field's type. raw is usually a decoded JSON value.
func NewFieldChange(name string, raw any) (FieldChange, error) {
	field, err := ParseField(name)
	if err != nil {
		return FieldChange{}, err
	}

	var value any
	switch field {
	case FieldReturnStatus:
		s, ok := raw.(string)
		if !ok {
			return FieldChange{}, invalidValue(field, "must be a string")
		}
		status, err := ParseReturnStatus(s)
		if err != nil {
			return FieldChange{}, err
		}
		value = status
	case FieldFuneralGiftAmount, FieldReturnItemsCost:
		n, err := coerceAmount(raw)
		if err != nil {
			return FieldChange{}, invalidValue(field, err.Error())
		}
		value = n
	case FieldArrangementDate:
		d, err := coerceDate(raw)
		if err != nil {
			return FieldChange{}, invalidValue(field, err.Error())
		}
		value = d
	default:
		s, err := coerceOptionalString(raw)
		if err != nil {
			return FieldChange{}, invalidValue(field, err.Error())
		}
		value = s
	}
	return FieldChange{Field: field, Value: value}, nil
}

// NewFieldChanges validates a whole payload. Every key is checked against the
// allow-list before any value is coerced, so one forbidden key rejects the lot.
func NewFieldChanges(payload map[string]any) ([]FieldChange, error) {
	if len(payload) == 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "no fields to update")
	}
	names := make([]string, 0, len(payload))
	for name := range payload {
		if _, err := ParseField(name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	sort.Strings(names)

	changes := make([]FieldChange, 0, len(names))
	for _, name := range names {
		change, err := NewFieldChange(name, payload[name])
		if err != nil {
			return nil, err
		}
		changes = append(changes, change)
	}
	return changes, nil
}

// ColumnValue returns the value in the shape the store expects
func (c FieldChange) ColumnValue() any {
	switch v := c.Value.(type) {
	case ReturnStatus:
		return string(v)
	default:
		return v
	}
}

// Columns folds changes into a column -> value map
func Columns(changes []FieldChange) map[string]any {
	cols := make(map[string]any, len(changes))
	for _, c := range changes {
		cols[c.Field.Column()] = c.ColumnValue()
	}
	return cols
}

func invalidValue(field Field, reason string) error {
	return shared.NewDomainError(shared.CodeInvalidFieldValue, fmt.Sprintf("invalid value for %s: %s", field, reason))
}

func coerceAmount(raw any) (int64, error) {
	var n int64
	switch v := raw.(type) {
	case int:
		n = int64(v)
	case int32:
		n = int64(v)
	case int64:
		n = v
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("must be a whole number")
		}
		if v < 0 {
			return 0, fmt.Errorf("cannot be negative")
		}
		if v > float64(MaxAmount) {
			return 0, fmt.Errorf("cannot exceed %d", MaxAmount)
		}
		n = int64(v)
	case json.Number:
		parsed, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("must be a whole number")
		}
		n = parsed
	default:
		return 0, fmt.Errorf("must be a number")
	}
	if n < 0 {
		return 0, fmt.Errorf("cannot be negative")
	}
	if n > MaxAmount {
		return 0, fmt.Errorf("cannot exceed %d", MaxAmount)
	}
	return n, nil
}

func coerceDate(raw any) (*time.Time, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case time.Time:
		d := truncateDate(v)
		return &d, nil
	case *time.Time:
		if v == nil {
			return nil, nil
		}
		d := truncateDate(*v)
		return &d, nil
	case string:
		v = strings.TrimSpace(v)
		if v == "" {
			return nil, nil
		}
		if d, err := time.Parse(DateLayout, v); err == nil {
			return &d, nil
		}
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			d := truncateDate(t)
			return &d, nil
		}
		return nil, fmt.Errorf("expected %s", DateLayout)
	}
	return nil, fmt.Errorf("must be a date string or null")
}

func truncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func coerceOptionalString(raw any) (*string, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		return &v, nil
	case *string:
		return v, nil
	}
	return nil, fmt.Errorf("must be a string or null")
}

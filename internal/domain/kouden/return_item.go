package kouden

import (
	"math/bits"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/kouden/backend/internal/domain/shared"
)

// ReturnItem is one line of the physical return gift
type ReturnItem struct {
	Name           string     `json:"name"`
	UnitPrice      int64      `json:"unitPrice"`
	Quantity       int64      `json:"quantity"`
	Notes          string     `json:"notes,omitempty"`
	SourceMasterID *uuid.UUID `json:"sourceMasterId,omitempty"`
}

// MaxAmount is the largest yen amount accepted for any amount, subtotal or
// items cost. Sums of two amounts stay inside int64 and every amount is exact
// as a JSON number.
const MaxAmount int64 = 1<<53 - 1

// Subtotal returns unit price times quantity
func (i ReturnItem) Subtotal() int64 {
	return i.UnitPrice * i.Quantity
}

// checkedSubtotal reports false when the subtotal exceeds MaxAmount.
// Both factors must be non-negative.
func (i ReturnItem) checkedSubtotal() (int64, bool) {
	hi, lo := bits.Mul64(uint64(i.UnitPrice), uint64(i.Quantity))
	if hi != 0 || lo > uint64(MaxAmount) {
		return 0, false
	}
	return int64(lo), true
}

// Validate checks a single item
func (i ReturnItem) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return shared.NewDomainError(shared.CodeInvalidFieldValue, "return item name cannot be empty")
	}
	if i.UnitPrice < 0 {
		return shared.NewDomainError(shared.CodeInvalidFieldValue, "return item unit price cannot be negative")
	}
	if i.Quantity < 0 {
		return shared.NewDomainError(shared.CodeInvalidFieldValue, "return item quantity cannot be negative")
	}
	return nil
}

// ComputeItemsCost sums Subtotal over items. Items must have passed ValidateItems.
func ComputeItemsCost(items []ReturnItem) int64 {
	var total int64
	for _, item := range items {
		total += item.Subtotal()
	}
	return total
}

// ValidateItems validates every item and returns the first failure, prefixed
// with its position. The running cost must stay within MaxAmount.
func ValidateItems(items []ReturnItem) error {
	var total int64
	for idx, item := range items {
		if err := item.Validate(); err != nil {
			de := err.(*shared.DomainError)
			return shared.NewDomainError(de.Code, "returnItems["+strconv.Itoa(idx)+"]: "+de.Message)
		}
		sub, ok := item.checkedSubtotal()
		if !ok || sub > MaxAmount-total {
			return shared.NewDomainError(shared.CodeInvalidFieldValue,
				"returnItems["+strconv.Itoa(idx)+"]: return items cost exceeds "+strconv.FormatInt(MaxAmount, 10))
		}
		total += sub
	}
	return nil
}

package kouden

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/kouden/backend/internal/domain/shared"
)

// PageCursor marks the last row of a page in (created_at DESC, id DESC) order
type PageCursor struct {
	CreatedAt time.Time `json:"c"`
	ID        uuid.UUID `json:"i"`
}

// Encode returns the opaque wire form of the cursor
func (c PageCursor) Encode() string {
	raw, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodePageCursor parses a cursor produced by Encode
func DecodePageCursor(s string) (*PageCursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, shared.NewDomainError(shared.CodeInvalidFilter, "malformed cursor")
	}
	var c PageCursor
	if err := json.Unmarshal(raw, &c); err != nil || c.CreatedAt.IsZero() {
		return nil, shared.NewDomainError(shared.CodeInvalidFilter, "malformed cursor")
	}
	return &c, nil
}

// CursorOf returns the cursor positioned at r
func CursorOf(r ReturnEntryRecord) string {
	return PageCursor{CreatedAt: r.CreatedAt, ID: r.ID}.Encode()
}

// PageFilter narrows a paginated listing
type PageFilter struct {
	Search string
	Status *ReturnStatus
}

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// NormalizePageLimit clamps limit into [1, MaxPageLimit], defaulting zero or negative values.
func NormalizePageLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultPageLimit
	case limit > MaxPageLimit:
		return MaxPageLimit
	}
	return limit
}

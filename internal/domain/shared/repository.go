package shared

// CursorPage is one slice of a cursor-paginated listing
type CursorPage[T any] struct {
	Items      []T    `json:"items"`
	HasMore    bool   `json:"has_more"`
	NextCursor string `json:"next_cursor,omitempty"`
}

// NewCursorPage trims a limit+1 result set down to limit and derives HasMore.
// cursorOf encodes the position of the last kept item.
func NewCursorPage[T any](rows []T, limit int, cursorOf func(T) string) CursorPage[T] {
	page := CursorPage[T]{Items: rows}
	if limit > 0 && len(rows) > limit {
		page.Items = rows[:limit]
		page.HasMore = true
	}
	if page.HasMore && len(page.Items) > 0 {
		page.NextCursor = cursorOf(page.Items[len(page.Items)-1])
	}
	if page.Items == nil {
		page.Items = []T{}
	}
	return page
}

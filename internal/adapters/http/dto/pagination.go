package dto

import (
	"encoding/base64"
	"encoding/json"
	"errors"
)

// DefaultLimit is the default number of items per page.
const DefaultLimit = 20

// MaxLimit is the maximum allowed items per page.
const MaxLimit = 100

// ErrInvalidCursor is returned when cursor decoding fails or the cursor was
// issued for a different filter.
var ErrInvalidCursor = errors.New("invalid cursor")

// PaginationRequest represents pagination parameters from the request.
type PaginationRequest struct {
	// Cursor is an opaque string from a previous response's NextCursor.
	Cursor string `form:"cursor" json:"cursor"`

	// Limit is the maximum number of items to return (1-100, default 20).
	Limit int `form:"limit" json:"limit" validate:"omitempty,gte=1,lte=100"`
}

// GetLimit returns the limit with defaults applied.
func (p *PaginationRequest) GetLimit() int {
	if p.Limit <= 0 {
		return DefaultLimit
	}

	return min(p.Limit, MaxLimit)
}

// PaginatedResponse is a generic paginated response structure.
type PaginatedResponse[T any] struct {
	// Items is the array of items for this page.
	Items []T `json:"items"`

	// NextCursor is the cursor to use for the next page.
	// Empty if there are no more items.
	NextCursor string `json:"nextCursor,omitempty"`

	// HasMore indicates whether there are more items after this page.
	HasMore bool `json:"hasMore"`
}

// NewPaginatedResponse wraps one page of items. next is the already encoded
// cursor for the following page, or "" on the last page.
func NewPaginatedResponse[T any](items []T, next string) *PaginatedResponse[T] {
	if items == nil {
		items = []T{}
	}

	return &PaginatedResponse[T]{
		Items:      items,
		NextCursor: next,
		HasMore:    next != "",
	}
}

// CursorData is the payload of a list cursor. Position is the store's own
// opaque cursor; Status and Tenant pin the cursor to the filter it was
// issued for.
type CursorData struct {
	Position string `json:"p"`
	Status   string `json:"s,omitempty"`
	Tenant   string `json:"t,omitempty"`
}

// EncodeCursor encodes cursor data to a base64 string. A nil cursor or one
// with no position encodes to "".
func EncodeCursor(data *CursorData) string {
	if data == nil || data.Position == "" {
		return ""
	}

	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return ""
	}

	return base64.RawURLEncoding.EncodeToString(jsonBytes)
}

// DecodeCursor decodes a base64 cursor string to cursor data. An empty
// string is the first page and decodes to a zero CursorData.
func DecodeCursor(encoded string) (*CursorData, error) {
	if encoded == "" {
		return &CursorData{}, nil
	}

	jsonBytes, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	var data CursorData
	if err := json.Unmarshal(jsonBytes, &data); err != nil || data.Position == "" {
		return nil, ErrInvalidCursor
	}

	return &data, nil
}

// Matches reports whether the cursor was issued for the given filter.
func (c *CursorData) Matches(status, tenant string) bool {
	if c.Position == "" {
		return true
	}

	return c.Status == status && c.Tenant == tenant
}

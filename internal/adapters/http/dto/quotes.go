package dto

import (
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jsamuelsen/quote-lifecycle-service/internal/app"
	"github.com/jsamuelsen/quote-lifecycle-service/internal/domain"
)

// CreateQuoteRequest is the body of POST /api/v1/staff/quotes. Tenant and
// Currency fall back to the configured defaults when omitted.
type CreateQuoteRequest struct {
	Tenant       string          `json:"tenant"       validate:"omitempty,alphanum,max=16"`
	Company      string          `json:"company"      validate:"required,notempty,max=200"`
	ContactName  string          `json:"contactName"  validate:"required,notempty,max=200"`
	ContactEmail string          `json:"contactEmail" validate:"required,email,max=254"`
	Product      string          `json:"product"      validate:"required,notempty,max=200"`
	Quantity     int             `json:"quantity"     validate:"required,gte=1"`
	Amount       decimal.Decimal `json:"amount"       validate:"nonnegative"`
	Currency     string          `json:"currency"     validate:"currency"`
	Notes        string          `json:"notes"        validate:"max=4000"`
	Attachments  []string        `json:"attachments"  validate:"max=20,dive,notempty,max=256"`
}

// ToDraft converts the request to a domain draft.
func (r *CreateQuoteRequest) ToDraft() domain.QuoteDraft {
	return domain.QuoteDraft{
		Tenant:       strings.ToUpper(r.Tenant),
		Company:      strings.TrimSpace(r.Company),
		ContactName:  strings.TrimSpace(r.ContactName),
		ContactEmail: strings.TrimSpace(r.ContactEmail),
		Product:      strings.TrimSpace(r.Product),
		Quantity:     r.Quantity,
		Amount:       r.Amount,
		Currency:     r.Currency,
		Notes:        r.Notes,
		Attachments:  slices.Clone(r.Attachments),
	}
}

// UpdateQuoteRequest is the body of PATCH /api/v1/staff/quotes/:id. Omitted
// fields are left unchanged; attachments, when present, replace the list.
type UpdateQuoteRequest struct {
	Company      *string          `json:"company"      validate:"omitempty,notempty,max=200"`
	ContactName  *string          `json:"contactName"  validate:"omitempty,notempty,max=200"`
	ContactEmail *string          `json:"contactEmail" validate:"omitempty,email,max=254"`
	Product      *string          `json:"product"      validate:"omitempty,notempty,max=200"`
	Quantity     *int             `json:"quantity"     validate:"omitempty,gte=1"`
	Amount       *decimal.Decimal `json:"amount"       validate:"omitempty,nonnegative"`
	Currency     *string          `json:"currency"     validate:"omitempty,currency"`
	Notes        *string          `json:"notes"        validate:"omitempty,max=4000"`
	Attachments  []string         `json:"attachments"  validate:"omitempty,max=20,dive,notempty,max=256"`
}

// ToPatch converts the request to a domain patch.
func (r *UpdateQuoteRequest) ToPatch() domain.DraftPatch {
	return domain.DraftPatch{
		Company:      r.Company,
		ContactName:  r.ContactName,
		ContactEmail: r.ContactEmail,
		Product:      r.Product,
		Quantity:     r.Quantity,
		Amount:       r.Amount,
		Currency:     r.Currency,
		Notes:        r.Notes,
		Attachments:  slices.Clone(r.Attachments),
	}
}

// ListQuotesRequest holds the query parameters of GET /api/v1/staff/quotes.
type ListQuotesRequest struct {
	PaginationRequest

	Status string `form:"status" json:"status" validate:"omitempty,oneof=draft sent viewed accepted rejected expired"`
	Tenant string `form:"tenant" json:"tenant" validate:"omitempty,alphanum,max=16"`
}

// RespondRequest is the body of the client respond endpoint. The decision
// value itself is checked by the gateway so a bad value maps to the same
// VALIDATION_ERROR as any other.
type RespondRequest struct {
	Decision string `json:"decision" validate:"required"`
}

// QuoteIDParam binds the :id path segment.
type QuoteIDParam struct {
	ID string `uri:"id" json:"id" validate:"required,quoteid"`
}

// QuoteResponse is the staff representation of a quote.
type QuoteResponse struct {
	ID           string          `json:"id"`
	Tenant       string          `json:"tenant"`
	Status       domain.Status   `json:"status"`
	Company      string          `json:"company"`
	ContactName  string          `json:"contactName"`
	ContactEmail string          `json:"contactEmail"`
	Product      string          `json:"product"`
	Quantity     int             `json:"quantity"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	Notes        string          `json:"notes,omitempty"`
	Attachments  []string        `json:"attachments"`
	CreatedAt    time.Time       `json:"createdAt"`
	ExpiresAt    time.Time       `json:"expiresAt"`
	ViewedAt     *time.Time      `json:"viewedAt,omitempty"`
	RespondedAt  *time.Time      `json:"respondedAt,omitempty"`
	RequotedFrom string          `json:"requotedFrom,omitempty"`
	Version      int             `json:"version"`

	// ShareLink is the client URL; present once the quote has been sent.
	ShareLink string `json:"shareLink,omitempty"`

	// Events is the audit history, only included on single-quote reads.
	Events []domain.LifecycleEvent `json:"events,omitempty"`
}

// NewQuoteResponse builds the staff view of q. The raw token is never
// exposed on its own; staff get it inside shareLink.
func NewQuoteResponse(q *domain.Quote, shareLink string) *QuoteResponse {
	attachments := q.Attachments
	if attachments == nil {
		attachments = []string{}
	}

	return &QuoteResponse{
		ID:           q.ID,
		Tenant:       q.Tenant,
		Status:       q.Status,
		Company:      q.Company,
		ContactName:  q.ContactName,
		ContactEmail: q.ContactEmail,
		Product:      q.Product,
		Quantity:     q.Quantity,
		Amount:       q.Amount,
		Currency:     q.Currency,
		Notes:        q.Notes,
		Attachments:  slices.Clone(attachments),
		CreatedAt:    q.CreatedAt,
		ExpiresAt:    q.ExpiresAt,
		ViewedAt:     q.ViewedAt,
		RespondedAt:  q.RespondedAt,
		RequotedFrom: q.RequotedFrom,
		Version:      q.Version,
		ShareLink:    shareLink,
	}
}

// ClientQuoteResponse is what the external client sees through a token.
type ClientQuoteResponse struct {
	QuoteID     string          `json:"quoteId"`
	Company     string          `json:"company"`
	ContactName string          `json:"contactName"`
	Product     string          `json:"product"`
	Quantity    int             `json:"quantity"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Status      domain.Status   `json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
	ExpiresAt   time.Time       `json:"expiresAt"`
	ViewedAt    *time.Time      `json:"viewedAt,omitempty"`
	RespondedAt *time.Time      `json:"respondedAt,omitempty"`
	Respondable bool            `json:"respondable"`
}

// NewClientQuoteResponse converts the gateway projection.
func NewClientQuoteResponse(v *app.ClientQuoteView) *ClientQuoteResponse {
	return &ClientQuoteResponse{
		QuoteID:     v.QuoteID,
		Company:     v.Company,
		ContactName: v.ContactName,
		Product:     v.Product,
		Quantity:    v.Quantity,
		Amount:      v.Amount,
		Currency:    v.Currency,
		Status:      v.Status,
		CreatedAt:   v.CreatedAt,
		ExpiresAt:   v.ExpiresAt,
		ViewedAt:    v.ViewedAt,
		RespondedAt: v.RespondedAt,
		Respondable: v.Respondable,
	}
}

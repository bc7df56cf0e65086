// Package domain contains core business entities and rules.
package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a quote.
type Status string

// Quote statuses.
const (
	StatusDraft    Status = "draft"
	StatusSent     Status = "sent"
	StatusViewed   Status = "viewed"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
	StatusExpired  Status = "expired"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []Status{
	StatusDraft, StatusSent, StatusViewed, StatusAccepted, StatusRejected, StatusExpired,
}

// transitions is the legal directed graph. viewed -> viewed is the idempotent
// repeat view and is handled by the engine without a write.
var transitions = map[Status][]Status{
	StatusDraft:  {StatusSent},
	StatusSent:   {StatusViewed, StatusAccepted, StatusRejected, StatusExpired},
	StatusViewed: {StatusAccepted, StatusRejected, StatusExpired},
}

// ParseStatus parses a status string.
func ParseStatus(s string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(AllStatuses, status) {
		return "", NewValidationErrorWithValue("status", "unknown quote status", s)
	}

	return status, nil
}

// IsTerminal reports whether the status has no outbound transitions.
func (s Status) IsTerminal() bool {
	return s == StatusAccepted || s == StatusRejected || s == StatusExpired
}

// IsDecided reports whether the client has answered the quote.
func (s Status) IsDecided() bool {
	return s == StatusAccepted || s == StatusRejected
}

// IsAwaitingClient reports whether the quote is out with the client and undecided.
func (s Status) IsAwaitingClient() bool {
	return s == StatusSent || s == StatusViewed
}

// CanTransitionTo reports whether from -> to is an edge of the lifecycle graph.
func (s Status) CanTransitionTo(to Status) bool {
	return slices.Contains(transitions[s], to)
}

// Decision is a client's answer to a quote.
type Decision string

// Client decisions.
const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

// ParseDecision parses a decision string.
func ParseDecision(s string) (Decision, error) {
	switch Decision(strings.ToLower(strings.TrimSpace(s))) {
	case DecisionAccept:
		return DecisionAccept, nil
	case DecisionReject:
		return DecisionReject, nil
	default:
		return "", NewValidationErrorWithValue("decision", "must be one of: accept reject", s)
	}
}

// Status returns the status a decision moves the quote into.
func (d Decision) Status() Status {
	if d == DecisionAccept {
		return StatusAccepted
	}

	return StatusRejected
}

// Quote is a B2B sales quote. Status, ResponseToken, ViewedAt and RespondedAt
// are only ever changed by the lifecycle engine through the store's
// compare-and-set transition.
type Quote struct {
	ID     string
	Tenant string
	Status Status

	Company      string
	ContactName  string
	ContactEmail string

	Product  string
	Quantity int
	Amount   decimal.Decimal
	Currency string

	Notes       string
	Attachments []string

	CreatedAt time.Time
	ExpiresAt time.Time

	ResponseToken *string
	ViewedAt      *time.Time
	RespondedAt   *time.Time

	// RequotedFrom is the source quote when this draft was created by a re-quote.
	RequotedFrom string

	// Version increments on every committed transition.
	Version int
}

// Clone returns a deep copy so mutators never alias stored records.
func (q *Quote) Clone() *Quote {
	if q == nil {
		return nil
	}

	c := *q
	c.Attachments = slices.Clone(q.Attachments)

	if q.ResponseToken != nil {
		token := *q.ResponseToken
		c.ResponseToken = &token
	}

	if q.ViewedAt != nil {
		t := *q.ViewedAt
		c.ViewedAt = &t
	}

	if q.RespondedAt != nil {
		t := *q.RespondedAt
		c.RespondedAt = &t
	}

	return &c
}

// HasLapsed reports whether now is past the quote's validity window.
func (q *Quote) HasLapsed(now time.Time) bool {
	return now.After(q.ExpiresAt)
}

// Token returns the response token or "" while the quote is a draft.
func (q *Quote) Token() string {
	if q.ResponseToken == nil {
		return ""
	}

	return *q.ResponseToken
}

// CheckInvariants validates the cross-field lifecycle invariants.
func (q *Quote) CheckInvariants() error {
	if q.ID == "" {
		return NewInvariantError("quote", "id is empty")
	}

	if !slices.Contains(AllStatuses, q.Status) {
		return NewInvariantError("quote", fmt.Sprintf("%s has unknown status %q", q.ID, q.Status))
	}

	if (q.ResponseToken != nil) != (q.Status != StatusDraft) {
		return NewInvariantError("quote", q.ID+": response token must be set exactly when not draft")
	}

	if (q.RespondedAt != nil) != q.Status.IsDecided() {
		return NewInvariantError("quote", q.ID+": respondedAt must be set exactly when decided")
	}

	if q.Status.IsDecided() && q.ViewedAt == nil {
		return NewInvariantError("quote", q.ID+": decided quote must carry viewedAt")
	}

	if (q.Status == StatusDraft || q.Status == StatusSent) && q.ViewedAt != nil {
		return NewInvariantError("quote", q.ID+": viewedAt set before the quote was viewed")
	}

	if q.ViewedAt != nil && q.RespondedAt != nil && q.ViewedAt.After(*q.RespondedAt) {
		return NewInvariantError("quote", q.ID+": viewedAt is after respondedAt")
	}

	return nil
}

// QuoteDraft holds the staff-editable fields of a new or draft quote.
type QuoteDraft struct {
	Tenant       string
	Company      string
	ContactName  string
	ContactEmail string
	Product      string
	Quantity     int
	Amount       decimal.Decimal
	Currency     string
	Notes        string
	Attachments  []string
	RequotedFrom string
}

// Validate checks the commercial terms.
func (d *QuoteDraft) Validate() error {
	switch {
	case strings.TrimSpace(d.Company) == "":
		return NewValidationError("company", "is required")
	case strings.TrimSpace(d.ContactName) == "":
		return NewValidationError("contactName", "is required")
	case strings.TrimSpace(d.ContactEmail) == "":
		return NewValidationError("contactEmail", "is required")
	case strings.TrimSpace(d.Product) == "":
		return NewValidationError("product", "is required")
	case d.Quantity <= 0:
		return NewValidationErrorWithValue("quantity", "must be positive", d.Quantity)
	case d.Amount.IsNegative():
		return NewValidationErrorWithValue("amount", "must not be negative", d.Amount.String())
	case len(d.Currency) != 3:
		return NewValidationErrorWithValue("currency", "must be a 3-letter ISO 4217 code", d.Currency)
	}

	return nil
}

// NewDraftQuote builds a draft quote. The store assigns the sequenced ID.
func NewDraftQuote(d QuoteDraft, now time.Time, validity time.Duration) *Quote {
	return &Quote{
		Tenant:       d.Tenant,
		Status:       StatusDraft,
		Company:      d.Company,
		ContactName:  d.ContactName,
		ContactEmail: d.ContactEmail,
		Product:      d.Product,
		Quantity:     d.Quantity,
		Amount:       d.Amount,
		Currency:     strings.ToUpper(d.Currency),
		Notes:        d.Notes,
		Attachments:  slices.Clone(d.Attachments),
		CreatedAt:    now,
		ExpiresAt:    now.Add(validity),
		RequotedFrom: d.RequotedFrom,
	}
}

// DraftFromQuote copies the commercial terms of q into a new draft, for re-quotes.
func DraftFromQuote(q *Quote) QuoteDraft {
	return QuoteDraft{
		Tenant:       q.Tenant,
		Company:      q.Company,
		ContactName:  q.ContactName,
		ContactEmail: q.ContactEmail,
		Product:      q.Product,
		Quantity:     q.Quantity,
		Amount:       q.Amount,
		Currency:     q.Currency,
		Notes:        q.Notes,
		Attachments:  slices.Clone(q.Attachments),
		RequotedFrom: q.ID,
	}
}

// DraftPatch is a partial update of draft fields. Nil fields are left unchanged.
type DraftPatch struct {
	Company      *string
	ContactName  *string
	ContactEmail *string
	Product      *string
	Quantity     *int
	Amount       *decimal.Decimal
	Currency     *string
	Notes        *string
	Attachments  []string
}

// ApplyTo writes the patch onto q and validates the result.
func (p *DraftPatch) ApplyTo(q *Quote) error {
	if p.Company != nil {
		q.Company = *p.Company
	}

	if p.ContactName != nil {
		q.ContactName = *p.ContactName
	}

	if p.ContactEmail != nil {
		q.ContactEmail = *p.ContactEmail
	}

	if p.Product != nil {
		q.Product = *p.Product
	}

	if p.Quantity != nil {
		q.Quantity = *p.Quantity
	}

	if p.Amount != nil {
		q.Amount = *p.Amount
	}

	if p.Currency != nil {
		q.Currency = strings.ToUpper(*p.Currency)
	}

	if p.Notes != nil {
		q.Notes = *p.Notes
	}

	if p.Attachments != nil {
		q.Attachments = slices.Clone(p.Attachments)
	}

	draft := DraftFromQuote(q)

	return draft.Validate()
}

// FormatQuoteID renders the human-readable id for the seq-th quote of a tenant.
// The sequence is zero-padded so ids of one tenant sort in creation order.
func FormatQuoteID(tenant string, seq int64) string {
	return fmt.Sprintf("QT-%s-%010d", strings.ToUpper(tenant), seq)
}

package sqlstore

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jsamuelsen/quote-lifecycle-service/internal/domain"
)

// quoteRecord is the persisted row for a quote.
type quoteRecord struct {
	ID           string          `gorm:"type:varchar(40);primaryKey"`
	Tenant       string          `gorm:"type:varchar(20);not null;index"`
	Status       string          `gorm:"type:varchar(16);not null;index:idx_quotes_status_expires,priority:1"`
	Company      string          `gorm:"type:varchar(255);not null"`
	ContactName  string          `gorm:"type:varchar(255);not null"`
	ContactEmail string          `gorm:"type:varchar(255);not null"`
	Product      string          `gorm:"type:varchar(255);not null"`
	Quantity     int             `gorm:"not null"`
	Amount       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Currency     string          `gorm:"type:char(3);not null"`
	Notes        string          `gorm:"type:text"`
	Attachments  []string        `gorm:"type:text;serializer:json"`
	CreatedAt    time.Time       `gorm:"not null;autoCreateTime:false"`
	ExpiresAt    time.Time       `gorm:"not null;index:idx_quotes_status_expires,priority:2"`
	// NULL for drafts; unique across all quotes forever.
	ResponseToken *string `gorm:"type:varchar(64);uniqueIndex"`
	ViewedAt      *time.Time
	RespondedAt   *time.Time
	RequotedFrom  string `gorm:"type:varchar(40)"`
	Version       int    `gorm:"not null;default:0"`
}

func (quoteRecord) TableName() string { return "quotes" }

// sequenceRecord holds the last id issued per tenant.
type sequenceRecord struct {
	Tenant    string `gorm:"type:varchar(20);primaryKey"`
	LastValue int64  `gorm:"not null"`
}

func (sequenceRecord) TableName() string { return "quote_sequences" }

// eventRecord is one entry of a quote's audit history. Seq orders entries.
type eventRecord struct {
	Seq        uint      `gorm:"primaryKey;autoIncrement"`
	ID         string    `gorm:"type:varchar(36);uniqueIndex;not null"`
	QuoteID    string    `gorm:"type:varchar(40);index;not null"`
	Type       string    `gorm:"type:varchar(32);not null"`
	Tenant     string    `gorm:"type:varchar(20);not null"`
	Status     string    `gorm:"type:varchar(16);not null"`
	Actor      string    `gorm:"type:varchar(16);not null"`
	OccurredAt time.Time `gorm:"not null"`
}

func (eventRecord) TableName() string { return "quote_events" }

// mutableColumns are rewritten by ApplyTransition. Id, tenant, created_at and
// expires_at never change after insert.
var mutableColumns = []string{
	"status", "company", "contact_name", "contact_email", "product", "quantity",
	"amount", "currency", "notes", "attachments", "response_token", "viewed_at",
	"responded_at", "requoted_from", "version",
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}

	u := t.UTC()

	return &u
}

func toRecord(q *domain.Quote) quoteRecord {
	rec := quoteRecord{
		ID:           q.ID,
		Tenant:       q.Tenant,
		Status:       string(q.Status),
		Company:      q.Company,
		ContactName:  q.ContactName,
		ContactEmail: q.ContactEmail,
		Product:      q.Product,
		Quantity:     q.Quantity,
		Amount:       q.Amount,
		Currency:     q.Currency,
		Notes:        q.Notes,
		Attachments:  q.Attachments,
		CreatedAt:    q.CreatedAt.UTC(),
		ExpiresAt:    q.ExpiresAt.UTC(),
		ViewedAt:     utcPtr(q.ViewedAt),
		RespondedAt:  utcPtr(q.RespondedAt),
		RequotedFrom: q.RequotedFrom,
		Version:      q.Version,
	}

	if q.ResponseToken != nil {
		token := *q.ResponseToken
		rec.ResponseToken = &token
	}

	if rec.Attachments == nil {
		rec.Attachments = []string{}
	}

	return rec
}

func (r *quoteRecord) toDomain() *domain.Quote {
	return &domain.Quote{
		ID:            r.ID,
		Tenant:        r.Tenant,
		Status:        domain.Status(r.Status),
		Company:       r.Company,
		ContactName:   r.ContactName,
		ContactEmail:  r.ContactEmail,
		Product:       r.Product,
		Quantity:      r.Quantity,
		Amount:        r.Amount,
		Currency:      r.Currency,
		Notes:         r.Notes,
		Attachments:   r.Attachments,
		CreatedAt:     r.CreatedAt.UTC(),
		ExpiresAt:     r.ExpiresAt.UTC(),
		ResponseToken: r.ResponseToken,
		ViewedAt:      utcPtr(r.ViewedAt),
		RespondedAt:   utcPtr(r.RespondedAt),
		RequotedFrom:  r.RequotedFrom,
		Version:       r.Version,
	}
}

func toEventRecord(e domain.LifecycleEvent) eventRecord {
	return eventRecord{
		ID:         e.ID,
		QuoteID:    e.QuoteID,
		Type:       string(e.Type),
		Tenant:     e.Tenant,
		Status:     string(e.Status),
		Actor:      string(e.Actor),
		OccurredAt: e.OccurredAt.UTC(),
	}
}

func (r *eventRecord) toDomain() domain.LifecycleEvent {
	return domain.LifecycleEvent{
		ID:         r.ID,
		Type:       domain.EventType(r.Type),
		QuoteID:    r.QuoteID,
		Tenant:     r.Tenant,
		Status:     domain.Status(r.Status),
		Actor:      domain.Actor(r.Actor),
		OccurredAt: r.OccurredAt.UTC(),
	}
}

package dynamo

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"

	"github.com/jsamuelsen/quote-lifecycle-service/internal/domain"
)

// timeLayout is fixed width so stored timestamps sort lexicographically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

type quoteItem struct {
	ID            string   `dynamodbav:"id"`
	Tenant        string   `dynamodbav:"tenant"`
	Status        string   `dynamodbav:"status"`
	Company       string   `dynamodbav:"company"`
	ContactName   string   `dynamodbav:"contact_name"`
	ContactEmail  string   `dynamodbav:"contact_email"`
	Product       string   `dynamodbav:"product"`
	Quantity      int      `dynamodbav:"quantity"`
	Amount        string   `dynamodbav:"amount"`
	Currency      string   `dynamodbav:"currency"`
	Notes         string   `dynamodbav:"notes,omitempty"`
	Attachments   []string `dynamodbav:"attachments,omitempty"`
	CreatedAt     string   `dynamodbav:"created_at"`
	ExpiresAt     string   `dynamodbav:"expires_at"`
	ResponseToken *string  `dynamodbav:"response_token,omitempty"`
	ViewedAt      *string  `dynamodbav:"viewed_at,omitempty"`
	RespondedAt   *string  `dynamodbav:"responded_at,omitempty"`
	RequotedFrom  string   `dynamodbav:"requoted_from,omitempty"`
	Version       int      `dynamodbav:"version"`
}

type tokenItem struct {
	Token   string `dynamodbav:"token"`
	QuoteID string `dynamodbav:"quote_id"`
}

type eventItem struct {
	QuoteID    string `dynamodbav:"quote_id"`
	EventKey   string `dynamodbav:"event_key"`
	ID         string `dynamodbav:"id"`
	Type       string `dynamodbav:"type"`
	Tenant     string `dynamodbav:"tenant"`
	Status     string `dynamodbav:"status"`
	Actor      string `dynamodbav:"actor"`
	OccurredAt string `dynamodbav:"occurred_at"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}

	s := formatTime(*t)

	return &s
}

func parseTimePtr(s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}

	t, err := time.Parse(timeLayout, *s)
	if err != nil {
		return nil, err
	}

	return &t, nil
}

func toItem(q *domain.Quote) quoteItem {
	return quoteItem{
		ID:            q.ID,
		Tenant:        q.Tenant,
		Status:        string(q.Status),
		Company:       q.Company,
		ContactName:   q.ContactName,
		ContactEmail:  q.ContactEmail,
		Product:       q.Product,
		Quantity:      q.Quantity,
		Amount:        q.Amount.String(),
		Currency:      q.Currency,
		Notes:         q.Notes,
		Attachments:   q.Attachments,
		CreatedAt:     formatTime(q.CreatedAt),
		ExpiresAt:     formatTime(q.ExpiresAt),
		ResponseToken: q.ResponseToken,
		ViewedAt:      formatTimePtr(q.ViewedAt),
		RespondedAt:   formatTimePtr(q.RespondedAt),
		RequotedFrom:  q.RequotedFrom,
		Version:       q.Version,
	}
}

func (it *quoteItem) toDomain() (*domain.Quote, error) {
	amount, err := decimal.NewFromString(it.Amount)
	if err != nil {
		return nil, fmt.Errorf("quote %s: amount: %w", it.ID, err)
	}

	createdAt, err := time.Parse(timeLayout, it.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("quote %s: created_at: %w", it.ID, err)
	}

	expiresAt, err := time.Parse(timeLayout, it.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("quote %s: expires_at: %w", it.ID, err)
	}

	viewedAt, err := parseTimePtr(it.ViewedAt)
	if err != nil {
		return nil, fmt.Errorf("quote %s: viewed_at: %w", it.ID, err)
	}

	respondedAt, err := parseTimePtr(it.RespondedAt)
	if err != nil {
		return nil, fmt.Errorf("quote %s: responded_at: %w", it.ID, err)
	}

	return &domain.Quote{
		ID:            it.ID,
		Tenant:        it.Tenant,
		Status:        domain.Status(it.Status),
		Company:       it.Company,
		ContactName:   it.ContactName,
		ContactEmail:  it.ContactEmail,
		Product:       it.Product,
		Quantity:      it.Quantity,
		Amount:        amount,
		Currency:      it.Currency,
		Notes:         it.Notes,
		Attachments:   it.Attachments,
		CreatedAt:     createdAt,
		ExpiresAt:     expiresAt,
		ResponseToken: it.ResponseToken,
		ViewedAt:      viewedAt,
		RespondedAt:   respondedAt,
		RequotedFrom:  it.RequotedFrom,
		Version:       it.Version,
	}, nil
}

func toEventItem(e domain.LifecycleEvent) eventItem {
	occurred := formatTime(e.OccurredAt)

	return eventItem{
		QuoteID:    e.QuoteID,
		EventKey:   occurred + "#" + e.ID,
		ID:         e.ID,
		Type:       string(e.Type),
		Tenant:     e.Tenant,
		Status:     string(e.Status),
		Actor:      string(e.Actor),
		OccurredAt: occurred,
	}
}

func (it *eventItem) toDomain() (domain.LifecycleEvent, error) {
	occurred, err := time.Parse(timeLayout, it.OccurredAt)
	if err != nil {
		return domain.LifecycleEvent{}, fmt.Errorf("event %s: occurred_at: %w", it.ID, err)
	}

	return domain.LifecycleEvent{
		ID:         it.ID,
		Type:       domain.EventType(it.Type),
		QuoteID:    it.QuoteID,
		Tenant:     it.Tenant,
		Status:     domain.Status(it.Status),
		Actor:      domain.Actor(it.Actor),
		OccurredAt: occurred,
	}, nil
}

// encodeCursor turns a LastEvaluatedKey into an opaque page cursor. Only
// string key attributes are produced by the quotes table and its index.
func encodeCursor(key map[string]types.AttributeValue) (string, error) {
	if len(key) == 0 {
		return "", nil
	}

	flat := make(map[string]string, len(key))

	for name, av := range key {
		s, ok := av.(*types.AttributeValueMemberS)
		if !ok {
			return "", fmt.Errorf("cursor attribute %q is not a string", name)
		}

		flat[name] = s.Value
	}

	raw, err := json.Marshal(flat)
	if err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(raw), nil
}

func decodeCursor(cursor string) (map[string]types.AttributeValue, error) {
	if cursor == "" {
		return nil, nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, domain.NewValidationError("cursor", "malformed cursor")
	}

	var flat map[string]string
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, domain.NewValidationError("cursor", "malformed cursor")
	}

	key := make(map[string]types.AttributeValue, len(flat))
	for name, v := range flat {
		key[name] = &types.AttributeValueMemberS{Value: v}
	}

	return key, nil
}

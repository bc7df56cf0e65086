package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies a lifecycle event for routing.
type EventType string

// Lifecycle event types published to the notification collaborator.
const (
	EventQuoteCreated  EventType = "quote.created"
	EventQuoteSent     EventType = "quote.sent"
	EventQuoteViewed   EventType = "quote.viewed"
	EventQuoteAccepted EventType = "quote.accepted"
	EventQuoteRejected EventType = "quote.rejected"
	EventQuoteExpired  EventType = "quote.expired"
)

// Actor is who caused a lifecycle event.
type Actor string

// Event actors.
const (
	ActorStaff  Actor = "staff"
	ActorClient Actor = "client"
	ActorSystem Actor = "system"
)

// EventTypeForStatus returns the event emitted on entering status.
func EventTypeForStatus(s Status) EventType {
	switch s {
	case StatusDraft:
		return EventQuoteCreated
	case StatusSent:
		return EventQuoteSent
	case StatusViewed:
		return EventQuoteViewed
	case StatusAccepted:
		return EventQuoteAccepted
	case StatusRejected:
		return EventQuoteRejected
	default:
		return EventQuoteExpired
	}
}

// LifecycleEvent is a timestamped record of a quote transition.
type LifecycleEvent struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	QuoteID    string    `json:"quoteId"`
	Tenant     string    `json:"tenant"`
	Status     Status    `json:"status"`
	Actor      Actor     `json:"actor"`
	OccurredAt time.Time `json:"occurredAt"`
}

// NewLifecycleEvent records that q entered its current status at the given time.
func NewLifecycleEvent(q *Quote, actor Actor, at time.Time) LifecycleEvent {
	return LifecycleEvent{
		ID:         uuid.NewString(),
		Type:       EventTypeForStatus(q.Status),
		QuoteID:    q.ID,
		Tenant:     q.Tenant,
		Status:     q.Status,
		Actor:      actor,
		OccurredAt: at,
	}
}

// EventType returns the routing key. Implements ports.Event.
func (e LifecycleEvent) EventType() string {
	return string(e.Type)
}

// Payload returns the event for serialization. Implements ports.Event.
func (e LifecycleEvent) Payload() any {
	return e
}

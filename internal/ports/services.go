// Package ports defines interfaces for external dependencies.
// Ports are contracts that adapters implement, allowing the application layer
// to depend on abstractions rather than concrete implementations.
//
// Port Design Principles:
//   - Context as first parameter for cancellation and deadlines
//   - Return domain types, never storage rows or wire DTOs
//   - Error returns use domain error types (ErrNotFound, ErrStaleStatus, etc.)
package ports

import (
	"context"
	"time"

	"github.com/jsamuelsen/quote-lifecycle-service/internal/domain"
)

// TransitionFunc mutates a private copy of a quote inside ApplyTransition.
// Returning an error aborts the transition and nothing is persisted.
type TransitionFunc func(q *domain.Quote) error

// QuoteStore persists quotes and is the only component that writes status.
//
// Implementations must make ApplyTransition an atomic compare-and-set on
// status and enforce uniqueness of both id and response token at the
// storage level.
type QuoteStore interface {
	// Create assigns the next sequenced id for the quote's tenant and inserts it.
	// Returns domain.ErrInvariantViolation if the id is already taken.
	Create(ctx context.Context, draft *domain.Quote) (*domain.Quote, error)

	// GetByID returns domain.ErrNotFound if no quote has the id.
	GetByID(ctx context.Context, id string) (*domain.Quote, error)

	// GetByToken returns domain.ErrTokenNotFound if no quote carries the token.
	GetByToken(ctx context.Context, token string) (*domain.Quote, error)

	// ApplyTransition reads the quote, runs mutate on a copy and persists the
	// copy only if the stored status still equals expected.
	//
	// Errors:
	//   - domain.ErrNotFound: unknown id
	//   - domain.ErrStaleStatus: stored status differs from expected
	//   - domain.ErrTokenCollision: the mutated token is held by another quote
	//   - anything returned by mutate, unchanged
	ApplyTransition(ctx context.Context, id string, expected domain.Status, mutate TransitionFunc) (*domain.Quote, error)

	// List returns one page of quotes for staff screens ordered by id.
	List(ctx context.Context, query ListQuotesQuery) (*QuotePage, error)

	// ListExpirable returns one page of quotes in status whose ExpiresAt is before now.
	ListExpirable(ctx context.Context, status domain.Status, now time.Time, cursor string, limit int) (*QuotePage, error)

	// AppendEvent adds an entry to the quote's audit history.
	AppendEvent(ctx context.Context, event domain.LifecycleEvent) error

	// ListEvents returns the audit history of a quote, oldest first.
	ListEvents(ctx context.Context, quoteID string) ([]domain.LifecycleEvent, error)
}

// ListQuotesQuery filters the staff quote list. Zero values mean "any".
type ListQuotesQuery struct {
	Tenant string
	Status domain.Status
	Cursor string
	Limit  int
}

// QuotePage is one page of quotes. NextCursor is empty on the last page.
// Cursors are opaque and only meaningful to the store that produced them.
type QuotePage struct {
	Items      []*domain.Quote
	NextCursor string
}

// TokenGenerator produces unguessable response tokens.
type TokenGenerator interface {
	Generate() (string, error)
}

// AttachmentChecker verifies file references against attachment storage.
type AttachmentChecker interface {
	// Exists returns domain.ErrUnavailable when storage cannot be reached.
	Exists(ctx context.Context, ref string) (bool, error)
}

// LifecycleMetrics records lifecycle counters. Implementations must be safe
// for concurrent use.
type LifecycleMetrics interface {
	TransitionRecorded(from, to domain.Status)
	TokenCollision()
	SweepCompleted(expired int, duration time.Duration)
	NotificationPublished(eventType, result string)
}

// NopMetrics discards all measurements.
type NopMetrics struct{}

// TransitionRecorded implements LifecycleMetrics.
func (NopMetrics) TransitionRecorded(domain.Status, domain.Status) {}

// TokenCollision implements LifecycleMetrics.
func (NopMetrics) TokenCollision() {}

// SweepCompleted implements LifecycleMetrics.
func (NopMetrics) SweepCompleted(int, time.Duration) {}

// NotificationPublished implements LifecycleMetrics.
func (NopMetrics) NotificationPublished(string, string) {}

// EventPublisher delivers lifecycle events to an external collaborator.
type EventPublisher interface {
	// Publish sends an event to the configured destination.
	// Returns domain.ErrUnavailable if the destination is unreachable.
	Publish(ctx context.Context, event Event) error
}

// Event represents a domain event that can be published.
type Event interface {
	// EventType returns the type identifier for routing.
	EventType() string

	// Payload returns the event data for serialization.
	Payload() any
}

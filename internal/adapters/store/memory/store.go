// Package memory provides an in-process QuoteStore for local runs and tests.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jsamuelsen/quote-lifecycle-service/internal/domain"
	"github.com/jsamuelsen/quote-lifecycle-service/internal/ports"
)

// DefaultPageSize is used when a query does not set a limit.
const DefaultPageSize = 50

// Store keeps quotes in maps guarded by a single mutex. Every read returns a
// copy so callers can never reach stored records.
type Store struct {
	mu        sync.RWMutex
	quotes    map[string]*domain.Quote
	tokens    map[string]string
	sequences map[string]int64
	events    map[string][]domain.LifecycleEvent
}

var _ ports.QuoteStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		quotes:    make(map[string]*domain.Quote),
		tokens:    make(map[string]string),
		sequences: make(map[string]int64),
		events:    make(map[string][]domain.LifecycleEvent),
	}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }

// Create implements ports.QuoteStore.
func (s *Store) Create(ctx context.Context, draft *domain.Quote) (*domain.Quote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tenant := strings.ToUpper(draft.Tenant)
	seq := s.sequences[tenant] + 1

	q := draft.Clone()
	q.Tenant = tenant
	q.ID = domain.FormatQuoteID(tenant, seq)

	if _, exists := s.quotes[q.ID]; exists {
		return nil, domain.NewInvariantError("quote", "duplicate id "+q.ID)
	}

	if err := q.CheckInvariants(); err != nil {
		return nil, err
	}

	if tok := q.Token(); tok != "" {
		if _, taken := s.tokens[tok]; taken {
			return nil, domain.ErrTokenCollision
		}

		s.tokens[tok] = q.ID
	}

	s.sequences[tenant] = seq
	s.quotes[q.ID] = q

	return q.Clone(), nil
}

// GetByID implements ports.QuoteStore.
func (s *Store) GetByID(ctx context.Context, id string) (*domain.Quote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	q, ok := s.quotes[id]
	if !ok {
		return nil, domain.NewNotFoundError("quote", id)
	}

	return q.Clone(), nil
}

// GetByToken implements ports.QuoteStore.
func (s *Store) GetByToken(ctx context.Context, token string) (*domain.Quote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.tokens[token]
	if !ok {
		return nil, domain.NewTokenNotFoundError()
	}

	return s.quotes[id].Clone(), nil
}

// ApplyTransition implements ports.QuoteStore. The mutator runs while the
// write lock is held so it must not call back into the store.
func (s *Store) ApplyTransition(
	ctx context.Context,
	id string,
	expected domain.Status,
	mutate ports.TransitionFunc,
) (*domain.Quote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.quotes[id]
	if !ok {
		return nil, domain.NewNotFoundError("quote", id)
	}

	if current.Status != expected {
		return nil, domain.NewStaleStatusError(id, expected, current.Status)
	}

	next := current.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}

	if next.ID != current.ID {
		return nil, domain.NewInvariantError("quote", "transition changed id of "+id)
	}

	if err := next.CheckInvariants(); err != nil {
		return nil, err
	}

	oldToken, newToken := current.Token(), next.Token()
	if oldToken != "" && newToken != oldToken {
		return nil, domain.NewInvariantError("quote", "response token of "+id+" cannot change")
	}

	if oldToken == "" && newToken != "" {
		if _, taken := s.tokens[newToken]; taken {
			return nil, domain.ErrTokenCollision
		}

		s.tokens[newToken] = id
	}

	next.Version = current.Version + 1
	s.quotes[id] = next

	return next.Clone(), nil
}

// List implements ports.QuoteStore.
func (s *Store) List(ctx context.Context, query ports.ListQuotesQuery) (*ports.QuotePage, error) {
	tenant := strings.ToUpper(query.Tenant)

	return s.page(ctx, query.Cursor, query.Limit, func(q *domain.Quote) bool {
		return (tenant == "" || q.Tenant == tenant) && (query.Status == "" || q.Status == query.Status)
	})
}

// ListExpirable implements ports.QuoteStore.
func (s *Store) ListExpirable(
	ctx context.Context,
	status domain.Status,
	now time.Time,
	cursor string,
	limit int,
) (*ports.QuotePage, error) {
	return s.page(ctx, cursor, limit, func(q *domain.Quote) bool {
		return q.Status == status && q.ExpiresAt.Before(now)
	})
}

func (s *Store) page(ctx context.Context, cursor string, limit int, match func(*domain.Quote) bool) (*ports.QuotePage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = DefaultPageSize
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.quotes))
	for id, q := range s.quotes {
		if id > cursor && match(q) {
			ids = append(ids, id)
		}
	}

	slices.Sort(ids)

	page := &ports.QuotePage{Items: make([]*domain.Quote, 0, min(limit, len(ids)))}

	for _, id := range ids {
		if len(page.Items) == limit {
			page.NextCursor = page.Items[limit-1].ID
			break
		}

		page.Items = append(page.Items, s.quotes[id].Clone())
	}

	return page, nil
}

// AppendEvent implements ports.QuoteStore.
func (s *Store) AppendEvent(ctx context.Context, event domain.LifecycleEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.events[event.QuoteID] = append(s.events[event.QuoteID], event)

	return nil
}

// ListEvents implements ports.QuoteStore.
func (s *Store) ListEvents(ctx context.Context, quoteID string) ([]domain.LifecycleEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.events[quoteID]), nil
}

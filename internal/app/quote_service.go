package app

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/jsamuelsen/quote-lifecycle-service/internal/domain"
	"github.com/jsamuelsen/quote-lifecycle-service/internal/ports"
)

// QuoteService orchestrates the staff-side quote use cases. Status changes
// are delegated to the LifecycleEngine.
type QuoteService struct {
	store  ports.QuoteStore
	engine *LifecycleEngine
	events *eventRecorder
	logger *slog.Logger

	defaultTenant   string
	defaultCurrency string
	validity        time.Duration
	publicBaseURL   string
}

// QuoteServiceConfig contains configuration for the quote service.
type QuoteServiceConfig struct {
	Store  ports.QuoteStore
	Engine *LifecycleEngine
	Logger *slog.Logger

	DefaultTenant   string
	DefaultCurrency string
	ValidityWindow  time.Duration
	// PublicBaseURL prefixes the response token in share links.
	PublicBaseURL string
}

// QuoteDetail is a quote with its audit history.
type QuoteDetail struct {
	Quote  *domain.Quote
	Events []domain.LifecycleEvent
}

// SentQuote is the result of sending a quote.
type SentQuote struct {
	Quote     *domain.Quote
	ShareLink string
}

// NewQuoteService creates a new quote service. It panics if Store or Engine is nil.
func NewQuoteService(cfg QuoteServiceConfig) *QuoteService {
	if cfg.Store == nil {
		panic("app: QuoteServiceConfig.Store is required")
	}

	if cfg.Engine == nil {
		panic("app: QuoteServiceConfig.Engine is required")
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &QuoteService{
		store:           cfg.Store,
		engine:          cfg.Engine,
		events:          cfg.Engine.events,
		logger:          cfg.Logger,
		defaultTenant:   cfg.DefaultTenant,
		defaultCurrency: cfg.DefaultCurrency,
		validity:        cfg.ValidityWindow,
		publicBaseURL:   strings.TrimRight(cfg.PublicBaseURL, "/"),
	}
}

// Create stores a new draft quote.
func (s *QuoteService) Create(ctx context.Context, draft domain.QuoteDraft) (*domain.Quote, error) {
	if draft.Tenant == "" {
		draft.Tenant = s.defaultTenant
	}

	if draft.Currency == "" {
		draft.Currency = s.defaultCurrency
	}

	if err := draft.Validate(); err != nil {
		return nil, err
	}

	now := s.engine.Now()

	q, err := s.store.Create(ctx, domain.NewDraftQuote(draft, now, s.validity))
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to create quote", slog.Any("error", err))
		return nil, err
	}

	s.events.record(ctx, q, "", domain.ActorStaff, now)
	s.logger.InfoContext(ctx, "quote created",
		slog.String("quote_id", q.ID),
		slog.String("requoted_from", q.RequotedFrom),
	)

	return q, nil
}

// Get returns a quote with its audit history.
func (s *QuoteService) Get(ctx context.Context, id string) (*QuoteDetail, error) {
	q, events, err := Parallel2(ctx,
		func(ctx context.Context) (*domain.Quote, error) { return s.store.GetByID(ctx, id) },
		func(ctx context.Context) ([]domain.LifecycleEvent, error) { return s.store.ListEvents(ctx, id) },
	)
	if err != nil {
		return nil, err
	}

	return &QuoteDetail{Quote: q, Events: events}, nil
}

// List returns one page of quotes.
func (s *QuoteService) List(ctx context.Context, query ports.ListQuotesQuery) (*ports.QuotePage, error) {
	return s.store.List(ctx, query)
}

// EditDraft applies patch to a draft quote. Quotes that have been sent are
// immutable and fail with an InvalidTransitionError.
func (s *QuoteService) EditDraft(ctx context.Context, id string, patch domain.DraftPatch) (*domain.Quote, error) {
	q, err := s.store.ApplyTransition(ctx, id, domain.StatusDraft, patch.ApplyTo)
	if errors.Is(err, domain.ErrStaleStatus) {
		current, getErr := s.store.GetByID(ctx, id)
		if getErr != nil {
			return nil, getErr
		}

		return nil, domain.NewInvalidTransitionError(current, "edit")
	}

	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "draft quote edited", slog.String("quote_id", id))

	return q, nil
}

// Send sends a draft quote and returns the client share link.
func (s *QuoteService) Send(ctx context.Context, id string) (*SentQuote, error) {
	q, err := s.engine.Send(ctx, id)
	if err != nil {
		return nil, err
	}

	return &SentQuote{Quote: q, ShareLink: s.ShareLink(q)}, nil
}

// Requote creates a new draft carrying the commercial terms of id. The
// source quote is left unchanged and the new draft gets a fresh validity
// window and, once sent, its own token.
func (s *QuoteService) Requote(ctx context.Context, id string) (*domain.Quote, error) {
	source, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return s.Create(ctx, domain.DraftFromQuote(source))
}

// Sweep runs the expiry sweep immediately.
func (s *QuoteService) Sweep(ctx context.Context) (SweepResult, error) {
	return s.engine.ExpireOverdue(ctx, s.engine.Now())
}

// ShareLink returns the client URL for q, or "" for a draft.
func (s *QuoteService) ShareLink(q *domain.Quote) string {
	token := q.Token()
	if token == "" {
		return ""
	}

	return s.publicBaseURL + "/" + url.PathEscape(token)
}

package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jsamuelsen/quote-lifecycle-service/internal/domain"
)

// ClientQuoteView is the projection of a quote shown to the external client.
// It deliberately omits staff notes, tenant, token, attachment references
// and audit history.
type ClientQuoteView struct {
	QuoteID     string
	Company     string
	ContactName string
	Product     string
	Quantity    int
	Amount      decimal.Decimal
	Currency    string
	Status      domain.Status
	CreatedAt   time.Time
	ExpiresAt   time.Time
	ViewedAt    *time.Time
	RespondedAt *time.Time
	// Respondable is true while the client can still accept or reject.
	Respondable bool
}

// NewClientQuoteView projects q as seen at now.
func NewClientQuoteView(q *domain.Quote, now time.Time) *ClientQuoteView {
	c := q.Clone()

	return &ClientQuoteView{
		QuoteID:     c.ID,
		Company:     c.Company,
		ContactName: c.ContactName,
		Product:     c.Product,
		Quantity:    c.Quantity,
		Amount:      c.Amount,
		Currency:    c.Currency,
		Status:      c.Status,
		CreatedAt:   c.CreatedAt,
		ExpiresAt:   c.ExpiresAt,
		ViewedAt:    c.ViewedAt,
		RespondedAt: c.RespondedAt,
		Respondable: c.Status.IsAwaitingClient() && !c.HasLapsed(now),
	}
}

// ClientGateway is the token-gated entry point for external clients.
type ClientGateway struct {
	engine     *LifecycleEngine
	validToken func(string) bool
	logger     *slog.Logger
}

// ClientGatewayConfig contains the gateway's dependencies.
type ClientGatewayConfig struct {
	Engine *LifecycleEngine
	// ValidToken rejects malformed tokens before any store lookup. Nil accepts all.
	ValidToken func(string) bool
	Logger     *slog.Logger
}

// NewClientGateway creates a gateway.
func NewClientGateway(cfg ClientGatewayConfig) *ClientGateway {
	if cfg.ValidToken == nil {
		cfg.ValidToken = func(string) bool { return true }
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &ClientGateway{engine: cfg.Engine, validToken: cfg.ValidToken, logger: cfg.Logger}
}

// View resolves token and records the client's visit. A quote that is
// already terminal is returned in its final state without a transition.
func (g *ClientGateway) View(ctx context.Context, token string) (*ClientQuoteView, error) {
	if !g.validToken(token) {
		g.logger.DebugContext(ctx, "rejected malformed response token")
		return nil, domain.NewTokenNotFoundError()
	}

	q, err := g.engine.RecordClientView(ctx, token)
	if errors.Is(err, domain.ErrQuoteNotRespondable) {
		if final, ok := domain.QuoteFromError(err); ok {
			return NewClientQuoteView(final, g.engine.Now()), nil
		}
	}

	if err != nil {
		return nil, err
	}

	return NewClientQuoteView(q, g.engine.Now()), nil
}

// Respond records the client's decision. decision must be "accept" or "reject".
func (g *ClientGateway) Respond(ctx context.Context, token, decision string) (*ClientQuoteView, error) {
	if !g.validToken(token) {
		g.logger.DebugContext(ctx, "rejected malformed response token")
		return nil, domain.NewTokenNotFoundError()
	}

	d, err := domain.ParseDecision(decision)
	if err != nil {
		return nil, err
	}

	q, err := g.engine.RecordClientResponse(ctx, token, d)
	if err != nil {
		return nil, err
	}

	return NewClientQuoteView(q, g.engine.Now()), nil
}

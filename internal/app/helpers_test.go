package app

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-lifecycle-service/internal/adapters/store/memory"
	"github.com/jsamuelsen/quote-lifecycle-service/internal/adapters/token"
	"github.com/jsamuelsen/quote-lifecycle-service/internal/domain"
	"github.com/jsamuelsen/quote-lifecycle-service/internal/ports"
)

// discardLogger returns a logger that discards all output.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var baseTime = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

const testValidity = 72 * time.Hour

// testClock is a manually advanced clock.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: baseTime}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []ports.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event ports.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, event)

	return nil
}

func (p *recordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	types := make([]string, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.EventType())
	}

	return types
}

type fixture struct {
	store     *memory.Store
	clock     *testClock
	publisher *recordingPublisher
	engine    *LifecycleEngine
	service   *QuoteService
	gateway   *ClientGateway
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:     memory.New(),
		clock:     newTestClock(),
		publisher: &recordingPublisher{},
	}

	f.engine = NewLifecycleEngine(LifecycleEngineConfig{
		Store:     f.store,
		Tokens:    token.NewGenerator(),
		Publisher: f.publisher,
		Clock:     f.clock.Now,
		Logger:    discardLogger(),
	})
	f.service = NewQuoteService(QuoteServiceConfig{
		Store:           f.store,
		Engine:          f.engine,
		Logger:          discardLogger(),
		DefaultTenant:   "acme",
		DefaultCurrency: "EUR",
		ValidityWindow:  testValidity,
		PublicBaseURL:   "https://quotes.example.com/q/",
	})
	f.gateway = NewClientGateway(ClientGatewayConfig{
		Engine:     f.engine,
		ValidToken: token.Valid,
		Logger:     discardLogger(),
	})

	return f
}

func testDraft() domain.QuoteDraft {
	return domain.QuoteDraft{
		Company:      "Globex",
		ContactName:  "Hank Scorpio",
		ContactEmail: "hank@globex.example",
		Product:      "Widget Pro",
		Quantity:     10,
		Amount:       decimal.RequireFromString("1250.50"),
		Notes:        "internal: margin 12%",
	}
}

// createDraft stores a draft through the quote service.
func (f *fixture) createDraft(t *testing.T) *domain.Quote {
	t.Helper()

	q, err := f.service.Create(context.Background(), testDraft())
	require.NoError(t, err)

	return q
}

// createSent stores a draft and sends it, returning the sent quote.
func (f *fixture) createSent(t *testing.T) *domain.Quote {
	t.Helper()

	q, err := f.engine.Send(context.Background(), f.createDraft(t).ID)
	require.NoError(t, err)

	return q
}

func (f *fixture) get(t *testing.T, id string) *domain.Quote {
	t.Helper()

	q, err := f.store.GetByID(context.Background(), id)
	require.NoError(t, err)

	return q
}

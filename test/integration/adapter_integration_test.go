//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-lifecycle-service/internal/adapters/clients"
	"github.com/jsamuelsen/quote-lifecycle-service/internal/adapters/clients/acl"
	"github.com/jsamuelsen/quote-lifecycle-service/internal/adapters/store/memory"
	"github.com/jsamuelsen/quote-lifecycle-service/internal/adapters/token"
	"github.com/jsamuelsen/quote-lifecycle-service/internal/app"
	"github.com/jsamuelsen/quote-lifecycle-service/internal/domain"
	"github.com/jsamuelsen/quote-lifecycle-service/internal/platform/config"
	"github.com/jsamuelsen/quote-lifecycle-service/internal/ports"
)

// testAdapterConfig returns a config suitable for adapter integration testing.
func testAdapterConfig(name, baseURL string) *clients.Config {
	return &clients.Config{
		ServiceName: name,
		BaseURL:     baseURL,
		Timeout:     5 * time.Second,
		Retry: config.RetryConfig{
			MaxAttempts:     2,
			InitialInterval: 10 * time.Millisecond,
			MaxInterval:     50 * time.Millisecond,
			Multiplier:      2.0,
		},
		Circuit: config.CircuitBreakerConfig{
			MaxFailures:   3,
			Timeout:       100 * time.Millisecond,
			HalfOpenLimit: 2,
		},
	}
}

// webhook records the lifecycle events posted to it.
type webhook struct {
	mu     sync.Mutex
	events []map[string]string
}

func (w *webhook) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/events" {
		rw.WriteHeader(http.StatusNotFound)
		return
	}

	var body map[string]string
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		rw.WriteHeader(http.StatusBadRequest)
		return
	}

	w.mu.Lock()
	w.events = append(w.events, body)
	w.mu.Unlock()

	rw.WriteHeader(http.StatusAccepted)
}

func (w *webhook) types() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	types := make([]string, 0, len(w.events))
	for _, e := range w.events {
		types = append(types, e["type"])
	}

	return types
}

func testDraft(attachments ...string) domain.QuoteDraft {
	return domain.QuoteDraft{
		Tenant:       "ACME",
		Company:      "Northwind Traders",
		ContactName:  "Ana Trujillo",
		ContactEmail: "ana@northwind.example",
		Product:      "Industrial chillers",
		Quantity:     3,
		Amount:       decimal.RequireFromString("18450.00"),
		Currency:     "EUR",
		Attachments:  attachments,
	}
}

// TestNotificationWebhook_Lifecycle_Integration drives a quote through the
// full lifecycle and checks the webhook receives each event in order.
func TestNotificationWebhook_Lifecycle_Integration(t *testing.T) {
	hook := &webhook{}
	server := httptest.NewServer(hook)
	defer server.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	client, err := clients.New(testAdapterConfig("notification-service", server.URL))
	require.NoError(t, err)

	notifier := app.NewNotifier(app.NotifierConfig{
		Sinks:     []ports.EventPublisher{acl.NewNotificationClient(client, logger)},
		QueueSize: 16,
		Timeout:   time.Second,
		Logger:    logger,
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = notifier.Run(ctx) }()

	store := memory.New()
	engine := app.NewLifecycleEngine(app.LifecycleEngineConfig{
		Store:     store,
		Tokens:    token.NewGenerator(),
		Publisher: notifier,
		Logger:    logger,
	})
	service := app.NewQuoteService(app.QuoteServiceConfig{
		Store:          store,
		Engine:         engine,
		Logger:         logger,
		ValidityWindow: 72 * time.Hour,
		PublicBaseURL:  "https://quotes.example.com/q",
	})
	gateway := app.NewClientGateway(app.ClientGatewayConfig{Engine: engine, ValidToken: token.Valid, Logger: logger})

	q, err := service.Create(context.Background(), testDraft())
	require.NoError(t, err)

	sent, err := service.Send(context.Background(), q.ID)
	require.NoError(t, err)

	tok := sent.ShareLink[strings.LastIndex(sent.ShareLink, "/")+1:]

	_, err = gateway.View(context.Background(), tok)
	require.NoError(t, err)

	view, err := gateway.Respond(context.Background(), tok, "accept")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAccepted, view.Status)

	cancel()
	<-notifier.Done()

	assert.Equal(t, []string{
		string(domain.EventQuoteCreated),
		string(domain.EventQuoteSent),
		string(domain.EventQuoteViewed),
		string(domain.EventQuoteAccepted),
	}, hook.types())

	hook.mu.Lock()
	defer hook.mu.Unlock()

	for _, e := range hook.events {
		assert.Equal(t, q.ID, e["quoteId"])
		assert.NotContains(t, e, "token")
		assert.NotEmpty(t, e["id"])
	}
}

// TestNotificationWebhook_Outage_Integration verifies a failing webhook never
// blocks or fails a transition.
func TestNotificationWebhook_Outage_Integration(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	client, err := clients.New(testAdapterConfig("notification-service", server.URL))
	require.NoError(t, err)

	notifier := app.NewNotifier(app.NotifierConfig{
		Sinks:     []ports.EventPublisher{acl.NewNotificationClient(client, logger)},
		QueueSize: 4,
		Timeout:   200 * time.Millisecond,
		Logger:    logger,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = notifier.Run(ctx) }()

	store := memory.New()
	engine := app.NewLifecycleEngine(app.LifecycleEngineConfig{
		Store:     store,
		Tokens:    token.NewGenerator(),
		Publisher: notifier,
		Logger:    logger,
	})

	q, err := store.Create(context.Background(), domain.NewDraftQuote(testDraft(), engine.Now(), time.Hour))
	require.NoError(t, err)

	sent, err := engine.Send(context.Background(), q.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSent, sent.Status)
	assert.NotEmpty(t, sent.Token())
}

// TestAttachmentCheck_Integration verifies send refuses a quote whose
// attachment reference is missing from storage.
func TestAttachmentCheck_Integration(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)

		switch r.URL.Path {
		case "/files/spec-sheet.pdf":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client, err := clients.New(testAdapterConfig("attachment-service", server.URL))
	require.NoError(t, err)

	store := memory.New()
	engine := app.NewLifecycleEngine(app.LifecycleEngineConfig{
		Store:       store,
		Tokens:      token.NewGenerator(),
		Attachments: acl.NewAttachmentClient(client),
	})

	present, err := store.Create(context.Background(), domain.NewDraftQuote(testDraft("spec-sheet.pdf"), engine.Now(), time.Hour))
	require.NoError(t, err)

	missing, err := store.Create(context.Background(), domain.NewDraftQuote(testDraft("gone.pdf"), engine.Now(), time.Hour))
	require.NoError(t, err)

	_, err = engine.Send(context.Background(), present.ID)
	require.NoError(t, err)

	_, err = engine.Send(context.Background(), missing.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)

	current, err := store.GetByID(context.Background(), missing.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDraft, current.Status)
	assert.Empty(t, current.Token())
}

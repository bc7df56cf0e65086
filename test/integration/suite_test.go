//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cucumber/godog"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	httpadapter "github.com/jsamuelsen/quote-lifecycle-service/internal/adapters/http"
	"github.com/jsamuelsen/quote-lifecycle-service/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quote-lifecycle-service/internal/adapters/store/memory"
	"github.com/jsamuelsen/quote-lifecycle-service/internal/adapters/store/sqlstore"
	"github.com/jsamuelsen/quote-lifecycle-service/internal/adapters/token"
	"github.com/jsamuelsen/quote-lifecycle-service/internal/app"
	"github.com/jsamuelsen/quote-lifecycle-service/internal/platform/config"
	"github.com/jsamuelsen/quote-lifecycle-service/internal/platform/metrics"
	"github.com/jsamuelsen/quote-lifecycle-service/internal/ports"
)

const (
	staffQuotes = "/api/v1/staff/quotes"
	publicBase  = "/api/v1/public/quotes"
)

// clock is a manually advanced time source shared by the engine and steps.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

// quoteState is the subset of a staff quote response the steps inspect.
type quoteState struct {
	ID          string     `json:"id"`
	Status      string     `json:"status"`
	ShareLink   string     `json:"shareLink"`
	ViewedAt    *time.Time `json:"viewedAt"`
	RespondedAt *time.Time `json:"respondedAt"`
}

type errorEnvelope struct {
	Error struct {
		Code string `json:"code"`
	} `json:"error"`
}

// testContext holds state shared across step definitions within a scenario.
type testContext struct {
	dataDir string

	server  *httptest.Server
	closers []func() error
	clock   *clock

	response     *http.Response
	responseBody []byte

	quoteID   string
	shareLink string
	viewedAt  *time.Time
}

// start wires a fresh service for one scenario.
func (tc *testContext) start(ctx context.Context) error {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, closeStore, err := tc.openStore(ctx, logger)
	if err != nil {
		return err
	}

	tc.closers = append(tc.closers, closeStore)
	tc.clock = &clock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}

	registry := prometheus.NewRegistry()

	lifecycleMetrics, err := metrics.NewLifecycle(registry)
	if err != nil {
		return err
	}

	engine := app.NewLifecycleEngine(app.LifecycleEngineConfig{
		Store:   store,
		Tokens:  token.NewGenerator(),
		Metrics: lifecycleMetrics,
		Clock:   tc.clock.Now,
		Logger:  logger,
	})
	service := app.NewQuoteService(app.QuoteServiceConfig{
		Store:           store,
		Engine:          engine,
		Logger:          logger,
		DefaultTenant:   "ACME",
		DefaultCurrency: "EUR",
		ValidityWindow:  72 * time.Hour,
		PublicBaseURL:   "https://quotes.example.com/q",
	})
	gateway := app.NewClientGateway(app.ClientGatewayConfig{
		Engine:     engine,
		ValidToken: token.Valid,
		Logger:     logger,
	})

	router := gin.New()
	httpadapter.SetupRouter(router, httpadapter.RouterConfig{
		AuthConfig: &config.AuthConfig{Enabled: false},
		HealthHandler: handlers.NewHealthHandler(
			ports.NewHealthRegistry(time.Second),
			handlers.NewBuildInfo("integration", "none", "none"),
			registry,
		),
		StaffHandler:  handlers.NewStaffQuoteHandler(service),
		ClientHandler: handlers.NewClientQuoteHandler(gateway),
	})

	tc.server = httptest.NewServer(router)

	return nil
}

// openStore uses SQLite when INTEGRATION_STORE=sqlite and the in-memory
// store otherwise.
func (tc *testContext) openStore(ctx context.Context, logger *slog.Logger) (ports.QuoteStore, func() error, error) {
	if os.Getenv("INTEGRATION_STORE") != sqlstore.DriverSQLite {
		store := memory.New()
		return store, store.Close, nil
	}

	dbPath := filepath.Join(tc.dataDir, fmt.Sprintf("quotes-%d.db", time.Now().UnixNano()))

	store, err := sqlstore.Open(ctx, sqlstore.Options{
		Driver: sqlstore.DriverSQLite,
		DSN:    dbPath,
		Logger: logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("opening sqlite store: %w", err)
	}

	return store, store.Close, nil
}

// reset clears response state between scenarios.
func (tc *testContext) reset() {
	if tc.server != nil {
		tc.server.Close()
		tc.server = nil
	}

	for _, closeFn := range tc.closers {
		_ = closeFn()
	}

	tc.closers = nil
	tc.response = nil
	tc.responseBody = nil
	tc.quoteID = ""
	tc.shareLink = ""
	tc.viewedAt = nil
}

// InitializeScenario registers step definitions for each scenario.
func InitializeScenario(dataDir string) func(*godog.ScenarioContext) {
	return func(sc *godog.ScenarioContext) {
		tc := &testContext{dataDir: dataDir}

		sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
			tc.reset()
			return ctx, tc.start(ctx)
		})

		sc.After(func(ctx context.Context, _ *godog.Scenario, _ error) (context.Context, error) {
			tc.reset()
			return ctx, nil
		})

		sc.Step(`^the service is running$`, tc.theServiceIsRunning)
		sc.Step(`^a draft quote for "([^"]*)"$`, tc.aDraftQuoteFor)
		sc.Step(`^staff send the quote$`, tc.staffSendTheQuote)
		sc.Step(`^staff requote the quote$`, tc.staffRequoteTheQuote)
		sc.Step(`^the client views the quote$`, tc.theClientViewsTheQuote)
		sc.Step(`^the client views a quote with an unknown token$`, tc.theClientViewsAnUnknownToken)
		sc.Step(`^the client (accepts|rejects) the quote$`, tc.theClientRespondsToTheQuote)
		sc.Step(`^(\d+) (days|hours) pass$`, tc.timePasses)
		sc.Step(`^the expiry sweep runs$`, tc.theExpirySweepRuns)
		sc.Step(`^the response status should be (\d+)$`, tc.theResponseStatusShouldBe)
		sc.Step(`^the error code should be "([^"]*)"$`, tc.theErrorCodeShouldBe)
		sc.Step(`^the quote status should be "([^"]*)"$`, tc.theQuoteStatusShouldBe)
		sc.Step(`^the quote should have a share link$`, tc.theQuoteShouldHaveAShareLink)
		sc.Step(`^the quote should have no share link$`, tc.theQuoteShouldHaveNoShareLink)
		sc.Step(`^the share link should be unchanged$`, tc.theShareLinkShouldBeUnchanged)
		sc.Step(`^the quote view time should be unchanged$`, tc.theQuoteViewTimeShouldBeUnchanged)
		sc.Step(`^the quote was viewed no later than it was answered$`, tc.theQuoteWasViewedBeforeAnswered)
	}
}

// do sends a request and buffers the response body.
func (tc *testContext) do(method, path string, body any) error {
	var reader io.Reader = http.NoBody

	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}

		reader = bytes.NewReader(raw)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, tc.server.URL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := tc.server.Client().Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	tc.response = resp

	tc.responseBody, err = io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	return nil
}

// fetchQuote reads the current quote without touching the last response.
func (tc *testContext) fetchQuote() (*quoteState, error) {
	last, lastBody := tc.response, tc.responseBody
	defer func() { tc.response, tc.responseBody = last, lastBody }()

	if err := tc.do(http.MethodGet, staffQuotes+"/"+tc.quoteID, nil); err != nil {
		return nil, err
	}

	if tc.response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching quote %s: status %d: %s", tc.quoteID, tc.response.StatusCode, tc.responseBody)
	}

	var q quoteState
	if err := json.Unmarshal(tc.responseBody, &q); err != nil {
		return nil, fmt.Errorf("decoding quote: %w", err)
	}

	return &q, nil
}

// token returns the response token embedded in the share link.
func (tc *testContext) token() (string, error) {
	if tc.shareLink == "" {
		return "", fmt.Errorf("quote %s has not been sent", tc.quoteID)
	}

	return path.Base(tc.shareLink), nil
}

func (tc *testContext) theServiceIsRunning() error {
	if err := tc.do(http.MethodGet, "/-/live", nil); err != nil {
		return err
	}

	if tc.response.StatusCode != http.StatusOK {
		return fmt.Errorf("service health check failed with status %d", tc.response.StatusCode)
	}

	return nil
}

func (tc *testContext) aDraftQuoteFor(company string) error {
	err := tc.do(http.MethodPost, staffQuotes, map[string]any{
		"company":      company,
		"contactName":  "Ana Trujillo",
		"contactEmail": "ana@northwind.example",
		"product":      "Industrial chillers",
		"quantity":     3,
		"amount":       "18450.00",
	})
	if err != nil {
		return err
	}

	if tc.response.StatusCode != http.StatusCreated {
		return fmt.Errorf("creating quote: status %d: %s", tc.response.StatusCode, tc.responseBody)
	}

	var q quoteState
	if err := json.Unmarshal(tc.responseBody, &q); err != nil {
		return fmt.Errorf("decoding created quote: %w", err)
	}

	tc.quoteID = q.ID

	return nil
}

func (tc *testContext) staffSendTheQuote() error {
	if err := tc.do(http.MethodPost, staffQuotes+"/"+tc.quoteID+"/send", nil); err != nil {
		return err
	}

	if tc.response.StatusCode != http.StatusOK {
		return nil
	}

	var q quoteState
	if err := json.Unmarshal(tc.responseBody, &q); err != nil {
		return fmt.Errorf("decoding sent quote: %w", err)
	}

	tc.shareLink = q.ShareLink

	return nil
}

func (tc *testContext) staffRequoteTheQuote() error {
	if err := tc.do(http.MethodPost, staffQuotes+"/"+tc.quoteID+"/requote", nil); err != nil {
		return err
	}

	if tc.response.StatusCode != http.StatusCreated {
		return nil
	}

	var q quoteState
	if err := json.Unmarshal(tc.responseBody, &q); err != nil {
		return fmt.Errorf("decoding requoted draft: %w", err)
	}

	tc.quoteID = q.ID
	tc.shareLink = ""

	return nil
}

func (tc *testContext) theClientViewsTheQuote() error {
	tok, err := tc.token()
	if err != nil {
		return err
	}

	if err := tc.do(http.MethodGet, publicBase+"/"+tok, nil); err != nil {
		return err
	}

	if tc.viewedAt == nil && tc.response.StatusCode == http.StatusOK {
		q, err := tc.fetchQuote()
		if err != nil {
			return err
		}

		tc.viewedAt = q.ViewedAt
	}

	return nil
}

func (tc *testContext) theClientViewsAnUnknownToken() error {
	return tc.do(http.MethodGet, publicBase+"/"+strings.Repeat("A", token.EncodedLength), nil)
}

func (tc *testContext) theClientRespondsToTheQuote(verb string) error {
	tok, err := tc.token()
	if err != nil {
		return err
	}

	decision := strings.TrimSuffix(verb, "s")

	return tc.do(http.MethodPost, publicBase+"/"+tok+"/respond", map[string]string{"decision": decision})
}

func (tc *testContext) timePasses(n int, unit string) error {
	d := time.Duration(n) * time.Hour
	if unit == "days" {
		d *= 24
	}

	tc.clock.Advance(d)

	return nil
}

func (tc *testContext) theExpirySweepRuns() error {
	return tc.do(http.MethodPost, "/api/v1/staff/sweeps", nil)
}

// theResponseStatusShouldBe asserts the response status code.
func (tc *testContext) theResponseStatusShouldBe(expectedCode int) error {
	if tc.response == nil {
		return fmt.Errorf("no response received")
	}

	if tc.response.StatusCode != expectedCode {
		return fmt.Errorf("expected status %d, got %d. Body: %s",
			expectedCode, tc.response.StatusCode, string(tc.responseBody))
	}

	return nil
}

func (tc *testContext) theErrorCodeShouldBe(code string) error {
	var env errorEnvelope
	if err := json.Unmarshal(tc.responseBody, &env); err != nil {
		return fmt.Errorf("decoding error envelope: %w. Body: %s", err, tc.responseBody)
	}

	if env.Error.Code != code {
		return fmt.Errorf("expected error code %q, got %q", code, env.Error.Code)
	}

	return nil
}

func (tc *testContext) theQuoteStatusShouldBe(status string) error {
	q, err := tc.fetchQuote()
	if err != nil {
		return err
	}

	if q.Status != status {
		return fmt.Errorf("expected quote %s to be %q, got %q", tc.quoteID, status, q.Status)
	}

	return nil
}

func (tc *testContext) theQuoteShouldHaveAShareLink() error {
	q, err := tc.fetchQuote()
	if err != nil {
		return err
	}

	if q.ShareLink == "" || !token.Valid(path.Base(q.ShareLink)) {
		return fmt.Errorf("expected a share link with a valid token, got %q", q.ShareLink)
	}

	return nil
}

func (tc *testContext) theQuoteShouldHaveNoShareLink() error {
	q, err := tc.fetchQuote()
	if err != nil {
		return err
	}

	if q.ShareLink != "" {
		return fmt.Errorf("expected no share link for a draft, got %q", q.ShareLink)
	}

	return nil
}

func (tc *testContext) theShareLinkShouldBeUnchanged() error {
	q, err := tc.fetchQuote()
	if err != nil {
		return err
	}

	if q.ShareLink != tc.shareLink {
		return fmt.Errorf("share link changed from %q to %q", tc.shareLink, q.ShareLink)
	}

	return nil
}

func (tc *testContext) theQuoteViewTimeShouldBeUnchanged() error {
	q, err := tc.fetchQuote()
	if err != nil {
		return err
	}

	if tc.viewedAt == nil || q.ViewedAt == nil || !q.ViewedAt.Equal(*tc.viewedAt) {
		return fmt.Errorf("expected viewedAt %v, got %v", tc.viewedAt, q.ViewedAt)
	}

	return nil
}

func (tc *testContext) theQuoteWasViewedBeforeAnswered() error {
	q, err := tc.fetchQuote()
	if err != nil {
		return err
	}

	if q.ViewedAt == nil || q.RespondedAt == nil {
		return fmt.Errorf("expected both timestamps, got viewedAt=%v respondedAt=%v", q.ViewedAt, q.RespondedAt)
	}

	if q.ViewedAt.After(*q.RespondedAt) {
		return fmt.Errorf("viewedAt %v is after respondedAt %v", q.ViewedAt, q.RespondedAt)
	}

	return nil
}

// TestFeatures runs the GoDog BDD test suite.
func TestFeatures(t *testing.T) {
	gin.SetMode(gin.TestMode)

	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario(t.TempDir()),
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"../features"},
			TestingT: t,
			Tags:     os.Getenv("GODOG_TAGS"),
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}

// Package storetest holds the behavioral contract every ports.QuoteStore
// implementation must satisfy. Adapter packages run it from their own tests.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-lifecycle-service/internal/domain"
	"github.com/jsamuelsen/quote-lifecycle-service/internal/ports"
)

// Factory returns a fresh, empty store for one subtest.
type Factory func(t *testing.T) ports.QuoteStore

// Base is the reference instant used for every timestamp in the suite.
var Base = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

// NewDraft returns a valid draft for tenant expiring validity after Base.
func NewDraft(tenant string, validity time.Duration) *domain.Quote {
	return domain.NewDraftQuote(domain.QuoteDraft{
		Tenant:       tenant,
		Company:      "Initech",
		ContactName:  "Bill Lumbergh",
		ContactEmail: "bill@initech.test",
		Product:      "Letterhead, 500 sheets",
		Quantity:     4,
		Amount:       decimal.RequireFromString("199.99"),
		Currency:     "USD",
		Attachments:  []string{"artwork-v2.pdf"},
	}, Base, validity)
}

// SendWith returns a mutator performing draft -> sent with token.
func SendWith(token string) ports.TransitionFunc {
	return func(q *domain.Quote) error {
		q.Status = domain.StatusSent
		q.ResponseToken = &token

		return nil
	}
}

// Respond returns a mutator performing sent|viewed -> status at instant at.
func Respond(status domain.Status, at time.Time) ports.TransitionFunc {
	return func(q *domain.Quote) error {
		q.Status = status
		if q.ViewedAt == nil {
			q.ViewedAt = &at
		}

		q.RespondedAt = &at

		return nil
	}
}

// Run executes the full contract against stores built by factory.
func Run(t *testing.T, factory Factory) {
	t.Helper()

	t.Run("create assigns per-tenant sequence", func(t *testing.T) { testCreateSequence(t, factory(t)) })
	t.Run("get missing", func(t *testing.T) { testGetMissing(t, factory(t)) })
	t.Run("send persists token", func(t *testing.T) { testSendPersistsToken(t, factory(t)) })
	t.Run("stale status", func(t *testing.T) { testStaleStatus(t, factory(t)) })
	t.Run("mutator error aborts", func(t *testing.T) { testMutatorErrorAborts(t, factory(t)) })
	t.Run("invariant breach rejected", func(t *testing.T) { testInvariantBreach(t, factory(t)) })
	t.Run("token collision", func(t *testing.T) { testTokenCollision(t, factory(t)) })
	t.Run("returned quotes are copies", func(t *testing.T) { testCopies(t, factory(t)) })
	t.Run("concurrent transitions single winner", func(t *testing.T) { testSingleWinner(t, factory(t)) })
	t.Run("list filters and pages", func(t *testing.T) { testList(t, factory(t)) })
	t.Run("list expirable", func(t *testing.T) { testListExpirable(t, factory(t)) })
	t.Run("events", func(t *testing.T) { testEvents(t, factory(t)) })
}

func create(t *testing.T, s ports.QuoteStore, tenant string) *domain.Quote {
	t.Helper()

	q, err := s.Create(context.Background(), NewDraft(tenant, 24*time.Hour))
	require.NoError(t, err)

	return q
}

func send(t *testing.T, s ports.QuoteStore, id, token string) *domain.Quote {
	t.Helper()

	q, err := s.ApplyTransition(context.Background(), id, domain.StatusDraft, SendWith(token))
	require.NoError(t, err)

	return q
}

func testCreateSequence(t *testing.T, s ports.QuoteStore) {
	first := create(t, s, "acme")
	second := create(t, s, "acme")
	other := create(t, s, "beta")

	assert.Equal(t, "QT-ACME-0000000001", first.ID)
	assert.Equal(t, "QT-ACME-0000000002", second.ID)
	assert.Equal(t, "QT-BETA-0000000001", other.ID)
	assert.Equal(t, domain.StatusDraft, first.Status)
	assert.Nil(t, first.ResponseToken)
	assert.True(t, first.Amount.Equal(decimal.RequireFromString("199.99")))
	assert.Equal(t, []string{"artwork-v2.pdf"}, first.Attachments)

	got, err := s.GetByID(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ExpiresAt.UTC(), got.ExpiresAt.UTC())
	assert.Equal(t, "Initech", got.Company)
}

func testGetMissing(t *testing.T, s ports.QuoteStore) {
	_, err := s.GetByID(context.Background(), "QT-NOPE-0000000001")
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = s.GetByToken(context.Background(), "no-such-token")
	require.ErrorIs(t, err, domain.ErrTokenNotFound)

	_, err = s.ApplyTransition(context.Background(), "QT-NOPE-0000000001", domain.StatusDraft, SendWith("t"))
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func testSendPersistsToken(t *testing.T, s ports.QuoteStore) {
	q := create(t, s, "acme")

	sent := send(t, s, q.ID, "token-send-1")
	assert.Equal(t, domain.StatusSent, sent.Status)
	assert.Equal(t, "token-send-1", sent.Token())
	assert.Greater(t, sent.Version, q.Version)

	byToken, err := s.GetByToken(context.Background(), "token-send-1")
	require.NoError(t, err)
	assert.Equal(t, q.ID, byToken.ID)
	assert.Equal(t, domain.StatusSent, byToken.Status)
}

func testStaleStatus(t *testing.T, s ports.QuoteStore) {
	q := create(t, s, "acme")
	send(t, s, q.ID, "token-stale-1")

	_, err := s.ApplyTransition(context.Background(), q.ID, domain.StatusDraft, SendWith("token-stale-2"))

	var stale *domain.StaleStatusError
	require.ErrorAs(t, err, &stale)
	assert.Equal(t, domain.StatusDraft, stale.Expected)
	assert.Equal(t, domain.StatusSent, stale.Actual)

	got, err := s.GetByID(context.Background(), q.ID)
	require.NoError(t, err)
	assert.Equal(t, "token-stale-1", got.Token())
}

func testMutatorErrorAborts(t *testing.T, s ports.QuoteStore) {
	q := create(t, s, "acme")
	boom := errors.New("boom")

	_, err := s.ApplyTransition(context.Background(), q.ID, domain.StatusDraft, func(q *domain.Quote) error {
		q.Company = "changed"
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.GetByID(context.Background(), q.ID)
	require.NoError(t, err)
	assert.Equal(t, "Initech", got.Company)
	assert.Equal(t, domain.StatusDraft, got.Status)
}

func testInvariantBreach(t *testing.T, s ports.QuoteStore) {
	q := create(t, s, "acme")

	_, err := s.ApplyTransition(context.Background(), q.ID, domain.StatusDraft, func(q *domain.Quote) error {
		q.Status = domain.StatusSent
		return nil
	})
	require.ErrorIs(t, err, domain.ErrInvariantViolation)

	sent := send(t, s, q.ID, "token-inv-1")
	other := "token-inv-2"

	_, err = s.ApplyTransition(context.Background(), sent.ID, domain.StatusSent, func(q *domain.Quote) error {
		q.ResponseToken = &other
		return nil
	})
	require.ErrorIs(t, err, domain.ErrInvariantViolation)
}

func testTokenCollision(t *testing.T, s ports.QuoteStore) {
	a := create(t, s, "acme")
	b := create(t, s, "acme")
	send(t, s, a.ID, "shared-token")

	_, err := s.ApplyTransition(context.Background(), b.ID, domain.StatusDraft, SendWith("shared-token"))
	require.ErrorIs(t, err, domain.ErrTokenCollision)

	got, err := s.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDraft, got.Status)
	assert.Nil(t, got.ResponseToken)

	owner, err := s.GetByToken(context.Background(), "shared-token")
	require.NoError(t, err)
	assert.Equal(t, a.ID, owner.ID)
}

func testCopies(t *testing.T, s ports.QuoteStore) {
	q := create(t, s, "acme")
	q.Company = "mutated by caller"
	q.Attachments[0] = "mutated.pdf"

	got, err := s.GetByID(context.Background(), q.ID)
	require.NoError(t, err)
	assert.Equal(t, "Initech", got.Company)
	assert.Equal(t, "artwork-v2.pdf", got.Attachments[0])
}

func testSingleWinner(t *testing.T, s ports.QuoteStore) {
	q := create(t, s, "acme")
	send(t, s, q.ID, "token-race-1")

	const contenders = 8

	var (
		wg    sync.WaitGroup
		wins  atomic.Int32
		stale atomic.Int32
	)

	for i := range contenders {
		wg.Add(1)

		go func() {
			defer wg.Done()

			status := domain.StatusAccepted
			if i%2 == 1 {
				status = domain.StatusRejected
			}

			_, err := s.ApplyTransition(context.Background(), q.ID, domain.StatusSent, Respond(status, Base.Add(time.Minute)))

			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, domain.ErrStaleStatus):
				stale.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	assert.Equal(t, int32(contenders-1), stale.Load())

	got, err := s.GetByID(context.Background(), q.ID)
	require.NoError(t, err)
	assert.True(t, got.Status.IsDecided())
}

func testList(t *testing.T, s ports.QuoteStore) {
	for range 5 {
		create(t, s, "acme")
	}

	create(t, s, "beta")
	send(t, s, "QT-ACME-0000000002", "token-list-1")

	page, err := s.List(context.Background(), ports.ListQuotesQuery{Tenant: "acme", Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "QT-ACME-0000000001", page.Items[0].ID)
	require.NotEmpty(t, page.NextCursor)

	var ids []string

	cursor := ""

	for {
		page, err = s.List(context.Background(), ports.ListQuotesQuery{Tenant: "acme", Limit: 2, Cursor: cursor})
		require.NoError(t, err)

		for _, q := range page.Items {
			ids = append(ids, q.ID)
		}

		if page.NextCursor == "" {
			break
		}

		cursor = page.NextCursor
	}

	assert.Len(t, ids, 5)

	sent, err := s.List(context.Background(), ports.ListQuotesQuery{Status: domain.StatusSent})
	require.NoError(t, err)
	require.Len(t, sent.Items, 1)
	assert.Equal(t, "QT-ACME-0000000002", sent.Items[0].ID)
	assert.Empty(t, sent.NextCursor)
}

func testListExpirable(t *testing.T, s ports.QuoteStore) {
	ctx := context.Background()

	short, err := s.Create(ctx, NewDraft("acme", time.Hour))
	require.NoError(t, err)

	long, err := s.Create(ctx, NewDraft("acme", 48*time.Hour))
	require.NoError(t, err)

	draftOnly, err := s.Create(ctx, NewDraft("acme", time.Hour))
	require.NoError(t, err)

	send(t, s, short.ID, "token-exp-1")
	send(t, s, long.ID, "token-exp-2")

	page, err := s.ListExpirable(ctx, domain.StatusSent, Base.Add(2*time.Hour), "", 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, short.ID, page.Items[0].ID)

	page, err = s.ListExpirable(ctx, domain.StatusDraft, Base.Add(2*time.Hour), "", 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, draftOnly.ID, page.Items[0].ID)

	page, err = s.ListExpirable(ctx, domain.StatusViewed, Base.Add(72*time.Hour), "", 10)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func testEvents(t *testing.T, s ports.QuoteStore) {
	ctx := context.Background()
	q := create(t, s, "acme")

	for i, status := range []domain.Status{domain.StatusDraft, domain.StatusSent, domain.StatusViewed} {
		q.Status = status
		ev := domain.NewLifecycleEvent(q, domain.ActorStaff, Base.Add(time.Duration(i)*time.Second))
		require.NoError(t, s.AppendEvent(ctx, ev), fmt.Sprintf("event %d", i))
	}

	events, err := s.ListEvents(ctx, q.ID)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, domain.EventQuoteCreated, events[0].Type)
	assert.Equal(t, domain.EventQuoteViewed, events[2].Type)
	assert.Equal(t, domain.ActorStaff, events[1].Actor)
	assert.True(t, events[1].OccurredAt.Equal(Base.Add(time.Second)))

	none, err := s.ListEvents(ctx, "QT-NOPE-0000000001")
	require.NoError(t, err)
	assert.Empty(t, none)
}

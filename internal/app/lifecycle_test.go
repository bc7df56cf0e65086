package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-lifecycle-service/internal/adapters/store/memory"
	"github.com/jsamuelsen/quote-lifecycle-service/internal/adapters/token"
	"github.com/jsamuelsen/quote-lifecycle-service/internal/domain"
	"github.com/jsamuelsen/quote-lifecycle-service/internal/mocks"
	"github.com/jsamuelsen/quote-lifecycle-service/internal/ports"
)

func TestLifecycle_ScenarioA_HappyPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	q := f.createDraft(t)
	assert.Equal(t, domain.StatusDraft, q.Status)
	assert.Nil(t, q.ResponseToken)

	sent, err := f.engine.Send(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSent, sent.Status)
	require.NotNil(t, sent.ResponseToken)
	assert.True(t, token.Valid(sent.Token()))

	f.clock.Advance(time.Hour)
	t1 := f.clock.Now()

	viewed, err := f.engine.RecordClientView(ctx, sent.Token())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusViewed, viewed.Status)
	require.NotNil(t, viewed.ViewedAt)
	assert.Equal(t, t1, *viewed.ViewedAt)

	f.clock.Advance(time.Hour)

	accepted, err := f.engine.RecordClientResponse(ctx, sent.Token(), domain.DecisionAccept)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAccepted, accepted.Status)
	require.NotNil(t, accepted.RespondedAt)
	assert.False(t, accepted.RespondedAt.Before(*accepted.ViewedAt))
	assert.Equal(t, sent.Token(), accepted.Token())

	assert.Equal(t, []string{"quote.created", "quote.sent", "quote.viewed", "quote.accepted"}, f.publisher.Types())

	events, err := f.store.ListEvents(ctx, q.ID)
	require.NoError(t, err)
	require.Len(t, events, 4)
	assert.Equal(t, domain.ActorClient, events[3].Actor)
}

func TestLifecycle_ScenarioB_SendTwice(t *testing.T) {
	f := newFixture(t)

	sent := f.createSent(t)

	_, err := f.engine.Send(context.Background(), sent.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	current, ok := domain.QuoteFromError(err)
	require.True(t, ok)
	assert.Equal(t, domain.StatusSent, current.Status)
	assert.Equal(t, sent.Token(), f.get(t, sent.ID).Token())
}

func TestLifecycle_ScenarioC_ResponseAfterLapse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sent := f.createSent(t)
	f.clock.Advance(testValidity + 24*time.Hour)

	_, err := f.engine.RecordClientResponse(ctx, sent.Token(), domain.DecisionAccept)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrQuoteExpired)
	assert.Equal(t, domain.StatusSent, f.get(t, sent.ID).Status)

	result, err := f.engine.ExpireOverdue(ctx, f.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Expired)
	assert.Equal(t, domain.StatusExpired, f.get(t, sent.ID).Status)

	_, err = f.engine.RecordClientResponse(ctx, sent.Token(), domain.DecisionAccept)
	assert.ErrorIs(t, err, domain.ErrQuoteExpired)
}

func TestLifecycle_ScenarioD_UnknownToken(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.RecordClientView(context.Background(), "never-issued")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTokenNotFound)
	assert.True(t, domain.IsNotFound(err))
}

func TestLifecycle_ScenarioE_AlreadyDecided(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sent := f.createSent(t)
	_, err := f.engine.RecordClientResponse(ctx, sent.Token(), domain.DecisionAccept)
	require.NoError(t, err)

	_, err = f.engine.RecordClientResponse(ctx, sent.Token(), domain.DecisionReject)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAlreadyDecided)

	final, ok := domain.QuoteFromError(err)
	require.True(t, ok)
	assert.Equal(t, domain.StatusAccepted, final.Status)
	assert.Equal(t, domain.StatusAccepted, f.get(t, sent.ID).Status)
}

func TestLifecycle_TokenAssignedOnlyOnSend(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	draft := f.createDraft(t)
	assert.Empty(t, draft.Token())

	sent, err := f.engine.Send(ctx, draft.ID)
	require.NoError(t, err)
	tok := sent.Token()

	_, err = f.engine.RecordClientView(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, tok, f.get(t, draft.ID).Token())

	_, err = f.engine.RecordClientResponse(ctx, tok, domain.DecisionReject)
	require.NoError(t, err)
	assert.Equal(t, tok, f.get(t, draft.ID).Token())

	_, err = f.engine.ExpireOverdue(ctx, f.clock.Now().Add(365*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, tok, f.get(t, draft.ID).Token())
}

func TestLifecycle_RepeatViewsStampOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sent := f.createSent(t)
	first := f.clock.Now()

	for range 5 {
		q, err := f.engine.RecordClientView(ctx, sent.Token())
		require.NoError(t, err)
		require.NotNil(t, q.ViewedAt)
		assert.Equal(t, first, *q.ViewedAt)

		f.clock.Advance(time.Minute)
	}

	stored := f.get(t, sent.ID)
	assert.Equal(t, sent.Version+1, stored.Version)
	assert.Equal(t, []string{"quote.created", "quote.sent", "quote.viewed"}, f.publisher.Types())
}

func TestLifecycle_ResponseWithoutViewBackfillsViewedAt(t *testing.T) {
	f := newFixture(t)

	sent := f.createSent(t)
	f.clock.Advance(time.Hour)

	q, err := f.engine.RecordClientResponse(context.Background(), sent.Token(), domain.DecisionReject)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, q.Status)
	require.NotNil(t, q.ViewedAt)
	require.NotNil(t, q.RespondedAt)
	assert.Equal(t, *q.ViewedAt, *q.RespondedAt)
}

func TestLifecycle_ResponseAtExactExpiryIsAccepted(t *testing.T) {
	f := newFixture(t)

	sent := f.createSent(t)
	f.clock.Advance(testValidity)

	q, err := f.engine.RecordClientResponse(context.Background(), sent.Token(), domain.DecisionAccept)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAccepted, q.Status)
}

func TestLifecycle_ViewOfLapsedQuoteIsRecorded(t *testing.T) {
	f := newFixture(t)

	sent := f.createSent(t)
	f.clock.Advance(testValidity + time.Hour)

	q, err := f.engine.RecordClientView(context.Background(), sent.Token())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusViewed, q.Status)
}

func TestLifecycle_TerminalQuotesAreImmutable(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(t *testing.T, f *fixture, q *domain.Quote)
	}{
		{
			name: "accepted",
			prepare: func(t *testing.T, f *fixture, q *domain.Quote) {
				_, err := f.engine.RecordClientResponse(context.Background(), q.Token(), domain.DecisionAccept)
				require.NoError(t, err)
			},
		},
		{
			name: "rejected",
			prepare: func(t *testing.T, f *fixture, q *domain.Quote) {
				_, err := f.engine.RecordClientResponse(context.Background(), q.Token(), domain.DecisionReject)
				require.NoError(t, err)
			},
		},
		{
			name: "expired",
			prepare: func(t *testing.T, f *fixture, q *domain.Quote) {
				f.clock.Advance(testValidity + time.Second)
				_, err := f.engine.ExpireOverdue(context.Background(), f.clock.Now())
				require.NoError(t, err)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()

			sent := f.createSent(t)
			tt.prepare(t, f, sent)

			before := f.get(t, sent.ID)
			require.True(t, before.Status.IsTerminal())

			f.clock.Advance(time.Hour)

			_, err := f.engine.Send(ctx, sent.ID)
			assert.ErrorIs(t, err, domain.ErrInvalidTransition)

			_, err = f.engine.RecordClientView(ctx, sent.Token())
			assert.ErrorIs(t, err, domain.ErrQuoteNotRespondable)

			_, err = f.engine.RecordClientResponse(ctx, sent.Token(), domain.DecisionAccept)
			assert.True(t, errors.Is(err, domain.ErrAlreadyDecided) || errors.Is(err, domain.ErrQuoteExpired), "got %v", err)

			_, err = f.engine.ExpireOverdue(ctx, f.clock.Now().Add(365*24*time.Hour))
			require.NoError(t, err)

			after := f.get(t, sent.ID)
			assert.Equal(t, before.Status, after.Status)
			assert.Equal(t, before.ViewedAt, after.ViewedAt)
			assert.Equal(t, before.RespondedAt, after.RespondedAt)
			assert.Equal(t, before.Version, after.Version)
		})
	}
}

func TestLifecycle_ConcurrentResponsesHaveOneWinner(t *testing.T) {
	f := newFixture(t)
	sent := f.createSent(t)

	const callers = 16

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		winners  int
		conflict int
	)

	for i := range callers {
		decision := domain.DecisionAccept
		if i%2 == 1 {
			decision = domain.DecisionReject
		}

		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := f.engine.RecordClientResponse(context.Background(), sent.Token(), decision)

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err == nil:
				winners++
			case errors.Is(err, domain.ErrAlreadyDecided):
				conflict++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, 1, winners)
	assert.Equal(t, callers-1, conflict)
	assert.True(t, f.get(t, sent.ID).Status.IsDecided())
}

func TestLifecycle_ResponseRacesSweep(t *testing.T) {
	for range 20 {
		f := newFixture(t)
		ctx := context.Background()
		sent := f.createSent(t)
		sweepAt := sent.ExpiresAt.Add(time.Second)

		var (
			wg          sync.WaitGroup
			respondErr  error
			sweepResult SweepResult
			sweepErr    error
		)

		wg.Add(2)

		go func() {
			defer wg.Done()

			_, respondErr = f.engine.RecordClientResponse(ctx, sent.Token(), domain.DecisionAccept)
		}()

		go func() {
			defer wg.Done()

			sweepResult, sweepErr = f.engine.ExpireOverdue(ctx, sweepAt)
		}()

		wg.Wait()
		require.NoError(t, sweepErr)

		switch final := f.get(t, sent.ID); final.Status {
		case domain.StatusAccepted:
			require.NoError(t, respondErr)
			assert.Equal(t, 0, sweepResult.Expired)
		case domain.StatusExpired:
			assert.ErrorIs(t, respondErr, domain.ErrQuoteExpired)
			assert.Equal(t, 1, sweepResult.Expired)
			assert.Nil(t, final.RespondedAt)
		default:
			t.Fatalf("unexpected final status %q", final.Status)
		}
	}
}

func TestLifecycle_LapsedResponseRacesSweep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sent := f.createSent(t)
	f.clock.Advance(testValidity + time.Hour)

	var (
		wg         sync.WaitGroup
		respondErr error
	)

	wg.Add(2)

	go func() {
		defer wg.Done()

		_, respondErr = f.engine.RecordClientResponse(ctx, sent.Token(), domain.DecisionAccept)
	}()

	go func() {
		defer wg.Done()

		_, err := f.engine.ExpireOverdue(ctx, f.clock.Now())
		assert.NoError(t, err)
	}()

	wg.Wait()

	assert.ErrorIs(t, respondErr, domain.ErrQuoteExpired)
	assert.Equal(t, domain.StatusExpired, f.get(t, sent.ID).Status)
}

func TestLifecycle_SendRegeneratesCollidingToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	existing := f.createSent(t)
	draft := f.createDraft(t)

	tokens := mocks.NewMockTokenGenerator(t)
	tokens.EXPECT().Generate().Return(existing.Token(), nil).Once()
	tokens.EXPECT().Generate().Return("fresh-token", nil).Once()

	metrics := mocks.NewMockLifecycleMetrics(t)
	metrics.EXPECT().TokenCollision().Return().Once()
	metrics.EXPECT().TransitionRecorded(domain.StatusDraft, domain.StatusSent).Return().Once()

	engine := NewLifecycleEngine(LifecycleEngineConfig{
		Store:   f.store,
		Tokens:  tokens,
		Metrics: metrics,
		Clock:   f.clock.Now,
		Logger:  discardLogger(),
	})

	sent, err := engine.Send(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", sent.Token())
	assert.Equal(t, existing.Token(), f.get(t, existing.ID).Token())
}

func TestLifecycle_SendGivesUpAfterRepeatedCollisions(t *testing.T) {
	f := newFixture(t)

	existing := f.createSent(t)
	draft := f.createDraft(t)

	tokens := mocks.NewMockTokenGenerator(t)
	tokens.EXPECT().Generate().Return(existing.Token(), nil).Times(maxTransitionAttempts)

	engine := NewLifecycleEngine(LifecycleEngineConfig{
		Store:  f.store,
		Tokens: tokens,
		Clock:  f.clock.Now,
		Logger: discardLogger(),
	})

	_, err := engine.Send(context.Background(), draft.ID)
	require.Error(t, err)
	assert.True(t, domain.IsUnavailable(err))
	assert.Equal(t, domain.StatusDraft, f.get(t, draft.ID).Status)
}

func TestLifecycle_SendTokenSourceFailure(t *testing.T) {
	f := newFixture(t)
	draft := f.createDraft(t)

	tokens := mocks.NewMockTokenGenerator(t)
	tokens.EXPECT().Generate().Return("", errors.New("entropy exhausted")).Once()

	engine := NewLifecycleEngine(LifecycleEngineConfig{Store: f.store, Tokens: tokens, Logger: discardLogger()})

	_, err := engine.Send(context.Background(), draft.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entropy exhausted")
	assert.Equal(t, domain.StatusDraft, f.get(t, draft.ID).Status)
}

func TestLifecycle_SendUnknownQuote(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.Send(context.Background(), "QT-ACME-0000999999")
	assert.True(t, domain.IsNotFound(err))
}

func TestLifecycle_SendChecksAttachments(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(*mocks.MockAttachmentChecker)
		wantSent bool
		errCheck func(error) bool
	}{
		{
			name: "all references exist",
			setup: func(m *mocks.MockAttachmentChecker) {
				m.EXPECT().Exists(mock.Anything, "files/spec.pdf").Return(true, nil).Once()
			},
			wantSent: true,
		},
		{
			name: "missing reference",
			setup: func(m *mocks.MockAttachmentChecker) {
				m.EXPECT().Exists(mock.Anything, "files/spec.pdf").Return(false, nil).Once()
			},
			errCheck: domain.IsValidation,
		},
		{
			name: "storage unavailable",
			setup: func(m *mocks.MockAttachmentChecker) {
				m.EXPECT().Exists(mock.Anything, "files/spec.pdf").
					Return(false, domain.NewUnavailableError("attachments", "timeout")).Once()
			},
			errCheck: domain.IsUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.New()
			checker := mocks.NewMockAttachmentChecker(t)
			tt.setup(checker)

			engine := NewLifecycleEngine(LifecycleEngineConfig{
				Store:       store,
				Tokens:      token.NewGenerator(),
				Attachments: checker,
				Logger:      discardLogger(),
			})

			d := testDraft()
			d.Tenant = "acme"
			d.Currency = "EUR"
			d.Attachments = []string{"files/spec.pdf"}

			draft, err := store.Create(context.Background(), domain.NewDraftQuote(d, baseTime, testValidity))
			require.NoError(t, err)

			sent, err := engine.Send(context.Background(), draft.ID)
			if tt.errCheck != nil {
				require.Error(t, err)
				assert.True(t, tt.errCheck(err), "unexpected error type: %v", err)
				assert.Nil(t, sent)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, domain.StatusSent, sent.Status)
		})
	}
}

func TestLifecycle_EventFailuresDoNotFailTransitions(t *testing.T) {
	f := newFixture(t)

	publisher := mocks.NewMockEventPublisher(t)
	publisher.EXPECT().Publish(mock.Anything, mock.Anything).
		Return(domain.NewUnavailableError("notifications", "connection refused"))

	engine := NewLifecycleEngine(LifecycleEngineConfig{
		Store:     f.store,
		Tokens:    token.NewGenerator(),
		Publisher: publisher,
		Clock:     f.clock.Now,
		Logger:    discardLogger(),
	})

	draft := f.createDraft(t)

	sent, err := engine.Send(context.Background(), draft.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSent, sent.Status)
}

func TestLifecycle_EventsSurviveCallerCancellation(t *testing.T) {
	store := mocks.NewMockQuoteStore(t)
	draft := domain.NewDraftQuote(testDraft(), baseTime, testValidity)
	draft.ID = "QT-ACME-0000000001"

	ctx, cancel := context.WithCancel(context.Background())

	store.EXPECT().GetByID(mock.Anything, draft.ID).Return(draft, nil).Once()
	store.EXPECT().ApplyTransition(mock.Anything, draft.ID, domain.StatusDraft, mock.Anything).
		RunAndReturn(func(_ context.Context, _ string, _ domain.Status, mutate ports.TransitionFunc) (*domain.Quote, error) {
			q := draft.Clone()
			if err := mutate(q); err != nil {
				return nil, err
			}

			cancel()

			return q, nil
		}).Once()
	store.EXPECT().AppendEvent(mock.Anything, mock.MatchedBy(func(e domain.LifecycleEvent) bool {
		return e.Type == domain.EventQuoteSent
	})).RunAndReturn(func(ctx context.Context, _ domain.LifecycleEvent) error {
		assert.NoError(t, ctx.Err())
		return nil
	}).Once()

	engine := NewLifecycleEngine(LifecycleEngineConfig{
		Store:  store,
		Tokens: token.NewGenerator(),
		Logger: discardLogger(),
	})

	sent, err := engine.Send(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSent, sent.Status)
}

func TestLifecycle_ViewRetriesAfterLostRace(t *testing.T) {
	store := mocks.NewMockQuoteStore(t)

	tok := "tok"
	q := domain.NewDraftQuote(testDraft(), baseTime, testValidity)
	q.ID = "QT-ACME-0000000001"
	q.Status = domain.StatusSent
	q.ResponseToken = &tok

	viewed := q.Clone()
	viewed.Status = domain.StatusViewed
	viewed.ViewedAt = &baseTime

	store.EXPECT().GetByToken(mock.Anything, tok).Return(q, nil).Once()
	store.EXPECT().ApplyTransition(mock.Anything, q.ID, domain.StatusSent, mock.Anything).
		Return(nil, domain.NewStaleStatusError(q.ID, domain.StatusSent, domain.StatusViewed)).Once()
	store.EXPECT().GetByToken(mock.Anything, tok).Return(viewed, nil).Once()

	engine := NewLifecycleEngine(LifecycleEngineConfig{Store: store, Logger: discardLogger()})

	got, err := engine.RecordClientView(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusViewed, got.Status)
}

func TestExpireOverdue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	lapsedSent := f.createSent(t)

	lapsedViewed := f.createSent(t)
	_, err := f.engine.RecordClientView(ctx, lapsedViewed.Token())
	require.NoError(t, err)

	decided := f.createSent(t)
	_, err = f.engine.RecordClientResponse(ctx, decided.Token(), domain.DecisionAccept)
	require.NoError(t, err)

	draft := f.createDraft(t)

	f.clock.Advance(48 * time.Hour)
	fresh := f.createSent(t)

	f.clock.Advance(48 * time.Hour)

	result, err := f.engine.ExpireOverdue(ctx, f.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Scanned: 2, Expired: 2}, result)

	assert.Equal(t, domain.StatusExpired, f.get(t, lapsedSent.ID).Status)
	assert.Equal(t, domain.StatusExpired, f.get(t, lapsedViewed.ID).Status)
	assert.Equal(t, domain.StatusAccepted, f.get(t, decided.ID).Status)
	assert.Equal(t, domain.StatusDraft, f.get(t, draft.ID).Status)
	assert.Equal(t, domain.StatusSent, f.get(t, fresh.ID).Status)

	again, err := f.engine.ExpireOverdue(ctx, f.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, SweepResult{}, again)
}

func TestExpireOverdue_PagesThroughBatches(t *testing.T) {
	store := memory.New()
	clock := newTestClock()
	engine := NewLifecycleEngine(LifecycleEngineConfig{
		Store:          store,
		Tokens:         token.NewGenerator(),
		Clock:          clock.Now,
		Logger:         discardLogger(),
		SweepBatchSize: 2,
		SweepWorkers:   3,
	})

	d := testDraft()
	d.Tenant = "acme"
	d.Currency = "EUR"

	const total = 7
	for range total {
		q, err := store.Create(context.Background(), domain.NewDraftQuote(d, baseTime, testValidity))
		require.NoError(t, err)

		_, err = engine.Send(context.Background(), q.ID)
		require.NoError(t, err)
	}

	result, err := engine.ExpireOverdue(context.Background(), baseTime.Add(testValidity+time.Minute))
	require.NoError(t, err)
	assert.Equal(t, total, result.Expired)
	assert.Equal(t, total, result.Scanned)

	page, err := store.List(context.Background(), ports.ListQuotesQuery{Status: domain.StatusExpired})
	require.NoError(t, err)
	assert.Len(t, page.Items, total)
}

func TestExpireOverdue_CountsFailuresAndContinues(t *testing.T) {
	store := mocks.NewMockQuoteStore(t)
	now := baseTime.Add(testValidity + time.Hour)

	quote := func(id string) *domain.Quote {
		tok := "tok-" + id
		q := domain.NewDraftQuote(testDraft(), baseTime, testValidity)
		q.ID = id
		q.Status = domain.StatusSent
		q.ResponseToken = &tok

		return q
	}

	ok, broken, moved := quote("QT-ACME-0000000001"), quote("QT-ACME-0000000002"), quote("QT-ACME-0000000003")

	store.EXPECT().ListExpirable(mock.Anything, domain.StatusSent, now, "", defaultSweepBatchSize).
		Return(&ports.QuotePage{Items: []*domain.Quote{ok, broken, moved}}, nil).Once()
	store.EXPECT().ListExpirable(mock.Anything, domain.StatusViewed, now, "", defaultSweepBatchSize).
		Return(&ports.QuotePage{}, nil).Once()

	store.EXPECT().ApplyTransition(mock.Anything, ok.ID, domain.StatusSent, mock.Anything).
		RunAndReturn(func(_ context.Context, _ string, _ domain.Status, mutate ports.TransitionFunc) (*domain.Quote, error) {
			q := ok.Clone()
			if err := mutate(q); err != nil {
				return nil, err
			}

			return q, nil
		}).Once()
	store.EXPECT().ApplyTransition(mock.Anything, broken.ID, domain.StatusSent, mock.Anything).
		Return(nil, domain.NewUnavailableError("quote-store", "connection reset")).Once()
	store.EXPECT().ApplyTransition(mock.Anything, moved.ID, domain.StatusSent, mock.Anything).
		Return(nil, domain.NewStaleStatusError(moved.ID, domain.StatusSent, domain.StatusAccepted)).Once()
	store.EXPECT().AppendEvent(mock.Anything, mock.Anything).Return(nil).Once()

	metrics := mocks.NewMockLifecycleMetrics(t)
	metrics.EXPECT().TransitionRecorded(domain.StatusSent, domain.StatusExpired).Return().Once()
	metrics.EXPECT().SweepCompleted(1, mock.Anything).Return().Once()

	engine := NewLifecycleEngine(LifecycleEngineConfig{
		Store:   store,
		Metrics: metrics,
		Logger:  discardLogger(),
	})

	result, err := engine.ExpireOverdue(context.Background(), now)
	require.Error(t, err)
	assert.True(t, domain.IsUnavailable(err))
	assert.NotErrorIs(t, err, ErrSweepAborted)
	assert.Contains(t, err.Error(), broken.ID)
	assert.Equal(t, SweepResult{Scanned: 3, Expired: 1, Skipped: 1, Failed: 1}, result)
}

func TestExpireOverdue_ListFailure(t *testing.T) {
	store := mocks.NewMockQuoteStore(t)
	store.EXPECT().ListExpirable(mock.Anything, domain.StatusSent, mock.Anything, "", mock.Anything).
		Return(nil, domain.NewUnavailableError("quote-store", "down")).Once()

	engine := NewLifecycleEngine(LifecycleEngineConfig{Store: store, Logger: discardLogger()})

	_, err := engine.ExpireOverdue(context.Background(), baseTime)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSweepAborted)
	assert.True(t, domain.IsUnavailable(err))
}

func TestExpireOverdue_ListFailureAfterQuoteFailures(t *testing.T) {
	store := mocks.NewMockQuoteStore(t)
	now := baseTime.Add(testValidity + time.Hour)

	tok := "tok-broken"
	broken := domain.NewDraftQuote(testDraft(), baseTime, testValidity)
	broken.ID = "QT-ACME-0000000001"
	broken.Status = domain.StatusSent
	broken.ResponseToken = &tok

	store.EXPECT().ListExpirable(mock.Anything, domain.StatusSent, now, "", defaultSweepBatchSize).
		Return(&ports.QuotePage{Items: []*domain.Quote{broken}}, nil).Once()
	store.EXPECT().ApplyTransition(mock.Anything, broken.ID, domain.StatusSent, mock.Anything).
		Return(nil, domain.NewUnavailableError("quote-store", "connection reset")).Once()
	store.EXPECT().ListExpirable(mock.Anything, domain.StatusViewed, now, "", defaultSweepBatchSize).
		Return(nil, domain.NewUnavailableError("quote-store", "down")).Once()

	engine := NewLifecycleEngine(LifecycleEngineConfig{Store: store, Logger: discardLogger()})

	result, err := engine.ExpireOverdue(context.Background(), now)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSweepAborted)
	assert.Contains(t, err.Error(), broken.ID)
	assert.Equal(t, SweepResult{Scanned: 1, Failed: 1}, result)
}

func TestExpireOverdue_SkipsQuotesThatAreNotYetLapsed(t *testing.T) {
	f := newFixture(t)
	sent := f.createSent(t)

	// A store page can be stale by the time the write runs; the mutator
	// re-checks the deadline against the sweep time.
	ok, err := f.engine.expire(context.Background(), sent.ID, domain.StatusSent, baseTime)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, domain.StatusSent, f.get(t, sent.ID).Status)
}

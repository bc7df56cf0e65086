// Package app contains application services that orchestrate use cases.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/quote-lifecycle-service/internal/domain"
	"github.com/jsamuelsen/quote-lifecycle-service/internal/ports"
)

const (
	instrumentationName = "github.com/jsamuelsen/quote-lifecycle-service/internal/app"

	// maxTransitionAttempts bounds re-reads after a lost compare-and-set and
	// token regenerations after a collision.
	maxTransitionAttempts = 3

	defaultSweepBatchSize = 100
	defaultSweepWorkers   = 4
)

// Clock returns the current time. Tests inject a fixed clock.
type Clock func() time.Time

// LifecycleEngine owns the quote state machine. Every status change goes
// through ports.QuoteStore.ApplyTransition.
type LifecycleEngine struct {
	store       ports.QuoteStore
	tokens      ports.TokenGenerator
	attachments ports.AttachmentChecker
	metrics     ports.LifecycleMetrics
	events      *eventRecorder
	clock       Clock
	logger      *slog.Logger
	tracer      trace.Tracer

	sweepBatchSize int
	sweepWorkers   int
}

// LifecycleEngineConfig contains the engine's dependencies.
type LifecycleEngineConfig struct {
	Store  ports.QuoteStore
	Tokens ports.TokenGenerator
	// Attachments is optional; nil skips the reference check on send.
	Attachments ports.AttachmentChecker
	// Publisher is optional; nil records events to the store only.
	Publisher ports.EventPublisher
	Metrics   ports.LifecycleMetrics
	Clock     Clock
	Logger    *slog.Logger

	SweepBatchSize int
	SweepWorkers   int
}

// NewLifecycleEngine creates an engine with the provided dependencies.
func NewLifecycleEngine(cfg LifecycleEngineConfig) *LifecycleEngine {
	if cfg.Metrics == nil {
		cfg.Metrics = ports.NopMetrics{}
	}

	if cfg.Clock == nil {
		cfg.Clock = func() time.Time { return time.Now().UTC() }
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	if cfg.SweepBatchSize <= 0 {
		cfg.SweepBatchSize = defaultSweepBatchSize
	}

	if cfg.SweepWorkers <= 0 {
		cfg.SweepWorkers = defaultSweepWorkers
	}

	return &LifecycleEngine{
		store:       cfg.Store,
		tokens:      cfg.Tokens,
		attachments: cfg.Attachments,
		metrics:     cfg.Metrics,
		events: &eventRecorder{
			store:     cfg.Store,
			publisher: cfg.Publisher,
			metrics:   cfg.Metrics,
			logger:    cfg.Logger,
		},
		clock:          cfg.Clock,
		logger:         cfg.Logger,
		tracer:         otel.Tracer(instrumentationName),
		sweepBatchSize: cfg.SweepBatchSize,
		sweepWorkers:   cfg.SweepWorkers,
	}
}

// Now returns the engine's current time.
func (e *LifecycleEngine) Now() time.Time {
	return e.clock()
}

// Send moves a draft to sent, issuing its response token. A quote that is
// no longer a draft fails with an InvalidTransitionError carrying its
// current state.
func (e *LifecycleEngine) Send(ctx context.Context, id string) (q *domain.Quote, err error) {
	ctx, span := e.startSpan(ctx, "LifecycleEngine.Send", attribute.String("quote.id", id))
	defer func() { endSpan(span, err) }()

	current, err := e.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if current.Status != domain.StatusDraft {
		return nil, domain.NewInvalidTransitionError(current, "send")
	}

	if err := e.checkAttachments(ctx, current); err != nil {
		return nil, err
	}

	for range maxTransitionAttempts {
		token, err := e.tokens.Generate()
		if err != nil {
			return nil, fmt.Errorf("generating response token: %w", err)
		}

		sent, err := e.store.ApplyTransition(ctx, id, domain.StatusDraft, func(q *domain.Quote) error {
			q.Status = domain.StatusSent
			if q.ResponseToken == nil {
				q.ResponseToken = &token
			}

			return nil
		})

		switch {
		case err == nil:
			e.events.record(ctx, sent, domain.StatusDraft, domain.ActorStaff, e.clock())
			e.logger.InfoContext(ctx, "quote sent", slog.String("quote_id", id))

			return sent, nil

		case errors.Is(err, domain.ErrTokenCollision):
			e.metrics.TokenCollision()
			e.logger.WarnContext(ctx, "response token collision, regenerating", slog.String("quote_id", id))

		case errors.Is(err, domain.ErrStaleStatus):
			latest, getErr := e.store.GetByID(ctx, id)
			if getErr != nil {
				return nil, getErr
			}

			if latest.Status != domain.StatusDraft {
				return nil, domain.NewInvalidTransitionError(latest, "send")
			}

		default:
			return nil, err
		}
	}

	return nil, domain.NewUnavailableError("quote-store", "send did not commit after retries")
}

func (e *LifecycleEngine) checkAttachments(ctx context.Context, q *domain.Quote) error {
	if e.attachments == nil {
		return nil
	}

	for _, ref := range q.Attachments {
		ok, err := e.attachments.Exists(ctx, ref)
		if err != nil {
			return fmt.Errorf("checking attachment %q: %w", ref, err)
		}

		if !ok {
			return domain.NewValidationErrorWithValue("attachments", "referenced file does not exist", ref)
		}
	}

	return nil
}

// RecordClientView marks a sent quote as viewed. Repeat views of a viewed
// quote succeed without writing. A terminal quote fails with
// ErrQuoteNotRespondable and the error carries its final state.
func (e *LifecycleEngine) RecordClientView(ctx context.Context, token string) (q *domain.Quote, err error) {
	ctx, span := e.startSpan(ctx, "LifecycleEngine.RecordClientView")
	defer func() { endSpan(span, err) }()

	for range maxTransitionAttempts {
		current, err := e.store.GetByToken(ctx, token)
		if err != nil {
			return nil, err
		}

		switch {
		case current.Status == domain.StatusViewed:
			return current, nil
		case current.Status.IsTerminal():
			return nil, domain.NewQuoteNotRespondableError(current)
		case current.Status != domain.StatusSent:
			return nil, domain.NewInvalidTransitionError(current, "view")
		}

		now := e.clock()

		viewed, err := e.store.ApplyTransition(ctx, current.ID, domain.StatusSent, func(q *domain.Quote) error {
			q.Status = domain.StatusViewed
			q.ViewedAt = &now

			return nil
		})
		if errors.Is(err, domain.ErrStaleStatus) {
			continue
		}

		if err != nil {
			return nil, err
		}

		e.events.record(ctx, viewed, domain.StatusSent, domain.ActorClient, now)

		return viewed, nil
	}

	return nil, domain.NewUnavailableError("quote-store", "view did not commit after retries")
}

// RecordClientResponse records an accept or reject decision. The expiry
// check runs inside the compare-and-set so a response can never commit on a
// quote that has lapsed, whether or not the sweep has run.
func (e *LifecycleEngine) RecordClientResponse(
	ctx context.Context,
	token string,
	decision domain.Decision,
) (q *domain.Quote, err error) {
	ctx, span := e.startSpan(ctx, "LifecycleEngine.RecordClientResponse",
		attribute.String("quote.decision", string(decision)))
	defer func() { endSpan(span, err) }()

	for range maxTransitionAttempts {
		current, err := e.store.GetByToken(ctx, token)
		if err != nil {
			return nil, err
		}

		switch {
		case current.Status.IsDecided():
			return nil, domain.NewAlreadyDecidedError(current)
		case current.Status == domain.StatusExpired:
			return nil, domain.NewQuoteExpiredError(current)
		case !current.Status.IsAwaitingClient():
			return nil, domain.NewInvalidTransitionError(current, "respond")
		}

		now := e.clock()
		from := current.Status

		decided, err := e.store.ApplyTransition(ctx, current.ID, from, func(q *domain.Quote) error {
			if q.HasLapsed(now) {
				return domain.NewQuoteExpiredError(q.Clone())
			}

			if q.ViewedAt == nil {
				q.ViewedAt = &now
			}

			q.Status = decision.Status()
			q.RespondedAt = &now

			return nil
		})
		if errors.Is(err, domain.ErrStaleStatus) {
			continue
		}

		if err != nil {
			return nil, err
		}

		e.events.record(ctx, decided, from, domain.ActorClient, now)
		e.logger.InfoContext(ctx, "client responded to quote",
			slog.String("quote_id", decided.ID),
			slog.String("status", string(decided.Status)),
		)

		return decided, nil
	}

	return nil, domain.NewUnavailableError("quote-store", "response did not commit after retries")
}

// SweepResult summarizes one ExpireOverdue run.
type SweepResult struct {
	Scanned int `json:"scanned"`
	Expired int `json:"expired"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// ExpireOverdue expires every sent or viewed quote whose ExpiresAt is before
// now. Quotes that reach another status first are skipped. Per-quote store
// failures are counted and joined into the returned error; the sweep keeps
// going.
func (e *LifecycleEngine) ExpireOverdue(ctx context.Context, now time.Time) (result SweepResult, err error) {
	ctx, span := e.startSpan(ctx, "LifecycleEngine.ExpireOverdue")
	defer func() { endSpan(span, err) }()

	start := time.Now()

	var (
		scanned, expired, skipped, failed atomic.Int64
		mu                                sync.Mutex
		failures                          []error
	)

	for _, status := range []domain.Status{domain.StatusSent, domain.StatusViewed} {
		cursor := ""

		for {
			page, err := e.store.ListExpirable(ctx, status, now, cursor, e.sweepBatchSize)
			if err != nil {
				return sweepResult(&scanned, &expired, &skipped, &failed),
					errors.Join(fmt.Errorf("%w: listing %s quotes: %w", ErrSweepAborted, status, err), errors.Join(failures...))
			}

			scanned.Add(int64(len(page.Items)))

			err = FanOut(ctx, e.sweepWorkers, page.Items, func(ctx context.Context, q *domain.Quote) error {
				ok, err := e.expire(ctx, q.ID, status, now)

				switch {
				case err != nil:
					failed.Add(1)
					mu.Lock()
					failures = append(failures, fmt.Errorf("expiring %s: %w", q.ID, err))
					mu.Unlock()
				case ok:
					expired.Add(1)
				default:
					skipped.Add(1)
				}

				return ctx.Err()
			})
			if err != nil {
				return sweepResult(&scanned, &expired, &skipped, &failed),
					errors.Join(fmt.Errorf("%w: %w", ErrSweepAborted, err), errors.Join(failures...))
			}

			if page.NextCursor == "" {
				break
			}

			cursor = page.NextCursor
		}
	}

	result = sweepResult(&scanned, &expired, &skipped, &failed)
	e.metrics.SweepCompleted(result.Expired, time.Since(start))

	if result.Expired > 0 || result.Failed > 0 {
		e.logger.InfoContext(ctx, "expiry sweep completed",
			slog.Int("scanned", result.Scanned),
			slog.Int("expired", result.Expired),
			slog.Int("skipped", result.Skipped),
			slog.Int("failed", result.Failed),
		)
	}

	return result, errors.Join(failures...)
}

// expire reports false when the quote left status before the write landed.
func (e *LifecycleEngine) expire(ctx context.Context, id string, status domain.Status, now time.Time) (bool, error) {
	q, err := e.store.ApplyTransition(ctx, id, status, func(q *domain.Quote) error {
		if !q.HasLapsed(now) {
			return errNotLapsed
		}

		q.Status = domain.StatusExpired

		return nil
	})

	switch {
	case errors.Is(err, domain.ErrStaleStatus), errors.Is(err, errNotLapsed), domain.IsNotFound(err):
		return false, nil
	case err != nil:
		return false, err
	}

	e.events.record(ctx, q, status, domain.ActorSystem, now)

	return true, nil
}

var errNotLapsed = errors.New("quote has not lapsed")

// ErrSweepAborted marks an ExpireOverdue run that stopped before visiting
// every overdue quote. Per-quote failures alone do not carry it.
var ErrSweepAborted = errors.New("expiry sweep aborted")

func sweepResult(scanned, expired, skipped, failed *atomic.Int64) SweepResult {
	return SweepResult{
		Scanned: int(scanned.Load()),
		Expired: int(expired.Load()),
		Skipped: int(skipped.Load()),
		Failed:  int(failed.Load()),
	}
}

func (e *LifecycleEngine) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return e.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// endSpan marks only infrastructure failures as span errors. Business
// outcomes such as an expired quote are expected results.
func endSpan(span trace.Span, err error) {
	if err != nil && !isBusinessOutcome(err) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	span.End()
}

func isBusinessOutcome(err error) bool {
	return domain.IsNotFound(err) || domain.IsConflict(err) || domain.IsValidation(err)
}

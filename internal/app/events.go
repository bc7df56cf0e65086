package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/jsamuelsen/quote-lifecycle-service/internal/domain"
	"github.com/jsamuelsen/quote-lifecycle-service/internal/ports"
)

// eventRecorder runs after a transition has committed. Audit and
// notification failures are logged and never undo or fail the transition.
type eventRecorder struct {
	store     ports.QuoteStore
	publisher ports.EventPublisher
	metrics   ports.LifecycleMetrics
	logger    *slog.Logger
}

func (r *eventRecorder) record(ctx context.Context, q *domain.Quote, from domain.Status, actor domain.Actor, at time.Time) {
	r.metrics.TransitionRecorded(from, q.Status)

	event := domain.NewLifecycleEvent(q, actor, at)

	// The transition is durable; finish bookkeeping even if the caller has gone.
	ctx = context.WithoutCancel(ctx)

	if err := r.store.AppendEvent(ctx, event); err != nil {
		r.logger.WarnContext(ctx, "failed to append lifecycle event",
			slog.String("quote_id", q.ID),
			slog.String("event_type", event.EventType()),
			slog.Any("error", err),
		)
	}

	if r.publisher == nil {
		return
	}

	if err := r.publisher.Publish(ctx, event); err != nil {
		r.logger.WarnContext(ctx, "failed to publish lifecycle event",
			slog.String("quote_id", q.ID),
			slog.String("event_type", event.EventType()),
			slog.Any("error", err),
		)
	}
}

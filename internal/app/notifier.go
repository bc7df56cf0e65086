package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jsamuelsen/quote-lifecycle-service/internal/ports"
)

// Notification outcomes reported to LifecycleMetrics.
const (
	NotificationDelivered = "delivered"
	NotificationFailed    = "failed"
	NotificationDropped   = "dropped"
)

// Notifier decouples lifecycle transitions from notification delivery.
// Publish only enqueues; Run delivers each event to every sink. A full
// queue drops the event with a warning instead of blocking the caller.
type Notifier struct {
	queue   chan ports.Event
	sinks   []ports.EventPublisher
	timeout time.Duration
	metrics ports.LifecycleMetrics
	logger  *slog.Logger

	closeOnce sync.Once
	done      chan struct{}
}

// NotifierConfig configures a Notifier.
type NotifierConfig struct {
	Sinks     []ports.EventPublisher
	QueueSize int
	// Timeout bounds one delivery to one sink.
	Timeout time.Duration
	Metrics ports.LifecycleMetrics
	Logger  *slog.Logger
}

var _ ports.EventPublisher = (*Notifier)(nil)

// NewNotifier creates a notifier. Call Run to start delivery.
func NewNotifier(cfg NotifierConfig) *Notifier {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	if cfg.Metrics == nil {
		cfg.Metrics = ports.NopMetrics{}
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Notifier{
		queue:   make(chan ports.Event, cfg.QueueSize),
		sinks:   cfg.Sinks,
		timeout: cfg.Timeout,
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
		done:    make(chan struct{}),
	}
}

// Publish enqueues event without blocking. It never returns an error so
// that a transition can never fail because of notification delivery.
func (n *Notifier) Publish(ctx context.Context, event ports.Event) error {
	select {
	case n.queue <- event:
	default:
		n.metrics.NotificationPublished(event.EventType(), NotificationDropped)
		n.logger.WarnContext(ctx, "notification queue full, dropping event",
			slog.String("event_type", event.EventType()),
		)
	}

	return nil
}

// Run delivers queued events until ctx is cancelled, then drains what is
// already queued before returning.
func (n *Notifier) Run(ctx context.Context) error {
	defer n.closeOnce.Do(func() { close(n.done) })

	for {
		select {
		case event := <-n.queue:
			n.deliver(ctx, event)
		case <-ctx.Done():
			n.drain()
			return nil
		}
	}
}

// Done is closed once Run has returned.
func (n *Notifier) Done() <-chan struct{} {
	return n.done
}

func (n *Notifier) drain() {
	ctx := context.Background()

	for {
		select {
		case event := <-n.queue:
			n.deliver(ctx, event)
		default:
			return
		}
	}
}

func (n *Notifier) deliver(ctx context.Context, event ports.Event) {
	for _, sink := range n.sinks {
		sinkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
		err := sink.Publish(sinkCtx, event)

		cancel()

		if err != nil {
			n.metrics.NotificationPublished(event.EventType(), NotificationFailed)
			n.logger.WarnContext(ctx, "notification delivery failed",
				slog.String("event_type", event.EventType()),
				slog.Any("error", err),
			)

			continue
		}

		n.metrics.NotificationPublished(event.EventType(), NotificationDelivered)
	}
}

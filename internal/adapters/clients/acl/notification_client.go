package acl

import (
	"context"
	"log/slog"
	"time"

	"github.com/jsamuelsen/quote-lifecycle-service/internal/adapters/clients"
	"github.com/jsamuelsen/quote-lifecycle-service/internal/domain"
	"github.com/jsamuelsen/quote-lifecycle-service/internal/platform/logging"
	"github.com/jsamuelsen/quote-lifecycle-service/internal/ports"
)

const eventsPath = "/events"

// NotificationClient posts lifecycle events to the notification webhook.
type NotificationClient struct {
	BaseAdapter
	logger *slog.Logger
}

var (
	_ ports.EventPublisher = (*NotificationClient)(nil)
	_ ports.HealthChecker  = (*NotificationClient)(nil)
)

// NewNotificationClient creates the webhook adapter.
func NewNotificationClient(client *clients.Client, logger *slog.Logger) *NotificationClient {
	if logger == nil {
		logger = slog.Default()
	}

	return &NotificationClient{BaseAdapter: NewBaseAdapter(client), logger: logger}
}

// notificationRequest is the webhook body. The collaborator deduplicates on ID.
type notificationRequest struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	QuoteID    string `json:"quoteId"`
	Tenant     string `json:"tenant"`
	Status     string `json:"status"`
	Actor      string `json:"actor"`
	OccurredAt string `json:"occurredAt"`
}

func toNotificationRequest(event ports.Event) notificationRequest {
	if e, ok := event.Payload().(domain.LifecycleEvent); ok {
		return notificationRequest{
			ID:         e.ID,
			Type:       string(e.Type),
			QuoteID:    e.QuoteID,
			Tenant:     e.Tenant,
			Status:     string(e.Status),
			Actor:      string(e.Actor),
			OccurredAt: e.OccurredAt.UTC().Format(time.RFC3339Nano),
		}
	}

	return notificationRequest{Type: event.EventType()}
}

// Publish implements ports.EventPublisher.
func (c *NotificationClient) Publish(ctx context.Context, event ports.Event) error {
	body := toNotificationRequest(event)

	c.logger.Log(ctx, logging.LevelTrace, "posting lifecycle event",
		slog.String("event_type", body.Type),
		slog.String("quote_id", body.QuoteID),
	)

	resp, err := c.client.PostJSON(ctx, eventsPath, body)

	return c.check(resp, err, "publish "+body.Type, body.QuoteID)
}

// Name implements ports.HealthChecker.
func (c *NotificationClient) Name() string {
	return c.serviceName
}

// Check implements ports.HealthChecker.
func (c *NotificationClient) Check(ctx context.Context) error {
	return c.ping(ctx, "/health")
}

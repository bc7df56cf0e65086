package acl

import (
	"context"
	"errors"
	"net/url"

	"github.com/jsamuelsen/quote-lifecycle-service/internal/adapters/clients"
	"github.com/jsamuelsen/quote-lifecycle-service/internal/domain"
	"github.com/jsamuelsen/quote-lifecycle-service/internal/ports"
)

// AttachmentClient asks attachment storage whether file references exist.
type AttachmentClient struct {
	BaseAdapter
}

var (
	_ ports.AttachmentChecker = (*AttachmentClient)(nil)
	_ ports.HealthChecker     = (*AttachmentClient)(nil)
)

// NewAttachmentClient creates the attachment storage adapter.
func NewAttachmentClient(client *clients.Client) *AttachmentClient {
	return &AttachmentClient{BaseAdapter: NewBaseAdapter(client)}
}

// Exists implements ports.AttachmentChecker. A 404 means the reference is
// missing; any other failure is reported as an error.
func (c *AttachmentClient) Exists(ctx context.Context, ref string) (bool, error) {
	if ref == "" {
		return false, domain.NewValidationError("attachments", "reference must not be empty")
	}

	resp, err := c.client.Head(ctx, "/files/"+url.PathEscape(ref))

	err = c.check(resp, err, "check attachment", ref)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, domain.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Name implements ports.HealthChecker.
func (c *AttachmentClient) Name() string {
	return c.serviceName
}

// Check implements ports.HealthChecker.
func (c *AttachmentClient) Check(ctx context.Context) error {
	return c.ping(ctx, "/health")
}

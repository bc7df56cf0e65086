package acl

import (
	"context"
	"net/http"

	"github.com/jsamuelsen/quote-lifecycle-service/internal/adapters/clients"
)

// BaseAdapter holds what every collaborator adapter needs: the instrumented
// client and the collaborator's name for error context.
type BaseAdapter struct {
	client      *clients.Client
	serviceName string
}

// NewBaseAdapter creates a base adapter. It panics if client is nil.
func NewBaseAdapter(client *clients.Client) BaseAdapter {
	if client == nil {
		panic("acl: client is required")
	}

	return BaseAdapter{client: client, serviceName: client.ServiceName()}
}

// ServiceName returns the collaborator name.
func (a *BaseAdapter) ServiceName() string {
	return a.serviceName
}

// check converts the outcome of a call into nil or a domain error and always
// releases the response.
func (a *BaseAdapter) check(resp *http.Response, err error, operation, entityID string) error {
	if err != nil {
		return MapHTTPError(nil, err, a.serviceName, operation, entityID)
	}

	defer func() { _ = resp.Body.Close() }()

	return MapHTTPError(resp, nil, a.serviceName, operation, entityID)
}

// ping issues a GET against path and reports any non-2xx as a domain error.
func (a *BaseAdapter) ping(ctx context.Context, path string) error {
	resp, err := a.client.Get(ctx, path)

	return a.check(resp, err, "health check", "")
}

// Package acl is the anti-corruption layer between the quote service and its
// HTTP collaborators.
//
// Adapters here own the wire formats of the notification webhook and the
// attachment store. Nothing outside this package sees a collaborator DTO or
// an HTTP status code: responses are translated into domain types and every
// failure into a domain error.
//
//   - 404 becomes [domain.ErrNotFound]
//   - 409 becomes [domain.ErrConflict]
//   - 400 and 422 become [domain.ErrValidation]
//   - 401 and 403 become [domain.ErrForbidden]
//   - 429, 5xx, transport failures, [clients.ErrCircuitOpen] and
//     [clients.ErrMaxRetriesExceeded] become [domain.ErrUnavailable]
package acl

// Package domain contains business logic types and errors.
// Domain errors represent business-level failures, NOT HTTP errors.
// They are infrastructure-agnostic and can be mapped to HTTP/gRPC/etc by adapters.
package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a state conflict such as duplicate entry or version mismatch.
	ErrConflict = errors.New("conflict")

	// ErrValidation indicates business rule validation failed.
	ErrValidation = errors.New("validation failed")

	// ErrForbidden indicates the operation is not permitted by business rules.
	ErrForbidden = errors.New("forbidden")

	// ErrUnavailable indicates a required dependency is unavailable.
	ErrUnavailable = errors.New("unavailable")
)

// Quote lifecycle sentinels. Each typed error below unwraps to its specific
// sentinel and to one of the general classes above.
var (
	// ErrInvalidTransition indicates the requested transition is not legal from the current status.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrTokenNotFound indicates a response token does not resolve to any quote.
	ErrTokenNotFound = errors.New("token not found")

	// ErrQuoteNotRespondable indicates a client touched a quote that is already terminal.
	ErrQuoteNotRespondable = errors.New("quote not respondable")

	// ErrAlreadyDecided indicates a response arrived for an accepted or rejected quote.
	ErrAlreadyDecided = errors.New("quote already decided")

	// ErrQuoteExpired indicates a response arrived after the quote lapsed.
	ErrQuoteExpired = errors.New("quote expired")

	// ErrTokenCollision indicates the store already holds the generated token.
	// Handled by regeneration inside the lifecycle engine; never surfaced.
	ErrTokenCollision = errors.New("token collision")

	// ErrStaleStatus indicates a compare-and-set transition observed a different status.
	ErrStaleStatus = errors.New("stale quote status")

	// ErrInvariantViolation indicates a broken storage invariant (duplicate id, bad record).
	ErrInvariantViolation = errors.New("invariant violation")
)

// NotFoundError provides context for not found errors.
type NotFoundError struct {
	Entity string
	ID     string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s with id %q not found", e.Entity, e.ID)
	}

	return e.Entity + " not found"
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// NewNotFoundError creates a not found error with context.
func NewNotFoundError(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// ConflictError provides context for conflict errors.
type ConflictError struct {
	Entity  string
	Reason  string
	Details string
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s conflict: %s (%s)", e.Entity, e.Reason, e.Details)
	}

	return fmt.Sprintf("%s conflict: %s", e.Entity, e.Reason)
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

// NewConflictError creates a conflict error with context.
func NewConflictError(entity, reason string) error {
	return &ConflictError{Entity: entity, Reason: reason}
}

// ValidationError provides context for validation errors.
type ValidationError struct {
	Field   string
	Message string
	Value   any
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}

	return "validation failed: " + e.Message
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError creates a validation error with context.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewValidationErrorWithValue creates a validation error including the invalid value.
func NewValidationErrorWithValue(field, message string, value any) error {
	return &ValidationError{Field: field, Message: message, Value: value}
}

// ForbiddenError provides context for forbidden errors.
type ForbiddenError struct {
	Operation string
	Reason    string
}

// Error implements the error interface.
func (e *ForbiddenError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("operation %q forbidden: %s", e.Operation, e.Reason)
	}

	return fmt.Sprintf("operation %q forbidden", e.Operation)
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *ForbiddenError) Unwrap() error {
	return ErrForbidden
}

// NewForbiddenError creates a forbidden error with context.
func NewForbiddenError(operation, reason string) error {
	return &ForbiddenError{Operation: operation, Reason: reason}
}

// UnavailableError provides context for unavailable errors.
type UnavailableError struct {
	Service string
	Reason  string
}

// Error implements the error interface.
func (e *UnavailableError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("service %q unavailable: %s", e.Service, e.Reason)
	}

	return fmt.Sprintf("service %q unavailable", e.Service)
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *UnavailableError) Unwrap() error {
	return ErrUnavailable
}

// NewUnavailableError creates an unavailable error with context.
func NewUnavailableError(service, reason string) error {
	return &UnavailableError{Service: service, Reason: reason}
}

// InvalidTransitionError reports an action attempted from a status that does not allow it.
// Quote carries the current record so callers can refresh their view.
type InvalidTransitionError struct {
	QuoteID string
	From    Status
	Action  string
	Quote   *Quote
}

// Error implements the error interface.
func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("quote %s: cannot %s from status %q", e.QuoteID, e.Action, e.From)
}

// Unwrap supports errors.Is for both ErrInvalidTransition and ErrConflict.
func (e *InvalidTransitionError) Unwrap() []error {
	return []error{ErrInvalidTransition, ErrConflict}
}

// NewInvalidTransitionError creates an invalid transition error for q.
func NewInvalidTransitionError(q *Quote, action string) error {
	return &InvalidTransitionError{QuoteID: q.ID, From: q.Status, Action: action, Quote: q}
}

// TokenNotFoundError is returned when a response token resolves to nothing.
// The token itself is deliberately not part of the message.
type TokenNotFoundError struct{}

// Error implements the error interface.
func (e *TokenNotFoundError) Error() string {
	return "quote not found for token"
}

// Unwrap supports errors.Is for both ErrTokenNotFound and ErrNotFound.
func (e *TokenNotFoundError) Unwrap() []error {
	return []error{ErrTokenNotFound, ErrNotFound}
}

// NewTokenNotFoundError creates a token not found error.
func NewTokenNotFoundError() error {
	return &TokenNotFoundError{}
}

// TerminalQuoteError reports a client action against a quote in a terminal status.
// Kind is one of ErrQuoteNotRespondable, ErrAlreadyDecided or ErrQuoteExpired.
type TerminalQuoteError struct {
	Kind  error
	Quote *Quote
}

// Error implements the error interface.
func (e *TerminalQuoteError) Error() string {
	return fmt.Sprintf("quote %s: %v (status %q)", e.Quote.ID, e.Kind, e.Quote.Status)
}

// Unwrap supports errors.Is for the specific kind and ErrConflict.
func (e *TerminalQuoteError) Unwrap() []error {
	return []error{e.Kind, ErrConflict}
}

// NewQuoteNotRespondableError creates an error for viewing a terminal quote.
func NewQuoteNotRespondableError(q *Quote) error {
	return &TerminalQuoteError{Kind: ErrQuoteNotRespondable, Quote: q}
}

// NewAlreadyDecidedError creates an error for responding to an accepted or rejected quote.
func NewAlreadyDecidedError(q *Quote) error {
	return &TerminalQuoteError{Kind: ErrAlreadyDecided, Quote: q}
}

// NewQuoteExpiredError creates an error for responding to a lapsed quote.
func NewQuoteExpiredError(q *Quote) error {
	return &TerminalQuoteError{Kind: ErrQuoteExpired, Quote: q}
}

// StaleStatusError is returned by a compare-and-set transition whose expected
// status no longer matches the stored record.
type StaleStatusError struct {
	QuoteID  string
	Expected Status
	Actual   Status
}

// Error implements the error interface.
func (e *StaleStatusError) Error() string {
	return fmt.Sprintf("quote %s: expected status %q, found %q", e.QuoteID, e.Expected, e.Actual)
}

// Unwrap supports errors.Is for both ErrStaleStatus and ErrConflict.
func (e *StaleStatusError) Unwrap() []error {
	return []error{ErrStaleStatus, ErrConflict}
}

// NewStaleStatusError creates a stale status error.
func NewStaleStatusError(id string, expected, actual Status) error {
	return &StaleStatusError{QuoteID: id, Expected: expected, Actual: actual}
}

// InvariantError reports a storage-level invariant breach. It is treated as a
// programming error and is never mapped to a client-facing conflict.
type InvariantError struct {
	Entity string
	Reason string
}

// Error implements the error interface.
func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s invariant violated: %s", e.Entity, e.Reason)
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *InvariantError) Unwrap() error {
	return ErrInvariantViolation
}

// NewInvariantError creates an invariant error with context.
func NewInvariantError(entity, reason string) error {
	return &InvariantError{Entity: entity, Reason: reason}
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict checks if an error is a conflict error.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsForbidden checks if an error is a forbidden error.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsUnavailable checks if an error is an unavailable error.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// QuoteFromError extracts the quote snapshot carried by lifecycle errors, if any.
func QuoteFromError(err error) (*Quote, bool) {
	var terminal *TerminalQuoteError
	if errors.As(err, &terminal) && terminal.Quote != nil {
		return terminal.Quote, true
	}

	var invalid *InvalidTransitionError
	if errors.As(err, &invalid) && invalid.Quote != nil {
		return invalid.Quote, true
	}

	return nil, false
}

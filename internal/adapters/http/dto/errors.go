// Package dto provides Data Transfer Objects for HTTP request/response handling.
package dto

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/quote-lifecycle-service/internal/domain"
	"github.com/jsamuelsen/quote-lifecycle-service/internal/platform/logging"
)

// ErrorResponse is the standard error envelope for all error responses.
type ErrorResponse struct {
	Error   ErrorDetail `json:"error"`
	TraceID string      `json:"traceId,omitempty"`
}

// ErrorDetail contains the error information.
type ErrorDetail struct {
	// Code is a stable machine-readable error code.
	Code string `json:"code"`

	// Message is a human-readable error message.
	Message string `json:"message"`

	// Details carries field errors or, for lifecycle conflicts, the quote's
	// final status.
	Details map[string]string `json:"details,omitempty"`
}

// Error codes. The client-facing gateway only ever returns NOT_FOUND,
// ALREADY_DECIDED, QUOTE_EXPIRED, TRANSIENT_ERROR and VALIDATION_ERROR.
const (
	ErrorCodeNotFound          = "NOT_FOUND"
	ErrorCodeAlreadyDecided    = "ALREADY_DECIDED"
	ErrorCodeQuoteExpired      = "QUOTE_EXPIRED"
	ErrorCodeInvalidTransition = "INVALID_TRANSITION"
	ErrorCodeConflict          = "CONFLICT"
	ErrorCodeValidation        = "VALIDATION_ERROR"
	ErrorCodeForbidden         = "FORBIDDEN"
	ErrorCodeUnauthorized      = "UNAUTHORIZED"
	ErrorCodeTransient         = "TRANSIENT_ERROR"
	ErrorCodeInternal          = "INTERNAL_ERROR"
	ErrorCodeTimeout           = "TIMEOUT"
	ErrorCodeBadRequest        = "BAD_REQUEST"
)

const (
	messageTransient = "the service is temporarily unavailable, please retry"
	messageInternal  = "an internal error occurred"
)

// NewErrorResponse creates a new error response with the given code and message.
func NewErrorResponse(code, message string) *ErrorResponse {
	return &ErrorResponse{Error: ErrorDetail{Code: code, Message: message}}
}

// NewErrorResponseWithDetails creates an error response with additional details.
func NewErrorResponseWithDetails(code, message string, details map[string]string) *ErrorResponse {
	return &ErrorResponse{Error: ErrorDetail{Code: code, Message: message, Details: details}}
}

// WithTraceID adds a trace ID to the error response.
func (e *ErrorResponse) WithTraceID(traceID string) *ErrorResponse {
	e.TraceID = traceID
	return e
}

// HTTPStatusFromCode maps error codes to HTTP status codes.
func HTTPStatusFromCode(code string) int {
	switch code {
	case ErrorCodeNotFound:
		return http.StatusNotFound
	case ErrorCodeAlreadyDecided, ErrorCodeInvalidTransition, ErrorCodeConflict:
		return http.StatusConflict
	case ErrorCodeQuoteExpired:
		return http.StatusGone
	case ErrorCodeValidation, ErrorCodeBadRequest:
		return http.StatusBadRequest
	case ErrorCodeForbidden:
		return http.StatusForbidden
	case ErrorCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrorCodeTransient, ErrorCodeTimeout:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// MapError translates an error from the application layer into a status and
// envelope. Lifecycle outcomes are checked before the general classes they
// unwrap to. Infrastructure detail never reaches the message.
func MapError(err error) (int, *ErrorResponse) {
	var resp *ErrorResponse

	switch {
	case errors.Is(err, domain.ErrAlreadyDecided):
		resp = NewErrorResponse(ErrorCodeAlreadyDecided, "the quote has already been decided")
	case errors.Is(err, domain.ErrQuoteExpired):
		resp = NewErrorResponse(ErrorCodeQuoteExpired, "the quote has expired")
	case errors.Is(err, domain.ErrQuoteNotRespondable):
		resp = NewErrorResponse(ErrorCodeAlreadyDecided, "the quote is closed")
		if q, ok := domain.QuoteFromError(err); ok && q.Status == domain.StatusExpired {
			resp = NewErrorResponse(ErrorCodeQuoteExpired, "the quote has expired")
		}
	case errors.Is(err, domain.ErrInvalidTransition):
		resp = NewErrorResponse(ErrorCodeInvalidTransition, err.Error())
	case domain.IsNotFound(err):
		resp = NewErrorResponse(ErrorCodeNotFound, err.Error())
	case domain.IsValidation(err):
		resp = NewErrorResponse(ErrorCodeValidation, err.Error())

		var validationErr *domain.ValidationError
		if errors.As(err, &validationErr) && validationErr.Field != "" {
			resp.Error.Details = map[string]string{validationErr.Field: validationErr.Message}
		}
	case domain.IsForbidden(err):
		resp = NewErrorResponse(ErrorCodeForbidden, "operation not permitted")
	case domain.IsConflict(err):
		resp = NewErrorResponse(ErrorCodeConflict, "the quote was changed concurrently, please retry")
	case domain.IsUnavailable(err), errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		resp = NewErrorResponse(ErrorCodeTransient, messageTransient)
	default:
		resp = NewErrorResponse(ErrorCodeInternal, messageInternal)
	}

	if q, ok := domain.QuoteFromError(err); ok {
		if resp.Error.Details == nil {
			resp.Error.Details = map[string]string{}
		}

		resp.Error.Details["status"] = string(q.Status)
	}

	return HTTPStatusFromCode(resp.Error.Code), resp
}

// HandleError writes the mapped error response. Server-side failures are
// logged with the full error; the response carries only the trace id.
func HandleError(c *gin.Context, err error) {
	status, resp := MapError(err)
	resp.TraceID = GetTraceID(c)

	if status >= http.StatusInternalServerError {
		level := slog.LevelError
		if status == http.StatusServiceUnavailable {
			level = slog.LevelWarn
		}

		logging.FromContext(c.Request.Context()).Log(c.Request.Context(), level, "request failed",
			slog.String("route", c.FullPath()),
			slog.Int("status", status),
			slog.Any("error", err),
		)
	}

	c.AbortWithStatusJSON(status, resp)
}

// HandleValidationError writes a 400 for request binding or validation
// failures, with field details when available.
func HandleValidationError(c *gin.Context, err error) {
	details := ValidationErrors(err)

	resp := NewErrorResponseWithDetails(ErrorCodeValidation, "request validation failed", details)
	if len(details) == 0 {
		resp = NewErrorResponse(ErrorCodeBadRequest, "malformed request body")
	}

	resp.TraceID = GetTraceID(c)
	c.AbortWithStatusJSON(http.StatusBadRequest, resp)
}

// AbortWithCode aborts the chain with an error envelope for code.
func AbortWithCode(c *gin.Context, code, message string) {
	resp := NewErrorResponse(code, message).WithTraceID(GetTraceID(c))
	c.AbortWithStatusJSON(HTTPStatusFromCode(code), resp)
}

// GetTraceID returns the active trace id or "".
func GetTraceID(c *gin.Context) string {
	if span := trace.SpanFromContext(c.Request.Context()); span.SpanContext().HasTraceID() {
		return span.SpanContext().TraceID().String()
	}

	return ""
}

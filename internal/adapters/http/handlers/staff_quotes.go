package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-lifecycle-service/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-lifecycle-service/internal/app"
	"github.com/jsamuelsen/quote-lifecycle-service/internal/domain"
	"github.com/jsamuelsen/quote-lifecycle-service/internal/platform/logging"
	"github.com/jsamuelsen/quote-lifecycle-service/internal/ports"
)

// StaffQuoteHandler serves the authenticated staff quote API.
type StaffQuoteHandler struct {
	service *app.QuoteService
}

// NewStaffQuoteHandler creates a new staff quote handler.
func NewStaffQuoteHandler(service *app.QuoteService) *StaffQuoteHandler {
	return &StaffQuoteHandler{service: service}
}

// Create handles POST /api/v1/staff/quotes.
//
// @Summary Create a draft quote
// @Tags staff
// @Accept json
// @Produce json
// @Param quote body dto.CreateQuoteRequest true "Quote terms"
// @Success 201 {object} dto.QuoteResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/staff/quotes [post]
func (h *StaffQuoteHandler) Create(c *gin.Context) {
	var req dto.CreateQuoteRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleValidationError(c, err)
		return
	}

	q, err := h.service.Create(c.Request.Context(), req.ToDraft())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.Header("Location", "/api/v1/staff/quotes/"+q.ID)
	c.JSON(http.StatusCreated, dto.NewQuoteResponse(q, ""))
}

// List handles GET /api/v1/staff/quotes.
//
// @Summary List quotes
// @Tags staff
// @Produce json
// @Param status query string false "Filter by status"
// @Param tenant query string false "Filter by tenant"
// @Param cursor query string false "Cursor from a previous page"
// @Param limit query int false "Page size (1-100)"
// @Success 200 {object} dto.PaginatedResponse[dto.QuoteResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/staff/quotes [get]
func (h *StaffQuoteHandler) List(c *gin.Context) {
	var req dto.ListQuotesRequest
	if err := dto.BindQueryAndValidate(c, &req); err != nil {
		dto.HandleValidationError(c, err)
		return
	}

	cursor, err := dto.DecodeCursor(req.Cursor)
	if err == nil && !cursor.Matches(req.Status, req.Tenant) {
		err = dto.ErrInvalidCursor
	}

	if err != nil {
		dto.HandleError(c, domain.NewValidationError("cursor", "is not valid for this query"))
		return
	}

	query := ports.ListQuotesQuery{
		Tenant: strings.ToUpper(req.Tenant),
		Cursor: cursor.Position,
		Limit:  req.GetLimit(),
	}

	if req.Status != "" {
		// Already checked by the oneof tag.
		query.Status, _ = domain.ParseStatus(req.Status)
	}

	page, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	items := make([]*dto.QuoteResponse, 0, len(page.Items))
	for _, q := range page.Items {
		items = append(items, dto.NewQuoteResponse(q, h.service.ShareLink(q)))
	}

	next := dto.EncodeCursor(&dto.CursorData{
		Position: page.NextCursor,
		Status:   req.Status,
		Tenant:   req.Tenant,
	})

	c.JSON(http.StatusOK, dto.NewPaginatedResponse(items, next))
}

// Get handles GET /api/v1/staff/quotes/:id.
//
// @Summary Get a quote with its audit history
// @Tags staff
// @Produce json
// @Param id path string true "Quote ID"
// @Success 200 {object} dto.QuoteResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/staff/quotes/{id} [get]
func (h *StaffQuoteHandler) Get(c *gin.Context) {
	id, ok := bindQuoteID(c)
	if !ok {
		return
	}

	detail, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	resp := dto.NewQuoteResponse(detail.Quote, h.service.ShareLink(detail.Quote))
	resp.Events = detail.Events

	c.JSON(http.StatusOK, resp)
}

// Update handles PATCH /api/v1/staff/quotes/:id. Only drafts can be edited.
//
// @Summary Edit a draft quote
// @Tags staff
// @Accept json
// @Produce json
// @Param id path string true "Quote ID"
// @Param patch body dto.UpdateQuoteRequest true "Fields to change"
// @Success 200 {object} dto.QuoteResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /api/v1/staff/quotes/{id} [patch]
func (h *StaffQuoteHandler) Update(c *gin.Context) {
	id, ok := bindQuoteID(c)
	if !ok {
		return
	}

	var req dto.UpdateQuoteRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleValidationError(c, err)
		return
	}

	q, err := h.service.EditDraft(c.Request.Context(), id, req.ToPatch())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuoteResponse(q, ""))
}

// Send handles POST /api/v1/staff/quotes/:id/send.
//
// @Summary Send a draft quote to the client
// @Tags staff
// @Produce json
// @Param id path string true "Quote ID"
// @Success 200 {object} dto.QuoteResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /api/v1/staff/quotes/{id}/send [post]
func (h *StaffQuoteHandler) Send(c *gin.Context) {
	id, ok := bindQuoteID(c)
	if !ok {
		return
	}

	sent, err := h.service.Send(c.Request.Context(), id)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuoteResponse(sent.Quote, sent.ShareLink))
}

// Requote handles POST /api/v1/staff/quotes/:id/requote.
//
// @Summary Copy a quote into a new draft
// @Tags staff
// @Produce json
// @Param id path string true "Source quote ID"
// @Success 201 {object} dto.QuoteResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/staff/quotes/{id}/requote [post]
func (h *StaffQuoteHandler) Requote(c *gin.Context) {
	id, ok := bindQuoteID(c)
	if !ok {
		return
	}

	q, err := h.service.Requote(c.Request.Context(), id)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.Header("Location", "/api/v1/staff/quotes/"+q.ID)
	c.JSON(http.StatusCreated, dto.NewQuoteResponse(q, ""))
}

// Sweep handles POST /api/v1/staff/sweeps and runs the expiry sweep now.
//
// @Summary Expire overdue quotes immediately
// @Tags staff
// @Produce json
// @Success 200 {object} app.SweepResult
// @Failure 503 {object} dto.ErrorResponse
// @Router /api/v1/staff/sweeps [post]
func (h *StaffQuoteHandler) Sweep(c *gin.Context) {
	ctx := c.Request.Context()

	result, err := h.service.Sweep(ctx)
	if errors.Is(err, app.ErrSweepAborted) {
		dto.HandleError(c, err)
		return
	}

	// Per-quote failures are counted in the result and retried next sweep.
	if err != nil {
		logging.FromContext(ctx).WarnContext(ctx, "manual sweep finished with failures",
			slog.Int("failed", result.Failed),
			slog.Any("error", err),
		)
	}

	c.JSON(http.StatusOK, result)
}

func bindQuoteID(c *gin.Context) (string, bool) {
	var param dto.QuoteIDParam
	if err := c.ShouldBindUri(&param); err != nil {
		dto.HandleValidationError(c, err)
		return "", false
	}

	if err := dto.Validate(&param); err != nil {
		dto.HandleValidationError(c, err)
		return "", false
	}

	return param.ID, true
}

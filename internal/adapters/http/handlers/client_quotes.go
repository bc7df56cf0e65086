package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-lifecycle-service/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-lifecycle-service/internal/app"
)

// ClientQuoteHandler serves the unauthenticated, token-gated client API.
// The token is the only credential; it is never logged or echoed back.
type ClientQuoteHandler struct {
	gateway *app.ClientGateway
}

// NewClientQuoteHandler creates a new client quote handler.
func NewClientQuoteHandler(gateway *app.ClientGateway) *ClientQuoteHandler {
	return &ClientQuoteHandler{gateway: gateway}
}

// RegisterRoutes registers the client routes on rg:
//   - GET  /quotes/:token
//   - POST /quotes/:token/respond
func (h *ClientQuoteHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/quotes/:token", h.View)
	rg.POST("/quotes/:token/respond", h.Respond)
}

// View handles GET /api/v1/public/quotes/:token. The first view of a sent
// quote marks it viewed; later views return the current state unchanged.
//
// @Summary View a quote through its response token
// @Tags client
// @Produce json
// @Param token path string true "Response token"
// @Success 200 {object} dto.ClientQuoteResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /api/v1/public/quotes/{token} [get]
func (h *ClientQuoteHandler) View(c *gin.Context) {
	view, err := h.gateway.View(c.Request.Context(), c.Param("token"))
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, dto.NewClientQuoteResponse(view))
}

// Respond handles POST /api/v1/public/quotes/:token/respond.
//
// @Summary Accept or reject a quote
// @Tags client
// @Accept json
// @Produce json
// @Param token path string true "Response token"
// @Param decision body dto.RespondRequest true "accept or reject"
// @Success 200 {object} dto.ClientQuoteResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 410 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /api/v1/public/quotes/{token}/respond [post]
func (h *ClientQuoteHandler) Respond(c *gin.Context) {
	var req dto.RespondRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleValidationError(c, err)
		return
	}

	view, err := h.gateway.Respond(c.Request.Context(), c.Param("token"), req.Decision)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, dto.NewClientQuoteResponse(view))
}

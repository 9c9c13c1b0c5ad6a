package handler

import (
	"net/http"

	"marketplace_admin_backend/internal/leads/intake"
	"marketplace_admin_backend/internal/leads/transport"
	"marketplace_admin_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// PublicHandler serves the unauthenticated enquiry endpoint.
type PublicHandler struct {
	intake *intake.Service
}

// NewPublic creates the public enquiry handler.
func NewPublic(intakeSvc *intake.Service) *PublicHandler {
	return &PublicHandler{intake: intakeSvc}
}

// RegisterRoutes mounts the public enquiry route. The caller applies the
// intake rate limiter.
func (h *PublicHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("/enquiries", h.submitEnquiry)
}

func (h *PublicHandler) submitEnquiry(c *gin.Context) {
	var req transport.SubmitEnquiryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	result, err := h.intake.SubmitEnquiry(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

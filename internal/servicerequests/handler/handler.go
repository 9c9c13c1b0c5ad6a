// Package handler exposes the service requests module over HTTP.
package handler

import (
	"net/http"

	"marketplace_admin_backend/internal/servicerequests/service"
	"marketplace_admin_backend/internal/servicerequests/transport"
	"marketplace_admin_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler serves the service request endpoints. There is no create route:
// requests come into existence only through lead conversion.
type Handler struct {
	svc *service.Service
}

// New creates a new service requests handler.
func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the service request routes.
func (h *Handler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("", h.list)
	group.GET("/:id", h.get)
	group.PATCH("/:id/status", h.updateStatus)
}

func (h *Handler) list(c *gin.Context) {
	var query transport.ListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid query parameters", nil)
		return
	}

	result, err := h.svc.List(c.Request.Context(), query)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid service request id", nil)
		return
	}

	request, svcErr := h.svc.GetByID(c.Request.Context(), id)
	if httpkit.HandleError(c, svcErr) {
		return
	}
	httpkit.OK(c, request)
}

func (h *Handler) updateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid service request id", nil)
		return
	}

	var req transport.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	request, svcErr := h.svc.UpdateStatus(c.Request.Context(), id, req)
	if httpkit.HandleError(c, svcErr) {
		return
	}
	httpkit.OK(c, request)
}

// Package handler exposes the leads module over HTTP.
package handler

import (
	"net/http"
	"strconv"

	"marketplace_admin_backend/internal/leads/intake"
	"marketplace_admin_backend/internal/leads/management"
	"marketplace_admin_backend/internal/leads/pipeline"
	"marketplace_admin_backend/internal/leads/transport"
	"marketplace_admin_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler serves the authenticated lead management endpoints.
type Handler struct {
	intake     *intake.Service
	pipeline   *pipeline.Service
	management *management.Service
}

// New creates a new leads handler.
func New(intakeSvc *intake.Service, pipelineSvc *pipeline.Service, managementSvc *management.Service) *Handler {
	return &Handler{
		intake:     intakeSvc,
		pipeline:   pipelineSvc,
		management: managementSvc,
	}
}

// RegisterRoutes mounts the authenticated lead routes.
func (h *Handler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("", h.list)
	group.POST("", h.create)
	group.GET("/:id", h.get)
	group.PATCH("/:id", h.update)
	group.POST("/:id/transition", h.transition)
	group.GET("/:id/activity", h.activity)
}

func (h *Handler) list(c *gin.Context) {
	var query transport.ListLeadsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid query parameters", nil)
		return
	}

	result, err := h.management.List(c.Request.Context(), query)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) create(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var req transport.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	lead, err := h.intake.CreateManual(c.Request.Context(), req, id.UserID(), "")
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, lead)
}

func (h *Handler) get(c *gin.Context) {
	leadID, ok := parseLeadID(c)
	if !ok {
		return
	}

	lead, err := h.management.GetByID(c.Request.Context(), leadID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

func (h *Handler) update(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	leadID, ok := parseLeadID(c)
	if !ok {
		return
	}

	var req transport.UpdateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	lead, err := h.management.Update(c.Request.Context(), leadID, req, id.UserID(), id.Roles())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

func (h *Handler) transition(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	leadID, ok := parseLeadID(c)
	if !ok {
		return
	}

	var req transport.TransitionStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	lead, err := h.pipeline.TransitionStage(c.Request.Context(), leadID, req, id.UserID(), id.Roles())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

func (h *Handler) activity(c *gin.Context) {
	leadID, ok := parseLeadID(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))

	entries, err := h.management.Activity(c.Request.Context(), leadID, limit)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": entries})
}

func parseLeadID(c *gin.Context) (uuid.UUID, bool) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid lead id", nil)
		return uuid.Nil, false
	}
	return leadID, true
}

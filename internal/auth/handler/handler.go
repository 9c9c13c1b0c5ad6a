// Package handler exposes the auth module over HTTP.
package handler

import (
	"net/http"

	"marketplace_admin_backend/internal/auth/service"
	"marketplace_admin_backend/internal/auth/transport"
	"marketplace_admin_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler serves authentication and user administration endpoints.
type Handler struct {
	svc *service.Service
}

// New creates a new auth handler.
func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterAuthRoutes mounts the credential endpoints (rate limited upstream).
func (h *Handler) RegisterAuthRoutes(group *gin.RouterGroup) {
	group.POST("/sign-in", h.signIn)
	group.POST("/refresh", h.refresh)
	group.POST("/sign-out", h.signOut)
}

// RegisterProtectedRoutes mounts the authenticated self-service endpoints.
func (h *Handler) RegisterProtectedRoutes(group *gin.RouterGroup) {
	group.GET("/me", h.me)
}

// RegisterAdminRoutes mounts user administration endpoints.
func (h *Handler) RegisterAdminRoutes(group *gin.RouterGroup) {
	group.GET("/users", h.listUsers)
	group.POST("/users", h.createUser)
	group.PUT("/users/:id/roles", h.setRoles)
}

func (h *Handler) signIn(c *gin.Context) {
	var req transport.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	pair, err := h.svc.SignIn(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, pair)
}

func (h *Handler) refresh(c *gin.Context) {
	var req transport.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	pair, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, pair)
}

func (h *Handler) signOut(c *gin.Context) {
	var req transport.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	if err := h.svc.SignOut(c.Request.Context(), req.RefreshToken); httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) me(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	user, err := h.svc.Me(c.Request.Context(), id.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, user)
}

func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.svc.ListUsers(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": users})
}

func (h *Handler) createUser(c *gin.Context) {
	var req transport.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	user, err := h.svc.CreateUser(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, user)
}

func (h *Handler) setRoles(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid user id", nil)
		return
	}

	var req transport.SetRolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	user, svcErr := h.svc.SetRoles(c.Request.Context(), userID, req)
	if httpkit.HandleError(c, svcErr) {
		return
	}
	httpkit.OK(c, user)
}

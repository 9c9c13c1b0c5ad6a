// Package auth provides the authentication bounded context module.
package auth

import (
	"marketplace_admin_backend/internal/auth/handler"
	"marketplace_admin_backend/internal/auth/repository"
	"marketplace_admin_backend/internal/auth/service"
	"marketplace_admin_backend/internal/events"
	apphttp "marketplace_admin_backend/internal/http"
	"marketplace_admin_backend/platform/config"
	"marketplace_admin_backend/platform/logger"
	"marketplace_admin_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the auth bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	svc     *service.Service
}

// NewModule creates and initializes the auth module.
func NewModule(pool *pgxpool.Pool, cfg config.AuthServiceConfig, bus events.Bus, log *logger.Logger, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, cfg, bus, log, val)

	return &Module{
		handler: handler.New(svc),
		svc:     svc,
	}
}

// Service exposes the auth service for cross-module adapters.
func (m *Module) Service() *service.Service {
	return m.svc
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "auth"
}

// RegisterRoutes mounts credential routes under the auth rate limiter,
// self-service under auth middleware, and user admin under the admin group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	authGroup := ctx.V1.Group("/auth")
	authGroup.Use(ctx.AuthRateLimiter.RateLimit())
	m.handler.RegisterAuthRoutes(authGroup)

	m.handler.RegisterProtectedRoutes(ctx.Protected.Group("/auth"))
	m.handler.RegisterAdminRoutes(ctx.Admin)
}

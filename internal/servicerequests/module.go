// Package servicerequests provides the service requests bounded context module.
package servicerequests

import (
	apphttp "marketplace_admin_backend/internal/http"
	"marketplace_admin_backend/internal/servicerequests/handler"
	"marketplace_admin_backend/internal/servicerequests/repository"
	"marketplace_admin_backend/internal/servicerequests/service"
	"marketplace_admin_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the service requests bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	svc     *service.Service
}

// NewModule creates and initializes the service requests module.
func NewModule(pool *pgxpool.Pool, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, val)

	return &Module{
		handler: handler.New(svc),
		svc:     svc,
	}
}

// Service exposes the service for cross-module adapters.
func (m *Module) Service() *service.Service {
	return m.svc
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "servicerequests"
}

// RegisterRoutes mounts the service request routes under auth.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/service-requests"))
}

// Package leads provides the lead pipeline bounded context module.
// This file defines the module that encapsulates all leads setup and route registration.
package leads

import (
	"context"
	"time"

	"marketplace_admin_backend/internal/events"
	apphttp "marketplace_admin_backend/internal/http"
	"marketplace_admin_backend/internal/leads/domain"
	"marketplace_admin_backend/internal/leads/handler"
	"marketplace_admin_backend/internal/leads/intake"
	"marketplace_admin_backend/internal/leads/management"
	"marketplace_admin_backend/internal/leads/pipeline"
	"marketplace_admin_backend/internal/leads/repository"
	"marketplace_admin_backend/platform/config"
	"marketplace_admin_backend/platform/logger"
	"marketplace_admin_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler       *handler.Handler
	publicHandler *handler.PublicHandler
	repo          *repository.Repository
	intake        *intake.Service
	pipeline      *pipeline.Service
	management    *management.Service
}

// NewModule creates and initializes the leads module with all its dependencies.
// Cross-module collaborators (service request store, follow-up scheduler) are
// injected afterwards through setters from the composition root.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, val *validator.Validator, cfg config.LeadConfig, log *logger.Logger) *Module {
	repo := repository.New(pool)

	flags := domain.Flags{
		EnableLeadCapture: cfg.GetLeadCaptureEnabled(),
		EnableConversion:  cfg.GetLeadConversionEnabled(),
	}
	region := cfg.GetDefaultPhoneRegion()

	intakeSvc := intake.New(repo, eventBus, val, flags, region, log)
	pipelineSvc := pipeline.New(repo, nil, eventBus, flags, log)
	mgmtSvc := management.New(repo, val, region)

	// Capture a login-sourced lead whenever an internal-segment user signs in.
	eventBus.Subscribe(events.UserSignedIn{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		e, ok := event.(events.UserSignedIn)
		if !ok {
			return nil
		}
		return intakeSvc.HandleUserSignedIn(ctx, e)
	}))

	return &Module{
		handler:       handler.New(intakeSvc, pipelineSvc, mgmtSvc),
		publicHandler: handler.NewPublic(intakeSvc),
		repo:          repo,
		intake:        intakeSvc,
		pipeline:      pipelineSvc,
		management:    mgmtSvc,
	}
}

// SetServiceRequests wires the conversion orchestrator's downstream store.
func (m *Module) SetServiceRequests(store pipeline.ServiceRequests) {
	m.pipeline.SetServiceRequests(store)
}

// SetFollowUpScheduler wires the optional follow-up reminder scheduler.
func (m *Module) SetFollowUpScheduler(scheduler intake.FollowUpScheduler, delay time.Duration) {
	m.intake.SetFollowUpScheduler(scheduler, delay)
}

// Repository exposes the leads repository for worker binaries.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// RegisterRoutes mounts the leads routes: the public enquiry endpoint under
// /api/v1/public (rate limited) and the management surface under auth.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	public := ctx.V1.Group("/public")
	public.Use(ctx.IntakeRateLimiter.RateLimit())
	m.publicHandler.RegisterRoutes(public)

	m.handler.RegisterRoutes(ctx.Protected.Group("/leads"))
}

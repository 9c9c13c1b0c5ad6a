// Package pipeline enforces the lead state machine and orchestrates the
// conversion side effect (service request creation).
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"marketplace_admin_backend/internal/events"
	"marketplace_admin_backend/internal/leads/domain"
	"marketplace_admin_backend/internal/leads/repository"
	"marketplace_admin_backend/internal/leads/transport"
	"marketplace_admin_backend/platform/apperr"
	"marketplace_admin_backend/platform/logger"

	"github.com/google/uuid"
)

// managementRoles may drive leads through the pipeline.
var managementRoles = []string{"admin", "operator"}

// Repository defines the data access interface needed by the pipeline service.
type Repository interface {
	repository.LeadReader
	repository.StageWriter
	repository.ActivityLogger
}

// ServiceRequestSnapshot carries the denormalized contact data copied onto a
// service request at conversion time, so the request stays meaningful even if
// the lead record changes later.
type ServiceRequestSnapshot struct {
	LeadID              uuid.UUID
	OrganizationID      *uuid.UUID
	OwnerID             *uuid.UUID
	Source              string
	ContactName         string
	ContactEmail        string
	ContactPhone        string
	ContactOrganization string
}

// ServiceRequests is the orchestrator's view of the downstream store.
// Implemented by an adapter over the servicerequests module.
type ServiceRequests interface {
	// FindByLeadID returns (id, true, nil) when a request already exists
	// for the lead, (zero, false, nil) when none does.
	FindByLeadID(ctx context.Context, leadID uuid.UUID) (uuid.UUID, bool, error)
	Create(ctx context.Context, snapshot ServiceRequestSnapshot) (uuid.UUID, error)
}

// Service drives lead stage transitions.
type Service struct {
	repo     Repository
	requests ServiceRequests
	bus      events.Bus
	log      *logger.Logger
	flags    domain.Flags
}

// New creates a new pipeline service.
func New(repo Repository, requests ServiceRequests, bus events.Bus, flags domain.Flags, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		requests: requests,
		bus:      bus,
		log:      log,
		flags:    flags,
	}
}

// SetServiceRequests injects the downstream store after construction.
// The composition root uses this to break the module dependency cycle.
func (s *Service) SetServiceRequests(requests ServiceRequests) {
	s.requests = requests
}

// TransitionStage moves a lead to the target stage, enforcing the transition
// table, per-transition gating, and the conversion side effect. Permission and
// validation failures are raised before any storage read.
func (s *Service) TransitionStage(ctx context.Context, leadID uuid.UUID, req transport.TransitionStageRequest, actorID uuid.UUID, actorRoles []string) (transport.LeadResponse, error) {
	if !canManageLeads(actorRoles) {
		return transport.LeadResponse{}, apperr.Forbidden("lead management permission required")
	}

	target := domain.Stage(strings.ToLower(strings.TrimSpace(req.TargetStage)))
	if !target.IsValid() {
		return transport.LeadResponse{}, apperr.Validation("unknown target stage")
	}

	reason := strings.TrimSpace(req.Reason)
	if target == domain.StageDisqualified && reason == "" {
		return transport.LeadResponse{}, apperr.Validation("disqualify reason required")
	}

	lead, err := s.repo.GetByID(ctx, leadID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.LeadResponse{}, apperr.NotFound("lead not found")
		}
		return transport.LeadResponse{}, apperr.Storage("failed to load lead", err).WithOp("pipeline.TransitionStage")
	}

	from := domain.Stage(lead.Stage)
	if !domain.CanTransition(from, target) {
		return transport.LeadResponse{}, apperr.Conflict(fmt.Sprintf("cannot transition lead from %s to %s", from, target))
	}

	var updated repository.Lead
	if target == domain.StageConverted {
		updated, err = s.convert(ctx, lead)
	} else {
		var reasonValue *string
		if target == domain.StageDisqualified {
			reasonValue = &reason
		}
		updated, err = s.repo.UpdateStage(ctx, leadID, target, reasonValue)
		if errors.Is(err, repository.ErrNotFound) {
			err = apperr.NotFound("lead not found")
		} else if err != nil {
			err = apperr.Storage("failed to update stage", err).WithOp("pipeline.TransitionStage")
		}
	}
	if err != nil {
		return transport.LeadResponse{}, err
	}

	s.log.LeadEvent("stage_changed", updated.ID.String(), updated.Stage)

	actor := actorID
	_ = s.repo.AddActivity(ctx, updated.ID, &actor, "stage_changed", map[string]interface{}{
		"from":   string(from),
		"to":     updated.Stage,
		"reason": reason,
	})

	s.bus.Publish(ctx, events.LeadStageChanged{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    updated.ID,
		FromStage: string(from),
		ToStage:   updated.Stage,
		Reason:    reason,
		ActorID:   actorID,
		OwnerID:   updated.OwnerID,
	})

	if target == domain.StageConverted && updated.ServiceRequestID != nil {
		s.bus.Publish(ctx, events.LeadConverted{
			BaseEvent:        events.NewBaseEvent(),
			LeadID:           updated.ID,
			ServiceRequestID: *updated.ServiceRequestID,
			Name:             updated.Name,
			Email:            updated.Email,
			OwnerID:          updated.OwnerID,
		})
	}

	return transport.ToLeadResponse(updated), nil
}

// convert runs the conversion side effect before persisting the stage: the
// lead is never marked converted without a linked service request.
func (s *Service) convert(ctx context.Context, lead repository.Lead) (repository.Lead, error) {
	if !s.flags.EnableConversion {
		return repository.Lead{}, apperr.Forbidden("lead conversion is disabled")
	}

	// Contact data may have been cleared after qualification, so the
	// requirement is re-checked here, not only at creation.
	if !domain.HasContact(lead.Email, lead.Phone) {
		return repository.Lead{}, apperr.Validation("contact info required to convert")
	}

	requestID, err := s.EnsureServiceRequest(ctx, lead)
	if err != nil {
		return repository.Lead{}, err
	}

	updated, err := s.repo.MarkConverted(ctx, lead.ID, requestID)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Lead{}, apperr.Conflict("lead stage changed concurrently")
	}
	if err != nil {
		return repository.Lead{}, apperr.Storage("failed to mark lead converted", err).WithOp("pipeline.convert")
	}
	return updated, nil
}

// EnsureServiceRequest guarantees exactly one service request exists for the
// lead and returns its id. Idempotent: a linked id short-circuits, an orphan
// row from a prior partial failure is adopted, and a concurrent create is
// resolved through the unique constraint on service_requests.lead_id.
func (s *Service) EnsureServiceRequest(ctx context.Context, lead repository.Lead) (uuid.UUID, error) {
	if lead.ServiceRequestID != nil {
		return *lead.ServiceRequestID, nil
	}

	if s.requests == nil {
		return uuid.Nil, apperr.Internal("service request store not configured")
	}

	if id, found, err := s.requests.FindByLeadID(ctx, lead.ID); err != nil {
		return uuid.Nil, apperr.Storage("failed to look up service request", err).WithOp("pipeline.EnsureServiceRequest")
	} else if found {
		return id, nil
	}

	snapshot := ServiceRequestSnapshot{
		LeadID:              lead.ID,
		OrganizationID:      lead.OrganizationID,
		OwnerID:             lead.OwnerID,
		Source:              lead.Source,
		ContactName:         lead.Name,
		ContactEmail:        lead.Email,
		ContactPhone:        lead.Phone,
		ContactOrganization: lead.OrganizationName,
	}

	id, err := s.requests.Create(ctx, snapshot)
	if err != nil {
		if repository.IsUniqueViolation(err) {
			// A concurrent conversion won the insert; adopt its row.
			if existing, found, lookupErr := s.requests.FindByLeadID(ctx, lead.ID); lookupErr == nil && found {
				return existing, nil
			}
		}
		return uuid.Nil, apperr.Storage("failed to create service request", err).WithOp("pipeline.EnsureServiceRequest")
	}
	return id, nil
}

func canManageLeads(roles []string) bool {
	for _, held := range roles {
		for _, wanted := range managementRoles {
			if held == wanted {
				return true
			}
		}
	}
	return false
}

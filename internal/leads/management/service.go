// Package management handles the operator-facing lead CRUD surface:
// reads, contact updates, assignment, and the query/filter listing.
package management

import (
	"context"
	"errors"
	"strings"

	"marketplace_admin_backend/internal/leads/domain"
	"marketplace_admin_backend/internal/leads/repository"
	"marketplace_admin_backend/internal/leads/transport"
	"marketplace_admin_backend/platform/apperr"
	"marketplace_admin_backend/platform/phone"
	"marketplace_admin_backend/platform/validator"

	"github.com/google/uuid"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Repository defines the data access interface needed by the management service.
// This is a consumer-driven interface - only what management needs.
type Repository interface {
	repository.LeadReader
	repository.LeadWriter
	repository.ActivityLogger
}

// Service handles lead management operations.
type Service struct {
	repo        Repository
	val         *validator.Validator
	phoneRegion string
}

// New creates a new lead management service.
func New(repo Repository, val *validator.Validator, phoneRegion string) *Service {
	return &Service{repo: repo, val: val, phoneRegion: phoneRegion}
}

// GetByID retrieves a lead by ID.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (transport.LeadResponse, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.LeadResponse{}, apperr.NotFound("lead not found")
		}
		return transport.LeadResponse{}, apperr.Storage("failed to load lead", err).WithOp("management.GetByID")
	}
	return transport.ToLeadResponse(lead), nil
}

// Update applies a partial contact/assignment update. Reassignment requires
// the admin role or current ownership of the lead; converted leads are
// read-only.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateLeadRequest, actorID uuid.UUID, actorRoles []string) (transport.LeadResponse, error) {
	if err := s.val.Struct(req); err != nil {
		return transport.LeadResponse{}, apperr.Validation("invalid lead update").WithDetails(err.Error())
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.LeadResponse{}, apperr.NotFound("lead not found")
		}
		return transport.LeadResponse{}, apperr.Storage("failed to load lead", err).WithOp("management.Update")
	}

	if current.Stage == string(domain.StageConverted) {
		return transport.LeadResponse{}, apperr.Conflict("converted leads are read-only")
	}

	if req.OwnerID.Set && !canReassign(current, actorID, actorRoles) {
		return transport.LeadResponse{}, apperr.Forbidden("only an admin or the current owner can reassign a lead")
	}

	params := repository.UpdateLeadParams{
		Name:             trimPtr(req.Name),
		Notes:            trimPtr(req.Notes),
		OrganizationName: trimPtr(req.OrganizationName),
		OwnerIDSet:       req.OwnerID.Set,
		OwnerID:          req.OwnerID.Value,
		OwnerName:        trimPtr(req.OwnerName),
	}
	if req.Email != nil {
		normalized := domain.NormalizeEmail(*req.Email)
		params.Email = &normalized
	}
	if req.Phone != nil {
		normalized := phone.NormalizeE164In(*req.Phone, s.phoneRegion)
		params.Phone = &normalized
	}

	updated, err := s.repo.Update(ctx, id, params)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.LeadResponse{}, apperr.NotFound("lead not found")
		}
		return transport.LeadResponse{}, apperr.Storage("failed to update lead", err).WithOp("management.Update")
	}

	if req.OwnerID.Set {
		actor := actorID
		_ = s.repo.AddActivity(ctx, id, &actor, "assigned", map[string]interface{}{
			"ownerId": valueOrNil(req.OwnerID.Value),
		})
	}

	return transport.ToLeadResponse(updated), nil
}

// List returns a filtered, paginated page of leads, newest first by default.
func (s *Service) List(ctx context.Context, query transport.ListLeadsQuery) (transport.LeadListResponse, error) {
	page := query.Page
	if page < 1 {
		page = 1
	}
	pageSize := query.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	params := repository.ListParams{
		Search:    strings.TrimSpace(query.Search),
		Offset:    (page - 1) * pageSize,
		Limit:     pageSize,
		SortBy:    query.SortBy,
		SortOrder: query.SortOrder,
	}

	if stage := normalizeFilter(query.Stage); stage != "" {
		if !domain.Stage(stage).IsValid() {
			return transport.LeadListResponse{}, apperr.Validation("unknown stage filter")
		}
		params.Stage = &stage
	}
	if source := normalizeFilter(query.Source); source != "" {
		if !domain.Source(source).IsValid() {
			return transport.LeadListResponse{}, apperr.Validation("unknown source filter")
		}
		params.Source = &source
	}

	leads, total, err := s.repo.List(ctx, params)
	if err != nil {
		return transport.LeadListResponse{}, apperr.Storage("failed to list leads", err).WithOp("management.List")
	}

	return transport.ToLeadListResponse(leads, total, page, pageSize), nil
}

// Activity returns the most recent audit entries for a lead.
func (s *Service) Activity(ctx context.Context, leadID uuid.UUID, limit int) ([]transport.ActivityResponse, error) {
	if _, err := s.repo.GetByID(ctx, leadID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("lead not found")
		}
		return nil, apperr.Storage("failed to load lead", err).WithOp("management.Activity")
	}

	entries, err := s.repo.ListActivity(ctx, leadID, limit)
	if err != nil {
		return nil, apperr.Storage("failed to list lead activity", err).WithOp("management.Activity")
	}
	return transport.ToActivityResponses(entries), nil
}

func canReassign(lead repository.Lead, actorID uuid.UUID, actorRoles []string) bool {
	for _, role := range actorRoles {
		if role == "admin" {
			return true
		}
	}
	return lead.OwnerID != nil && *lead.OwnerID == actorID
}

func normalizeFilter(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "all" {
		return ""
	}
	return value
}

func trimPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	return &trimmed
}

func valueOrNil(id *uuid.UUID) interface{} {
	if id == nil {
		return nil
	}
	return id.String()
}

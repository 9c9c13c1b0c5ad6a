// Package service holds the service requests business logic. Creation is the
// conversion orchestrator's job; this service only reads and moves status.
package service

import (
	"context"
	"errors"
	"strings"

	"marketplace_admin_backend/internal/servicerequests/repository"
	"marketplace_admin_backend/internal/servicerequests/transport"
	"marketplace_admin_backend/platform/apperr"
	"marketplace_admin_backend/platform/validator"

	"github.com/google/uuid"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Repository defines the data access interface needed by this service.
type Repository interface {
	Create(ctx context.Context, params repository.CreateParams) (repository.ServiceRequest, error)
	GetByID(ctx context.Context, id uuid.UUID) (repository.ServiceRequest, error)
	FindByLeadID(ctx context.Context, leadID uuid.UUID) (repository.ServiceRequest, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (repository.ServiceRequest, error)
	List(ctx context.Context, params repository.ListParams) ([]repository.ServiceRequest, int, error)
}

// Service handles service request operations.
type Service struct {
	repo Repository
	val  *validator.Validator
}

// New creates a new service requests service.
func New(repo Repository, val *validator.Validator) *Service {
	return &Service{repo: repo, val: val}
}

// Create inserts a request for a converting lead. Only the conversion
// orchestrator calls this, through the adapter.
func (s *Service) Create(ctx context.Context, params repository.CreateParams) (repository.ServiceRequest, error) {
	return s.repo.Create(ctx, params)
}

// FindByLeadID returns the request linked to a lead, if any.
func (s *Service) FindByLeadID(ctx context.Context, leadID uuid.UUID) (repository.ServiceRequest, bool, error) {
	request, err := s.repo.FindByLeadID(ctx, leadID)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.ServiceRequest{}, false, nil
	}
	if err != nil {
		return repository.ServiceRequest{}, false, err
	}
	return request, true, nil
}

// GetByID retrieves a service request by ID.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (transport.ServiceRequestResponse, error) {
	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.ServiceRequestResponse{}, apperr.NotFound("service request not found")
		}
		return transport.ServiceRequestResponse{}, apperr.Storage("failed to load service request", err).WithOp("servicerequests.GetByID")
	}
	return transport.ToResponse(request), nil
}

// UpdateStatus moves a request between open/in_progress/closed.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, req transport.UpdateStatusRequest) (transport.ServiceRequestResponse, error) {
	if err := s.val.Struct(req); err != nil {
		return transport.ServiceRequestResponse{}, apperr.Validation("invalid status").WithDetails(err.Error())
	}

	request, err := s.repo.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.ServiceRequestResponse{}, apperr.NotFound("service request not found")
		}
		return transport.ServiceRequestResponse{}, apperr.Storage("failed to update status", err).WithOp("servicerequests.UpdateStatus")
	}
	return transport.ToResponse(request), nil
}

// List returns a filtered, paginated page of service requests.
func (s *Service) List(ctx context.Context, query transport.ListQuery) (transport.ListResponse, error) {
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
		Search: strings.TrimSpace(query.Search),
		Offset: (page - 1) * pageSize,
		Limit:  pageSize,
	}

	if status := strings.ToLower(strings.TrimSpace(query.Status)); status != "" && status != "all" {
		switch status {
		case "open", "in_progress", "closed":
			params.Status = &status
		default:
			return transport.ListResponse{}, apperr.Validation("unknown status filter")
		}
	}

	requests, total, err := s.repo.List(ctx, params)
	if err != nil {
		return transport.ListResponse{}, apperr.Storage("failed to list service requests", err).WithOp("servicerequests.List")
	}

	return transport.ToListResponse(requests, total, page, pageSize), nil
}

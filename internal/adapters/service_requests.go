// Package adapters contains anti-corruption adapters for cross-module
// communication, so each bounded context depends only on its own interfaces.
package adapters

import (
	"context"

	"marketplace_admin_backend/internal/leads/pipeline"
	"marketplace_admin_backend/internal/servicerequests/repository"
	"marketplace_admin_backend/internal/servicerequests/service"

	"github.com/google/uuid"
)

// ServiceRequestStore adapts the servicerequests service to the conversion
// orchestrator's ServiceRequests interface.
type ServiceRequestStore struct {
	svc *service.Service
}

// NewServiceRequestStore creates the adapter.
func NewServiceRequestStore(svc *service.Service) *ServiceRequestStore {
	return &ServiceRequestStore{svc: svc}
}

var _ pipeline.ServiceRequests = (*ServiceRequestStore)(nil)

// FindByLeadID reports the id of an existing request for the lead, if any.
func (a *ServiceRequestStore) FindByLeadID(ctx context.Context, leadID uuid.UUID) (uuid.UUID, bool, error) {
	request, found, err := a.svc.FindByLeadID(ctx, leadID)
	if err != nil || !found {
		return uuid.Nil, false, err
	}
	return request.ID, true, nil
}

// Create inserts a request carrying the lead's contact snapshot.
func (a *ServiceRequestStore) Create(ctx context.Context, snapshot pipeline.ServiceRequestSnapshot) (uuid.UUID, error) {
	request, err := a.svc.Create(ctx, repository.CreateParams{
		LeadID:              snapshot.LeadID,
		OrganizationID:      snapshot.OrganizationID,
		OwnerID:             snapshot.OwnerID,
		Source:              snapshot.Source,
		ContactName:         snapshot.ContactName,
		ContactEmail:        snapshot.ContactEmail,
		ContactPhone:        snapshot.ContactPhone,
		ContactOrganization: snapshot.ContactOrganization,
	})
	if err != nil {
		return uuid.Nil, err
	}
	return request.ID, nil
}

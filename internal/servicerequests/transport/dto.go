// Package transport defines request/response DTOs for the service requests module.
package transport

import (
	"time"

	"marketplace_admin_backend/internal/servicerequests/repository"

	"github.com/google/uuid"
)

// UpdateStatusRequest moves a service request between workflow states.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=open in_progress closed"`
}

// ListQuery captures the query-string filters of the list endpoint.
type ListQuery struct {
	Status   string `form:"status"`
	Search   string `form:"search"`
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
}

// ServiceRequestResponse is the API shape of a service request.
type ServiceRequestResponse struct {
	ID                  uuid.UUID  `json:"id"`
	LeadID              uuid.UUID  `json:"leadId"`
	OrganizationID      *uuid.UUID `json:"organizationId,omitempty"`
	OwnerID             *uuid.UUID `json:"ownerId,omitempty"`
	Source              string     `json:"source"`
	Status              string     `json:"status"`
	ContactName         string     `json:"contactName"`
	ContactEmail        string     `json:"contactEmail"`
	ContactPhone        string     `json:"contactPhone"`
	ContactOrganization string     `json:"contactOrganization"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

// ListResponse wraps a page of service requests.
type ListResponse struct {
	Items    []ServiceRequestResponse `json:"items"`
	Total    int                      `json:"total"`
	Page     int                      `json:"page"`
	PageSize int                      `json:"pageSize"`
}

// ToResponse maps a repository service request to its API shape.
func ToResponse(request repository.ServiceRequest) ServiceRequestResponse {
	return ServiceRequestResponse{
		ID:                  request.ID,
		LeadID:              request.LeadID,
		OrganizationID:      request.OrganizationID,
		OwnerID:             request.OwnerID,
		Source:              request.Source,
		Status:              request.Status,
		ContactName:         request.ContactName,
		ContactEmail:        request.ContactEmail,
		ContactPhone:        request.ContactPhone,
		ContactOrganization: request.ContactOrganization,
		CreatedAt:           request.CreatedAt,
		UpdatedAt:           request.UpdatedAt,
	}
}

// ToListResponse maps a page of service requests.
func ToListResponse(requests []repository.ServiceRequest, total, page, pageSize int) ListResponse {
	items := make([]ServiceRequestResponse, 0, len(requests))
	for _, request := range requests {
		items = append(items, ToResponse(request))
	}
	return ListResponse{Items: items, Total: total, Page: page, PageSize: pageSize}
}

// Package transport defines request/response DTOs for the leads module and
// the mappers between repository models and API shapes.
package transport

import (
	"encoding/json"
	"time"

	"marketplace_admin_backend/internal/leads/repository"

	"github.com/google/uuid"
)

// SubmitEnquiryRequest is the public enquiry form payload.
// At least one of email/phone is required; that rule is enforced in the
// intake service so the error carries the domain message.
type SubmitEnquiryRequest struct {
	Name             string `json:"name" validate:"max=200"`
	Email            string `json:"email" validate:"omitempty,email,max=320"`
	Phone            string `json:"phone" validate:"max=40"`
	OrganizationName string `json:"organizationName" validate:"max=200"`
	Notes            string `json:"notes" validate:"max=4000"`
}

// SubmitEnquiryResponse returns only the persisted lead id; the public form
// never sees pipeline state.
type SubmitEnquiryResponse struct {
	ID uuid.UUID `json:"id"`
}

// CreateLeadRequest is the authenticated manual-entry payload.
type CreateLeadRequest struct {
	Name             string     `json:"name" validate:"max=200"`
	Email            string     `json:"email" validate:"omitempty,email,max=320"`
	Phone            string     `json:"phone" validate:"max=40"`
	OrganizationName string     `json:"organizationName" validate:"max=200"`
	Notes            string     `json:"notes" validate:"max=4000"`
	OwnerID          *uuid.UUID `json:"ownerId"`
}

// OptionalUUID distinguishes an absent JSON field from an explicit null,
// so "assign to nobody" and "don't touch assignment" stay distinct.
type OptionalUUID struct {
	Set   bool
	Value *uuid.UUID
}

// UnmarshalJSON marks the field as set and accepts either a UUID or null.
func (o *OptionalUUID) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var id uuid.UUID
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	o.Value = &id
	return nil
}

// UpdateLeadRequest carries a partial update; nil fields are left unchanged.
type UpdateLeadRequest struct {
	Name             *string      `json:"name" validate:"omitempty,max=200"`
	Email            *string      `json:"email" validate:"omitempty,email,max=320"`
	Phone            *string      `json:"phone" validate:"omitempty,max=40"`
	OrganizationName *string      `json:"organizationName" validate:"omitempty,max=200"`
	Notes            *string      `json:"notes" validate:"omitempty,max=4000"`
	OwnerID          OptionalUUID `json:"ownerId"`
	OwnerName        *string      `json:"ownerName" validate:"omitempty,max=200"`
}

// TransitionStageRequest asks the state machine for one transition.
type TransitionStageRequest struct {
	TargetStage string `json:"targetStage" validate:"required"`
	Reason      string `json:"reason" validate:"max=1000"`
}

// ListLeadsQuery captures the query-string filters of the list endpoint.
type ListLeadsQuery struct {
	Stage     string `form:"stage"`
	Source    string `form:"source"`
	Search    string `form:"search"`
	Page      int    `form:"page"`
	PageSize  int    `form:"pageSize"`
	SortBy    string `form:"sortBy"`
	SortOrder string `form:"sortOrder"`
}

// LeadResponse is the API shape of a lead.
type LeadResponse struct {
	ID               uuid.UUID  `json:"id"`
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	Phone            string     `json:"phone"`
	OrganizationName string     `json:"organizationName"`
	OrganizationID   *uuid.UUID `json:"organizationId,omitempty"`
	Notes            string     `json:"notes"`
	Source           string     `json:"source"`
	Stage            string     `json:"stage"`
	DisqualifyReason *string    `json:"disqualifyReason,omitempty"`
	OwnerID          *uuid.UUID `json:"ownerId,omitempty"`
	OwnerName        *string    `json:"ownerName,omitempty"`
	ServiceRequestID *uuid.UUID `json:"serviceRequestId,omitempty"`
	QualifiedAt      *time.Time `json:"qualifiedAt,omitempty"`
	ConvertedAt      *time.Time `json:"convertedAt,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// LeadListResponse wraps a page of leads.
type LeadListResponse struct {
	Items    []LeadResponse `json:"items"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"pageSize"`
}

// ActivityResponse is one audit entry on a lead.
type ActivityResponse struct {
	ID        uuid.UUID              `json:"id"`
	LeadID    uuid.UUID              `json:"leadId"`
	UserID    *uuid.UUID             `json:"userId,omitempty"`
	Action    string                 `json:"action"`
	Meta      map[string]interface{} `json:"meta,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
}

// ToLeadResponse maps a repository lead to its API shape.
func ToLeadResponse(lead repository.Lead) LeadResponse {
	return LeadResponse{
		ID:               lead.ID,
		Name:             lead.Name,
		Email:            lead.Email,
		Phone:            lead.Phone,
		OrganizationName: lead.OrganizationName,
		OrganizationID:   lead.OrganizationID,
		Notes:            lead.Notes,
		Source:           lead.Source,
		Stage:            lead.Stage,
		DisqualifyReason: lead.DisqualifyReason,
		OwnerID:          lead.OwnerID,
		OwnerName:        lead.OwnerName,
		ServiceRequestID: lead.ServiceRequestID,
		QualifiedAt:      lead.QualifiedAt,
		ConvertedAt:      lead.ConvertedAt,
		CreatedAt:        lead.CreatedAt,
		UpdatedAt:        lead.UpdatedAt,
	}
}

// ToLeadListResponse maps a page of repository leads.
func ToLeadListResponse(leads []repository.Lead, total, page, pageSize int) LeadListResponse {
	items := make([]LeadResponse, 0, len(leads))
	for _, lead := range leads {
		items = append(items, ToLeadResponse(lead))
	}
	return LeadListResponse{Items: items, Total: total, Page: page, PageSize: pageSize}
}

// ToActivityResponses maps activity entries.
func ToActivityResponses(entries []repository.Activity) []ActivityResponse {
	items := make([]ActivityResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, ActivityResponse{
			ID:        entry.ID,
			LeadID:    entry.LeadID,
			UserID:    entry.UserID,
			Action:    entry.Action,
			Meta:      entry.Meta,
			CreatedAt: entry.CreatedAt,
		})
	}
	return items
}

package repository

import (
	"context"

	"marketplace_admin_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// =====================================
// Segregated Interfaces (Interface Segregation Principle)
// =====================================

// LeadReader provides read-only access to lead data.
type LeadReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (Lead, error)
	GetByDedupKey(ctx context.Context, dedupKey string) (Lead, error)
	List(ctx context.Context, params ListParams) ([]Lead, int, error)
}

// LeadWriter provides write operations for lead management.
type LeadWriter interface {
	Create(ctx context.Context, params CreateLeadParams) (Lead, error)
	Update(ctx context.Context, id uuid.UUID, params UpdateLeadParams) (Lead, error)
}

// EnquiryUpserter performs the constraint-backed enquiry dedup upsert.
type EnquiryUpserter interface {
	UpsertEnquiry(ctx context.Context, params UpsertEnquiryParams) (Lead, error)
}

// LoginLeadFinder locates open leads linked to a signed-in user.
type LoginLeadFinder interface {
	FindOpenByUserID(ctx context.Context, userID uuid.UUID) (Lead, error)
}

// StageWriter persists stage transitions and their side effects.
type StageWriter interface {
	UpdateStage(ctx context.Context, id uuid.UUID, stage domain.Stage, disqualifyReason *string) (Lead, error)
	MarkConverted(ctx context.Context, id uuid.UUID, serviceRequestID uuid.UUID) (Lead, error)
}

// ActivityLogger records activity/audit trail on leads.
type ActivityLogger interface {
	AddActivity(ctx context.Context, leadID uuid.UUID, userID *uuid.UUID, action string, meta map[string]interface{}) error
	ListActivity(ctx context.Context, leadID uuid.UUID, limit int) ([]Activity, error)
}

// =====================================
// Composite Interface
// =====================================

// LeadsRepository defines the complete interface for leads data operations.
// Composed of smaller, focused interfaces for better testability and flexibility.
type LeadsRepository interface {
	LeadReader
	LeadWriter
	EnquiryUpserter
	LoginLeadFinder
	StageWriter
	ActivityLogger
}

// Ensure Repository implements LeadsRepository
var _ LeadsRepository = (*Repository)(nil)

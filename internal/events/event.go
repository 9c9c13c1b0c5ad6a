// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"marketplace_admin_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Auth Domain Events
// =============================================================================

// UserSignedIn is published after a successful password sign-in.
// The leads module listens to this to capture login-sourced leads.
type UserSignedIn struct {
	BaseEvent
	UserID      uuid.UUID `json:"userId"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	Segment     string    `json:"segment"`
}

func (e UserSignedIn) EventName() string { return "auth.user.signed_in" }

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadCaptured is published when a lead is created or re-submitted
// through any intake path (enquiry form, login, manual entry).
type LeadCaptured struct {
	BaseEvent
	LeadID  uuid.UUID  `json:"leadId"`
	Source  string     `json:"source"`
	Name    string     `json:"name"`
	Email   string     `json:"email,omitempty"`
	Phone   string     `json:"phone,omitempty"`
	OwnerID *uuid.UUID `json:"ownerId,omitempty"`
}

func (e LeadCaptured) EventName() string { return "leads.lead.captured" }

// LeadStageChanged is published on every successful stage transition.
type LeadStageChanged struct {
	BaseEvent
	LeadID    uuid.UUID  `json:"leadId"`
	FromStage string     `json:"fromStage"`
	ToStage   string     `json:"toStage"`
	Reason    string     `json:"reason,omitempty"`
	ActorID   uuid.UUID  `json:"actorId"`
	OwnerID   *uuid.UUID `json:"ownerId,omitempty"`
}

func (e LeadStageChanged) EventName() string { return "leads.lead.stage_changed" }

// LeadConverted is published after a lead reaches the converted stage
// with its service request linked.
type LeadConverted struct {
	BaseEvent
	LeadID           uuid.UUID  `json:"leadId"`
	ServiceRequestID uuid.UUID  `json:"serviceRequestId"`
	Name             string     `json:"name"`
	Email            string     `json:"email,omitempty"`
	OwnerID          *uuid.UUID `json:"ownerId,omitempty"`
}

func (e LeadConverted) EventName() string { return "leads.lead.converted" }

// LeadFollowUpDue is published by the scheduler worker when a lead is
// still unqualified after the configured follow-up delay.
type LeadFollowUpDue struct {
	BaseEvent
	LeadID  uuid.UUID  `json:"leadId"`
	Stage   string     `json:"stage"`
	Name    string     `json:"name"`
	OwnerID *uuid.UUID `json:"ownerId,omitempty"`
}

func (e LeadFollowUpDue) EventName() string { return "leads.lead.follow_up_due" }

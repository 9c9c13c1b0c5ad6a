// Package intake handles lead ingestion and deduplication: the public
// enquiry form, login-triggered capture, and manual entry.
package intake

import (
	"context"
	"errors"
	"strings"
	"time"

	"marketplace_admin_backend/internal/events"
	"marketplace_admin_backend/internal/leads/domain"
	"marketplace_admin_backend/internal/leads/repository"
	"marketplace_admin_backend/internal/leads/transport"
	"marketplace_admin_backend/platform/apperr"
	"marketplace_admin_backend/platform/logger"
	"marketplace_admin_backend/platform/phone"
	"marketplace_admin_backend/platform/validator"

	"github.com/google/uuid"
)

// Repository defines the data access interface needed by the intake service.
// This is a consumer-driven interface - only what intake needs.
type Repository interface {
	repository.EnquiryUpserter
	repository.LoginLeadFinder
	repository.LeadWriter
	repository.ActivityLogger
}

// FollowUpScheduler schedules a deferred re-check of a freshly captured lead.
// When no scheduler is configured, follow-ups are simply skipped.
type FollowUpScheduler interface {
	ScheduleLeadFollowUp(ctx context.Context, leadID uuid.UUID, delay time.Duration) error
}

// Service handles lead ingestion.
type Service struct {
	repo          Repository
	bus           events.Bus
	val           *validator.Validator
	log           *logger.Logger
	flags         domain.Flags
	phoneRegion   string
	followUps     FollowUpScheduler
	followUpDelay time.Duration
}

// New creates a new intake service.
func New(repo Repository, bus events.Bus, val *validator.Validator, flags domain.Flags, phoneRegion string, log *logger.Logger) *Service {
	return &Service{
		repo:        repo,
		bus:         bus,
		val:         val,
		log:         log,
		flags:       flags,
		phoneRegion: phoneRegion,
	}
}

// SetFollowUpScheduler wires the optional asynq-backed follow-up scheduler.
func (s *Service) SetFollowUpScheduler(scheduler FollowUpScheduler, delay time.Duration) {
	s.followUps = scheduler
	s.followUpDelay = delay
}

// SubmitEnquiry ingests a public enquiry form submission. Repeated
// submissions with the same normalized email/phone collapse into one lead
// via the constraint-backed upsert.
func (s *Service) SubmitEnquiry(ctx context.Context, req transport.SubmitEnquiryRequest) (transport.SubmitEnquiryResponse, error) {
	if !s.flags.EnableLeadCapture {
		return transport.SubmitEnquiryResponse{}, apperr.Forbidden("lead capture is disabled")
	}

	if err := s.val.Struct(req); err != nil {
		return transport.SubmitEnquiryResponse{}, apperr.Validation("invalid enquiry").WithDetails(err.Error())
	}

	email := domain.NormalizeEmail(req.Email)
	phoneNumber := phone.NormalizeE164In(req.Phone, s.phoneRegion)

	if !domain.HasContact(email, phoneNumber) {
		return transport.SubmitEnquiryResponse{}, apperr.Validation("email or phone required")
	}

	lead, err := s.repo.UpsertEnquiry(ctx, repository.UpsertEnquiryParams{
		Name:             strings.TrimSpace(req.Name),
		Email:            email,
		Phone:            phoneNumber,
		OrganizationName: strings.TrimSpace(req.OrganizationName),
		Notes:            strings.TrimSpace(req.Notes),
		DedupKey:         domain.DedupKey(email, phoneNumber, s.phoneRegion),
	})
	if err != nil {
		return transport.SubmitEnquiryResponse{}, apperr.Storage("failed to save enquiry", err).WithOp("intake.SubmitEnquiry")
	}

	s.afterCapture(ctx, lead)

	return transport.SubmitEnquiryResponse{ID: lead.ID}, nil
}

// CreateManual records a lead entered by an operator in the dashboard.
func (s *Service) CreateManual(ctx context.Context, req transport.CreateLeadRequest, actorID uuid.UUID, actorName string) (transport.LeadResponse, error) {
	if !s.flags.EnableLeadCapture {
		return transport.LeadResponse{}, apperr.Forbidden("lead capture is disabled")
	}

	if err := s.val.Struct(req); err != nil {
		return transport.LeadResponse{}, apperr.Validation("invalid lead").WithDetails(err.Error())
	}

	email := domain.NormalizeEmail(req.Email)
	phoneNumber := phone.NormalizeE164In(req.Phone, s.phoneRegion)

	if !domain.HasContact(email, phoneNumber) {
		return transport.LeadResponse{}, apperr.Validation("email or phone required")
	}

	params := repository.CreateLeadParams{
		Name:             strings.TrimSpace(req.Name),
		Email:            email,
		Phone:            phoneNumber,
		OrganizationName: strings.TrimSpace(req.OrganizationName),
		Notes:            strings.TrimSpace(req.Notes),
		Source:           domain.SourceManual,
	}
	if req.OwnerID != nil {
		params.OwnerID = req.OwnerID
	} else {
		owner := actorID
		params.OwnerID = &owner
		// Without a resolved display name the column stays null rather
		// than holding an empty string.
		if name := strings.TrimSpace(actorName); name != "" {
			params.OwnerName = &name
		}
	}

	lead, err := s.repo.Create(ctx, params)
	if err != nil {
		return transport.LeadResponse{}, apperr.Storage("failed to create lead", err).WithOp("intake.CreateManual")
	}

	actor := actorID
	_ = s.repo.AddActivity(ctx, lead.ID, &actor, "captured", map[string]interface{}{
		"source": lead.Source,
	})
	s.publishCaptured(ctx, lead)
	s.scheduleFollowUp(ctx, lead)

	return transport.ToLeadResponse(lead), nil
}

// HandleUserSignedIn captures a login-sourced lead for internal-segment
// identities. Dedup is a non-atomic existence check; two simultaneous logins
// can both insert, which is accepted for this path.
func (s *Service) HandleUserSignedIn(ctx context.Context, evt events.UserSignedIn) error {
	if !s.flags.EnableLeadCapture {
		return nil
	}
	if evt.Segment != "internal" {
		return nil
	}

	if _, err := s.repo.FindOpenByUserID(ctx, evt.UserID); err == nil {
		return nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return apperr.Storage("failed to check for existing login lead", err).WithOp("intake.HandleUserSignedIn")
	}

	userID := evt.UserID
	name := evt.DisplayName
	lead, err := s.repo.Create(ctx, repository.CreateLeadParams{
		Name:          evt.DisplayName,
		Email:         domain.NormalizeEmail(evt.Email),
		Source:        domain.SourceLogin,
		OwnerID:       &userID,
		OwnerName:     &name,
		RelatedUserID: &userID,
	})
	if err != nil {
		return apperr.Storage("failed to create login lead", err).WithOp("intake.HandleUserSignedIn")
	}

	s.log.LeadEvent("login_lead_captured", lead.ID.String(), lead.Stage)
	s.afterCapture(ctx, lead)
	return nil
}

func (s *Service) afterCapture(ctx context.Context, lead repository.Lead) {
	// A re-submission that collides with a converted lead returns the row
	// untouched; a lead that did not change gets no activity entry, no
	// event, and no reminder.
	if lead.Stage == string(domain.StageConverted) {
		return
	}

	_ = s.repo.AddActivity(ctx, lead.ID, nil, "captured", map[string]interface{}{
		"source": lead.Source,
		"stage":  lead.Stage,
	})
	s.publishCaptured(ctx, lead)
	s.scheduleFollowUp(ctx, lead)
}

func (s *Service) publishCaptured(ctx context.Context, lead repository.Lead) {
	s.bus.Publish(ctx, events.LeadCaptured{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		Source:    lead.Source,
		Name:      lead.Name,
		Email:     lead.Email,
		Phone:     lead.Phone,
		OwnerID:   lead.OwnerID,
	})
}

func (s *Service) scheduleFollowUp(ctx context.Context, lead repository.Lead) {
	if s.followUps == nil || s.followUpDelay <= 0 {
		return
	}
	// Only freshly opened leads get a reminder.
	if lead.Stage != string(domain.StageNew) {
		return
	}
	if err := s.followUps.ScheduleLeadFollowUp(ctx, lead.ID, s.followUpDelay); err != nil {
		s.log.Warn("failed to schedule lead follow-up", "lead_id", lead.ID.String(), "error", err.Error())
	}
}

// Package notification turns lead lifecycle events into emails for the
// people working the pipeline. All delivery is best-effort: failures are
// logged and never propagated back to the publishing module.
package notification

import (
	"context"
	"fmt"

	"marketplace_admin_backend/internal/email"
	"marketplace_admin_backend/internal/events"
	"marketplace_admin_backend/platform/config"
	"marketplace_admin_backend/platform/logger"

	"github.com/google/uuid"
)

// UserDirectory resolves a user id to an email address. The auth module
// provides the implementation through an adapter.
type UserDirectory interface {
	GetUserEmail(ctx context.Context, userID uuid.UUID) (string, error)
}

// Module subscribes to lead events and sends the matching emails.
type Module struct {
	sender email.Sender
	users  UserDirectory
	cfg    config.NotificationConfig
	log    *logger.Logger
}

// New creates the notification module.
func New(sender email.Sender, users UserDirectory, cfg config.NotificationConfig, log *logger.Logger) *Module {
	return &Module{sender: sender, users: users, cfg: cfg, log: log}
}

// RegisterHandlers subscribes the module to the lead events it cares about.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe("leads.lead.captured", events.HandlerFunc(m.handleLeadCaptured))
	bus.Subscribe("leads.lead.converted", events.HandlerFunc(m.handleLeadConverted))
	bus.Subscribe("leads.lead.follow_up_due", events.HandlerFunc(m.handleLeadFollowUpDue))
}

func (m *Module) handleLeadCaptured(ctx context.Context, e events.Event) error {
	evt, ok := e.(events.LeadCaptured)
	if !ok {
		return fmt.Errorf("unexpected event type %T", e)
	}

	to, err := m.recipient(ctx, evt.OwnerID)
	if err != nil || to == "" {
		m.logSkip("lead_captured", evt.LeadID, err)
		return nil
	}

	if err := m.sender.SendLeadCapturedEmail(ctx, to, evt.Name, evt.Source); err != nil {
		m.log.Error("lead captured email failed", "lead_id", evt.LeadID.String(), "error", err)
	}
	return nil
}

func (m *Module) handleLeadConverted(ctx context.Context, e events.Event) error {
	evt, ok := e.(events.LeadConverted)
	if !ok {
		return fmt.Errorf("unexpected event type %T", e)
	}

	to, err := m.recipient(ctx, evt.OwnerID)
	if err != nil || to == "" {
		m.logSkip("lead_converted", evt.LeadID, err)
		return nil
	}

	if err := m.sender.SendLeadConvertedEmail(ctx, to, evt.Name, evt.ServiceRequestID.String()); err != nil {
		m.log.Error("lead converted email failed", "lead_id", evt.LeadID.String(), "error", err)
	}
	return nil
}

func (m *Module) handleLeadFollowUpDue(ctx context.Context, e events.Event) error {
	evt, ok := e.(events.LeadFollowUpDue)
	if !ok {
		return fmt.Errorf("unexpected event type %T", e)
	}

	to, err := m.recipient(ctx, evt.OwnerID)
	if err != nil || to == "" {
		m.logSkip("lead_follow_up_due", evt.LeadID, err)
		return nil
	}

	if err := m.sender.SendLeadFollowUpEmail(ctx, to, evt.Name, evt.Stage); err != nil {
		m.log.Error("lead follow-up email failed", "lead_id", evt.LeadID.String(), "error", err)
	}
	return nil
}

// recipient resolves the owner's address, falling back to the shared lead
// inbox for unowned leads.
func (m *Module) recipient(ctx context.Context, ownerID *uuid.UUID) (string, error) {
	if ownerID == nil {
		return m.cfg.GetLeadInboxAddress(), nil
	}

	addr, err := m.users.GetUserEmail(ctx, *ownerID)
	if err != nil {
		return m.cfg.GetLeadInboxAddress(), err
	}
	return addr, nil
}

func (m *Module) logSkip(event string, leadID uuid.UUID, err error) {
	if err != nil {
		m.log.Warn("notification recipient lookup failed", "event", event, "lead_id", leadID.String(), "error", err)
		return
	}
	m.log.Debug("notification skipped, no recipient", "event", event, "lead_id", leadID.String())
}

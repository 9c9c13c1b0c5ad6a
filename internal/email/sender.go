// Package email renders and delivers transactional mail for the lead pipeline.
package email

import (
	"context"

	"marketplace_admin_backend/platform/config"
)

// Sender delivers the pipeline's transactional emails. All sends are
// best-effort: callers never roll back domain state on a send failure.
type Sender interface {
	SendLeadCapturedEmail(ctx context.Context, toEmail, leadName, source string) error
	SendLeadConvertedEmail(ctx context.Context, toEmail, leadName, serviceRequestID string) error
	SendLeadFollowUpEmail(ctx context.Context, toEmail, leadName, stage string) error
}

// NoopSender is used when no SMTP server is configured.
type NoopSender struct{}

func (NoopSender) SendLeadCapturedEmail(ctx context.Context, toEmail, leadName, source string) error {
	return nil
}

func (NoopSender) SendLeadConvertedEmail(ctx context.Context, toEmail, leadName, serviceRequestID string) error {
	return nil
}

func (NoopSender) SendLeadFollowUpEmail(ctx context.Context, toEmail, leadName, stage string) error {
	return nil
}

// NewSender returns an SMTP sender when email is configured, NoopSender otherwise.
func NewSender(cfg config.EmailConfig) (Sender, error) {
	if !cfg.GetEmailEnabled() {
		return NoopSender{}, nil
	}
	return NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
	), nil
}

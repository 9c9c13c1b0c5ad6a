package email

import (
	"context"
	"fmt"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// SMTPSender implements Sender over a direct SMTP connection via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSMTPSender creates a new SMTPSender with the given SMTP credentials.
func NewSMTPSender(host string, port int, username, password, fromEmail, fromName string) *SMTPSender {
	return &SMTPSender{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

func (s *SMTPSender) SendLeadCapturedEmail(ctx context.Context, toEmail, leadName, source string) error {
	content, err := renderEmailTemplate("lead_captured.html", leadCapturedEmailData{
		baseEmailData: baseEmailData{
			Title:   "New lead captured",
			Heading: "New lead captured",
		},
		LeadName: leadName,
		Source:   source,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectLeadCaptured, content)
}

func (s *SMTPSender) SendLeadConvertedEmail(ctx context.Context, toEmail, leadName, serviceRequestID string) error {
	content, err := renderEmailTemplate("lead_converted.html", leadConvertedEmailData{
		baseEmailData: baseEmailData{
			Title:   "Lead converted",
			Heading: "Lead converted",
		},
		LeadName:         leadName,
		ServiceRequestID: serviceRequestID,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectLeadConverted, content)
}

func (s *SMTPSender) SendLeadFollowUpEmail(ctx context.Context, toEmail, leadName, stage string) error {
	content, err := renderEmailTemplate("lead_follow_up.html", leadFollowUpEmailData{
		baseEmailData: baseEmailData{
			Title:   "Lead needs follow-up",
			Heading: "Lead needs follow-up",
		},
		LeadName: leadName,
		Stage:    stage,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectLeadFollowUp, content)
}

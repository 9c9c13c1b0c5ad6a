package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	subjectLeadCaptured  = "A new lead was captured"
	subjectLeadConverted = "A lead was converted to a service request"
	subjectLeadFollowUp  = "A lead is waiting for follow-up"
)

type baseEmailData struct {
	Title      string
	Heading    string
	Subheading string
	CTALabel   string
	CTAURL     string
}

type leadCapturedEmailData struct {
	baseEmailData
	LeadName string
	Source   string
}

type leadConvertedEmailData struct {
	baseEmailData
	LeadName         string
	ServiceRequestID string
}

type leadFollowUpEmailData struct {
	baseEmailData
	LeadName string
	Stage    string
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}

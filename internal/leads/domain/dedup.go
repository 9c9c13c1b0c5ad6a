package domain

import (
	"strings"

	"marketplace_admin_backend/platform/phone"
)

const (
	noEmailPart = "no-email"
	noPhonePart = "no-phone"
)

// NormalizeEmail lowercases and trims an email address for dedup matching.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// DedupKey computes the uniqueness key for enquiry-sourced leads:
// "<normalized-email-or-placeholder>|<normalized-phone-or-placeholder>".
// Phone numbers are normalized to E.164 using the given region so that
// "06 1234 5678" and "+31612345678" collapse into the same key.
func DedupKey(email, phoneNumber, region string) string {
	emailPart := NormalizeEmail(email)
	if emailPart == "" {
		emailPart = noEmailPart
	}

	phonePart := phone.NormalizeE164In(phoneNumber, region)
	phonePart = strings.ReplaceAll(phonePart, " ", "")
	if phonePart == "" {
		phonePart = noPhonePart
	}

	return emailPart + "|" + phonePart
}

// HasContact reports whether at least one of email/phone is non-empty after
// trimming. Required at enquiry intake and re-checked at conversion time.
func HasContact(email, phoneNumber string) bool {
	return strings.TrimSpace(email) != "" || strings.TrimSpace(phoneNumber) != ""
}

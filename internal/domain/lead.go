package domain

import (
	"regexp"
	"time"
)

// LeadStatus is the sales-pipeline stage of a lead.
type LeadStatus string

const (
	LeadPending    LeadStatus = "pending"
	LeadSent       LeadStatus = "sent"
	LeadInProgress LeadStatus = "in_progress"
	LeadCompleted  LeadStatus = "completed"
)

// EmailStatus tracks the delivery/engagement state of the last outreach
// email sent to a lead. It is written only by the webhook reconciler.
type EmailStatus string

const (
	EmailPending    EmailStatus = "pending"
	EmailDelivered  EmailStatus = "delivered"
	EmailOpened     EmailStatus = "opened"
	EmailClicked    EmailStatus = "clicked"
	EmailBounced    EmailStatus = "bounced"
	EmailComplained EmailStatus = "complained"
)

// Lead is a prospective customer tracked through the sales pipeline.
type Lead struct {
	ID          string      `json:"id"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	CompanyName string      `json:"company_name"`
	ContactName string      `json:"contact_name"`
	Email       string      `json:"email"`
	Status      LeadStatus  `json:"status"`
	EmailStatus EmailStatus `json:"email_status"`
	Owner       string      `json:"owner"`
	// Notes carries auxiliary detail from the most recent delivery event
	// (bounce diagnostics, delivery timing) as a JSON blob.
	Notes string `json:"notes,omitempty"`
}

// ValidLeadStatus reports whether s is one of the four pipeline stages.
func ValidLeadStatus(s string) bool {
	switch LeadStatus(s) {
	case LeadPending, LeadSent, LeadInProgress, LeadCompleted:
		return true
	}
	return false
}

// ValidEmailStatus reports whether s is a known engagement state.
func ValidEmailStatus(s string) bool {
	switch EmailStatus(s) {
	case EmailPending, EmailDelivered, EmailOpened, EmailClicked, EmailBounced, EmailComplained:
		return true
	}
	return false
}

// emailPattern is the same loose local@domain.tld check the UI applies.
// Full RFC 5322 validation is deliberately not attempted.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether addr looks like a deliverable address.
func ValidEmail(addr string) bool {
	return emailPattern.MatchString(addr)
}

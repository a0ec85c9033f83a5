package keai

import (
	"context"
	"time"
)

// Lead is one consultation request captured by the site form.
type Lead struct {
	// ID is the opaque record id assigned by the record store.
	ID string `json:"id"`
	// Company is the applicant company name.
	Company string `json:"company"`
	// RegistrationNo is the business registration number.
	RegistrationNo string `json:"registrationNo"`
	// Representative names the company representative.
	Representative string `json:"representative"`
	// Phone is the contact phone number.
	Phone string `json:"phone"`
	// Email is the contact email address.
	Email string `json:"email"`
	// Industry labels the applicant's line of business.
	Industry string `json:"industry"`
	// FoundedYear is the year the company was established.
	FoundedYear string `json:"foundedYear"`
	// CallWindow is the preferred callback time window.
	CallWindow string `json:"callWindow"`
	// FundingScale is the requested funding size bracket.
	FundingScale string `json:"fundingScale"`
	// FundingTypes lists the requested funding categories.
	FundingTypes []string `json:"fundingTypes"`
	// Inquiry is the free-form inquiry text.
	Inquiry string `json:"inquiry"`
	// Status tracks the handling state, defaulting to "new".
	Status string `json:"status"`
	// Memo is an internal handling note.
	Memo string `json:"memo,omitempty"`
	// ReceivedAt is the record creation time reported by the store.
	ReceivedAt time.Time `json:"receivedAt"`
}

// LeadDraft carries the fields a consultation form submission may set.
// Status, memo, and timestamps are owned by the store.
type LeadDraft struct {
	Company        string
	RegistrationNo string
	Representative string
	Phone          string
	Email          string
	Industry       string
	FoundedYear    string
	CallWindow     string
	FundingScale   string
	FundingTypes   []string
	Inquiry        string
}

// LeadUpdate carries the only lead fields that may be patched.
type LeadUpdate struct {
	Status *string
	Memo   *string
}

// LeadStore adapts lead operations onto the record store.
type LeadStore interface {
	// List returns recent leads, capped at one page.
	List(ctx context.Context) ([]Lead, error)
	// GetByID returns one lead or ErrNotFound.
	GetByID(ctx context.Context, id string) (Lead, error)
	// Create inserts a new lead with the default status.
	Create(ctx context.Context, draft LeadDraft) (Lead, error)
	// Update patches status and memo only.
	Update(ctx context.Context, id string, update LeadUpdate) (Lead, error)
	// CountForDay returns how many leads arrived on one calendar date.
	CountForDay(ctx context.Context, date string) (int, error)
}

// Notifier delivers operator notifications best-effort.
//
// Implementations log their own failures and never propagate them, because a
// dropped notification must not fail the primary response.
type Notifier interface {
	// NotifyLead announces one new or updated lead.
	NotifyLead(ctx context.Context, lead Lead)
}

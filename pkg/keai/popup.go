package keai

import (
	"context"
	"time"
)

// Popup is one site popup banner.
type Popup struct {
	// ID is the opaque record id assigned by the record store.
	ID string `json:"id"`
	// Title labels the popup in the admin list.
	Title string `json:"title"`
	// ImageURL points at the banner image object.
	ImageURL string `json:"imageUrl"`
	// LinkURL optionally makes the banner clickable.
	LinkURL string `json:"linkUrl"`
	// LinkTarget is the anchor target, defaulting to _self.
	LinkTarget string `json:"linkTarget"`
	// Order controls display order, ascending.
	Order int `json:"order"`
	// Active toggles the popup on or off.
	Active bool `json:"isActive"`
	// StartDate optionally bounds visibility (YYYY-MM-DD, inclusive).
	StartDate string `json:"startDate,omitempty"`
	// EndDate optionally bounds visibility (YYYY-MM-DD, inclusive).
	EndDate string `json:"endDate,omitempty"`
	// AltText is the image alt attribute.
	AltText string `json:"altText"`
	// CreatedAt is the record creation time reported by the store.
	CreatedAt time.Time `json:"createdTime,omitzero"`
}

// PopupDraft carries explicitly provided fields for popup writes.
type PopupDraft struct {
	Title      *string
	ImageURL   *string
	LinkURL    *string
	LinkTarget *string
	Order      *int
	Active     *bool
	StartDate  *string
	EndDate    *string
	AltText    *string
}

// PopupStore adapts popup operations onto the record store.
type PopupStore interface {
	// ListActive returns popups inside their date window with Active set,
	// ordered ascending, capped at the public display limit.
	ListActive(ctx context.Context, today string) ([]Popup, error)
	// ListAll returns every popup for the admin view, ordered ascending.
	ListAll(ctx context.Context) ([]Popup, error)
	// Create inserts a new popup from explicitly provided draft fields.
	Create(ctx context.Context, draft PopupDraft) (Popup, error)
	// Update patches only the provided draft fields.
	Update(ctx context.Context, id string, draft PopupDraft) (Popup, error)
	// Delete removes the record permanently.
	Delete(ctx context.Context, id string) error
}

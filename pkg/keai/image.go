package keai

import "context"

// ImageSlot is one named image placement on the site.
//
// The slot catalog is fixed in configuration; only the uploaded URL lives in
// the record store.
type ImageSlot struct {
	// ID is the stable slot identifier, e.g. "hero-home".
	ID string `json:"id"`
	// Name is the human-readable slot label.
	Name string `json:"name"`
	// Category groups slots in the admin list.
	Category string `json:"category"`
	// RecommendedSize hints the expected dimensions, e.g. "1920x1080".
	RecommendedSize string `json:"recommendedSize"`
	// Pages lists the site pages using this slot.
	Pages []string `json:"pages,omitempty"`
	// CSSSelector optionally targets the element the image replaces.
	CSSSelector string `json:"cssSelector,omitempty"`
	// CSSProperty optionally names the styled property, e.g. background-image.
	CSSProperty string `json:"cssProperty,omitempty"`
	// Description optionally explains what the slot shows.
	Description string `json:"description,omitempty"`
	// URL is the currently uploaded image URL, empty when unset.
	URL string `json:"url,omitempty"`
}

// ImageStore adapts image slot URL records onto the record store.
type ImageStore interface {
	// ListURLs returns the uploaded URL per slot id.
	ListURLs(ctx context.Context) (map[string]string, error)
	// SetURL records the uploaded URL for one slot id, creating or patching
	// the backing record as needed.
	SetURL(ctx context.Context, slotID, url string) error
}

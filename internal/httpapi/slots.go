package httpapi

import "keai-site/pkg/keai"

// imageSlots is the fixed catalog of site image placements. Only the uploaded
// URL lives in the record store; everything else is static.
var imageSlots = []keai.ImageSlot{
	// Shared elements.
	{ID: "logo", Name: "Header logo", Category: "common", RecommendedSize: "200x60", Pages: []string{"all"}, CSSSelector: ".keai-logo-image"},
	{ID: "logo-white", Name: "Footer logo (white)", Category: "common", RecommendedSize: "200x60", Pages: []string{"all"}, CSSSelector: ".keai-footer-logo-image"},
	{ID: "favicon", Name: "Favicon", Category: "common", RecommendedSize: "32x32", Pages: []string{"all"}, CSSSelector: `link[rel="icon"]`},
	{ID: "ceo-profile", Name: "CEO profile", Category: "common", RecommendedSize: "600x600", Pages: []string{"company.html"}, CSSSelector: ".keai-ceo-profile img"},
	{ID: "form-image", Name: "Consultation form image", Category: "common", RecommendedSize: "800x1000", Pages: []string{"index.html", "company.html", "process.html", "fund.html", "pro.html"}, CSSSelector: ".keai-contact-image img"},
	{ID: "partnership-icon", Name: "Partnership icon", Category: "common", RecommendedSize: "80x80", Pages: []string{"all"}, CSSSelector: ".keai-partnership-icon"},

	// Home.
	{ID: "hero-home", Name: "Home hero background", Category: "home", RecommendedSize: "1920x1080", Pages: []string{"index.html"}, CSSSelector: ".keai-hero", CSSProperty: "background-image"},
	{ID: "home-service-icon-1", Name: "Home service icon 1", Category: "home", RecommendedSize: "120x120", Pages: []string{"index.html"}, Description: "1:1 expert consultation"},
	{ID: "home-service-icon-2", Name: "Home service icon 2", Category: "home", RecommendedSize: "120x120", Pages: []string{"index.html"}, Description: "Tailored funding design"},
	{ID: "home-service-icon-3", Name: "Home service icon 3", Category: "home", RecommendedSize: "120x120", Pages: []string{"index.html"}, Description: "Follow-up support"},

	// Company.
	{ID: "company-card-1", Name: "Service card 1", Category: "company", RecommendedSize: "400x300", Pages: []string{"company.html"}, Description: "Capability assessment"},
	{ID: "company-card-2", Name: "Service card 2", Category: "company", RecommendedSize: "400x300", Pages: []string{"company.html"}, Description: "Tailored funding strategy"},
	{ID: "company-card-3", Name: "Service card 3", Category: "company", RecommendedSize: "400x300", Pages: []string{"company.html"}, Description: "Application document guide"},
	{ID: "company-card-4", Name: "Service card 4", Category: "company", RecommendedSize: "400x300", Pages: []string{"company.html"}, Description: "Post-approval follow-up"},

	// Process.
	{ID: "hero-process", Name: "Process hero background", Category: "process", RecommendedSize: "1920x1080", Pages: []string{"process.html"}, CSSSelector: ".keai-hero", CSSProperty: "background-image"},
	{ID: "partner-seoul", Name: "Seoul Credit Guarantee Foundation", Category: "process", RecommendedSize: "200x80", Pages: []string{"process.html"}, Description: "Partner institution logo"},
	{ID: "partner-gyeonggi", Name: "Gyeonggi Credit Guarantee Foundation", Category: "process", RecommendedSize: "200x80", Pages: []string{"process.html"}, Description: "Partner institution logo"},
	{ID: "partner-kosme", Name: "KOSME", Category: "process", RecommendedSize: "200x80", Pages: []string{"process.html"}, Description: "Partner institution logo"},
	{ID: "partner-kodit", Name: "KODIT", Category: "process", RecommendedSize: "200x80", Pages: []string{"process.html"}, Description: "Partner institution logo"},
	{ID: "partner-kibo", Name: "KIBO", Category: "process", RecommendedSize: "200x80", Pages: []string{"process.html"}, Description: "Partner institution logo"},
	{ID: "partner-semas", Name: "SEMAS", Category: "process", RecommendedSize: "200x80", Pages: []string{"process.html"}, Description: "Partner institution logo"},

	// Funding consultation.
	{ID: "hero-fund", Name: "Funding hero background", Category: "fund", RecommendedSize: "1920x1080", Pages: []string{"fund.html"}, CSSSelector: ".keai-hero", CSSProperty: "background-image"},
	{ID: "fund-cta-bg", Name: "Funding CTA background", Category: "fund", RecommendedSize: "1920x600", Pages: []string{"fund.html"}, CSSSelector: ".keai-cta-section", CSSProperty: "background-image"},
	{ID: "fund-process-bg", Name: "Funding process background", Category: "fund", RecommendedSize: "1920x800", Pages: []string{"fund.html"}, CSSSelector: ".keai-process-section", CSSProperty: "background-image"},

	// Professional services.
	{ID: "hero-pro", Name: "Pro services hero background", Category: "pro", RecommendedSize: "1920x1080", Pages: []string{"pro.html"}, CSSSelector: ".keai-hero", CSSProperty: "background-image"},
	{ID: "pro-section-bg", Name: "Pro services section background", Category: "pro", RecommendedSize: "1920x800", Pages: []string{"pro.html"}, CSSSelector: ".keai-pro-section", CSSProperty: "background-image"},
	{ID: "pro-icon-1", Name: "Pro services icon 1", Category: "pro", RecommendedSize: "120x120", Pages: []string{"pro.html"}},
	{ID: "pro-icon-2", Name: "Pro services icon 2", Category: "pro", RecommendedSize: "120x120", Pages: []string{"pro.html"}},
	{ID: "pro-icon-3", Name: "Pro services icon 3", Category: "pro", RecommendedSize: "120x120", Pages: []string{"pro.html"}},
	{ID: "pro-icon-4", Name: "Pro services icon 4", Category: "pro", RecommendedSize: "120x120", Pages: []string{"pro.html"}},

	// Online marketing.
	{ID: "hero-mkt", Name: "Marketing hero background", Category: "marketing", RecommendedSize: "1920x1080", Pages: []string{"mkt.html"}, CSSSelector: ".keai-hero", CSSProperty: "background-image"},
	{ID: "mkt-process-graph", Name: "Marketing process graph", Category: "marketing", RecommendedSize: "1200x600", Pages: []string{"mkt.html"}},

	// Open Graph images.
	{ID: "og-home", Name: "OG image - home", Category: "og", RecommendedSize: "1200x630", Pages: []string{"index.html"}},
	{ID: "og-company", Name: "OG image - company", Category: "og", RecommendedSize: "1200x630", Pages: []string{"company.html"}},
	{ID: "og-process", Name: "OG image - process", Category: "og", RecommendedSize: "1200x630", Pages: []string{"process.html"}},
	{ID: "og-fund", Name: "OG image - funding", Category: "og", RecommendedSize: "1200x630", Pages: []string{"fund.html"}},
	{ID: "og-pro", Name: "OG image - pro services", Category: "og", RecommendedSize: "1200x630", Pages: []string{"pro.html"}},
	{ID: "og-mkt", Name: "OG image - marketing", Category: "og", RecommendedSize: "1200x630", Pages: []string{"mkt.html"}},
}

// slotByID returns the catalog entry for one slot id.
func slotByID(id string) (keai.ImageSlot, bool) {
	for _, slot := range imageSlots {
		if slot.ID == id {
			return slot, true
		}
	}

	return keai.ImageSlot{}, false
}

// slotCategories returns the catalog categories in catalog order.
func slotCategories() []string {
	var categories []string
	seen := make(map[string]bool)
	for _, slot := range imageSlots {
		if !seen[slot.Category] {
			seen[slot.Category] = true
			categories = append(categories, slot.Category)
		}
	}

	return categories
}

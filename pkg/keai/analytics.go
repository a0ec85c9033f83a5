package keai

import (
	"context"
	"time"
)

// AnalyticsDay is one day of site metrics snapshotted into the record store.
type AnalyticsDay struct {
	// Date is the calendar date (YYYY-MM-DD).
	Date string `json:"date"`
	// Visitors is active users for the day.
	Visitors int `json:"visitors"`
	// Pageviews is screen page views for the day.
	Pageviews int `json:"pageviews"`
	// AvgDuration is the average session duration in seconds, one decimal.
	AvgDuration float64 `json:"avgDuration"`
	// Sessions is the session count.
	Sessions int `json:"sessions"`
	// Leads is how many leads arrived that day.
	Leads int `json:"leads"`
	// Clicks is search clicks from Search Console.
	Clicks int `json:"clicks"`
	// Impressions is search impressions from Search Console.
	Impressions int `json:"impressions"`

	// Traffic source split by default channel group.
	SourceOrganic  int `json:"sourceOrganic"`
	SourceDirect   int `json:"sourceDirect"`
	SourceReferral int `json:"sourceReferral"`
	SourceSocial   int `json:"sourceSocial"`
	SourcePaid     int `json:"sourcePaid"`
	SourceOther    int `json:"sourceOther"`

	// Device split by device category.
	DeviceDesktop int `json:"deviceDesktop"`
	DeviceMobile  int `json:"deviceMobile"`
	DeviceTablet  int `json:"deviceTablet"`

	// TopPages is a JSON-encoded top-5 list of {path, views}.
	TopPages string `json:"topPages,omitempty"`
	// TopCountries is a JSON-encoded top-5 list of {country, users}.
	TopCountries string `json:"topCountries,omitempty"`
	// TopReferrers is a JSON-encoded top-5 list of {source, users}.
	TopReferrers string `json:"topReferrers,omitempty"`

	// CollectedAt records when the snapshot was written.
	CollectedAt time.Time `json:"collectedAt,omitzero"`
}

// AnalyticsStore adapts analytics day snapshots onto the record store.
type AnalyticsStore interface {
	// Upsert writes one day, patching an existing record for the same date
	// or creating a new one.
	Upsert(ctx context.Context, day AnalyticsDay) error
	// Range returns stored days inside (start, end), ascending, capped at a
	// year of records.
	Range(ctx context.Context, start, end string) ([]AnalyticsDay, error)
}

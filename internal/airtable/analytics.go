package airtable

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"keai-site/pkg/keai"
)

// Column names of the analytics table.
const (
	analyticsFieldDate           = "date"
	analyticsFieldVisitors       = "visitors"
	analyticsFieldPageviews      = "pageviews"
	analyticsFieldAvgDuration    = "avgDuration"
	analyticsFieldSessions       = "sessions"
	analyticsFieldLeads          = "leads"
	analyticsFieldClicks         = "clicks"
	analyticsFieldImpressions    = "impressions"
	analyticsFieldSourceOrganic  = "sourceOrganic"
	analyticsFieldSourceDirect   = "sourceDirect"
	analyticsFieldSourceReferral = "sourceReferral"
	analyticsFieldSourceSocial   = "sourceSocial"
	analyticsFieldSourcePaid     = "sourcePaid"
	analyticsFieldSourceOther    = "sourceOther"
	analyticsFieldDeviceDesktop  = "deviceDesktop"
	analyticsFieldDeviceMobile   = "deviceMobile"
	analyticsFieldDeviceTablet   = "deviceTablet"
	analyticsFieldTopPages       = "topPages"
	analyticsFieldTopCountries   = "topCountries"
	analyticsFieldTopReferrers   = "topReferrers"
	analyticsFieldCollectedAt    = "collectedAt"
)

// AnalyticsStore implements keai.AnalyticsStore against the analytics table.
type AnalyticsStore struct {
	client *Client
	table  string
	clock  func() time.Time
}

// NewAnalyticsStore builds an analytics store over one analytics table.
func NewAnalyticsStore(client *Client, table string) (*AnalyticsStore, error) {
	if client == nil {
		return nil, fmt.Errorf("new analytics store: nil client")
	}
	if table == "" {
		return nil, fmt.Errorf("new analytics store: missing table")
	}

	return &AnalyticsStore{client: client, table: table, clock: time.Now}, nil
}

// Upsert writes one day, patching the record matching the date when one
// exists and creating a new one otherwise.
func (s *AnalyticsStore) Upsert(ctx context.Context, day keai.AnalyticsDay) error {
	if day.Date == "" {
		return keai.NewValidationError("date")
	}

	query := url.Values{}
	query.Set("filterByFormula", fmt.Sprintf("{%s} = '%s'", analyticsFieldDate, day.Date))
	query.Set("maxRecords", "1")

	listing, err := s.client.listRecords(ctx, s.table, query)
	if err != nil {
		return fmt.Errorf("find analytics day %s: %w", day.Date, err)
	}

	fields := analyticsDayFields(day, s.clock())
	if len(listing.Records) > 0 {
		if _, err := s.client.patchRecord(ctx, s.table, listing.Records[0].ID, fields); err != nil {
			return fmt.Errorf("update analytics day %s: %w", day.Date, err)
		}
		return nil
	}

	if _, err := s.client.createRecord(ctx, s.table, fields); err != nil {
		return fmt.Errorf("create analytics day %s: %w", day.Date, err)
	}

	return nil
}

// Range returns stored days strictly inside (start, end), ascending.
func (s *AnalyticsStore) Range(ctx context.Context, start, end string) ([]keai.AnalyticsDay, error) {
	query := url.Values{}
	query.Set("filterByFormula", fmt.Sprintf(
		"AND(IS_AFTER({%s}, '%s'), IS_BEFORE({%s}, '%s'))",
		analyticsFieldDate, start, analyticsFieldDate, end,
	))
	query.Set("sort[0][field]", analyticsFieldDate)
	query.Set("sort[0][direction]", "asc")
	query.Set("maxRecords", strconv.Itoa(maxAnalyticsRecords))

	listing, err := s.client.listRecords(ctx, s.table, query)
	if err != nil {
		return nil, fmt.Errorf("range analytics days: %w", err)
	}

	days := make([]keai.AnalyticsDay, 0, len(listing.Records))
	for _, entry := range listing.Records {
		days = append(days, analyticsDayFromRecord(entry))
	}

	return days, nil
}

func analyticsDayFields(day keai.AnalyticsDay, collectedAt time.Time) map[string]any {
	return map[string]any{
		analyticsFieldDate:           day.Date,
		analyticsFieldVisitors:       day.Visitors,
		analyticsFieldPageviews:      day.Pageviews,
		analyticsFieldAvgDuration:    day.AvgDuration,
		analyticsFieldSessions:       day.Sessions,
		analyticsFieldLeads:          day.Leads,
		analyticsFieldClicks:         day.Clicks,
		analyticsFieldImpressions:    day.Impressions,
		analyticsFieldSourceOrganic:  day.SourceOrganic,
		analyticsFieldSourceDirect:   day.SourceDirect,
		analyticsFieldSourceReferral: day.SourceReferral,
		analyticsFieldSourceSocial:   day.SourceSocial,
		analyticsFieldSourcePaid:     day.SourcePaid,
		analyticsFieldSourceOther:    day.SourceOther,
		analyticsFieldDeviceDesktop:  day.DeviceDesktop,
		analyticsFieldDeviceMobile:   day.DeviceMobile,
		analyticsFieldDeviceTablet:   day.DeviceTablet,
		analyticsFieldTopPages:       day.TopPages,
		analyticsFieldTopCountries:   day.TopCountries,
		analyticsFieldTopReferrers:   day.TopReferrers,
		analyticsFieldCollectedAt:    collectedAt.UTC().Format(time.RFC3339),
	}
}

func analyticsDayFromRecord(entry record) keai.AnalyticsDay {
	collectedAt, _ := time.Parse(time.RFC3339, fieldString(entry.Fields, analyticsFieldCollectedAt))

	return keai.AnalyticsDay{
		Date:           fieldString(entry.Fields, analyticsFieldDate),
		Visitors:       fieldInt(entry.Fields, analyticsFieldVisitors),
		Pageviews:      fieldInt(entry.Fields, analyticsFieldPageviews),
		AvgDuration:    fieldFloat(entry.Fields, analyticsFieldAvgDuration),
		Sessions:       fieldInt(entry.Fields, analyticsFieldSessions),
		Leads:          fieldInt(entry.Fields, analyticsFieldLeads),
		Clicks:         fieldInt(entry.Fields, analyticsFieldClicks),
		Impressions:    fieldInt(entry.Fields, analyticsFieldImpressions),
		SourceOrganic:  fieldInt(entry.Fields, analyticsFieldSourceOrganic),
		SourceDirect:   fieldInt(entry.Fields, analyticsFieldSourceDirect),
		SourceReferral: fieldInt(entry.Fields, analyticsFieldSourceReferral),
		SourceSocial:   fieldInt(entry.Fields, analyticsFieldSourceSocial),
		SourcePaid:     fieldInt(entry.Fields, analyticsFieldSourcePaid),
		SourceOther:    fieldInt(entry.Fields, analyticsFieldSourceOther),
		DeviceDesktop:  fieldInt(entry.Fields, analyticsFieldDeviceDesktop),
		DeviceMobile:   fieldInt(entry.Fields, analyticsFieldDeviceMobile),
		DeviceTablet:   fieldInt(entry.Fields, analyticsFieldDeviceTablet),
		TopPages:       fieldString(entry.Fields, analyticsFieldTopPages),
		TopCountries:   fieldString(entry.Fields, analyticsFieldTopCountries),
		TopReferrers:   fieldString(entry.Fields, analyticsFieldTopReferrers),
		CollectedAt:    collectedAt,
	}
}

var _ keai.AnalyticsStore = (*AnalyticsStore)(nil)

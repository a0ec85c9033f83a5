package gmetrics

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"keai-site/pkg/keai"
)

const (
	defaultSyncDays = 7

	// Pause between record-store upserts to stay under write rate limits.
	upsertPause = 200 * time.Millisecond

	topListLimit = 5
)

// Summary is the outcome of one sync run.
type Summary struct {
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
	SavedCount int    `json:"savedCount"`
	ErrorCount int    `json:"errorCount"`
}

// SyncerOption customizes a Syncer.
type SyncerOption func(*Syncer)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) SyncerOption {
	return func(s *Syncer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides time lookup.
func WithClock(clock func() time.Time) SyncerOption {
	return func(s *Syncer) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithSleep overrides the inter-upsert pause.
func WithSleep(sleep func(time.Duration)) SyncerOption {
	return func(s *Syncer) {
		if sleep != nil {
			s.sleep = sleep
		}
	}
}

// Syncer pulls Google metrics and upserts one analytics record per day.
type Syncer struct {
	client    *Client
	analytics keai.AnalyticsStore
	leads     keai.LeadStore

	logger *slog.Logger
	clock  func() time.Time
	sleep  func(time.Duration)
}

// NewSyncer builds a metrics sync job.
func NewSyncer(client *Client, analytics keai.AnalyticsStore, leads keai.LeadStore, options ...SyncerOption) *Syncer {
	syncer := &Syncer{
		client:    client,
		analytics: analytics,
		leads:     leads,
		logger:    slog.Default(),
		clock:     time.Now,
		sleep:     time.Sleep,
	}
	for _, option := range options {
		option(syncer)
	}

	return syncer
}

type sourcedReports struct {
	base      *runReportResponse
	search    *searchQueryResponse
	traffic   *runReportResponse
	devices   *runReportResponse
	pages     *runReportResponse
	countries *runReportResponse
	referrers *runReportResponse
}

// Run collects the last days of metrics and upserts them.
//
// Individual metric sources degrade to zero-filled defaults when they fail;
// only having no base GA4 data at all yields an empty summary. Per-day upsert
// failures are counted, not propagated.
func (s *Syncer) Run(ctx context.Context, days int) (Summary, error) {
	if days <= 0 {
		days = defaultSyncDays
	}

	end := s.clock().UTC()
	start := end.AddDate(0, 0, -days)
	startDate := start.Format(time.DateOnly)
	endDate := end.Format(time.DateOnly)

	s.logger.Info("analytics sync started",
		slog.String("start", startDate),
		slog.String("end", endDate),
	)

	reports := s.collect(ctx, startDate, endDate)

	baseByDay := parseBaseMetrics(reports.base)
	searchByDay := parseSearchMetrics(reports.search)
	trafficByDay := parseTrafficSources(reports.traffic)
	deviceByDay := parseDeviceSplit(reports.devices)
	pagesByDay := parseTopList(reports.pages, "path", "views")
	countriesByDay := parseTopList(reports.countries, "country", "users")
	referrersByDay := parseTopList(reports.referrers, "source", "users")

	summary := Summary{StartDate: startDate, EndDate: endDate}

	dates := make([]string, 0, len(baseByDay))
	for date := range baseByDay {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	for index, date := range dates {
		if index > 0 {
			s.sleep(upsertPause)
		}

		day := baseByDay[date]
		day.Date = date
		day.Leads = s.leadCount(ctx, date)
		if search, exists := searchByDay[date]; exists {
			day.Clicks = search.Clicks
			day.Impressions = search.Impressions
		}
		if traffic, exists := trafficByDay[date]; exists {
			day.SourceOrganic = traffic.organic
			day.SourceDirect = traffic.direct
			day.SourceReferral = traffic.referral
			day.SourceSocial = traffic.social
			day.SourcePaid = traffic.paid
			day.SourceOther = traffic.other
		}
		if device, exists := deviceByDay[date]; exists {
			day.DeviceDesktop = device.desktop
			day.DeviceMobile = device.mobile
			day.DeviceTablet = device.tablet
		}
		day.TopPages = pagesByDay[date]
		day.TopCountries = countriesByDay[date]
		day.TopReferrers = referrersByDay[date]

		if err := s.analytics.Upsert(ctx, day); err != nil {
			s.logger.Warn("analytics upsert failed",
				slog.String("date", date),
				slog.String("error", err.Error()),
			)
			summary.ErrorCount++
			continue
		}
		summary.SavedCount++
	}

	s.logger.Info("analytics sync finished",
		slog.Int("saved", summary.SavedCount),
		slog.Int("errors", summary.ErrorCount),
	)

	return summary, nil
}

// collect fans out all metric source calls. A failed source is logged and
// left nil so parsing degrades to defaults.
func (s *Syncer) collect(ctx context.Context, start, end string) sourcedReports {
	var reports sourcedReports

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		reports.base = s.fetchReport(groupCtx, "base", start, end, s.client.baseMetrics)
		return nil
	})
	group.Go(func() error {
		search, err := s.client.searchQuery(groupCtx, start, end)
		if err != nil {
			s.logger.Warn("metric source failed",
				slog.String("source", "search-console"),
				slog.String("error", err.Error()),
			)
			return nil
		}
		reports.search = search
		return nil
	})
	group.Go(func() error {
		reports.traffic = s.fetchReport(groupCtx, "traffic", start, end, s.client.trafficSources)
		return nil
	})
	group.Go(func() error {
		reports.devices = s.fetchReport(groupCtx, "devices", start, end, s.client.deviceSplit)
		return nil
	})
	group.Go(func() error {
		reports.pages = s.fetchReport(groupCtx, "top-pages", start, end, s.client.topPages)
		return nil
	})
	group.Go(func() error {
		reports.countries = s.fetchReport(groupCtx, "countries", start, end, s.client.topCountries)
		return nil
	})
	group.Go(func() error {
		reports.referrers = s.fetchReport(groupCtx, "referrers", start, end, s.client.topReferrers)
		return nil
	})
	_ = group.Wait()

	return reports
}

func (s *Syncer) fetchReport(
	ctx context.Context,
	source, start, end string,
	fetch func(context.Context, string, string) (*runReportResponse, error),
) *runReportResponse {
	report, err := fetch(ctx, start, end)
	if err != nil {
		s.logger.Warn("metric source failed",
			slog.String("source", source),
			slog.String("error", err.Error()),
		)
		return nil
	}
	return report
}

func (s *Syncer) leadCount(ctx context.Context, date string) int {
	if s.leads == nil {
		return 0
	}
	count, err := s.leads.CountForDay(ctx, date)
	if err != nil {
		s.logger.Warn("lead count failed",
			slog.String("date", date),
			slog.String("error", err.Error()),
		)
		return 0
	}
	return count
}

func parseBaseMetrics(report *runReportResponse) map[string]keai.AnalyticsDay {
	days := make(map[string]keai.AnalyticsDay)
	if report == nil {
		return days
	}
	for _, row := range report.Rows {
		if len(row.DimensionValues) < 1 || len(row.MetricValues) < 4 {
			continue
		}
		date := ga4Date(row.DimensionValues[0].Value)
		duration, _ := strconv.ParseFloat(row.MetricValues[2].Value, 64)
		days[date] = keai.AnalyticsDay{
			Visitors:    parseCount(row.MetricValues[0].Value),
			Pageviews:   parseCount(row.MetricValues[1].Value),
			AvgDuration: math.Round(duration*10) / 10,
			Sessions:    parseCount(row.MetricValues[3].Value),
		}
	}
	return days
}

type searchDay struct {
	Clicks      int
	Impressions int
}

func parseSearchMetrics(report *searchQueryResponse) map[string]searchDay {
	days := make(map[string]searchDay)
	if report == nil {
		return days
	}
	for _, row := range report.Rows {
		if len(row.Keys) < 1 {
			continue
		}
		days[row.Keys[0]] = searchDay{
			Clicks:      int(row.Clicks),
			Impressions: int(row.Impressions),
		}
	}
	return days
}

type trafficSplit struct {
	organic, direct, referral, social, paid, other int
}

func parseTrafficSources(report *runReportResponse) map[string]trafficSplit {
	days := make(map[string]trafficSplit)
	if report == nil {
		return days
	}
	for _, row := range report.Rows {
		if len(row.DimensionValues) < 2 || len(row.MetricValues) < 1 {
			continue
		}
		date := ga4Date(row.DimensionValues[0].Value)
		channel := strings.ToLower(row.DimensionValues[1].Value)
		users := parseCount(row.MetricValues[0].Value)

		split := days[date]
		switch {
		case strings.Contains(channel, "organic"):
			split.organic += users
		case strings.Contains(channel, "direct"):
			split.direct += users
		case strings.Contains(channel, "referral"):
			split.referral += users
		case strings.Contains(channel, "social"):
			split.social += users
		case strings.Contains(channel, "paid"):
			split.paid += users
		default:
			split.other += users
		}
		days[date] = split
	}
	return days
}

type deviceSplit struct {
	desktop, mobile, tablet int
}

func parseDeviceSplit(report *runReportResponse) map[string]deviceSplit {
	days := make(map[string]deviceSplit)
	if report == nil {
		return days
	}
	for _, row := range report.Rows {
		if len(row.DimensionValues) < 2 || len(row.MetricValues) < 1 {
			continue
		}
		date := ga4Date(row.DimensionValues[0].Value)
		users := parseCount(row.MetricValues[0].Value)

		split := days[date]
		switch strings.ToLower(row.DimensionValues[1].Value) {
		case "desktop":
			split.desktop += users
		case "mobile":
			split.mobile += users
		case "tablet":
			split.tablet += users
		}
		days[date] = split
	}
	return days
}

// parseTopList keeps the first topListLimit rows per day (rows arrive sorted
// by the metric) and JSON-encodes them under the given key names.
func parseTopList(report *runReportResponse, labelKey, countKey string) map[string]string {
	entries := make(map[string][]map[string]any)
	if report == nil {
		return map[string]string{}
	}
	for _, row := range report.Rows {
		if len(row.DimensionValues) < 2 || len(row.MetricValues) < 1 {
			continue
		}
		date := ga4Date(row.DimensionValues[0].Value)
		if len(entries[date]) >= topListLimit {
			continue
		}
		entries[date] = append(entries[date], map[string]any{
			labelKey: row.DimensionValues[1].Value,
			countKey: parseCount(row.MetricValues[0].Value),
		})
	}

	encoded := make(map[string]string, len(entries))
	for date, list := range entries {
		raw, err := json.Marshal(list)
		if err != nil {
			continue
		}
		encoded[date] = string(raw)
	}
	return encoded
}

func parseCount(raw string) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return value
}

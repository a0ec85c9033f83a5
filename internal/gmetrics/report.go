package gmetrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"keai-site/pkg/keai"
)

// DailyPoint is one day in the report series.
//
// Date is compacted to YYYYMMDD for chart axes.
type DailyPoint struct {
	Date        string  `json:"date"`
	Visitors    int     `json:"visitors"`
	Pageviews   int     `json:"pageviews"`
	Duration    float64 `json:"duration"`
	Sessions    int     `json:"sessions"`
	Leads       int     `json:"leads"`
	Clicks      int     `json:"clicks"`
	Impressions int     `json:"impressions"`
}

// SearchPoint is one day of search metrics in the report.
type SearchPoint struct {
	Date        string  `json:"date"`
	Clicks      int     `json:"clicks"`
	Impressions int     `json:"impressions"`
	CTR         float64 `json:"ctr"`
	Position    float64 `json:"position"`
}

// ReportTotals aggregates the report period.
type ReportTotals struct {
	Visitors    int     `json:"visitors"`
	Pageviews   int     `json:"pageviews"`
	AvgDuration float64 `json:"avgDuration"`
	Sessions    int     `json:"sessions"`
	Leads       int     `json:"leads"`
	Clicks      int     `json:"clicks"`
	Impressions int     `json:"impressions"`
	AvgCTR      float64 `json:"avgCtr"`
}

// Report is the stored-metrics summary served by the analytics endpoint.
type Report struct {
	Period      string        `json:"period"`
	StartDate   string        `json:"startDate"`
	EndDate     string        `json:"endDate"`
	Totals      ReportTotals  `json:"totals"`
	DailyData   []DailyPoint  `json:"dailyData"`
	SearchData  []SearchPoint `json:"searchData"`
	RecordCount int           `json:"recordCount"`
}

// periodStart maps the period parameter onto a start offset. Unknown values
// fall back to 30 days.
func periodStart(end time.Time, period string) time.Time {
	switch strings.TrimSpace(period) {
	case "7days":
		return end.AddDate(0, 0, -7)
	case "90days":
		return end.AddDate(0, 0, -90)
	case "1year":
		return end.AddDate(-1, 0, 0)
	default:
		return end.AddDate(0, 0, -30)
	}
}

// BuildReport reads stored analytics days for the period and aggregates them.
func BuildReport(ctx context.Context, store keai.AnalyticsStore, now time.Time, period string) (Report, error) {
	if store == nil {
		return Report{}, fmt.Errorf("build analytics report: nil store")
	}
	if strings.TrimSpace(period) == "" {
		period = "30days"
	}

	end := now.UTC()
	start := periodStart(end, period)
	// The range filter is exclusive, so reach one day further back.
	start = start.AddDate(0, 0, -1)

	startDate := start.Format(time.DateOnly)
	endDate := end.Format(time.DateOnly)

	days, err := store.Range(ctx, startDate, endDate)
	if err != nil {
		return Report{}, fmt.Errorf("build analytics report: %w", err)
	}

	report := Report{
		Period:      period,
		StartDate:   startDate,
		EndDate:     endDate,
		DailyData:   make([]DailyPoint, 0, len(days)),
		SearchData:  make([]SearchPoint, 0, len(days)),
		RecordCount: len(days),
	}

	var durationSum float64
	for _, day := range days {
		compactDate := strings.ReplaceAll(day.Date, "-", "")

		report.DailyData = append(report.DailyData, DailyPoint{
			Date:        compactDate,
			Visitors:    day.Visitors,
			Pageviews:   day.Pageviews,
			Duration:    day.AvgDuration,
			Sessions:    day.Sessions,
			Leads:       day.Leads,
			Clicks:      day.Clicks,
			Impressions: day.Impressions,
		})

		ctr := 0.0
		if day.Impressions > 0 {
			ctr = float64(day.Clicks) / float64(day.Impressions) * 100
		}
		report.SearchData = append(report.SearchData, SearchPoint{
			Date:        compactDate,
			Clicks:      day.Clicks,
			Impressions: day.Impressions,
			CTR:         ctr,
		})

		report.Totals.Visitors += day.Visitors
		report.Totals.Pageviews += day.Pageviews
		report.Totals.Sessions += day.Sessions
		report.Totals.Leads += day.Leads
		report.Totals.Clicks += day.Clicks
		report.Totals.Impressions += day.Impressions
		durationSum += day.AvgDuration
	}

	if len(days) > 0 {
		report.Totals.AvgDuration = durationSum / float64(len(days))
		if report.Totals.Impressions > 0 {
			report.Totals.AvgCTR = float64(report.Totals.Clicks) / float64(report.Totals.Impressions) * 100
		}
	}

	return report, nil
}

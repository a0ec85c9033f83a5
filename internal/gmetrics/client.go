// Package gmetrics collects GA4 and Search Console metrics and snapshots them
// into the analytics store, one record per day.
package gmetrics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"keai-site/pkg/keai"
)

const (
	defaultAnalyticsBaseURL     = "https://analyticsdata.googleapis.com/v1beta"
	defaultSearchConsoleBaseURL = "https://www.googleapis.com/webmasters/v3"

	reportRowLimit = 500

	maxErrorBodyBytes = 2048
)

// ClientConfig configures the Google metrics client.
type ClientConfig struct {
	// PropertyID is the numeric GA4 property id.
	PropertyID string
	// SiteURL is the Search Console property URL.
	SiteURL string
	// HTTPClient must carry service-account credentials (oauth2 transport).
	HTTPClient *http.Client
	// AnalyticsBaseURL overrides the GA4 Data API endpoint, for tests.
	AnalyticsBaseURL string
	// SearchConsoleBaseURL overrides the Search Console endpoint, for tests.
	SearchConsoleBaseURL string
}

// Client calls the GA4 Data API and the Search Console query API.
type Client struct {
	httpClient       *http.Client
	propertyID       string
	siteURL          string
	analyticsBaseURL string
	searchBaseURL    string
}

// NewClient validates the config and builds a metrics client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if strings.TrimSpace(cfg.PropertyID) == "" {
		return nil, fmt.Errorf("new gmetrics client: missing property id")
	}
	if strings.TrimSpace(cfg.SiteURL) == "" {
		return nil, fmt.Errorf("new gmetrics client: missing site url")
	}
	if cfg.HTTPClient == nil {
		return nil, fmt.Errorf("new gmetrics client: missing http client")
	}

	analyticsBaseURL := strings.TrimRight(cfg.AnalyticsBaseURL, "/")
	if analyticsBaseURL == "" {
		analyticsBaseURL = defaultAnalyticsBaseURL
	}
	searchBaseURL := strings.TrimRight(cfg.SearchConsoleBaseURL, "/")
	if searchBaseURL == "" {
		searchBaseURL = defaultSearchConsoleBaseURL
	}

	return &Client{
		httpClient:       cfg.HTTPClient,
		propertyID:       strings.TrimSpace(cfg.PropertyID),
		siteURL:          strings.TrimSpace(cfg.SiteURL),
		analyticsBaseURL: analyticsBaseURL,
		searchBaseURL:    searchBaseURL,
	}, nil
}

type reportDateRange struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type reportDimension struct {
	Name string `json:"name"`
}

type reportMetric struct {
	Name string `json:"name"`
}

type reportOrderBy struct {
	Dimension *reportDimensionOrder `json:"dimension,omitempty"`
	Metric    *reportMetricOrder    `json:"metric,omitempty"`
	Desc      bool                  `json:"desc,omitempty"`
}

type reportDimensionOrder struct {
	DimensionName string `json:"dimensionName"`
}

type reportMetricOrder struct {
	MetricName string `json:"metricName"`
}

type runReportRequest struct {
	DateRanges []reportDateRange `json:"dateRanges"`
	Dimensions []reportDimension `json:"dimensions"`
	Metrics    []reportMetric    `json:"metrics"`
	OrderBys   []reportOrderBy   `json:"orderBys,omitempty"`
	Limit      int               `json:"limit,omitempty"`
}

type reportValue struct {
	Value string `json:"value"`
}

type reportRow struct {
	DimensionValues []reportValue `json:"dimensionValues"`
	MetricValues    []reportValue `json:"metricValues"`
}

type runReportResponse struct {
	Rows []reportRow `json:"rows"`
}

type searchQueryRequest struct {
	StartDate  string   `json:"startDate"`
	EndDate    string   `json:"endDate"`
	Dimensions []string `json:"dimensions"`
	RowLimit   int      `json:"rowLimit"`
}

type searchQueryRow struct {
	Keys        []string `json:"keys"`
	Clicks      float64  `json:"clicks"`
	Impressions float64  `json:"impressions"`
}

type searchQueryResponse struct {
	Rows []searchQueryRow `json:"rows"`
}

func (c *Client) runReport(ctx context.Context, body runReportRequest) (*runReportResponse, error) {
	endpoint := fmt.Sprintf("%s/properties/%s:runReport", c.analyticsBaseURL, c.propertyID)

	var response runReportResponse
	if err := c.postJSON(ctx, "ga4", endpoint, body, &response); err != nil {
		return nil, err
	}

	return &response, nil
}

func (c *Client) searchQuery(ctx context.Context, start, end string) (*searchQueryResponse, error) {
	endpoint := fmt.Sprintf("%s/sites/%s/searchAnalytics/query", c.searchBaseURL, url.PathEscape(c.siteURL))
	body := searchQueryRequest{
		StartDate:  start,
		EndDate:    end,
		Dimensions: []string{"date"},
		RowLimit:   reportRowLimit,
	}

	var response searchQueryResponse
	if err := c.postJSON(ctx, "search-console", endpoint, body, &response); err != nil {
		return nil, err
	}

	return &response, nil
}

func (c *Client) postJSON(ctx context.Context, service, endpoint string, body, target any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%s encode request: %w", service, err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%s build request: %w", service, err)
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("%s request: %w", service, err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(response.Body, maxErrorBodyBytes))
		return &keai.UpstreamError{Service: service, Status: response.StatusCode, Body: string(detail)}
	}

	if err := json.NewDecoder(response.Body).Decode(target); err != nil {
		return fmt.Errorf("%s decode response: %w", service, err)
	}

	return nil
}

// baseMetrics fetches per-day visitors, pageviews, duration and sessions.
func (c *Client) baseMetrics(ctx context.Context, start, end string) (*runReportResponse, error) {
	return c.runReport(ctx, runReportRequest{
		DateRanges: []reportDateRange{{StartDate: start, EndDate: end}},
		Dimensions: []reportDimension{{Name: "date"}},
		Metrics: []reportMetric{
			{Name: "activeUsers"},
			{Name: "screenPageViews"},
			{Name: "averageSessionDuration"},
			{Name: "sessions"},
		},
		OrderBys: []reportOrderBy{{Dimension: &reportDimensionOrder{DimensionName: "date"}}},
	})
}

func (c *Client) trafficSources(ctx context.Context, start, end string) (*runReportResponse, error) {
	return c.runReport(ctx, runReportRequest{
		DateRanges: []reportDateRange{{StartDate: start, EndDate: end}},
		Dimensions: []reportDimension{{Name: "date"}, {Name: "sessionDefaultChannelGroup"}},
		Metrics:    []reportMetric{{Name: "activeUsers"}},
		OrderBys:   []reportOrderBy{{Dimension: &reportDimensionOrder{DimensionName: "date"}}},
	})
}

func (c *Client) deviceSplit(ctx context.Context, start, end string) (*runReportResponse, error) {
	return c.runReport(ctx, runReportRequest{
		DateRanges: []reportDateRange{{StartDate: start, EndDate: end}},
		Dimensions: []reportDimension{{Name: "date"}, {Name: "deviceCategory"}},
		Metrics:    []reportMetric{{Name: "activeUsers"}},
		OrderBys:   []reportOrderBy{{Dimension: &reportDimensionOrder{DimensionName: "date"}}},
	})
}

func (c *Client) topPages(ctx context.Context, start, end string) (*runReportResponse, error) {
	return c.runReport(ctx, runReportRequest{
		DateRanges: []reportDateRange{{StartDate: start, EndDate: end}},
		Dimensions: []reportDimension{{Name: "date"}, {Name: "pagePath"}},
		Metrics:    []reportMetric{{Name: "screenPageViews"}},
		OrderBys: []reportOrderBy{
			{Dimension: &reportDimensionOrder{DimensionName: "date"}},
			{Metric: &reportMetricOrder{MetricName: "screenPageViews"}, Desc: true},
		},
		Limit: reportRowLimit,
	})
}

func (c *Client) topCountries(ctx context.Context, start, end string) (*runReportResponse, error) {
	return c.runReport(ctx, runReportRequest{
		DateRanges: []reportDateRange{{StartDate: start, EndDate: end}},
		Dimensions: []reportDimension{{Name: "date"}, {Name: "country"}},
		Metrics:    []reportMetric{{Name: "activeUsers"}},
		OrderBys: []reportOrderBy{
			{Dimension: &reportDimensionOrder{DimensionName: "date"}},
			{Metric: &reportMetricOrder{MetricName: "activeUsers"}, Desc: true},
		},
		Limit: reportRowLimit,
	})
}

func (c *Client) topReferrers(ctx context.Context, start, end string) (*runReportResponse, error) {
	return c.runReport(ctx, runReportRequest{
		DateRanges: []reportDateRange{{StartDate: start, EndDate: end}},
		Dimensions: []reportDimension{{Name: "date"}, {Name: "sessionSource"}},
		Metrics:    []reportMetric{{Name: "activeUsers"}},
		OrderBys: []reportOrderBy{
			{Dimension: &reportDimensionOrder{DimensionName: "date"}},
			{Metric: &reportMetricOrder{MetricName: "activeUsers"}, Desc: true},
		},
		Limit: reportRowLimit,
	})
}

// ga4Date converts the GA4 YYYYMMDD dimension value to YYYY-MM-DD.
func ga4Date(raw string) string {
	if len(raw) != 8 {
		return raw
	}
	if _, err := time.Parse("20060102", raw); err != nil {
		return raw
	}
	return raw[:4] + "-" + raw[4:6] + "-" + raw[6:8]
}

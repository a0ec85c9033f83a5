// Package airtable adapts domain record operations onto the Airtable REST API.
//
// Every query is expressed the way the hosted API expects it (filterByFormula,
// sort parameters, page caps); responses are mapped into typed records through
// explicit field tables in the per-store files.
package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"keai-site/pkg/keai"
)

const (
	defaultBaseURL = "https://api.airtable.com/v0"

	// Page caps mirror the hosted listing limits.
	maxListRecords      = 100
	maxAnalyticsRecords = 365
	maxDayCountRecords  = 1000

	maxErrorBodyBytes = 2048
)

// Config configures one Airtable client.
type Config struct {
	// Token is the API credential.
	Token string
	// BaseID identifies the Airtable base.
	BaseID string
	// BaseURL optionally overrides the API endpoint, for tests.
	BaseURL string
	// HTTPClient optionally overrides the transport.
	HTTPClient *http.Client
	// Logger optionally overrides slog.Default().
	Logger *slog.Logger
}

// Client issues authenticated requests against one Airtable base.
type Client struct {
	baseURL    string
	token      string
	baseID     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient validates the configuration and builds one client.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, fmt.Errorf("new airtable client: missing token")
	}
	if strings.TrimSpace(cfg.BaseID) == "" {
		return nil, fmt.Errorf("new airtable client: missing base id")
	}

	client := &Client{
		baseURL:    defaultBaseURL,
		token:      cfg.Token,
		baseID:     cfg.BaseID,
		httpClient: http.DefaultClient,
		logger:     slog.Default(),
	}
	if cfg.BaseURL != "" {
		client.baseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	if cfg.HTTPClient != nil {
		client.httpClient = cfg.HTTPClient
	}
	if cfg.Logger != nil {
		client.logger = cfg.Logger
	}

	return client, nil
}

// record is the raw Airtable record envelope.
type record struct {
	ID          string         `json:"id"`
	CreatedTime time.Time      `json:"createdTime"`
	Fields      map[string]any `json:"fields"`
}

type recordList struct {
	Records []record `json:"records"`
	Offset  string   `json:"offset,omitempty"`
}

func (c *Client) tableURL(table string) string {
	return fmt.Sprintf("%s/%s/%s", c.baseURL, c.baseID, url.PathEscape(table))
}

func (c *Client) recordURL(table, id string) string {
	return fmt.Sprintf("%s/%s", c.tableURL(table), url.PathEscape(id))
}

func (c *Client) listRecords(ctx context.Context, table string, query url.Values) (recordList, error) {
	endpoint := c.tableURL(table)
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var listing recordList
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &listing); err != nil {
		return recordList{}, fmt.Errorf("list %s records: %w", table, err)
	}

	return listing, nil
}

// getRecord maps an upstream 404 to keai.ErrNotFound; any other non-2xx
// surfaces as an UpstreamError.
func (c *Client) getRecord(ctx context.Context, table, id string) (record, error) {
	var fetched record
	if err := c.do(ctx, http.MethodGet, c.recordURL(table, id), nil, &fetched); err != nil {
		if upstream, ok := keai.AsUpstreamError(err); ok && upstream.Status == http.StatusNotFound {
			return record{}, keai.ErrNotFound
		}
		return record{}, fmt.Errorf("get %s record %s: %w", table, id, err)
	}

	return fetched, nil
}

func (c *Client) createRecord(ctx context.Context, table string, fields map[string]any) (record, error) {
	var created record
	payload := map[string]any{"fields": fields}
	if err := c.do(ctx, http.MethodPost, c.tableURL(table), payload, &created); err != nil {
		return record{}, fmt.Errorf("create %s record: %w", table, err)
	}

	return created, nil
}

func (c *Client) patchRecord(ctx context.Context, table, id string, fields map[string]any) (record, error) {
	var patched record
	payload := map[string]any{"fields": fields}
	if err := c.do(ctx, http.MethodPatch, c.recordURL(table, id), payload, &patched); err != nil {
		return record{}, fmt.Errorf("patch %s record %s: %w", table, id, err)
	}

	return patched, nil
}

func (c *Client) deleteRecord(ctx context.Context, table, id string) error {
	if err := c.do(ctx, http.MethodDelete, c.recordURL(table, id), nil, nil); err != nil {
		return fmt.Errorf("delete %s record %s: %w", table, id, err)
	}

	return nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload, result any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	request.Header.Set("Authorization", "Bearer "+c.token)
	request.Header.Set("Content-Type", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(response.Body, maxErrorBodyBytes))
		return &keai.UpstreamError{
			Service: "airtable",
			Status:  response.StatusCode,
			Body:    strings.TrimSpace(string(raw)),
		}
	}

	if result == nil {
		return nil
	}
	if err := json.NewDecoder(response.Body).Decode(result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

// Field accessors tolerate missing or mistyped cells the same way the site's
// front-end did: a bad cell degrades to the zero value.

func fieldString(fields map[string]any, name string) string {
	value, _ := fields[name].(string)
	return value
}

func fieldInt(fields map[string]any, name string) int {
	switch value := fields[name].(type) {
	case float64:
		return int(value)
	case int:
		return value
	default:
		return 0
	}
}

func fieldFloat(fields map[string]any, name string) float64 {
	value, _ := fields[name].(float64)
	return value
}

func fieldBool(fields map[string]any, name string) bool {
	value, _ := fields[name].(bool)
	return value
}

func fieldStrings(fields map[string]any, name string) []string {
	raw, ok := fields[name].([]any)
	if !ok {
		return nil
	}

	values := make([]string, 0, len(raw))
	for _, entry := range raw {
		if value, ok := entry.(string); ok {
			values = append(values, value)
		}
	}

	return values
}

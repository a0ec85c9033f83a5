package airtable

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"keai-site/pkg/keai"
)

// Column names of the leads table.
const (
	leadFieldCompany        = "Company"
	leadFieldRegistrationNo = "RegistrationNo"
	leadFieldRepresentative = "Representative"
	leadFieldPhone          = "Phone"
	leadFieldEmail          = "Email"
	leadFieldIndustry       = "Industry"
	leadFieldFoundedYear    = "FoundedYear"
	leadFieldCallWindow     = "CallWindow"
	leadFieldFundingScale   = "FundingScale"
	leadFieldFundingTypes   = "FundingTypes"
	leadFieldInquiry        = "Inquiry"
	leadFieldStatus         = "Status"
	leadFieldMemo           = "Memo"
)

const defaultLeadStatus = "new"

// LeadStore implements keai.LeadStore against the leads table.
type LeadStore struct {
	client *Client
	table  string
}

// NewLeadStore builds a lead store over one leads table.
func NewLeadStore(client *Client, table string) (*LeadStore, error) {
	if client == nil {
		return nil, fmt.Errorf("new lead store: nil client")
	}
	if table == "" {
		return nil, fmt.Errorf("new lead store: missing table")
	}

	return &LeadStore{client: client, table: table}, nil
}

// List returns recent leads, capped at one page.
func (s *LeadStore) List(ctx context.Context) ([]keai.Lead, error) {
	query := url.Values{}
	query.Set("maxRecords", strconv.Itoa(maxListRecords))

	listing, err := s.client.listRecords(ctx, s.table, query)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}

	leads := make([]keai.Lead, 0, len(listing.Records))
	for _, entry := range listing.Records {
		leads = append(leads, leadFromRecord(entry))
	}

	return leads, nil
}

// GetByID returns one lead or keai.ErrNotFound.
func (s *LeadStore) GetByID(ctx context.Context, id string) (keai.Lead, error) {
	fetched, err := s.client.getRecord(ctx, s.table, id)
	if err != nil {
		return keai.Lead{}, err
	}

	return leadFromRecord(fetched), nil
}

// Create inserts a new lead with the default status.
func (s *LeadStore) Create(ctx context.Context, draft keai.LeadDraft) (keai.Lead, error) {
	fields := map[string]any{
		leadFieldCompany: draft.Company,
		leadFieldPhone:   draft.Phone,
		leadFieldStatus:  defaultLeadStatus,
	}
	setField(fields, leadFieldRegistrationNo, draft.RegistrationNo)
	setField(fields, leadFieldRepresentative, draft.Representative)
	setField(fields, leadFieldEmail, draft.Email)
	setField(fields, leadFieldIndustry, draft.Industry)
	setField(fields, leadFieldFoundedYear, draft.FoundedYear)
	setField(fields, leadFieldCallWindow, draft.CallWindow)
	setField(fields, leadFieldFundingScale, draft.FundingScale)
	setField(fields, leadFieldInquiry, draft.Inquiry)
	if len(draft.FundingTypes) > 0 {
		fields[leadFieldFundingTypes] = draft.FundingTypes
	}

	created, err := s.client.createRecord(ctx, s.table, fields)
	if err != nil {
		return keai.Lead{}, fmt.Errorf("create lead: %w", err)
	}

	return leadFromRecord(created), nil
}

// Update patches status and memo only; other columns stay operator-owned.
func (s *LeadStore) Update(ctx context.Context, id string, update keai.LeadUpdate) (keai.Lead, error) {
	fields := make(map[string]any)
	if update.Status != nil {
		fields[leadFieldStatus] = *update.Status
	}
	if update.Memo != nil {
		fields[leadFieldMemo] = *update.Memo
	}

	patched, err := s.client.patchRecord(ctx, s.table, id, fields)
	if err != nil {
		return keai.Lead{}, err
	}

	return leadFromRecord(patched), nil
}

// CountForDay returns how many leads arrived on one calendar date, using a
// created-time window filter because the table has no date column of its own.
func (s *LeadStore) CountForDay(ctx context.Context, date string) (int, error) {
	startOfDay := date + "T00:00:00.000Z"
	endOfDay := date + "T23:59:59.999Z"

	query := url.Values{}
	query.Set("filterByFormula", fmt.Sprintf(
		"AND(IS_AFTER(CREATED_TIME(), '%s'), IS_BEFORE(CREATED_TIME(), '%s'))",
		startOfDay, endOfDay,
	))
	query.Set("maxRecords", strconv.Itoa(maxDayCountRecords))

	listing, err := s.client.listRecords(ctx, s.table, query)
	if err != nil {
		return 0, fmt.Errorf("count leads for %s: %w", date, err)
	}

	return len(listing.Records), nil
}

// setField records a column value, skipping empties so the store never holds
// blank cells for optional form inputs.
func setField(fields map[string]any, column, value string) {
	if value != "" {
		fields[column] = value
	}
}

func leadFromRecord(entry record) keai.Lead {
	status := fieldString(entry.Fields, leadFieldStatus)
	if status == "" {
		status = defaultLeadStatus
	}

	return keai.Lead{
		ID:             entry.ID,
		Company:        fieldString(entry.Fields, leadFieldCompany),
		RegistrationNo: fieldString(entry.Fields, leadFieldRegistrationNo),
		Representative: fieldString(entry.Fields, leadFieldRepresentative),
		Phone:          fieldString(entry.Fields, leadFieldPhone),
		Email:          fieldString(entry.Fields, leadFieldEmail),
		Industry:       fieldString(entry.Fields, leadFieldIndustry),
		FoundedYear:    fieldString(entry.Fields, leadFieldFoundedYear),
		CallWindow:     fieldString(entry.Fields, leadFieldCallWindow),
		FundingScale:   fieldString(entry.Fields, leadFieldFundingScale),
		FundingTypes:   fieldStrings(entry.Fields, leadFieldFundingTypes),
		Inquiry:        fieldString(entry.Fields, leadFieldInquiry),
		Status:         status,
		Memo:           fieldString(entry.Fields, leadFieldMemo),
		ReceivedAt:     entry.CreatedTime,
	}
}

var _ keai.LeadStore = (*LeadStore)(nil)

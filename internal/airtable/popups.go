package airtable

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"keai-site/pkg/keai"
)

// Column names of the popups table.
const (
	popupFieldTitle      = "title"
	popupFieldImageURL   = "imageUrl"
	popupFieldLinkURL    = "linkUrl"
	popupFieldLinkTarget = "linkTarget"
	popupFieldOrder      = "order"
	popupFieldActive     = "isActive"
	popupFieldStartDate  = "startDate"
	popupFieldEndDate    = "endDate"
	popupFieldAltText    = "altText"
)

const (
	defaultLinkTarget  = "_self"
	maxActivePopups    = 8
	defaultPopupOrder  = 1
	popupSortDirection = "asc"
)

// PopupStore implements keai.PopupStore against the popups table.
type PopupStore struct {
	client *Client
	table  string
}

// NewPopupStore builds a popup store over one popups table.
func NewPopupStore(client *Client, table string) (*PopupStore, error) {
	if client == nil {
		return nil, fmt.Errorf("new popup store: nil client")
	}
	if table == "" {
		return nil, fmt.Errorf("new popup store: missing table")
	}

	return &PopupStore{client: client, table: table}, nil
}

// ListActive returns popups whose date window contains today and whose active
// flag is set, ordered ascending, capped for public display.
func (s *PopupStore) ListActive(ctx context.Context, today string) ([]keai.Popup, error) {
	query := url.Values{}
	query.Set("filterByFormula", fmt.Sprintf(
		"AND({%s}=TRUE(),OR({%s}='',{%s}<='%s'),OR({%s}='',{%s}>='%s'))",
		popupFieldActive,
		popupFieldStartDate, popupFieldStartDate, today,
		popupFieldEndDate, popupFieldEndDate, today,
	))
	query.Set("sort[0][field]", popupFieldOrder)
	query.Set("sort[0][direction]", popupSortDirection)
	query.Set("maxRecords", strconv.Itoa(maxActivePopups))

	listing, err := s.client.listRecords(ctx, s.table, query)
	if err != nil {
		return nil, fmt.Errorf("list active popups: %w", err)
	}

	popups := make([]keai.Popup, 0, len(listing.Records))
	for _, entry := range listing.Records {
		popups = append(popups, popupFromRecord(entry))
	}

	return popups, nil
}

// ListAll returns every popup for the admin view, ordered ascending.
func (s *PopupStore) ListAll(ctx context.Context) ([]keai.Popup, error) {
	query := url.Values{}
	query.Set("sort[0][field]", popupFieldOrder)
	query.Set("sort[0][direction]", popupSortDirection)

	listing, err := s.client.listRecords(ctx, s.table, query)
	if err != nil {
		return nil, fmt.Errorf("list all popups: %w", err)
	}

	popups := make([]keai.Popup, 0, len(listing.Records))
	for _, entry := range listing.Records {
		popups = append(popups, popupFromRecord(entry))
	}

	return popups, nil
}

// Create inserts a new popup from explicitly provided draft fields.
func (s *PopupStore) Create(ctx context.Context, draft keai.PopupDraft) (keai.Popup, error) {
	fields := popupDraftFields(draft)
	if _, provided := fields[popupFieldLinkTarget]; !provided {
		fields[popupFieldLinkTarget] = defaultLinkTarget
	}
	if _, provided := fields[popupFieldOrder]; !provided {
		fields[popupFieldOrder] = defaultPopupOrder
	}
	if _, provided := fields[popupFieldActive]; !provided {
		fields[popupFieldActive] = true
	}

	created, err := s.client.createRecord(ctx, s.table, fields)
	if err != nil {
		return keai.Popup{}, err
	}

	return popupFromRecord(created), nil
}

// Update patches only the provided draft fields.
func (s *PopupStore) Update(ctx context.Context, id string, draft keai.PopupDraft) (keai.Popup, error) {
	patched, err := s.client.patchRecord(ctx, s.table, id, popupDraftFields(draft))
	if err != nil {
		return keai.Popup{}, err
	}

	return popupFromRecord(patched), nil
}

// Delete removes the record permanently.
func (s *PopupStore) Delete(ctx context.Context, id string) error {
	return s.client.deleteRecord(ctx, s.table, id)
}

func popupDraftFields(draft keai.PopupDraft) map[string]any {
	fields := make(map[string]any)
	if draft.Title != nil {
		fields[popupFieldTitle] = *draft.Title
	}
	if draft.ImageURL != nil {
		fields[popupFieldImageURL] = *draft.ImageURL
	}
	if draft.LinkURL != nil {
		fields[popupFieldLinkURL] = *draft.LinkURL
	}
	if draft.LinkTarget != nil {
		fields[popupFieldLinkTarget] = *draft.LinkTarget
	}
	if draft.Order != nil {
		fields[popupFieldOrder] = *draft.Order
	}
	if draft.Active != nil {
		fields[popupFieldActive] = *draft.Active
	}
	if draft.StartDate != nil {
		// An explicit empty string clears the date bound upstream.
		if *draft.StartDate == "" {
			fields[popupFieldStartDate] = nil
		} else {
			fields[popupFieldStartDate] = *draft.StartDate
		}
	}
	if draft.EndDate != nil {
		if *draft.EndDate == "" {
			fields[popupFieldEndDate] = nil
		} else {
			fields[popupFieldEndDate] = *draft.EndDate
		}
	}
	if draft.AltText != nil {
		fields[popupFieldAltText] = *draft.AltText
	}

	return fields
}

func popupFromRecord(entry record) keai.Popup {
	target := fieldString(entry.Fields, popupFieldLinkTarget)
	if target == "" {
		target = defaultLinkTarget
	}

	return keai.Popup{
		ID:         entry.ID,
		Title:      fieldString(entry.Fields, popupFieldTitle),
		ImageURL:   fieldString(entry.Fields, popupFieldImageURL),
		LinkURL:    fieldString(entry.Fields, popupFieldLinkURL),
		LinkTarget: target,
		Order:      fieldInt(entry.Fields, popupFieldOrder),
		Active:     fieldBool(entry.Fields, popupFieldActive),
		StartDate:  fieldString(entry.Fields, popupFieldStartDate),
		EndDate:    fieldString(entry.Fields, popupFieldEndDate),
		AltText:    fieldString(entry.Fields, popupFieldAltText),
		CreatedAt:  entry.CreatedTime,
	}
}

var _ keai.PopupStore = (*PopupStore)(nil)

package airtable

import (
	"context"
	"fmt"
	"net/url"

	"keai-site/pkg/keai"
)

// Column names of the image settings table.
const (
	imageFieldSlotID = "slotId"
	imageFieldURL    = "url"
)

// ImageStore implements keai.ImageStore against the image settings table.
//
// The table stores one row per uploaded slot; slots without a row fall back to
// the static catalog with an empty URL.
type ImageStore struct {
	client *Client
	table  string
}

// NewImageStore builds an image store over one image settings table.
func NewImageStore(client *Client, table string) (*ImageStore, error) {
	if client == nil {
		return nil, fmt.Errorf("new image store: nil client")
	}
	if table == "" {
		return nil, fmt.Errorf("new image store: missing table")
	}

	return &ImageStore{client: client, table: table}, nil
}

// ListURLs returns the uploaded URL per slot id.
func (s *ImageStore) ListURLs(ctx context.Context) (map[string]string, error) {
	listing, err := s.client.listRecords(ctx, s.table, nil)
	if err != nil {
		return nil, fmt.Errorf("list image urls: %w", err)
	}

	urls := make(map[string]string, len(listing.Records))
	for _, entry := range listing.Records {
		slotID := fieldString(entry.Fields, imageFieldSlotID)
		if slotID == "" {
			continue
		}
		urls[slotID] = fieldString(entry.Fields, imageFieldURL)
	}

	return urls, nil
}

// SetURL records the uploaded URL for one slot id, patching the existing row
// when one exists and creating it otherwise.
func (s *ImageStore) SetURL(ctx context.Context, slotID, imageURL string) error {
	if slotID == "" {
		return keai.NewValidationError("slotId")
	}

	query := url.Values{}
	query.Set("filterByFormula", fmt.Sprintf("{%s} = '%s'", imageFieldSlotID, slotID))
	query.Set("maxRecords", "1")

	listing, err := s.client.listRecords(ctx, s.table, query)
	if err != nil {
		return fmt.Errorf("find image slot %s: %w", slotID, err)
	}

	fields := map[string]any{
		imageFieldSlotID: slotID,
		imageFieldURL:    imageURL,
	}
	if len(listing.Records) > 0 {
		if _, err := s.client.patchRecord(ctx, s.table, listing.Records[0].ID, fields); err != nil {
			return fmt.Errorf("update image slot %s: %w", slotID, err)
		}
		return nil
	}

	if _, err := s.client.createRecord(ctx, s.table, fields); err != nil {
		return fmt.Errorf("create image slot %s: %w", slotID, err)
	}

	return nil
}

var _ keai.ImageStore = (*ImageStore)(nil)

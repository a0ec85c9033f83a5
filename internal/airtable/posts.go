package airtable

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"keai-site/pkg/keai"
)

// Column names of the board table. Thumbnails are read from the attachment
// column but written through the URL column, matching the base schema.
const (
	postFieldTitle        = "Title"
	postFieldContent      = "Content"
	postFieldSummary      = "Summary"
	postFieldCategory     = "Category"
	postFieldThumbnail    = "Thumbnail"
	postFieldThumbnailURL = "ThumbnailURL"
	postFieldPostedOn     = "PostedOn"
	postFieldViews        = "Views"
	postFieldPublished    = "Published"
)

const defaultPostCategory = "notice"

// PostStore implements keai.PostStore against the board table.
type PostStore struct {
	client *Client
	table  string
	logger *slog.Logger
	clock  func() time.Time
}

// NewPostStore builds a post store over one board table.
func NewPostStore(client *Client, table string) (*PostStore, error) {
	if client == nil {
		return nil, fmt.Errorf("new post store: nil client")
	}
	if table == "" {
		return nil, fmt.Errorf("new post store: missing table")
	}

	return &PostStore{
		client: client,
		table:  table,
		logger: client.logger,
		clock:  time.Now,
	}, nil
}

// ListPublished returns visible posts, newest first, capped at one page.
func (s *PostStore) ListPublished(ctx context.Context) ([]keai.Post, error) {
	query := url.Values{}
	query.Set("filterByFormula", fmt.Sprintf("{%s} = TRUE()", postFieldPublished))
	query.Set("sort[0][field]", postFieldPostedOn)
	query.Set("sort[0][direction]", "desc")
	query.Set("maxRecords", strconv.Itoa(maxListRecords))

	listing, err := s.client.listRecords(ctx, s.table, query)
	if err != nil {
		return nil, fmt.Errorf("list published posts: %w", err)
	}

	posts := make([]keai.Post, 0, len(listing.Records))
	for _, entry := range listing.Records {
		posts = append(posts, postFromRecord(entry))
	}

	return posts, nil
}

// GetByID returns one visible post or keai.ErrNotFound.
//
// The visibility flag is re-checked client-side after the fetch so an
// unpublished record behaves exactly like a nonexistent id.
func (s *PostStore) GetByID(ctx context.Context, id string) (keai.Post, error) {
	fetched, err := s.client.getRecord(ctx, s.table, id)
	if err != nil {
		return keai.Post{}, err
	}
	if !fieldBool(fetched.Fields, postFieldPublished) {
		return keai.Post{}, keai.ErrNotFound
	}

	return postFromRecord(fetched), nil
}

// Create inserts a new post from explicitly provided draft fields.
func (s *PostStore) Create(ctx context.Context, draft keai.PostDraft) (keai.Post, error) {
	fields := postDraftFields(draft)
	if _, provided := fields[postFieldPostedOn]; !provided {
		fields[postFieldPostedOn] = s.clock().UTC().Format("2006-01-02")
	}
	if _, provided := fields[postFieldPublished]; !provided {
		fields[postFieldPublished] = true
	}
	fields[postFieldViews] = 0

	created, err := s.client.createRecord(ctx, s.table, fields)
	if err != nil {
		return keai.Post{}, err
	}

	return postFromRecord(created), nil
}

// Update patches only the provided draft fields.
func (s *PostStore) Update(ctx context.Context, id string, draft keai.PostDraft) (keai.Post, error) {
	patched, err := s.client.patchRecord(ctx, s.table, id, postDraftFields(draft))
	if err != nil {
		return keai.Post{}, err
	}

	return postFromRecord(patched), nil
}

// Delete removes the record permanently.
func (s *PostStore) Delete(ctx context.Context, id string) error {
	return s.client.deleteRecord(ctx, s.table, id)
}

// IncrementViews bumps the view counter best-effort. A failed PATCH is logged
// and dropped because a missed view count must never fail the detail read.
func (s *PostStore) IncrementViews(ctx context.Context, id string, current int) {
	fields := map[string]any{postFieldViews: current + 1}
	if _, err := s.client.patchRecord(ctx, s.table, id, fields); err != nil {
		s.logger.WarnContext(ctx, "increment views failed", "post_id", id, "error", err)
	}
}

func postDraftFields(draft keai.PostDraft) map[string]any {
	fields := make(map[string]any)
	if draft.Title != nil {
		fields[postFieldTitle] = *draft.Title
	}
	if draft.Content != nil {
		fields[postFieldContent] = *draft.Content
	}
	if draft.Summary != nil {
		fields[postFieldSummary] = *draft.Summary
	}
	if draft.Category != nil {
		fields[postFieldCategory] = *draft.Category
	}
	if draft.ThumbnailURL != nil {
		fields[postFieldThumbnailURL] = *draft.ThumbnailURL
	}
	if draft.PublishedOn != nil {
		fields[postFieldPostedOn] = *draft.PublishedOn
	}
	if draft.Published != nil {
		fields[postFieldPublished] = *draft.Published
	}

	return fields
}

func postFromRecord(entry record) keai.Post {
	category := fieldString(entry.Fields, postFieldCategory)
	if category == "" {
		category = defaultPostCategory
	}

	thumbnail := fieldString(entry.Fields, postFieldThumbnail)
	if thumbnail == "" {
		thumbnail = fieldString(entry.Fields, postFieldThumbnailURL)
	}

	title := fieldString(entry.Fields, postFieldTitle)

	return keai.Post{
		ID:           entry.ID,
		Title:        title,
		Content:      fieldString(entry.Fields, postFieldContent),
		Summary:      fieldString(entry.Fields, postFieldSummary),
		Category:     category,
		ThumbnailURL: thumbnail,
		PublishedOn:  fieldString(entry.Fields, postFieldPostedOn),
		Views:        fieldInt(entry.Fields, postFieldViews),
		Published:    fieldBool(entry.Fields, postFieldPublished),
		Slug:         keai.Slugify(title),
	}
}

var _ keai.PostStore = (*PostStore)(nil)

package httpapi

import (
	"net/http"
	"strings"
	"testing"

	"keai-site/pkg/keai"
)

func TestSitemap(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.listing.records = []keai.Post{
		{ID: "rec1", Title: "First", Slug: "first-post", PublishedOn: "2025-03-01"},
		{ID: "rec2", Title: "Untitled", Slug: ""},
	}

	recorder, _ := f.do(t, http.MethodGet, "/api/sitemap", "", nil)

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}
	if got := recorder.Header().Get("Content-Type"); !strings.HasPrefix(got, "application/xml") {
		t.Errorf("content type = %q, want application/xml", got)
	}
	if got := recorder.Header().Get("Cache-Control"); got != "public, max-age=3600" {
		t.Errorf("cache control = %q", got)
	}

	body := recorder.Body.String()
	for _, want := range []string{
		`<?xml version="1.0" encoding="UTF-8"?>`,
		"<loc>https://site.example.com/</loc>",
		"<loc>https://site.example.com/board</loc>",
		"<loc>https://site.example.com/p/first-post</loc>",
		"<lastmod>2025-03-01</lastmod>",
		"<changefreq>daily</changefreq>",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("sitemap missing %q", want)
		}
	}
	if strings.Count(body, "<url>") != len(staticPages)+1 {
		t.Errorf("url entries = %d, want %d; slugless posts must be skipped",
			strings.Count(body, "<url>"), len(staticPages)+1)
	}
}

func TestSitemapListingFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.listing.err = &keai.UpstreamError{Service: "airtable", Status: 502, Body: "bad gateway"}

	recorder, _ := f.do(t, http.MethodGet, "/api/sitemap", "", nil)

	if recorder.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", recorder.Code)
	}
}

package httpapi

import (
	"encoding/xml"
	"net/http"
	"net/url"
)

// staticPages are the fixed site pages listed before the board posts.
var staticPages = []struct {
	path       string
	priority   string
	changeFreq string
}{
	{"/", "1.0", "weekly"},
	{"/company", "0.8", "monthly"},
	{"/process", "0.9", "weekly"},
	{"/fund", "0.9", "weekly"},
	{"/pro", "0.7", "monthly"},
	{"/mkt", "0.7", "monthly"},
	{"/board", "0.8", "daily"},
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

const sitemapNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// handleSitemap serves the XML sitemap: static pages plus every published
// board post by slug.
func (s *Server) handleSitemap(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w)
		return
	}

	listing, err := s.listing.GetListing(r.Context(), false)
	if err != nil {
		s.failErr(w, r, err)
		return
	}

	today := s.clock().UTC().Format("2006-01-02")
	urlSet := sitemapURLSet{XMLNS: sitemapNamespace}
	for _, page := range staticPages {
		urlSet.URLs = append(urlSet.URLs, sitemapURL{
			Loc:        s.siteURL + page.path,
			LastMod:    today,
			ChangeFreq: page.changeFreq,
			Priority:   page.priority,
		})
	}
	for _, post := range listing.Records {
		if post.Slug == "" {
			continue
		}
		lastMod := post.PublishedOn
		if lastMod == "" {
			lastMod = today
		}
		urlSet.URLs = append(urlSet.URLs, sitemapURL{
			Loc:        s.siteURL + "/p/" + url.PathEscape(post.Slug),
			LastMod:    lastMod,
			ChangeFreq: "monthly",
			Priority:   "0.7",
		})
	}

	encoded, err := xml.MarshalIndent(urlSet, "", "  ")
	if err != nil {
		s.failErr(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(xml.Header))
	w.Write(encoded)
}

// Package httpapi exposes the site API: board listing and posts, consultation
// leads, popups, image slots, thumbnail upload, post generation, analytics,
// the cron sync trigger, sitemap, and the admin gate.
package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"keai-site/internal/cache"
	"keai-site/internal/generate"
	"keai-site/internal/gmetrics"
	"keai-site/pkg/keai"
)

// Listing is the cache-accelerated read side of the board.
type Listing interface {
	GetListing(ctx context.Context, forceRefresh bool) (cache.Result, error)
	GetBySlug(ctx context.Context, slug string) (keai.Post, error)
	InvalidateAfterWrite()
}

// Uploader stores one immutable image object and returns its public URL.
type Uploader interface {
	PutImage(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Generator produces one board post draft.
type Generator interface {
	Generate(ctx context.Context, params generate.Params) (generate.Result, error)
}

// MetricsSyncer runs one analytics collection pass.
type MetricsSyncer interface {
	Run(ctx context.Context, days int) (gmetrics.Summary, error)
}

// Config wires one server.
type Config struct {
	Listing   Listing
	Posts     keai.PostStore
	Leads     keai.LeadStore
	Popups    keai.PopupStore
	Images    keai.ImageStore
	Analytics keai.AnalyticsStore
	Uploader  Uploader
	Generator Generator
	Syncer    MetricsSyncer
	// Notifier optionally announces new leads; nil disables notifications.
	Notifier keai.Notifier

	// AdminPassword gates mutating image endpoints and the admin cookie.
	AdminPassword string
	// CronSecret authorizes manual cron-analytics runs.
	CronSecret string
	// SiteURL is the public site origin used in the sitemap.
	SiteURL string

	Logger *slog.Logger
	Clock  func() time.Time
}

// Server holds the handler dependencies.
type Server struct {
	listing   Listing
	posts     keai.PostStore
	leads     keai.LeadStore
	popups    keai.PopupStore
	images    keai.ImageStore
	analytics keai.AnalyticsStore
	uploader  Uploader
	generator Generator
	syncer    MetricsSyncer
	notifier  keai.Notifier

	adminPassword string
	cronSecret    string
	siteURL       string

	logger *slog.Logger
	clock  func() time.Time
}

// NewServer validates the configuration and builds one server.
func NewServer(cfg Config) (*Server, error) {
	switch {
	case cfg.Listing == nil:
		return nil, fmt.Errorf("new server: nil listing")
	case cfg.Posts == nil:
		return nil, fmt.Errorf("new server: nil post store")
	case cfg.Leads == nil:
		return nil, fmt.Errorf("new server: nil lead store")
	case cfg.Popups == nil:
		return nil, fmt.Errorf("new server: nil popup store")
	case cfg.Images == nil:
		return nil, fmt.Errorf("new server: nil image store")
	case cfg.Analytics == nil:
		return nil, fmt.Errorf("new server: nil analytics store")
	case cfg.Uploader == nil:
		return nil, fmt.Errorf("new server: nil uploader")
	case cfg.Generator == nil:
		return nil, fmt.Errorf("new server: nil generator")
	case cfg.Syncer == nil:
		return nil, fmt.Errorf("new server: nil metrics syncer")
	case cfg.AdminPassword == "":
		return nil, fmt.Errorf("new server: missing admin password")
	case cfg.CronSecret == "":
		return nil, fmt.Errorf("new server: missing cron secret")
	}

	server := &Server{
		listing:       cfg.Listing,
		posts:         cfg.Posts,
		leads:         cfg.Leads,
		popups:        cfg.Popups,
		images:        cfg.Images,
		analytics:     cfg.Analytics,
		uploader:      cfg.Uploader,
		generator:     cfg.Generator,
		syncer:        cfg.Syncer,
		notifier:      cfg.Notifier,
		adminPassword: cfg.AdminPassword,
		cronSecret:    cfg.CronSecret,
		siteURL:       cfg.SiteURL,
		logger:        slog.Default(),
		clock:         time.Now,
	}
	if server.siteURL == "" {
		server.siteURL = defaultSiteURL
	}
	if cfg.Logger != nil {
		server.logger = cfg.Logger
	}
	if cfg.Clock != nil {
		server.clock = cfg.Clock
	}

	return server, nil
}

const defaultSiteURL = "https://www.k-eai.kr"

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/board", s.cors("GET, POST, PUT, DELETE, OPTIONS", s.handleBoard))
	mux.Handle("/api/leads", s.cors("GET, POST, PUT, OPTIONS", s.handleLeads))
	mux.Handle("/api/popups", s.cors("GET, POST, PUT, DELETE, OPTIONS", s.handlePopups))
	mux.Handle("/api/images", s.cors("GET, POST, PUT, OPTIONS", s.handleImages))
	mux.Handle("/api/upload-thumbnail", s.cors("POST, OPTIONS", s.handleUploadThumbnail))
	mux.Handle("/api/generate-post", s.cors("POST, OPTIONS", s.handleGeneratePost))
	mux.Handle("/api/analytics", s.cors("GET, OPTIONS", s.handleAnalytics))
	mux.Handle("/api/cron-analytics", s.cors("GET, POST, OPTIONS", s.handleCronAnalytics))
	mux.Handle("/api/sitemap", s.cors("GET, OPTIONS", s.handleSitemap))
	mux.Handle("/api/admin-auth", s.cors("POST, OPTIONS", s.handleAdminAuth))
	mux.Handle("/api/admin-logout", s.cors("POST, OPTIONS", s.handleAdminLogout))

	return mux
}

// cors wraps one endpoint with the permissive CORS headers every response
// carries, short-circuiting preflight requests.
func (s *Server) cors(methods string, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := w.Header()
		header.Set("Access-Control-Allow-Origin", "*")
		header.Set("Access-Control-Allow-Methods", methods)
		header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	})
}

// detach runs fn outside the request lifetime, converting panics into logs.
func (s *Server) detach(scope string, fn func(context.Context)) {
	go func() {
		defer func() {
			if recovered := recover(); recovered != nil {
				s.logger.Error("background task panicked", "scope", scope, "panic", recovered)
			}
		}()

		fn(context.WithoutCancel(context.Background()))
	}()
}

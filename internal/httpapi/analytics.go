package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"keai-site/internal/gmetrics"
	"keai-site/pkg/keai"
)

// handleAnalytics serves the stored metrics summary.
func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w)
		return
	}

	report, err := gmetrics.BuildReport(r.Context(), s.analytics, s.clock(), r.URL.Query().Get("period"))
	if err != nil {
		s.failErr(w, r, err)
		return
	}

	s.respond(w, http.StatusOK, struct {
		Success bool `json:"success"`
		gmetrics.Report
	}{true, report})
}

// handleCronAnalytics triggers one metrics collection pass. The endpoint is
// reachable by the platform scheduler and by authorized manual runs.
func (s *Server) handleCronAnalytics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		s.methodNotAllowed(w)
		return
	}
	if !s.authorizedCron(r) {
		s.failErr(w, r, keai.ErrUnauthorized)
		return
	}

	days, _ := strconv.Atoi(r.URL.Query().Get("days"))
	summary, err := s.syncer.Run(r.Context(), days)
	if err != nil {
		s.failErr(w, r, err)
		return
	}

	s.respond(w, http.StatusOK, struct {
		Success    bool       `json:"success"`
		Message    string     `json:"message"`
		Period     cronPeriod `json:"period"`
		SavedCount int        `json:"savedCount"`
		ErrorCount int        `json:"errorCount"`
	}{
		Success:    true,
		Message:    "analytics data synced",
		Period:     cronPeriod{StartDate: summary.StartDate, EndDate: summary.EndDate},
		SavedCount: summary.SavedCount,
		ErrorCount: summary.ErrorCount,
	})
}

type cronPeriod struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// authorizedCron accepts the scheduler header, the query secret, or a bearer
// secret.
func (s *Server) authorizedCron(r *http.Request) bool {
	if r.Header.Get("X-Cron") == "1" {
		return true
	}
	if r.URL.Query().Get("secret") == s.cronSecret {
		return true
	}
	bearer, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	return found && bearer == s.cronSecret
}

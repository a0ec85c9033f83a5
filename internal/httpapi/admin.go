package httpapi

import (
	"net/http"
	"time"

	"keai-site/pkg/keai"
)

const (
	adminCookieName = "admin_auth"
	adminCookieTTL  = 7 * 24 * time.Hour
)

// handleAdminAuth checks the admin password and sets the session cookie.
func (s *Server) handleAdminAuth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w)
		return
	}

	var payload struct {
		Password string `json:"password"`
	}
	if err := decodeBody(r, &payload); err != nil {
		s.failErr(w, r, err)
		return
	}

	if payload.Password != s.adminPassword {
		s.failErr(w, r, keai.ErrUnauthorized)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     adminCookieName,
		Value:    "authenticated",
		Path:     "/",
		Expires:  s.clock().Add(adminCookieTTL),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	s.respond(w, http.StatusOK, struct {
		Success bool `json:"success"`
	}{true})
}

// handleAdminLogout expires the session cookie.
func (s *Server) handleAdminLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     adminCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	s.respond(w, http.StatusOK, struct {
		Success bool `json:"success"`
	}{true})
}

package httpapi

import (
	"net/http"
	"path"

	"keai-site/internal/objstore"
	"keai-site/pkg/keai"
)

// popupPayload carries a popup create or update body.
type popupPayload struct {
	Title      *string `json:"title"`
	ImageURL   *string `json:"imageUrl"`
	LinkURL    *string `json:"linkUrl"`
	LinkTarget *string `json:"linkTarget"`
	Order      *int    `json:"order"`
	Active     *bool   `json:"isActive"`
	StartDate  *string `json:"startDate"`
	EndDate    *string `json:"endDate"`
	AltText    *string `json:"altText"`
}

func (p popupPayload) draft() keai.PopupDraft {
	return keai.PopupDraft{
		Title:      p.Title,
		ImageURL:   p.ImageURL,
		LinkURL:    p.LinkURL,
		LinkTarget: p.LinkTarget,
		Order:      p.Order,
		Active:     p.Active,
		StartDate:  p.StartDate,
		EndDate:    p.EndDate,
		AltText:    p.AltText,
	}
}

func (s *Server) handlePopups(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.popupsGet(w, r)
	case http.MethodPost:
		if r.URL.Query().Get("action") == "upload" {
			s.popupsUpload(w, r)
			return
		}
		s.popupsCreate(w, r)
	case http.MethodPut:
		s.popupsUpdate(w, r)
	case http.MethodDelete:
		s.popupsDelete(w, r)
	default:
		s.methodNotAllowed(w)
	}
}

func (s *Server) popupsGet(w http.ResponseWriter, r *http.Request) {
	var (
		popups []keai.Popup
		err    error
	)
	if r.URL.Query().Get("all") == "true" {
		popups, err = s.popups.ListAll(r.Context())
	} else {
		today := s.clock().UTC().Format("2006-01-02")
		popups, err = s.popups.ListActive(r.Context(), today)
	}
	if err != nil {
		s.failErr(w, r, err)
		return
	}

	s.respond(w, http.StatusOK, struct {
		Success bool         `json:"success"`
		Popups  []keai.Popup `json:"popups"`
	}{true, popups})
}

// popupsUpload stores one base64 banner image and returns its public URL.
func (s *Server) popupsUpload(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ImageData string `json:"imageData"`
		FileName  string `json:"fileName"`
	}
	if err := decodeBody(r, &payload); err != nil {
		s.failErr(w, r, err)
		return
	}

	data, contentType, err := objstore.DecodeImagePayload(payload.ImageData)
	if err != nil {
		s.failErr(w, r, err)
		return
	}

	key := objstore.ImageKey("popups", "popup")
	publicURL, err := s.uploader.PutImage(r.Context(), key, data, contentType)
	if err != nil {
		s.failErr(w, r, err)
		return
	}

	s.respond(w, http.StatusOK, struct {
		Success  bool   `json:"success"`
		URL      string `json:"url"`
		FileName string `json:"fileName"`
		Size     int    `json:"size"`
	}{true, publicURL, path.Base(key), len(data)})
}

func (s *Server) popupsCreate(w http.ResponseWriter, r *http.Request) {
	var payload popupPayload
	if err := decodeBody(r, &payload); err != nil {
		s.failErr(w, r, err)
		return
	}

	created, err := s.popups.Create(r.Context(), payload.draft())
	if err != nil {
		s.failErr(w, r, err)
		return
	}

	s.respond(w, http.StatusCreated, struct {
		Success bool       `json:"success"`
		Popup   keai.Popup `json:"popup"`
	}{true, created})
}

func (s *Server) popupsUpdate(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		s.failErr(w, r, keai.NewValidationError("id"))
		return
	}

	var payload popupPayload
	if err := decodeBody(r, &payload); err != nil {
		s.failErr(w, r, err)
		return
	}

	updated, err := s.popups.Update(r.Context(), id, payload.draft())
	if err != nil {
		s.failErr(w, r, err)
		return
	}

	s.respond(w, http.StatusOK, struct {
		Success bool       `json:"success"`
		Popup   keai.Popup `json:"popup"`
	}{true, updated})
}

func (s *Server) popupsDelete(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		s.failErr(w, r, keai.NewValidationError("id"))
		return
	}

	if err := s.popups.Delete(r.Context(), id); err != nil {
		s.failErr(w, r, err)
		return
	}

	s.respond(w, http.StatusOK, struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}{true, "popup deleted"})
}

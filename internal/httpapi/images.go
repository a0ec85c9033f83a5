package httpapi

import (
	"net/http"
	"strings"

	"keai-site/internal/objstore"
	"keai-site/pkg/keai"
)

func (s *Server) handleImages(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.imagesGet(w, r)
	case http.MethodPost:
		if err := s.requireAdmin(r); err != nil {
			s.failErr(w, r, err)
			return
		}
		s.imagesUpload(w, r)
	case http.MethodPut:
		if err := s.requireAdmin(r); err != nil {
			s.failErr(w, r, err)
			return
		}
		s.imagesSetURL(w, r)
	default:
		s.methodNotAllowed(w)
	}
}

// requireAdmin checks the bearer admin password on mutating image endpoints.
func (s *Server) requireAdmin(r *http.Request) error {
	password, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !found || password != s.adminPassword {
		return keai.ErrUnauthorized
	}

	return nil
}

func (s *Server) imagesGet(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if query.Get("action") == "status" {
		s.respond(w, http.StatusOK, struct {
			Success    bool `json:"success"`
			Configured bool `json:"configured"`
		}{true, s.uploader != nil})
		return
	}

	// Slots without a stored URL still list; a store outage only costs the
	// uploaded URLs, never the catalog.
	urls, err := s.images.ListURLs(r.Context())
	if err != nil {
		s.logger.WarnContext(r.Context(), "image url lookup failed", "error", err)
		urls = nil
	}

	if id := query.Get("id"); id != "" {
		slot, ok := slotByID(id)
		if !ok {
			s.failErr(w, r, keai.ErrNotFound)
			return
		}
		slot.URL = urls[id]

		s.respond(w, http.StatusOK, struct {
			Success bool           `json:"success"`
			Image   keai.ImageSlot `json:"image"`
		}{true, slot})
		return
	}

	if category := query.Get("category"); category != "" {
		var filtered []keai.ImageSlot
		for _, slot := range imageSlots {
			if slot.Category == category {
				slot.URL = urls[slot.ID]
				filtered = append(filtered, slot)
			}
		}

		s.respond(w, http.StatusOK, struct {
			Success  bool             `json:"success"`
			Images   []keai.ImageSlot `json:"images"`
			Category string           `json:"category"`
		}{true, filtered, category})
		return
	}

	merged := make([]keai.ImageSlot, 0, len(imageSlots))
	grouped := make(map[string][]keai.ImageSlot)
	for _, slot := range imageSlots {
		slot.URL = urls[slot.ID]
		merged = append(merged, slot)
		grouped[slot.Category] = append(grouped[slot.Category], slot)
	}

	s.respond(w, http.StatusOK, struct {
		Success    bool                        `json:"success"`
		Images     []keai.ImageSlot            `json:"images"`
		Grouped    map[string][]keai.ImageSlot `json:"grouped"`
		Categories []string                    `json:"categories"`
		Total      int                         `json:"total"`
	}{true, merged, grouped, slotCategories(), len(imageSlots)})
}

// imagesUpload stores one base64 slot image and records its URL.
func (s *Server) imagesUpload(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ImageID   string `json:"imageId"`
		ImageData string `json:"imageData"`
		FileName  string `json:"fileName"`
	}
	if err := decodeBody(r, &payload); err != nil {
		s.failErr(w, r, err)
		return
	}
	if payload.ImageID == "" {
		s.failErr(w, r, keai.NewValidationError("imageId"))
		return
	}
	if _, ok := slotByID(payload.ImageID); !ok {
		s.failErr(w, r, &keai.ValidationError{Field: "imageId", Reason: "unknown image id"})
		return
	}

	data, contentType, err := objstore.DecodeImagePayload(payload.ImageData)
	if err != nil {
		s.failErr(w, r, err)
		return
	}

	key := objstore.ImageKey("images/"+payload.ImageID, payload.ImageID)
	publicURL, err := s.uploader.PutImage(r.Context(), key, data, contentType)
	if err != nil {
		s.failErr(w, r, err)
		return
	}

	// The record store save is non-fatal; the object is already uploaded.
	saved := true
	if err := s.images.SetURL(r.Context(), payload.ImageID, publicURL); err != nil {
		s.logger.WarnContext(r.Context(), "image url save failed",
			"slot", payload.ImageID, "error", err)
		saved = false
	}

	s.respond(w, http.StatusOK, struct {
		Success  bool   `json:"success"`
		ImageURL string `json:"imageUrl"`
		Size     int    `json:"size"`
		Saved    bool   `json:"saved"`
	}{true, publicURL, len(data), saved})
}

// imagesSetURL records an externally hosted URL for one slot.
func (s *Server) imagesSetURL(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		s.failErr(w, r, keai.NewValidationError("id"))
		return
	}
	slot, ok := slotByID(id)
	if !ok {
		s.failErr(w, r, keai.ErrNotFound)
		return
	}

	var payload struct {
		ImageURL string `json:"imageUrl"`
	}
	if err := decodeBody(r, &payload); err != nil {
		s.failErr(w, r, err)
		return
	}
	if payload.ImageURL == "" {
		s.failErr(w, r, keai.NewValidationError("imageUrl"))
		return
	}

	if err := s.images.SetURL(r.Context(), id, payload.ImageURL); err != nil {
		s.failErr(w, r, err)
		return
	}
	slot.URL = payload.ImageURL

	s.respond(w, http.StatusOK, struct {
		Success bool           `json:"success"`
		Image   keai.ImageSlot `json:"image"`
	}{true, slot})
}

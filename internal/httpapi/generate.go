package httpapi

import (
	"net/http"
	"strings"

	"keai-site/internal/generate"
)

// handleGeneratePost produces one board post draft from a category guide.
func (s *Server) handleGeneratePost(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w)
		return
	}

	var payload struct {
		Category     string `json:"category"`
		Topic        string `json:"topic"`
		CustomPrompt string `json:"customPrompt"`
		AutoSave     bool   `json:"autoSave"`
	}
	if err := decodeBody(r, &payload); err != nil {
		s.failErr(w, r, err)
		return
	}

	categories := generate.Categories()
	if !knownCategory(categories, payload.Category) {
		s.respond(w, http.StatusBadRequest, struct {
			Success             bool     `json:"success"`
			Error               string   `json:"error"`
			AvailableCategories []string `json:"availableCategories"`
		}{false, "a valid category is required", categories})
		return
	}

	result, err := s.generator.Generate(r.Context(), generate.Params{
		Category:     payload.Category,
		Topic:        payload.Topic,
		CustomPrompt: payload.CustomPrompt,
		AutoSave:     payload.AutoSave,
	})
	if err != nil {
		s.failErr(w, r, err)
		return
	}

	s.respond(w, http.StatusOK, struct {
		Success bool                   `json:"success"`
		Post    generate.GeneratedPost `json:"post"`
		Saved   bool                   `json:"saved"`
		SavedID string                 `json:"savedId,omitempty"`
	}{true, result.Post, result.Saved, result.SavedID})
}

func knownCategory(categories []string, category string) bool {
	trimmed := strings.TrimSpace(category)
	for _, known := range categories {
		if known == trimmed {
			return true
		}
	}

	return false
}

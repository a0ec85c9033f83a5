package httpapi

import (
	"net/http"

	"keai-site/pkg/keai"
)

// postPayload carries a board create or update body. Nil fields were not
// provided and stay untouched on update.
type postPayload struct {
	Title        *string `json:"title"`
	Content      *string `json:"content"`
	Summary      *string `json:"summary"`
	Category     *string `json:"category"`
	ThumbnailURL *string `json:"thumbnailUrl"`
	PublishedOn  *string `json:"publishedOn"`
	Published    *bool   `json:"published"`
}

func (p postPayload) draft() keai.PostDraft {
	return keai.PostDraft{
		Title:        p.Title,
		Content:      p.Content,
		Summary:      p.Summary,
		Category:     p.Category,
		ThumbnailURL: p.ThumbnailURL,
		PublishedOn:  p.PublishedOn,
		Published:    p.Published,
	}
}

func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.boardGet(w, r)
	case http.MethodPost:
		s.boardCreate(w, r)
	case http.MethodPut:
		s.boardUpdate(w, r)
	case http.MethodDelete:
		s.boardDelete(w, r)
	default:
		s.methodNotAllowed(w)
	}
}

func (s *Server) boardGet(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if id := query.Get("id"); id != "" {
		post, err := s.posts.GetByID(r.Context(), id)
		if err != nil {
			s.failErr(w, r, err)
			return
		}
		s.posts.IncrementViews(r.Context(), post.ID, post.Views)

		s.respond(w, http.StatusOK, struct {
			Success bool      `json:"success"`
			Post    keai.Post `json:"post"`
		}{true, post})
		return
	}

	if slug := query.Get("slug"); slug != "" {
		post, err := s.listing.GetBySlug(r.Context(), slug)
		if err != nil {
			s.failErr(w, r, err)
			return
		}
		s.posts.IncrementViews(r.Context(), post.ID, post.Views)

		s.respond(w, http.StatusOK, struct {
			Success bool      `json:"success"`
			Post    keai.Post `json:"post"`
		}{true, post})
		return
	}

	listing, err := s.listing.GetListing(r.Context(), query.Get("refresh") == "true")
	if err != nil {
		s.failErr(w, r, err)
		return
	}

	s.respond(w, http.StatusOK, struct {
		Success bool        `json:"success"`
		Posts   []keai.Post `json:"posts"`
		Cached  bool        `json:"cached"`
	}{true, listing.Records, listing.Cached})
}

func (s *Server) boardCreate(w http.ResponseWriter, r *http.Request) {
	var payload postPayload
	if err := decodeBody(r, &payload); err != nil {
		s.failErr(w, r, err)
		return
	}

	created, err := s.posts.Create(r.Context(), payload.draft())
	if err != nil {
		s.failErr(w, r, err)
		return
	}
	s.listing.InvalidateAfterWrite()

	s.respond(w, http.StatusCreated, struct {
		Success bool      `json:"success"`
		Post    keai.Post `json:"post"`
	}{true, created})
}

func (s *Server) boardUpdate(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		s.failErr(w, r, keai.NewValidationError("id"))
		return
	}

	var payload postPayload
	if err := decodeBody(r, &payload); err != nil {
		s.failErr(w, r, err)
		return
	}

	updated, err := s.posts.Update(r.Context(), id, payload.draft())
	if err != nil {
		s.failErr(w, r, err)
		return
	}
	s.listing.InvalidateAfterWrite()

	s.respond(w, http.StatusOK, struct {
		Success bool      `json:"success"`
		Post    keai.Post `json:"post"`
	}{true, updated})
}

func (s *Server) boardDelete(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		s.failErr(w, r, keai.NewValidationError("id"))
		return
	}

	if err := s.posts.Delete(r.Context(), id); err != nil {
		s.failErr(w, r, err)
		return
	}
	s.listing.InvalidateAfterWrite()

	s.respond(w, http.StatusOK, struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}{true, "post deleted"})
}

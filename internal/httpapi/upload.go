package httpapi

import (
	"net/http"

	"keai-site/internal/objstore"
)

// handleUploadThumbnail stores one base64 post thumbnail and returns its
// public URL.
func (s *Server) handleUploadThumbnail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w)
		return
	}

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

	key := objstore.ImageKey("thumbnails", "thumb")
	publicURL, err := s.uploader.PutImage(r.Context(), key, data, contentType)
	if err != nil {
		s.failErr(w, r, err)
		return
	}

	s.respond(w, http.StatusOK, struct {
		Success bool   `json:"success"`
		URL     string `json:"url"`
		Size    int    `json:"size"`
	}{true, publicURL, len(data)})
}

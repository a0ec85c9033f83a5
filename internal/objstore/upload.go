package objstore

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"keai-site/pkg/keai"
)

// maxUploadBytes caps decoded image payloads.
const maxUploadBytes = 5 * 1024 * 1024

var dataURLPrefix = regexp.MustCompile(`^data:image/\w+;base64,`)

// DecodeImagePayload decodes one base64 image payload as submitted by the
// admin UI, stripping an optional data-URL prefix and sniffing the MIME type
// from the leading bytes of the encoded data.
func DecodeImagePayload(payload string) (data []byte, contentType string, err error) {
	trimmed := strings.TrimSpace(payload)
	if trimmed == "" {
		return nil, "", keai.NewValidationError("imageData")
	}

	encoded := dataURLPrefix.ReplaceAllString(trimmed, "")
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, "", &keai.ValidationError{Field: "imageData", Reason: "invalid base64"}
	}
	if len(decoded) > maxUploadBytes {
		return nil, "", &keai.ValidationError{Field: "imageData", Reason: "file exceeds 5MB"}
	}

	return decoded, sniffImageType(encoded), nil
}

// sniffImageType recognizes image formats by their base64 signature, the same
// cheap check the admin UI relied on. Unknown data defaults to WebP because
// uploads are converted client-side.
func sniffImageType(encoded string) string {
	switch {
	case strings.HasPrefix(encoded, "/9j/"):
		return "image/jpeg"
	case strings.HasPrefix(encoded, "iVBORw"):
		return "image/png"
	case strings.HasPrefix(encoded, "UklGR"):
		return "image/webp"
	case strings.HasPrefix(encoded, "R0lGOD"):
		return "image/gif"
	default:
		return "image/webp"
	}
}

// ImageKey builds a collision-resistant object key under prefix, e.g.
// "popups/popup-8f14e45f.webp".
func ImageKey(prefix, name string) string {
	short := strings.Split(uuid.NewString(), "-")[0]
	if prefix == "" {
		return fmt.Sprintf("%s-%s.webp", name, short)
	}

	return fmt.Sprintf("%s/%s-%s.webp", prefix, name, short)
}

package keai

import (
	"strings"
	"unicode"
)

const maxSlugLength = 80

// Slugify derives a deterministic URL slug from a post title.
//
// Letters (including Hangul) and digits are kept lowercased, whitespace runs
// collapse into single hyphens, everything else is dropped, and the result is
// trimmed to 80 runes with no leading or trailing hyphen.
func Slugify(title string) string {
	if title == "" {
		return ""
	}

	var builder strings.Builder
	builder.Grow(len(title))
	lastHyphen := false
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			builder.WriteRune(r)
			lastHyphen = false
		case unicode.IsSpace(r) || r == '-':
			if !lastHyphen && builder.Len() > 0 {
				builder.WriteRune('-')
				lastHyphen = true
			}
		}
	}

	slug := strings.Trim(builder.String(), "-")
	runes := []rune(slug)
	if len(runes) > maxSlugLength {
		slug = strings.Trim(string(runes[:maxSlugLength]), "-")
	}

	return slug
}

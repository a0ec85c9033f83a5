package generate

import "strings"

const (
	markerTitle   = "---TITLE---"
	markerBody    = "---BODY---"
	markerSummary = "---SUMMARY---"
	markerEnd     = "---END---"
)

// GeneratedPost is one parsed model response.
type GeneratedPost struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Summary string `json:"summary"`
}

// parseGenerated splits model output on the section markers. When the model
// ignored the format, the first non-empty line becomes the title and the
// remainder becomes the body.
func parseGenerated(text string) GeneratedPost {
	title := sectionBetween(text, markerTitle, markerBody)
	content := sectionBetween(text, markerBody, markerSummary)
	summary := sectionBetween(text, markerSummary, markerEnd)

	if title == "" || content == "" {
		return fallbackSplit(text)
	}

	return GeneratedPost{Title: title, Content: content, Summary: summary}
}

func sectionBetween(text, start, end string) string {
	startIndex := strings.Index(text, start)
	if startIndex < 0 {
		return ""
	}
	rest := text[startIndex+len(start):]
	endIndex := strings.Index(rest, end)
	if endIndex < 0 {
		return ""
	}
	return strings.TrimSpace(rest[:endIndex])
}

func fallbackSplit(text string) GeneratedPost {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return GeneratedPost{Title: "Untitled", Content: strings.TrimSpace(text)}
	}

	title := strings.TrimSpace(strings.TrimLeft(lines[0], "#*- \t"))
	if title == "" {
		title = "Untitled"
	}
	content := strings.TrimSpace(strings.Join(lines[1:], "\n\n"))
	if content == "" {
		content = strings.TrimSpace(text)
	}

	return GeneratedPost{Title: title, Content: content}
}

package generate

import "strings"

// CategoryGuide steers the prompt for one post category.
type CategoryGuide struct {
	// Description explains the editorial angle of the category.
	Description string
	// Topics are candidate subjects used when the caller picks none.
	Topics []string
}

// categoryOrder keeps Categories deterministic for API responses.
var categoryOrder = []string{
	"funding-basics",
	"working-facility-capital",
	"screening-criteria",
	"preparation-documents",
}

var categoryGuides = map[string]CategoryGuide{
	"funding-basics": {
		Description: "Explain policy funding concepts and structure so a first-time business owner can follow",
		Topics: []string{
			"policy funding fundamentals",
			"types of policy funding",
			"eligibility requirements",
			"policy funding versus bank loans",
		},
	},
	"working-facility-capital": {
		Description: "Cover working capital and facility capital, the two most used funding kinds in practice",
		Topics: []string{
			"when working capital is needed",
			"timing a facility capital application",
			"traits of each capital kind",
			"choosing the right capital kind",
		},
	},
	"screening-criteria": {
		Description: "Walk through what screening committees actually weigh during a policy funding review",
		Topics: []string{
			"core screening factors",
			"credit score and screening",
			"financial statement review",
			"why the business plan matters",
		},
	},
	"preparation-documents": {
		Description: "Lay out the preparation process and the paperwork a policy funding application needs",
		Topics: []string{
			"where to start preparing",
			"required document checklist",
			"document writing tips",
			"common mistakes to avoid",
		},
	},
}

// The stored post category is coarser than the prompt guide split.
const savedPostCategory = "info"

const styleGuide = `Writing style guide:
1. Title: phrased as a question or a business owner's curiosity
2. Paragraphs: short, 2-4 lines each, for readability
3. Tone: professional yet friendly, as if explaining to a business owner
4. Content: practical advice grounded in real consulting experience
5. Length: roughly 400-600 characters
6. Banned words: 'loan brokering', 'document proxy', 'approval rate', 'success stories', 'government policy funds'
7. Preferred words: 'securing capital', 'capability review', 'coaching', 'guidance', 'support'`

const outputFormat = `Output format (follow it exactly):
---TITLE---
[title here]
---BODY---
[body here]
---SUMMARY---
[2-3 sentence summary]
---END---`

// Categories lists the supported generation categories in stable order.
func Categories() []string {
	out := make([]string, len(categoryOrder))
	copy(out, categoryOrder)
	return out
}

func buildPrompt(category string, guide CategoryGuide, topic, custom string) string {
	var b strings.Builder
	b.WriteString("You are a policy funding consultant. Write an informational blog post for small business owners.\n\n")
	b.WriteString("Category: " + category + "\n")
	if guide.Description != "" {
		b.WriteString("Category description: " + guide.Description + "\n")
	}
	if topic == "" {
		topic = "open topic"
	}
	b.WriteString("Topic: " + topic + "\n")
	if custom != "" {
		b.WriteString("Additional request: " + custom + "\n")
	}
	b.WriteString("\n" + styleGuide + "\n\n")
	b.WriteString(outputFormat + "\n\n")
	b.WriteString("Important:\n")
	b.WriteString("- Phrase the title as a question or a curiosity\n")
	b.WriteString("- Split the body into short paragraphs\n")
	b.WriteString("- Include realistic advice that reads like lived experience\n")
	b.WriteString("- Never use the banned words\n\n")
	b.WriteString("Write the post now.")
	return b.String()
}

// buildCompactPrompt is the last-attempt fallback. It drops the style block
// so a struggling model gets the shortest possible instruction.
func buildCompactPrompt(category string, topic string) string {
	var b strings.Builder
	b.WriteString("Write a short informational blog post for small business owners about policy funding.\n")
	b.WriteString("Category: " + category + "\n")
	if topic != "" {
		b.WriteString("Topic: " + topic + "\n")
	}
	b.WriteString("\n" + outputFormat)
	return b.String()
}

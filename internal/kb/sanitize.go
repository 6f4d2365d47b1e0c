package kb

import (
	"regexp"
	"strings"
)

var (
	urlRegex   = regexp.MustCompile(`(?i)https?://[^\s<>"{}|\\^` + "`" + `\[\]]+|www\.[^\s<>"{}|\\^` + "`" + `\[\]]+|ftp://[^\s<>"{}|\\^` + "`" + `\[\]]+`)
	emailRegex = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	blankRegex = regexp.MustCompile(`\n{3,}`)
	spaceRegex = regexp.MustCompile(`[ \t]+`)
)

// Sanitize strips URLs and email addresses from forwarded email text and
// normalizes whitespace. Paragraph breaks are preserved so the chunker can
// still split on them.
func Sanitize(text string) string {
	if text == "" {
		return text
	}
	text = urlRegex.ReplaceAllString(text, "")
	text = emailRegex.ReplaceAllString(text, "")
	text = spaceRegex.ReplaceAllString(text, " ")
	text = blankRegex.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

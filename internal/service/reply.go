package service

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var replyMarkdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

// BuildReply prepares the subject and both bodies for an answer mail. The
// answer may contain markdown from the model; the HTML alternative renders
// it, the text alternative ships it verbatim.
func BuildReply(originalSubject, answer string) (subject, textBody, htmlBody string) {
	subject = strings.TrimSpace(originalSubject)
	if subject == "" {
		subject = "Your question"
	}
	if !strings.HasPrefix(strings.ToLower(subject), "re:") {
		subject = "Re: " + subject
	}
	textBody = answer
	var out bytes.Buffer
	if err := replyMarkdown.Convert([]byte(answer), &out); err != nil {
		return subject, textBody, ""
	}
	return subject, textBody, out.String()
}

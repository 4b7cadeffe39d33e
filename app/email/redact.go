package email

import (
	"regexp"
	"strings"

	readability "codeberg.org/readeck/go-readability"
)

const excerptLimit = 2000

var (
	redactAddress = regexp.MustCompile(`[\w.+-]+@[\w.-]+\.\w+`)
	redactURL     = regexp.MustCompile(`https?://\S+`)
	redactDigits  = regexp.MustCompile(`\d{6,}`)
)

// RedactedExcerpt produces the copy of an email embedded in a crash-report
// bundle: readable text only, with addresses, links, and long numbers
// stripped. Subject and sender stay out of the excerpt; the template
// structure is what a report needs.
func RedactedExcerpt(e *Email) string {
	text := e.Body

	if article, err := readability.FromReader(strings.NewReader(e.Body), nil); err == nil {
		if t := strings.TrimSpace(article.TextContent); t != "" {
			text = t
		}
	} else if t := e.Text(); t != "" {
		text = t
	}

	text = redactAddress.ReplaceAllString(text, "[address]")
	text = redactURL.ReplaceAllString(text, "[link]")
	text = redactDigits.ReplaceAllString(text, "[number]")
	text = strings.Join(strings.Fields(text), " ")

	if len(text) > excerptLimit {
		text = text[:excerptLimit]
	}
	return text
}

package email

import (
	"regexp"
	"strings"
)

// Classifier determines an email's semantic type and template style from
// structural inspection of headers and body. None of the send systems mark
// their emails with a machine-readable type, so style falls out of the
// sender plus template structure and type falls out of the subject table.
type Classifier struct {
	registry *Registry
}

func NewClassifier(registry *Registry) *Classifier {
	return &Classifier{registry: registry}
}

// Senders of the partner platform. Their notifications carry no identity
// signal we can bind, so the whole style is unsupported.
var pogoSenders = []string{
	"pokemongolive.com",
	"pokemon-go",
}

// Subjects outside the tracked set: account plumbing and marketing from the
// same senders as the tracked notifications.
var skipSubjects = regexp.MustCompile(`(?i)newsletter|verify your email|password|account (?:update|deletion)|terms of service|community day|special offer`)

// Classify inspects one parsed email. It never fails: structurally
// unrecognizable emails classify as {UNKNOWN, <style>} and are recorded as
// unsupported downstream.
func (c *Classifier) Classify(e *Email) Classification {
	style := c.classifyStyle(e)

	if style == StylePogo {
		return Classification{Type: TypeOther, Style: style}
	}
	if skipSubjects.MatchString(e.Subject) {
		return Classification{Type: TypeOther, Style: style}
	}

	return Classification{
		Type:  c.registry.TypeFor(style, e.Subject),
		Style: style,
	}
}

func (c *Classifier) classifyStyle(e *Email) Style {
	from := strings.ToLower(e.From)

	for _, sender := range pogoSenders {
		if strings.Contains(from, sender) {
			return StylePogo
		}
	}

	if strings.Contains(from, "wayfarer") {
		// The third template generation tags every element with em_*
		// classes; the second generation predates that convention.
		if doc, err := e.Doc(); err == nil {
			if doc.Find(`[class*="em_"]`).Length() > 0 {
				return StyleWayfarerV2
			}
		}
		return StyleWayfarer
	}

	if strings.Contains(from, "ingress") || strings.Contains(from, "opr") ||
		strings.Contains(from, "portalreview") || strings.Contains(from, "@google.com") {
		return StyleOPR
	}

	return StyleUnknown
}

package email

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wayspot-tools/contribtrack/app/contrib"
)

// Status resolvers. Each returns ("", nil) when it has no answer so the
// registry can fall through to the next one.

// statusFixed always resolves the given status. Used by received/appeal
// templates whose type alone implies the transition.
func statusFixed(status contrib.Status) StatusResolver {
	return func(rc *ResolveContext) (contrib.Status, error) {
		return status, nil
	}
}

// keywordSet maps a status to the prose fragments that signal it in one
// locale. Duplicate wording is checked before the generic rejection wording
// because duplicate-rejection emails contain both.
type keywordSet struct {
	Accepted  []string
	Rejected  []string
	Duplicate []string
}

// statusFromKeywords resolves the decision by scanning the rendered body
// text for locale-specific wording.
func statusFromKeywords(set keywordSet) StatusResolver {
	return func(rc *ResolveContext) (contrib.Status, error) {
		text := folder.String(rc.Email.Text())

		contains := func(fragments []string) bool {
			for _, fragment := range fragments {
				if strings.Contains(text, folder.String(fragment)) {
					return true
				}
			}
			return false
		}

		switch {
		case contains(set.Duplicate):
			return contrib.StatusDuplicate, nil
		case contains(set.Accepted):
			return contrib.StatusAccepted, nil
		case contains(set.Rejected):
			return contrib.StatusRejected, nil
		}
		return "", nil
	}
}

// statusAcceptedIfMapLink resolves ACCEPTED structurally: only acceptance
// templates link the now-live entity on the map.
func statusAcceptedIfMapLink(rc *ResolveContext) (contrib.Status, error) {
	if rc.Doc == nil {
		return "", nil
	}
	if rc.Doc.Find(`a[href*="intel.ingress.com"], a[href*="/map/"]`).Length() > 0 {
		return contrib.StatusAccepted, nil
	}
	return "", nil
}

// statusRejectedFromHistory narrows a bare rejection to its terminal
// sub-state. The email text does not distinguish plain rejection from
// rejection-as-duplicate, but the entity's own past does: walk the existing
// timeline backward past the APPEALED entry and reuse the most recent
// REJECTED/DUPLICATE found there. Strict mode fails as ambiguous instead of
// guessing when the walk finds nothing.
func statusRejectedFromHistory(rc *ResolveContext) (contrib.Status, error) {
	seenAppeal := false
	for i := len(rc.History) - 1; i >= 0; i-- {
		entry := rc.History[i]
		if entry.Status == contrib.StatusAppealed {
			seenAppeal = true
			continue
		}
		if !seenAppeal {
			continue
		}
		switch entry.Status {
		case contrib.StatusRejected, contrib.StatusDuplicate:
			return entry.Status, nil
		}
	}

	if rc.Strict {
		return "", fmt.Errorf("email %s: rejection sub-state undecidable from history: %w", rc.Email.ID, ErrAmbiguousStatus)
	}
	return contrib.StatusRejected, nil
}

// Identity resolvers.

// identityFromImage extracts the stable per-submission image token: the path
// of the first content image hosted on the submission CDN. Template art and
// tracking pixels never live there.
func identityFromImage(rc *ResolveContext) (Identity, error) {
	if rc.Doc == nil {
		return Identity{}, nil
	}

	var identity Identity
	rc.Doc.Find("img").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		src, ok := sel.Attr("src")
		if !ok {
			return true
		}
		path := submissionImagePath(src)
		if path == "" {
			return true
		}
		identity.ImagePath = path
		return false
	})
	return identity, nil
}

// submissionImagePath returns the identity token embedded in a submission
// image URL, or "" for unrelated images.
func submissionImagePath(src string) string {
	u, err := url.Parse(strings.TrimSpace(src))
	if err != nil {
		return ""
	}
	if !strings.HasSuffix(u.Hostname(), "googleusercontent.com") {
		return ""
	}

	path := strings.Trim(u.Path, "/")
	// Size directives are appended after "=", e.g. ".../xyz=s150"; the
	// token before it is stable per submission.
	if i := strings.Index(path, "="); i >= 0 {
		path = path[:i]
	}
	if len(path) < 16 {
		return ""
	}
	return path
}

// identityFromTitleAndDate binds via the subject-line title plus the
// submission date written in prose. The prose date's timezone is unknown,
// so the candidates span the parsed day and both neighbors.
func identityFromTitleAndDate(langCode string) IdentityResolver {
	return func(rc *ResolveContext) (Identity, error) {
		title := strings.TrimSpace(rc.Entry.SubjectGroup(rc.Email.Subject, "title"))
		if title == "" {
			return Identity{}, nil
		}

		identity := Identity{Title: title}
		if locale := LocaleFor(langCode); locale != nil {
			if day, ok := locale.ParseDate(rc.Email.Text()); ok {
				identity.Dates = DateCandidates(day)
			}
		}
		return identity, nil
	}
}

// identityFromTitleElement reads the title from a structural element when
// the subject line does not carry it (older photo/edit templates).
func identityFromTitleElement(selector, langCode string) IdentityResolver {
	return func(rc *ResolveContext) (Identity, error) {
		if rc.Doc == nil {
			return Identity{}, nil
		}

		title := strings.TrimSpace(rc.Doc.Find(selector).First().Text())
		if title == "" {
			return Identity{}, nil
		}

		identity := Identity{Title: title}
		if locale := LocaleFor(langCode); locale != nil {
			if day, ok := locale.ParseDate(rc.Email.Text()); ok {
				identity.Dates = DateCandidates(day)
			}
		}
		return identity, nil
	}
}

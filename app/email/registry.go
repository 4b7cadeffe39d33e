package email

import (
	"fmt"
	"regexp"

	"github.com/PuerkitoBio/goquery"

	"github.com/wayspot-tools/contribtrack/app/contrib"
)

// ResolveContext carries everything a resolver may inspect. Resolvers are
// pure: all state lives here.
type ResolveContext struct {
	Email *Email
	Doc   *goquery.Document
	Entry *Entry

	// History is the matched entity's existing timeline. Only set for the
	// status-resolution phase; identity resolvers run before matching.
	History []contrib.StatusHistoryEntry

	// Strict turns heuristic-resolvable ambiguity into a hard failure.
	Strict bool
}

// StatusResolver extracts a target status from the parsed document. An empty
// status with nil error means "no result, try the next resolver".
type StatusResolver func(rc *ResolveContext) (contrib.Status, error)

// IdentityResolver extracts the identity signal used for entity matching.
// A zero identity with nil error means "no result, try the next resolver".
type IdentityResolver func(rc *ResolveContext) (Identity, error)

// Entry is one template rule: a subject matcher for a specific locale and
// template generation, plus the ordered resolvers for it. Registry iteration
// is first-match-wins, so more specific subjects must precede generic ones.
type Entry struct {
	Type     Type
	Styles   []Style // nil = any style
	Lang     string
	Subject  *regexp.Regexp
	Status   []StatusResolver
	Identity []IdentityResolver
}

// Matches reports whether this entry applies to the given style and subject.
func (e *Entry) Matches(style Style, subject string) bool {
	if len(e.Styles) > 0 {
		ok := false
		for _, s := range e.Styles {
			if s == style {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return e.Subject.MatchString(subject)
}

// SubjectGroup returns a named capture of the entry's subject pattern
// applied to the email subject, or "".
func (e *Entry) SubjectGroup(subject, name string) string {
	match := e.Subject.FindStringSubmatch(subject)
	if match == nil {
		return ""
	}
	for i, groupName := range e.Subject.SubexpNames() {
		if groupName == name && i < len(match) {
			return match[i]
		}
	}
	return ""
}

// Registry is the ordered table of template rules.
type Registry struct {
	entries []Entry
}

// NewRegistry builds the registry with the built-in template table.
func NewRegistry() *Registry {
	return &Registry{entries: templateTable()}
}

// Len returns the number of entries.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Find returns the first entry applying to the style and subject, or nil.
func (r *Registry) Find(style Style, subject string) *Entry {
	for i := range r.entries {
		if r.entries[i].Matches(style, subject) {
			return &r.entries[i]
		}
	}
	return nil
}

// TypeFor derives the email type from the subject line the same way Find
// would, without committing to an entry.
func (r *Registry) TypeFor(style Style, subject string) Type {
	if entry := r.Find(style, subject); entry != nil {
		return entry.Type
	}
	return TypeUnknown
}

// ResolveIdentity runs the entry's identity resolvers in order; the first
// non-empty result wins.
func (r *Registry) ResolveIdentity(rc *ResolveContext) (Identity, error) {
	for _, resolve := range rc.Entry.Identity {
		id, err := resolve(rc)
		if err != nil {
			return Identity{}, err
		}
		if id.HasSignal() {
			return id, nil
		}
	}
	return Identity{}, fmt.Errorf("no identity signal in email %s: %w", rc.Email.ID, ErrUnsupported)
}

// ResolveStatus runs the entry's status resolvers in order; the first
// non-empty result wins.
func (r *Registry) ResolveStatus(rc *ResolveContext) (contrib.Status, error) {
	for _, resolve := range rc.Entry.Status {
		status, err := resolve(rc)
		if err != nil {
			return "", err
		}
		if status != "" {
			return status, nil
		}
	}
	return "", fmt.Errorf("no status resolvable for email %s: %w", rc.Email.ID, ErrUnsupported)
}

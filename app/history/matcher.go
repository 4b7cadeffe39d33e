// Package history binds email-derived signals to tracked contributions and
// merges timeline updates into their persisted status histories.
package history

import (
	"errors"
	"fmt"
	"strings"

	"github.com/wayspot-tools/contribtrack/app/contrib"
	"github.com/wayspot-tools/contribtrack/app/email"
)

var (
	// ErrNoMatch means no tracked contribution carries the identity signal
	// (account or data mismatch). Hard failure: never bind by guesswork.
	ErrNoMatch = errors.New("no matching contribution")

	// ErrAmbiguousMatch means the signal fits several contributions
	// (duplicate titles on the same day). Hard failure: a silent pick
	// would corrupt another entity's timeline.
	ErrAmbiguousMatch = errors.New("ambiguous contribution match")
)

// contribTypesFor restricts the candidate pool per email type.
func contribTypesFor(t email.Type) map[contrib.Type]bool {
	switch t {
	case email.TypePhotoReceived, email.TypePhotoDecided:
		return map[contrib.Type]bool{contrib.TypePhoto: true}
	case email.TypeEditReceived, email.TypeEditDecided:
		return map[contrib.Type]bool{
			contrib.TypeEditTitle:       true,
			contrib.TypeEditDescription: true,
			contrib.TypeEditLocation:    true,
		}
	default:
		return map[contrib.Type]bool{contrib.TypeNomination: true}
	}
}

// Match finds the single contribution the identity signal points at.
// Exactly one candidate is the only success: zero and many both fail, each
// with its own distinguishable error.
func Match(pool []contrib.StoredContribution, emailType email.Type, id email.Identity) (*contrib.StoredContribution, error) {
	types := contribTypesFor(emailType)

	var typed []contrib.StoredContribution
	for _, c := range pool {
		if types[c.Type] {
			typed = append(typed, c)
		}
	}

	var candidates []contrib.StoredContribution
	if id.ImagePath != "" {
		for _, c := range typed {
			if strings.Contains(c.ImageURL, id.ImagePath) {
				candidates = append(candidates, c)
			}
		}
	}

	if len(candidates) == 0 && id.Title != "" {
		for _, c := range typed {
			if c.Title != id.Title {
				continue
			}
			if !dayMatches(c, id) {
				continue
			}
			candidates = append(candidates, c)
		}
	}

	switch len(candidates) {
	case 0:
		return nil, fmt.Errorf("identity %q: %w", id.Title+id.ImagePath, ErrNoMatch)
	case 1:
		c := candidates[0]
		return &c, nil
	default:
		return nil, fmt.Errorf("identity %q fits %d contributions: %w", id.Title+id.ImagePath, len(candidates), ErrAmbiguousMatch)
	}
}

func dayMatches(c contrib.StoredContribution, id email.Identity) bool {
	if len(id.Dates) == 0 {
		return true
	}
	day := c.SubmissionDay()
	if day.IsZero() {
		return false
	}
	for _, candidate := range id.Dates {
		if day.Equal(candidate) {
			return true
		}
	}
	return false
}

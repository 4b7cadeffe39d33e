package email

import (
	"errors"
	"time"
)

// Type is the semantic kind of a notification email.
type Type string

const (
	TypeNominationReceived Type = "NOMINATION_RECEIVED"
	TypeNominationDecided  Type = "NOMINATION_DECIDED"
	TypeAppealReceived     Type = "APPEAL_RECEIVED"
	TypeAppealDecided      Type = "APPEAL_DECIDED"
	TypeEditReceived       Type = "EDIT_RECEIVED"
	TypeEditDecided        Type = "EDIT_DECIDED"
	TypePhotoReceived      Type = "PHOTO_RECEIVED"
	TypePhotoDecided       Type = "PHOTO_DECIDED"

	// TypeOther covers senders and subjects outside the tracked set
	// (marketing, account notices). Processing skips them.
	TypeOther Type = "OTHER"

	// TypeUnknown means no template matched. Recorded as unsupported so a
	// later template-table addition can recover the email.
	TypeUnknown Type = "UNKNOWN"
)

// Style identifies which send system generated the email. The ecosystem
// spans three generations of the host's own templates plus a mobile-game
// partner's templates, and none carry a machine-readable type marker.
type Style string

const (
	StyleOPR        Style = "OPR"         // first generation
	StyleWayfarer   Style = "WAYFARER"    // second generation
	StyleWayfarerV2 Style = "WAYFARER_V2" // third generation
	StylePogo       Style = "POGO"        // partner platform, unsupported
	StyleUnknown    Style = "UNKNOWN"
)

// Classification is the classifier's verdict for one email.
type Classification struct {
	Type  Type
	Style Style
}

// Identity is the extracted signal used to bind an email to exactly one
// tracked contribution: a stable image-URL path fragment, or a title plus
// candidate submission dates. The email's embedded date lives in an unknown
// local timezone while the tracked day is UTC, so Dates always carries the
// parsed day and its two neighbors.
type Identity struct {
	ImagePath string
	Title     string
	Dates     []time.Time
}

// HasSignal reports whether the identity carries anything usable.
func (id Identity) HasSignal() bool {
	return id.ImagePath != "" || id.Title != ""
}

var (
	// ErrUnsupported marks emails no template could handle.
	ErrUnsupported = errors.New("unsupported email")

	// ErrAmbiguousStatus marks a decision that cannot be narrowed to a
	// single terminal status without guessing. Strict mode turns it into a
	// recorded ambiguous outcome instead of a guess.
	ErrAmbiguousStatus = errors.New("ambiguous status")
)

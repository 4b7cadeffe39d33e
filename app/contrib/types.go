package contrib

import (
	"encoding/json"
	"time"
)

// Type identifies what kind of contribution the host app tracks.
type Type string

const (
	TypeNomination      Type = "NOMINATION"
	TypeEditTitle       Type = "EDIT_TITLE"
	TypeEditDescription Type = "EDIT_DESCRIPTION"
	TypeEditLocation    Type = "EDIT_LOCATION"
	TypePhoto           Type = "PHOTO"
)

// Status is a contribution lifecycle status as reported by the host app.
type Status string

const (
	StatusNominated     Status = "NOMINATED"
	StatusVoting        Status = "VOTING"
	StatusAccepted      Status = "ACCEPTED"
	StatusRejected      Status = "REJECTED"
	StatusDuplicate     Status = "DUPLICATE"
	StatusWithdrawn     Status = "WITHDRAWN"
	StatusNianticReview Status = "NIANTIC_REVIEW"
	StatusAppealed      Status = "APPEALED"
	StatusHeld          Status = "HELD"

	// StatusUpgrade is a pseudo-status recorded in timelines when a
	// nomination receives an upgrade; it is never a live host-app status.
	StatusUpgrade Status = "UPGRADE"
)

// Contribution is a snapshot of one record from the host app's manager
// endpoint. Read-only to this service: we only observe it.
type Contribution struct {
	ID       string  `json:"id"`
	Type     Type    `json:"type"`
	Status   Status  `json:"status"`
	Title    string  `json:"title"`
	ImageURL string  `json:"imageUrl"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Day      string  `json:"day"` // submission date, YYYY-MM-DD, host-app timezone (UTC)
	Upgraded bool    `json:"upgraded"`
}

// StatusHistoryEntry records one observed status transition.
// Verified means the entry came from a live API response, an
// authoritatively time-stamped email, or a confirmed manual action,
// rather than from an inferred prose date.
type StatusHistoryEntry struct {
	Timestamp int64  `json:"timestamp"` // unix ms
	Status    Status `json:"status"`
	Verified  bool   `json:"verified,omitempty"`
	Email     string `json:"email,omitempty"` // source message id, when email-derived
}

// Time returns the entry timestamp as a UTC time.Time.
func (e StatusHistoryEntry) Time() time.Time {
	return time.UnixMilli(e.Timestamp).UTC()
}

// StoredContribution is the persisted projection of a Contribution plus its
// accumulated status history. Keyed by contribution ID in the history store.
type StoredContribution struct {
	ID            string               `json:"id"`
	Type          Type                 `json:"type"`
	Status        Status               `json:"status"`
	Title         string               `json:"title"`
	ImageURL      string               `json:"imageUrl"`
	Lat           float64              `json:"lat"`
	Lng           float64              `json:"lng"`
	Day           string               `json:"day"`
	Upgraded      bool                 `json:"upgraded"`
	StatusHistory []StatusHistoryEntry `json:"statusHistory"`
	POIData       json.RawMessage      `json:"poiData,omitempty"`
}

// SubmissionDay parses Day as a UTC midnight time. The zero time is
// returned when Day is missing or malformed.
func (c *StoredContribution) SubmissionDay() time.Time {
	t, err := time.ParseInLocation("2006-01-02", c.Day, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return t
}

// ProcessingResult is the durable outcome of one email processing attempt.
type ProcessingResult string

const (
	ResultSuccess     ProcessingResult = "success"
	ResultSkipped     ProcessingResult = "skipped"
	ResultUnsupported ProcessingResult = "unsupported"
	ResultAmbiguous   ProcessingResult = "ambiguous"
	ResultFailure     ProcessingResult = "failure"
	ResultUnchanged   ProcessingResult = "unchanged"
)

// EmailProcessingRecord marks whether and how an email has been handled.
// One per message id ever seen; it is what makes the pipeline idempotent
// and resumable.
type EmailProcessingRecord struct {
	ID      string           `json:"id"`
	TS      int64            `json:"ts"` // processed-at, unix ms
	Result  ProcessingResult `json:"result"`
	Version int              `json:"version"` // processing-logic version at record time
}

// Final reports whether the record is terminal at the given processing-logic
// version. Unsupported and failure outcomes stay eligible for reprocessing,
// as do records written by an older version of the pipeline.
func (r EmailProcessingRecord) Final(version int) bool {
	if r.Version < version {
		return false
	}
	switch r.Result {
	case ResultUnsupported, ResultFailure:
		return false
	}
	return true
}

// NewStored creates the persisted projection for a contribution observed
// for the first time. The submission day seeds a low-precision NOMINATED
// entry at UTC midnight; when the live status has already moved past
// NOMINATED, the current status is appended as a verified entry at now.
func NewStored(c Contribution, now time.Time) *StoredContribution {
	sc := &StoredContribution{
		ID:       c.ID,
		Type:     c.Type,
		Status:   c.Status,
		Title:    c.Title,
		ImageURL: c.ImageURL,
		Lat:      c.Lat,
		Lng:      c.Lng,
		Day:      c.Day,
		Upgraded: c.Upgraded,
	}

	if day := sc.SubmissionDay(); !day.IsZero() {
		sc.StatusHistory = append(sc.StatusHistory, StatusHistoryEntry{
			Timestamp: day.UnixMilli(),
			Status:    StatusNominated,
		})
		if c.Status != StatusNominated {
			sc.StatusHistory = append(sc.StatusHistory, StatusHistoryEntry{
				Timestamp: now.UnixMilli(),
				Status:    c.Status,
				Verified:  true,
			})
		}
	} else {
		sc.StatusHistory = append(sc.StatusHistory, StatusHistoryEntry{
			Timestamp: now.UnixMilli(),
			Status:    c.Status,
			Verified:  true,
		})
	}

	return sc
}

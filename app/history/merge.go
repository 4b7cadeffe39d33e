package history

import (
	"slices"
	"sort"
	"time"

	"github.com/wayspot-tools/contribtrack/app/contrib"
)

const dayMillis = 24 * 60 * 60 * 1000

// bareDate reports a timestamp recorded as a plain date: all sub-day
// components zero. Such entries come from low-precision historical imports
// and lose dedup ties.
func bareDate(ms int64) bool {
	return ms%dayMillis == 0
}

// Merge folds new entries into an existing timeline. The combined sequence
// is stable-sorted by timestamp, then adjacent entries sharing a status are
// deduplicated: a bare-date earlier entry always yields to the later one,
// precise or bare, while a precise earlier entry wins. The returned flag is
// the positional status-by-status diff against the existing timeline; false
// means the caller must not write anything, which is what keeps repeated runs
// idempotent.
func Merge(existing, incoming []contrib.StatusHistoryEntry) ([]contrib.StatusHistoryEntry, bool) {
	combined := slices.Clone(existing)
	combined = append(combined, incoming...)

	sort.SliceStable(combined, func(i, j int) bool {
		return combined[i].Timestamp < combined[j].Timestamp
	})

	merged := make([]contrib.StatusHistoryEntry, 0, len(combined))
	for _, entry := range combined {
		if len(merged) > 0 {
			last := &merged[len(merged)-1]
			if last.Status == entry.Status {
				if bareDate(last.Timestamp) {
					*last = entry
				}
				continue
			}
		}
		merged = append(merged, entry)
	}

	return merged, differs(existing, merged)
}

func differs(existing, merged []contrib.StatusHistoryEntry) bool {
	if len(existing) != len(merged) {
		return true
	}
	for i := range merged {
		if existing[i].Status != merged[i].Status {
			return true
		}
	}
	return false
}

// Transition describes one live status change for notification purposes.
type Transition struct {
	From    contrib.Status
	To      contrib.Status
	Upgrade bool

	// Suppressed transitions are recorded in history but not announced:
	// holds and hold releases are routine administrative toggles.
	Suppressed bool
}

func suppressed(from, to contrib.Status) bool {
	if to == contrib.StatusHeld {
		return true
	}
	if from == contrib.StatusHeld && to == contrib.StatusNominated {
		return true
	}
	return false
}

// ApplySnapshot folds one live host-app snapshot into the stored
// projection. Live snapshots carry no authoritative historical timestamp,
// so appended entries use now and are marked verified. The returned flag
// reports whether anything must be persisted.
func ApplySnapshot(stored *contrib.StoredContribution, c contrib.Contribution, now time.Time) (bool, []Transition) {
	var incoming []contrib.StatusHistoryEntry
	var transitions []Transition

	if stored.Status != c.Status {
		incoming = append(incoming, contrib.StatusHistoryEntry{
			Timestamp: now.UnixMilli(),
			Status:    c.Status,
			Verified:  true,
		})
		transitions = append(transitions, Transition{
			From:       stored.Status,
			To:         c.Status,
			Suppressed: suppressed(stored.Status, c.Status),
		})
	}

	if c.Upgraded && !stored.Upgraded {
		incoming = append(incoming, contrib.StatusHistoryEntry{
			Timestamp: now.UnixMilli(),
			Status:    contrib.StatusUpgrade,
			Verified:  true,
		})
		transitions = append(transitions, Transition{To: contrib.StatusUpgrade, Upgrade: true})
	}

	changed := false
	if len(incoming) > 0 {
		merged, timelineChanged := Merge(stored.StatusHistory, incoming)
		if timelineChanged {
			stored.StatusHistory = merged
			changed = true
		}
	}

	changed = updateProjection(stored, c) || changed
	return changed, transitions
}

// updateProjection refreshes the snapshot fields of the stored record.
func updateProjection(stored *contrib.StoredContribution, c contrib.Contribution) bool {
	changed := false
	if stored.Status != c.Status {
		stored.Status = c.Status
		changed = true
	}
	if stored.Title != c.Title && c.Title != "" {
		stored.Title = c.Title
		changed = true
	}
	if stored.ImageURL != c.ImageURL && c.ImageURL != "" {
		stored.ImageURL = c.ImageURL
		changed = true
	}
	if stored.Upgraded != c.Upgraded {
		stored.Upgraded = c.Upgraded
		changed = true
	}
	if c.Lat != 0 && stored.Lat != c.Lat {
		stored.Lat = c.Lat
		changed = true
	}
	if c.Lng != 0 && stored.Lng != c.Lng {
		stored.Lng = c.Lng
		changed = true
	}
	if stored.Day != c.Day && c.Day != "" {
		stored.Day = c.Day
		changed = true
	}
	return changed
}

// ManualAction is a host-app action this service saw succeed.
type ManualAction string

const (
	ActionHold        ManualAction = "hold"
	ActionReleaseHold ManualAction = "releasehold"
	ActionAppeal      ManualAction = "appeal"
)

// statusForAction maps a confirmed manual action to the status it implies.
func statusForAction(action ManualAction) (contrib.Status, bool) {
	switch action {
	case ActionHold:
		return contrib.StatusHeld, true
	case ActionReleaseHold:
		return contrib.StatusNominated, true
	case ActionAppeal:
		return contrib.StatusAppealed, true
	}
	return "", false
}

// ApplyAction appends the verified entry for a confirmed manual action,
// bypassing the email pipeline.
func ApplyAction(stored *contrib.StoredContribution, action ManualAction, now time.Time) (bool, Transition, bool) {
	status, ok := statusForAction(action)
	if !ok {
		return false, Transition{}, false
	}

	transition := Transition{
		From:       stored.Status,
		To:         status,
		Suppressed: suppressed(stored.Status, status),
	}

	merged, changed := Merge(stored.StatusHistory, []contrib.StatusHistoryEntry{
		{Timestamp: now.UnixMilli(), Status: status, Verified: true},
	})
	if changed {
		stored.StatusHistory = merged
	}
	if stored.Status != status {
		stored.Status = status
		changed = true
	}

	return changed, transition, true
}

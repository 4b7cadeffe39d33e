package history

import (
	"errors"
	"testing"
	"time"

	"github.com/wayspot-tools/contribtrack/app/contrib"
	"github.com/wayspot-tools/contribtrack/app/email"
)

func testPool() []contrib.StoredContribution {
	return []contrib.StoredContribution{
		{
			ID:       "nom-1",
			Type:     contrib.TypeNomination,
			Title:    "Old Fountain",
			ImageURL: "https://lh3.googleusercontent.com/abc123def456ghi789",
			Day:      "2025-03-01",
		},
		{
			ID:    "nom-2",
			Type:  contrib.TypeNomination,
			Title: "Mural at the Station",
			Day:   "2025-04-12",
		},
		{
			ID:       "photo-1",
			Type:     contrib.TypePhoto,
			Title:    "Old Fountain",
			ImageURL: "https://lh3.googleusercontent.com/zzz999yyy888xxx777",
			Day:      "2025-03-01",
		},
	}
}

func TestMatchByImagePath(t *testing.T) {
	got, err := Match(testPool(), email.TypeNominationDecided, email.Identity{
		ImagePath: "abc123def456ghi789",
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != "nom-1" {
		t.Errorf("Expected nom-1, got %s", got.ID)
	}
}

func TestMatchImagePathRestrictedByType(t *testing.T) {
	// The same image fragment on a photo must not bind a nomination email.
	got, err := Match(testPool(), email.TypePhotoDecided, email.Identity{
		ImagePath: "zzz999yyy888xxx777",
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != "photo-1" {
		t.Errorf("Expected photo-1, got %s", got.ID)
	}
}

func TestMatchByTitleAndDate(t *testing.T) {
	submitted := time.Date(2025, 4, 12, 0, 0, 0, 0, time.UTC)
	got, err := Match(testPool(), email.TypeNominationReceived, email.Identity{
		Title: "Mural at the Station",
		Dates: []time.Time{submitted.AddDate(0, 0, -1), submitted, submitted.AddDate(0, 0, 1)},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != "nom-2" {
		t.Errorf("Expected nom-2, got %s", got.ID)
	}
}

func TestMatchTitleWithWrongDate(t *testing.T) {
	_, err := Match(testPool(), email.TypeNominationReceived, email.Identity{
		Title: "Mural at the Station",
		Dates: []time.Time{time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	})
	if !errors.Is(err, ErrNoMatch) {
		t.Errorf("Expected ErrNoMatch, got %v", err)
	}
}

func TestMatchNoCandidates(t *testing.T) {
	_, err := Match(testPool(), email.TypeNominationDecided, email.Identity{
		Title: "Nonexistent Bench",
	})
	if !errors.Is(err, ErrNoMatch) {
		t.Errorf("Expected ErrNoMatch, got %v", err)
	}
}

func TestMatchAmbiguous(t *testing.T) {
	pool := testPool()
	pool = append(pool, contrib.StoredContribution{
		ID:    "nom-3",
		Type:  contrib.TypeNomination,
		Title: "Mural at the Station",
		Day:   "2025-04-12",
	})

	submitted := time.Date(2025, 4, 12, 0, 0, 0, 0, time.UTC)
	_, err := Match(pool, email.TypeNominationReceived, email.Identity{
		Title: "Mural at the Station",
		Dates: []time.Time{submitted},
	})
	if !errors.Is(err, ErrAmbiguousMatch) {
		t.Errorf("Expected ErrAmbiguousMatch, got %v", err)
	}
}

func TestMatchImagePathBeatsTitle(t *testing.T) {
	// When an image fragment is present and matches, the title fallback
	// never runs, even if the title would be ambiguous.
	pool := testPool()
	pool = append(pool, contrib.StoredContribution{
		ID:    "nom-4",
		Type:  contrib.TypeNomination,
		Title: "Old Fountain",
		Day:   "2025-03-01",
	})

	got, err := Match(pool, email.TypeNominationDecided, email.Identity{
		ImagePath: "abc123def456ghi789",
		Title:     "Old Fountain",
		Dates:     []time.Time{time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != "nom-1" {
		t.Errorf("Expected nom-1, got %s", got.ID)
	}
}

func TestMatchEditTypes(t *testing.T) {
	pool := []contrib.StoredContribution{
		{ID: "edit-1", Type: contrib.TypeEditTitle, Title: "Corrected Name", Day: "2025-05-01"},
	}

	got, err := Match(pool, email.TypeEditDecided, email.Identity{
		Title: "Corrected Name",
		Dates: []time.Time{time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != "edit-1" {
		t.Errorf("Expected edit-1, got %s", got.ID)
	}
}

package email

import (
	"errors"
	"testing"

	"github.com/wayspot-tools/contribtrack/app/contrib"
)

func docContext(t *testing.T, body string) *ResolveContext {
	t.Helper()
	e := &Email{ID: "G-r", Body: body}
	doc, err := e.Doc()
	if err != nil {
		t.Fatal(err)
	}
	return &ResolveContext{Email: e, Doc: doc}
}

func TestStatusFromKeywordsDuplicateBeatsRejected(t *testing.T) {
	// Duplicate-rejection emails contain both the rejection and the
	// duplicate wording; the duplicate verdict must win.
	rc := docContext(t, "<p>Unfortunately we did not accept it: it is a duplicate of an existing Wayspot.</p>")

	resolve := statusFromKeywords(keywordSet{
		Accepted:  []string{"been accepted"},
		Rejected:  []string{"unfortunately"},
		Duplicate: []string{"duplicate of an existing"},
	})

	status, err := resolve(rc)
	if err != nil {
		t.Fatal(err)
	}
	if status != contrib.StatusDuplicate {
		t.Errorf("Expected DUPLICATE, got %s", status)
	}
}

func TestStatusFromKeywordsCaseFolded(t *testing.T) {
	rc := docContext(t, "<p>CONGRATULATIONS! Your nomination made it.</p>")

	resolve := statusFromKeywords(keywordSet{Accepted: []string{"congratulations"}})
	status, err := resolve(rc)
	if err != nil {
		t.Fatal(err)
	}
	if status != contrib.StatusAccepted {
		t.Errorf("Expected ACCEPTED, got %s", status)
	}
}

func TestStatusFromKeywordsNoAnswer(t *testing.T) {
	rc := docContext(t, "<p>nothing recognizable</p>")

	resolve := statusFromKeywords(keywordSet{Accepted: []string{"been accepted"}})
	status, err := resolve(rc)
	if err != nil {
		t.Fatal(err)
	}
	if status != "" {
		t.Errorf("Expected empty status, got %s", status)
	}
}

func TestStatusAcceptedIfMapLink(t *testing.T) {
	rc := docContext(t, `<p>See it live: <a href="https://intel.ingress.com/intel?ll=1,2">here</a></p>`)

	status, err := statusAcceptedIfMapLink(rc)
	if err != nil {
		t.Fatal(err)
	}
	if status != contrib.StatusAccepted {
		t.Errorf("Expected ACCEPTED, got %s", status)
	}

	rc = docContext(t, `<p>No links worth following. <a href="https://example.com">x</a></p>`)
	status, err = statusAcceptedIfMapLink(rc)
	if err != nil {
		t.Fatal(err)
	}
	if status != "" {
		t.Errorf("Expected no answer, got %s", status)
	}
}

func TestStatusRejectedFromHistory(t *testing.T) {
	history := []contrib.StatusHistoryEntry{
		{Timestamp: 1, Status: contrib.StatusNominated},
		{Timestamp: 2, Status: contrib.StatusDuplicate},
		{Timestamp: 3, Status: contrib.StatusAppealed},
	}

	rc := &ResolveContext{Email: &Email{ID: "G-h"}, History: history}
	status, err := statusRejectedFromHistory(rc)
	if err != nil {
		t.Fatal(err)
	}
	if status != contrib.StatusDuplicate {
		t.Errorf("Expected DUPLICATE from pre-appeal history, got %s", status)
	}
}

func TestStatusRejectedFromHistoryDefault(t *testing.T) {
	rc := &ResolveContext{Email: &Email{ID: "G-h2"}}
	status, err := statusRejectedFromHistory(rc)
	if err != nil {
		t.Fatal(err)
	}
	if status != contrib.StatusRejected {
		t.Errorf("Expected REJECTED default, got %s", status)
	}
}

func TestStatusRejectedFromHistoryStrict(t *testing.T) {
	rc := &ResolveContext{Email: &Email{ID: "G-h3"}, Strict: true}
	_, err := statusRejectedFromHistory(rc)
	if !errors.Is(err, ErrAmbiguousStatus) {
		t.Errorf("Expected ErrAmbiguousStatus in strict mode, got %v", err)
	}
}

func TestSubmissionImagePath(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{"https://lh3.googleusercontent.com/abc123def456ghi789jkl=s150", "abc123def456ghi789jkl"},
		{"https://lh3.googleusercontent.com/abc123def456ghi789jkl", "abc123def456ghi789jkl"},
		{"https://lh3.googleusercontent.com/short", ""},
		{"https://cdn.example.com/abc123def456ghi789jkl", ""},
		{"not a url at all ://", ""},
	}

	for _, tc := range cases {
		if got := submissionImagePath(tc.src); got != tc.want {
			t.Errorf("submissionImagePath(%q): expected %q, got %q", tc.src, tc.want, got)
		}
	}
}

func TestIdentityFromImage(t *testing.T) {
	rc := docContext(t, `<div>
		<img src="https://www.nianticlabs.com/logo.png">
		<img src="https://lh3.googleusercontent.com/abc123def456ghi789jkl=s300">
	</div>`)

	id, err := identityFromImage(rc)
	if err != nil {
		t.Fatal(err)
	}
	if id.ImagePath != "abc123def456ghi789jkl" {
		t.Errorf("Expected submission image token, got '%s'", id.ImagePath)
	}
}

func TestIdentityFromTitleAndDate(t *testing.T) {
	r := NewRegistry()
	e := &Email{
		ID:      "G-id",
		Subject: "Niantic Wayspot nomination received for Old Fountain",
		Body:    "<p>You submitted this nomination on March 15, 2024.</p>",
	}
	entry := r.Find(StyleWayfarer, e.Subject)
	if entry == nil {
		t.Fatal("Expected an entry")
	}
	doc, _ := e.Doc()

	id, err := r.ResolveIdentity(&ResolveContext{Email: e, Doc: doc, Entry: entry})
	if err != nil {
		t.Fatal(err)
	}
	if id.Title != "Old Fountain" {
		t.Errorf("Expected title 'Old Fountain', got '%s'", id.Title)
	}
	if len(id.Dates) != 3 {
		t.Fatalf("Expected 3 date candidates, got %d", len(id.Dates))
	}
	if id.Dates[1].Format("2006-01-02") != "2024-03-15" {
		t.Errorf("Expected middle candidate 2024-03-15, got %s", id.Dates[1].Format("2006-01-02"))
	}
}

func TestIdentityFromTitleElement(t *testing.T) {
	rc := docContext(t, "<p>Your photo for <b>Old Fountain</b> was received on May 2, 2024.</p>")
	rc.Entry = &Entry{}

	resolve := identityFromTitleElement("b, strong", "en")
	id, err := resolve(rc)
	if err != nil {
		t.Fatal(err)
	}
	if id.Title != "Old Fountain" {
		t.Errorf("Expected title 'Old Fountain', got '%s'", id.Title)
	}
	if len(id.Dates) != 3 {
		t.Errorf("Expected 3 date candidates, got %d", len(id.Dates))
	}
}

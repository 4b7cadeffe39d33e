package email

import (
	"testing"
	"time"
)

func TestParseDateEnglish(t *testing.T) {
	locale := LocaleFor("en")
	got, ok := locale.ParseDate("You submitted this nomination on January 2, 2024 from the app.")
	if !ok {
		t.Fatal("Expected a date")
	}
	want := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestParseDateEnglishAbbreviatedMonth(t *testing.T) {
	locale := LocaleFor("en")
	got, ok := locale.ParseDate("Submitted on Sep 15, 2023.")
	if !ok {
		t.Fatal("Expected a date")
	}
	want := time.Date(2023, 9, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestParseDateGerman(t *testing.T) {
	locale := LocaleFor("de")
	got, ok := locale.ParseDate("Eingereicht am 2. Januar 2024 über die App.")
	if !ok {
		t.Fatal("Expected a date")
	}
	want := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestParseDateSpanishWithDe(t *testing.T) {
	locale := LocaleFor("es")
	got, ok := locale.ParseDate("Enviada el 15 de marzo de 2024.")
	if !ok {
		t.Fatal("Expected a date")
	}
	want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestParseDateJapanese(t *testing.T) {
	locale := LocaleFor("ja")
	got, ok := locale.ParseDate("2024年1月2日に提出されました。")
	if !ok {
		t.Fatal("Expected a date")
	}
	want := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestParseDateThaiBuddhistYear(t *testing.T) {
	locale := LocaleFor("th")
	got, ok := locale.ParseDate("ส่งเมื่อ 15 มกราคม 2567")
	if !ok {
		t.Fatal("Expected a date")
	}
	want := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Expected Buddhist year conversion to %v, got %v", want, got)
	}
}

func TestParseDateNoMatch(t *testing.T) {
	locale := LocaleFor("en")
	if _, ok := locale.ParseDate("no date here"); ok {
		t.Error("Expected no date")
	}
}

func TestParseDateRejectsBogusValues(t *testing.T) {
	locale := LocaleFor("en")
	if got, ok := locale.ParseDate("Flooblemonth 12, 2024"); ok {
		t.Errorf("Expected unknown month to fail, got %v", got)
	}
}

func TestLocaleForUnknown(t *testing.T) {
	if LocaleFor("xx") != nil {
		t.Error("Expected nil for unknown language code")
	}
}

func TestDateCandidates(t *testing.T) {
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	got := DateCandidates(day)
	if len(got) != 3 {
		t.Fatalf("Expected 3 candidates, got %d", len(got))
	}
	if !got[0].Equal(day.AddDate(0, 0, -1)) || !got[1].Equal(day) || !got[2].Equal(day.AddDate(0, 0, 1)) {
		t.Errorf("Unexpected candidates %v", got)
	}
}

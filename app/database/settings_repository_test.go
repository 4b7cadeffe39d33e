package database

import (
	"testing"
	"time"
)

func TestSettingsGetBoolDefault(t *testing.T) {
	db := testDB(t)
	repo := NewSettingsRepository(db)

	got, err := repo.GetBool("unset_flag", true)
	if err != nil {
		t.Fatal(err)
	}
	if !got {
		t.Error("Expected default true for unset flag")
	}
}

func TestSettingsSetAndGetBool(t *testing.T) {
	db := testDB(t)
	repo := NewSettingsRepository(db)

	if err := repo.SetBool("flag", true); err != nil {
		t.Fatal(err)
	}
	got, err := repo.GetBool("flag", false)
	if err != nil {
		t.Fatal(err)
	}
	if !got {
		t.Error("Expected flag to be true")
	}

	if err := repo.SetBool("flag", false); err != nil {
		t.Fatal(err)
	}
	got, err = repo.GetBool("flag", true)
	if err != nil {
		t.Fatal(err)
	}
	if got {
		t.Error("Expected flag to be false after overwrite")
	}
}

func TestCrashReportRepository(t *testing.T) {
	db := testDB(t)
	repo := NewCrashReportRepository(db)

	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	err := repo.Insert(CrashReport{
		CreatedAt:    created,
		MessageID:    "G-1",
		Stack:        "goroutine 1 [running]",
		EmailExcerpt: "redacted excerpt",
	})
	if err != nil {
		t.Fatal(err)
	}

	reports, err := repo.GetAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(reports) != 1 {
		t.Fatalf("Expected 1 report, got %d", len(reports))
	}
	if reports[0].MessageID != "G-1" {
		t.Errorf("Expected message id 'G-1', got '%s'", reports[0].MessageID)
	}
	if !reports[0].CreatedAt.Equal(created) {
		t.Errorf("Expected created at %v, got %v", created, reports[0].CreatedAt)
	}

	if err := repo.Clear(); err != nil {
		t.Fatal(err)
	}
	reports, err = repo.GetAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(reports) != 0 {
		t.Errorf("Expected no reports after clear, got %d", len(reports))
	}
}

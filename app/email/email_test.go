package email

import (
	"strings"
	"testing"
	"time"
)

func TestParseSimpleQuotedPrintable(t *testing.T) {
	raw := "From: Niantic Wayfarer <nominations@nianticlabs.com>\r\n" +
		"To: someone@example.com\r\n" +
		"Subject: =?UTF-8?Q?Nomination_received_for_Caf=C3=A9_Corner?=\r\n" +
		"Date: Mon, 03 Jul 2023 10:00:00 GMT\r\n" +
		"Message-Id: <msg-1@nianticlabs.com>\r\n" +
		"Content-Type: text/html; charset=utf-8\r\n" +
		"Content-Transfer-Encoding: quoted-printable\r\n" +
		"\r\n" +
		"<html><body><p>Thank you for your nomination of Caf=C3=A9 Corner.</p></body></html>\r\n"

	e, err := Parse("G-1", raw)
	if err != nil {
		t.Fatal(err)
	}

	if e.ID != "G-1" {
		t.Errorf("Expected ID 'G-1', got '%s'", e.ID)
	}
	if e.MessageID != "msg-1@nianticlabs.com" {
		t.Errorf("Expected message id 'msg-1@nianticlabs.com', got '%s'", e.MessageID)
	}
	if e.Subject != "Nomination received for Café Corner" {
		t.Errorf("Unexpected subject '%s'", e.Subject)
	}
	if !strings.Contains(e.Body, "Café Corner") {
		t.Errorf("Expected decoded body, got '%s'", e.Body)
	}

	want := time.Date(2023, 7, 3, 10, 0, 0, 0, time.UTC)
	if !e.Date.Equal(want) {
		t.Errorf("Expected date %v, got %v", want, e.Date)
	}
}

func TestParseMultipartPrefersHTML(t *testing.T) {
	raw := "From: nominations@nianticlabs.com\r\n" +
		"Subject: Photo submission received for Old Fountain\r\n" +
		"Content-Type: multipart/alternative; boundary=\"BOUNDARY\"\r\n" +
		"\r\n" +
		"--BOUNDARY\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"plain text version\r\n" +
		"--BOUNDARY\r\n" +
		"Content-Type: text/html; charset=utf-8\r\n" +
		"\r\n" +
		"<html><body><p>html version</p></body></html>\r\n" +
		"--BOUNDARY--\r\n"

	e, err := Parse("G-2", raw)
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(e.Body, "html version") {
		t.Errorf("Expected HTML part to win, got '%s'", e.Body)
	}
	if strings.Contains(e.Body, "plain text version") {
		t.Errorf("Expected plain part to be dropped, got '%s'", e.Body)
	}
}

func TestParseBase64Body(t *testing.T) {
	// "<p>accepted</p>" base64-encoded with a line wrap in the middle.
	raw := "From: nominations@nianticlabs.com\r\n" +
		"Subject: Decision\r\n" +
		"Content-Type: text/html; charset=utf-8\r\n" +
		"Content-Transfer-Encoding: base64\r\n" +
		"\r\n" +
		"PHA+YWNjZX\r\n" +
		"B0ZWQ8L3A+\r\n"

	e, err := Parse("G-3", raw)
	if err != nil {
		t.Fatal(err)
	}

	if e.Body != "<p>accepted</p>" {
		t.Errorf("Expected decoded base64 body, got '%s'", e.Body)
	}
}

func TestParseMissingDate(t *testing.T) {
	raw := "From: nominations@nianticlabs.com\r\n" +
		"Subject: Decision\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"body\r\n"

	e, err := Parse("G-4", raw)
	if err != nil {
		t.Fatal(err)
	}

	if !e.Date.IsZero() {
		t.Errorf("Expected zero date for missing header, got %v", e.Date)
	}
}

func TestParseInvalidMessage(t *testing.T) {
	if _, err := Parse("G-5", "not an email at all"); err == nil {
		t.Error("Expected parse error for malformed message")
	}
}

func TestText(t *testing.T) {
	e := &Email{
		ID:   "G-6",
		Body: "<html><body><p>Thank   you\nfor your\tnomination.</p></body></html>",
	}

	got := e.Text()
	if got != "Thank you for your nomination." {
		t.Errorf("Expected normalized text, got '%s'", got)
	}
}

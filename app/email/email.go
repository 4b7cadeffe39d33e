// Package email turns raw externally-generated notification emails into
// contribution status-history updates: parsing, classification, and the
// locale/template resolver registry.
package email

import (
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	"golang.org/x/text/encoding/htmlindex"
)

// Email is one parsed raw email from the corpus.
type Email struct {
	ID        string // source-assigned message id (prefixed, e.g. "G-...")
	MessageID string // Message-Id header
	Subject   string
	From      string
	Date      time.Time // zero when the Date header is missing or unparseable
	Body      string    // decoded HTML (preferred) or plain-text body

	doc *goquery.Document
}

var wordDecoder = &mime.WordDecoder{
	CharsetReader: charsetReader,
}

func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", charset, err)
	}
	return enc.NewDecoder().Reader(input), nil
}

// Parse decodes the raw RFC 2822 text of one email. The body is the HTML
// part when one exists, decoded per its transfer encoding and charset.
func Parse(id, raw string) (*Email, error) {
	msg, err := mail.ReadMessage(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse email %s: %w", id, err)
	}

	e := &Email{
		ID:        id,
		MessageID: strings.Trim(msg.Header.Get("Message-Id"), "<>"),
		Subject:   decodeHeader(msg.Header.Get("Subject")),
		From:      decodeHeader(msg.Header.Get("From")),
	}

	if dateStr := msg.Header.Get("Date"); dateStr != "" {
		// Mailers disagree on Date formats; dateparse covers the spread.
		if t, err := dateparse.ParseAny(dateStr); err == nil {
			e.Date = t.UTC()
		}
	}

	body, err := decodeBody(msg.Header, msg.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode body of email %s: %w", id, err)
	}
	e.Body = body

	return e, nil
}

// Doc parses the body as an HTML document, once.
func (e *Email) Doc() (*goquery.Document, error) {
	if e.doc != nil {
		return e.doc, nil
	}
	if strings.TrimSpace(e.Body) == "" {
		return nil, fmt.Errorf("email %s has no parseable body", e.ID)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(e.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse body of email %s: %w", e.ID, err)
	}
	e.doc = doc
	return doc, nil
}

// Text returns the rendered text of the body, whitespace-normalized.
func (e *Email) Text() string {
	doc, err := e.Doc()
	if err != nil {
		return ""
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func decodeHeader(value string) string {
	decoded, err := wordDecoder.DecodeHeader(value)
	if err != nil {
		return value
	}
	return decoded
}

// partHeader is satisfied by both mail.Header and textproto.MIMEHeader.
type partHeader interface {
	Get(key string) string
}

// decodeBody walks the MIME structure picking the best displayable part:
// text/html wins over text/plain, the first match of each kind wins.
func decodeBody(header partHeader, body io.Reader) (string, error) {
	contentType := header.Get("Content-Type")
	if contentType == "" {
		contentType = "text/plain"
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = "text/plain"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := params["boundary"]
		if boundary == "" {
			return "", fmt.Errorf("multipart body without boundary")
		}
		return decodeMultipart(body, boundary)
	}

	data, err := io.ReadAll(decodeTransfer(body, header.Get("Content-Transfer-Encoding")))
	if err != nil {
		return "", fmt.Errorf("failed to read body part: %w", err)
	}

	text := string(data)
	if charset, ok := params["charset"]; ok && !strings.EqualFold(charset, "utf-8") {
		if reader, err := charsetReader(charset, strings.NewReader(text)); err == nil {
			if converted, err := io.ReadAll(reader); err == nil {
				text = string(converted)
			}
		}
	}
	return text, nil
}

func decodeMultipart(body io.Reader, boundary string) (string, error) {
	var plain, html string

	reader := multipart.NewReader(body, boundary)
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		text, err := decodeBody(part.Header, part)
		if err != nil {
			continue
		}

		mediaType, _, _ := mime.ParseMediaType(part.Header.Get("Content-Type"))
		switch {
		case strings.HasPrefix(mediaType, "text/html") && html == "":
			html = text
		case strings.HasPrefix(mediaType, "text/plain") && plain == "":
			plain = text
		case strings.HasPrefix(mediaType, "multipart/") && html == "":
			html = text
		}
	}

	if html != "" {
		return html, nil
	}
	return plain, nil
}

func decodeTransfer(r io.Reader, encoding string) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, newLineStripper(r))
	default:
		return r
	}
}

// lineStripper removes CR/LF so base64 bodies decode regardless of wrapping.
type lineStripper struct {
	r io.Reader
}

func newLineStripper(r io.Reader) io.Reader {
	return &lineStripper{r: r}
}

func (s *lineStripper) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if n == 0 {
		return n, err
	}

	kept := 0
	for _, b := range p[:n] {
		if b == '\r' || b == '\n' {
			continue
		}
		p[kept] = b
		kept++
	}
	return kept, err
}

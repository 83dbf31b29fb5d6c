// Package mail serializes proposals as RFC 822 messages and checks the result.
//
// A message is a multipart/related container whose first part is a
// multipart/alternative holding the plain-text and HTML bodies, followed by
// one base64 part per inline image. Nothing here sends mail.
package mail

import (
	"errors"
	"fmt"
	"mime"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrMissingMetadata is returned when a required header value is empty.
	ErrMissingMetadata = errors.New("missing message metadata")
	// ErrInvalidAddress is returned when From or To cannot be parsed.
	ErrInvalidAddress = errors.New("invalid address")
)

// Metadata holds the caller-supplied message headers.
type Metadata struct {
	From      string
	To        string
	Subject   string
	Date      time.Time
	MessageID string
}

// Part is an inline attachment addressed by Content-ID.
type Part struct {
	MIME      string
	Filename  string
	ContentID string
	Content   []byte
}

// Validate checks that every header value is present and that the
// addresses parse.
func (m Metadata) Validate() error {
	var missing []string
	if strings.TrimSpace(m.From) == "" {
		missing = append(missing, "From")
	}
	if strings.TrimSpace(m.To) == "" {
		missing = append(missing, "To")
	}
	if strings.TrimSpace(m.Subject) == "" {
		missing = append(missing, "Subject")
	}
	if m.Date.IsZero() {
		missing = append(missing, "Date")
	}
	if strings.TrimSpace(m.MessageID) == "" {
		missing = append(missing, "Message-ID")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingMetadata, strings.Join(missing, ", "))
	}
	if _, err := mail.ParseAddress(m.From); err != nil {
		return fmt.Errorf("%w: From %q: %v", ErrInvalidAddress, m.From, err)
	}
	if _, err := mail.ParseAddressList(m.To); err != nil {
		return fmt.Errorf("%w: To %q: %v", ErrInvalidAddress, m.To, err)
	}
	return nil
}

// NewBoundary returns a fresh multipart boundary with the given prefix.
func NewBoundary(prefix string) string {
	return prefix + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// NewMessageID returns a Message-ID for host in angle brackets.
func NewMessageID(host string) string {
	return "<" + uuid.NewString() + "@" + host + ">"
}

// Compose serializes a message with CRLF line endings. Both bodies are
// quoted-printable UTF-8; parts follow the alternative as base64 inline
// attachments in the order given.
func Compose(meta Metadata, html, text string, parts []Part) (string, error) {
	if err := meta.Validate(); err != nil {
		return "", err
	}
	from, _ := mail.ParseAddress(meta.From)
	to, _ := mail.ParseAddressList(meta.To)

	related := NewBoundary("rel")
	alternative := NewBoundary("alt")

	var b strings.Builder
	header := func(name, value string) {
		b.WriteString(name + ": " + value + crlf)
	}

	header("From", from.String())
	header("To", joinAddresses(to))
	header("Subject", mime.QEncoding.Encode("utf-8", headerValue(meta.Subject)))
	header("Date", meta.Date.Format(time.RFC1123Z))
	header("Message-ID", angle(headerValue(meta.MessageID)))
	header("MIME-Version", "1.0")
	header("Content-Type", fmt.Sprintf(`multipart/related; type="multipart/alternative"; boundary="%s"`, related))
	b.WriteString(crlf)

	b.WriteString("--" + related + crlf)
	header("Content-Type", fmt.Sprintf(`multipart/alternative; boundary="%s"`, alternative))
	b.WriteString(crlf)

	for _, body := range []struct{ mime, content string }{
		{"text/plain", text},
		{"text/html", html},
	} {
		b.WriteString("--" + alternative + crlf)
		header("Content-Type", body.mime+"; charset=utf-8")
		header("Content-Transfer-Encoding", "quoted-printable")
		b.WriteString(crlf)
		b.WriteString(EncodeQuotedPrintable(normalizeNewlines(body.content)))
		b.WriteString(crlf)
	}
	b.WriteString("--" + alternative + "--" + crlf)

	for i, p := range parts {
		b.WriteString("--" + related + crlf)
		header("Content-Type", p.MIME)
		header("Content-Transfer-Encoding", "base64")
		header("Content-ID", angle(headerValue(p.ContentID)))
		header("Content-Disposition", fmt.Sprintf(`inline; filename="%s"`, partFilename(p, i)))
		b.WriteString(crlf)
		b.WriteString(ChunkBase64(p.Content))
		b.WriteString(crlf)
	}
	b.WriteString("--" + related + "--" + crlf)
	return b.String(), nil
}

// parseAddress returns the bare address part of s.
func parseAddress(s string) (string, error) {
	a, err := mail.ParseAddress(s)
	if err != nil {
		return "", err
	}
	return a.Address, nil
}

func joinAddresses(list []*mail.Address) string {
	out := make([]string, len(list))
	for i, a := range list {
		out[i] = a.String()
	}
	return strings.Join(out, ", ")
}

// headerValue drops CR and LF so a value cannot start a new header.
func headerValue(s string) string {
	return strings.TrimSpace(strings.NewReplacer("\r", "", "\n", " ").Replace(s))
}

func angle(id string) string {
	id = strings.TrimSuffix(strings.TrimPrefix(id, "<"), ">")
	return "<" + id + ">"
}

func partFilename(p Part, i int) string {
	name := strings.NewReplacer(`"`, "", `\`, "", "\r", "", "\n", "").Replace(p.Filename)
	if name == "" {
		name = fmt.Sprintf("image-%d.%s", i+1, extensionFor(p.MIME))
	}
	return name
}

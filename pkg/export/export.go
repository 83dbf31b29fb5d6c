// Package export turns proposals into downloadable files: a standalone HTML
// email document and an RFC 822 message with the images attached inline.
package export

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/joeblew999/plat-proposal/pkg/compose"
	"github.com/joeblew999/plat-proposal/pkg/log"
	"github.com/joeblew999/plat-proposal/pkg/mail"
	"github.com/joeblew999/plat-proposal/pkg/proposal"
)

// Content types of exported files.
const (
	ContentTypeHTML = "text/html; charset=utf-8"
	ContentTypeEML  = "message/rfc822"
)

// MessageHost is the domain part of generated Message-IDs.
const MessageHost = "proposal.local"

// File is one exported artifact.
type File struct {
	Name        string
	ContentType string
	Data        []byte
	SizeKB      float64
	Warnings    []string
}

// Service runs exports. It is safe for concurrent use.
type Service struct {
	composer *compose.Composer
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithComposer sets the HTML composer.
func WithComposer(c *compose.Composer) Option {
	return func(s *Service) {
		if c != nil {
			s.composer = c
		}
	}
}

// WithClock sets the clock used for the Date of messages without one.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a Service.
func New(opts ...Option) *Service {
	s := &Service{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if s.composer == nil {
		s.composer = compose.NewComposer()
	}
	return s
}

// HTML exports p as a standalone HTML document.
func (s *Service) HTML(ctx context.Context, p *proposal.Proposal) (*File, error) {
	start := time.Now()
	res, err := s.composer.Compose(ctx, p)
	if err != nil {
		exportFailed.Inc("html")
		return nil, fmt.Errorf("compose html: %w", err)
	}

	f := &File{
		Name:        Filename(p.Ref, "html"),
		ContentType: ContentTypeHTML,
		Data:        []byte(res.HTML),
		SizeKB:      res.SizeKB,
		Warnings:    res.Warnings,
	}
	s.observe("html", f, start)
	return f, nil
}

// EML exports p as a multipart/related message. A zero Date is filled from
// the service clock and an empty Message-ID is generated.
func (s *Service) EML(ctx context.Context, p *proposal.Proposal, meta mail.Metadata) (*File, error) {
	start := time.Now()
	res, err := s.composer.Compose(ctx, p)
	if err != nil {
		exportFailed.Inc("eml")
		return nil, fmt.Errorf("compose html: %w", err)
	}

	if meta.Date.IsZero() {
		meta.Date = s.now()
	}
	if strings.TrimSpace(meta.MessageID) == "" {
		meta.MessageID = "<" + uuid.NewString() + "@" + MessageHost + ">"
	}

	text := mail.PlainText(res.HTML)
	body, parts := mail.ExtractInlineImages(res.HTML)
	raw, err := mail.Compose(meta, body, text, parts)
	if err != nil {
		exportFailed.Inc("eml")
		return nil, fmt.Errorf("compose message: %w", err)
	}

	f := &File{
		Name:        Filename(p.Ref, "eml"),
		ContentType: ContentTypeEML,
		Data:        []byte(raw),
		SizeKB:      float64(len(raw)) / 1024,
		Warnings:    res.Warnings,
	}
	s.observe("eml", f, start)
	log.Debug("message composed", "parts", len(parts), "message_id", meta.MessageID)
	return f, nil
}

func (s *Service) observe(format string, f *File, start time.Time) {
	exportDuration.ObserveFloat(time.Since(start).Seconds(), format)
	exportWarnings.Add(float64(len(f.Warnings)), format)
	log.Info("proposal exported",
		"format", format,
		"file", f.Name,
		"size_kb", fmt.Sprintf("%.1f", f.SizeKB),
		"warnings", len(f.Warnings))
	for _, w := range f.Warnings {
		log.Warn("export warning", "format", format, "warning", w)
	}
}

// Filename returns "<ref>_Proposal.<ext>" with ref folded to ASCII and
// anything outside letters, digits, dot, dash and underscore replaced by a
// dash. An empty ref gives "Proposal.<ext>".
func Filename(ref, ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	folded, _, err := transform.String(asciiFold(), strings.TrimSpace(ref))
	if err != nil {
		folded = ref
	}

	var b strings.Builder
	dash := false
	for _, r := range folded {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '_' || r == '-'):
			b.WriteRune(r)
			dash = r == '-'
		case !dash:
			b.WriteByte('-')
			dash = true
		}
	}

	name := strings.Trim(b.String(), "-._")
	if name == "" {
		return "Proposal." + ext
	}
	return name + "_Proposal." + ext
}

func asciiFold() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

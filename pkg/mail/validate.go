package mail

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	cidReference  = regexp.MustCompile(`cid:([^"'\s)>&]+)`)
	cssURLRef     = regexp.MustCompile(`(?i)url\(\s*['"]?\s*(https?:|//)`)
	scriptTag     = regexp.MustCompile(`(?i)<script\b`)
	handlerAttr   = regexp.MustCompile(`(?i)<[^>]+\son[a-z]+\s*=`)
	javascriptURL = regexp.MustCompile(`(?i)(?:href|src)\s*=\s*["']?\s*javascript:`)
)

// ValidateHTML performs basic HTML validation for email client compatibility.
func ValidateHTML(htmlContent string) []string {
	var issues []string

	if !strings.Contains(strings.ToLower(htmlContent), "doctype html") {
		issues = append(issues, "Missing DOCTYPE declaration")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return append(issues, fmt.Sprintf("Unparsable HTML: %v", err))
	}

	if doc.Find(`meta[name="viewport"]`).Length() == 0 {
		issues = append(issues, "Missing viewport meta tag")
	}

	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		src := strings.TrimSpace(s.AttrOr("src", ""))
		lower := strings.ToLower(src)
		if src != "" && !strings.HasPrefix(lower, "data:") && !strings.HasPrefix(lower, "cid:") {
			issues = append(issues, "External image reference: "+src)
		}
	})

	if cssURLRef.MatchString(htmlContent) {
		issues = append(issues, "External background image reference")
	}

	if scriptTag.MatchString(htmlContent) {
		issues = append(issues, "Script tag present")
	}

	if handlerAttr.MatchString(htmlContent) {
		issues = append(issues, "Inline event handler present")
	}

	if javascriptURL.MatchString(htmlContent) {
		issues = append(issues, "javascript: URL present")
	}

	if strings.Contains(htmlContent, "display: flex") || strings.Contains(htmlContent, "display:flex") {
		issues = append(issues, "WARNING: CSS flexbox not supported in many email clients")
	}

	if strings.Contains(htmlContent, "background-image") && !strings.Contains(htmlContent, "mso-hide") {
		issues = append(issues, "WARNING: Background images not supported in Outlook")
	}

	return issues
}

var requiredHeaders = []string{"From", "To", "Subject", "Date", "Message-ID", "MIME-Version", "Content-Type"}

// messageScan collects what a walk over a MIME tree found.
type messageScan struct {
	types      map[string]bool
	contentIDs map[string]bool
	html       []string
	issues     []string
}

// ValidateMessage checks a serialized message: required headers, CRLF line
// endings, a well formed multipart tree with text and HTML alternatives, and
// that cid: references in the HTML and Content-ID headers match one to one.
func ValidateMessage(raw string) []string {
	var issues []string

	if strings.Contains(strings.ReplaceAll(raw, crlf, ""), "\n") {
		issues = append(issues, "Bare LF line ending")
	}
	for _, line := range strings.Split(raw, crlf) {
		if len(line) > 998 {
			issues = append(issues, "Line longer than 998 characters")
			break
		}
	}

	msg, err := mail.ReadMessage(strings.NewReader(raw))
	if err != nil {
		return append(issues, fmt.Sprintf("Unparsable message: %v", err))
	}

	for _, h := range requiredHeaders {
		if strings.TrimSpace(msg.Header.Get(h)) == "" {
			issues = append(issues, "Missing "+h+" header")
		}
	}
	if msg.Header.Get("Date") != "" {
		if _, err := msg.Header.Date(); err != nil {
			issues = append(issues, "Invalid Date header")
		}
	}
	if from := msg.Header.Get("From"); from != "" {
		if _, err := mail.ParseAddress(from); err != nil {
			issues = append(issues, "Invalid From address")
		}
	}

	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	if err != nil {
		return append(issues, fmt.Sprintf("Invalid Content-Type: %v", err))
	}
	if !strings.HasPrefix(mediaType, "multipart/") {
		return append(issues, "Content-Type is not multipart")
	}
	if params["boundary"] == "" {
		return append(issues, "Content-Type has no boundary")
	}

	scan := &messageScan{types: make(map[string]bool), contentIDs: make(map[string]bool)}
	scan.walk(msg.Body, params["boundary"], 0)
	issues = append(issues, scan.issues...)

	if !scan.types["text/plain"] {
		issues = append(issues, "Missing text/plain alternative")
	}
	if !scan.types["text/html"] {
		issues = append(issues, "Missing text/html alternative")
	}

	referenced := make(map[string]bool)
	for _, body := range scan.html {
		for _, m := range cidReference.FindAllStringSubmatch(body, -1) {
			referenced[m[1]] = true
		}
	}
	for cid := range referenced {
		if !scan.contentIDs[cid] {
			issues = append(issues, "Dangling cid reference: "+cid)
		}
	}
	for cid := range scan.contentIDs {
		if !referenced[cid] {
			issues = append(issues, "Unreferenced inline part: "+cid)
		}
	}
	return issues
}

func (s *messageScan) walk(body io.Reader, boundary string, depth int) {
	if depth > 4 {
		s.issues = append(s.issues, "Multipart nesting too deep")
		return
	}
	mr := multipart.NewReader(body, boundary)
	for {
		part, err := mr.NextRawPart()
		if err == io.EOF {
			return
		}
		if err != nil {
			s.issues = append(s.issues, fmt.Sprintf("Malformed multipart body: %v", err))
			return
		}

		mediaType, params, err := mime.ParseMediaType(part.Header.Get("Content-Type"))
		if err != nil {
			s.issues = append(s.issues, fmt.Sprintf("Invalid part Content-Type: %v", err))
			continue
		}
		s.types[mediaType] = true

		if strings.HasPrefix(mediaType, "multipart/") {
			s.walk(part, params["boundary"], depth+1)
			continue
		}

		content, err := decodePart(part, part.Header.Get("Content-Transfer-Encoding"))
		if err != nil {
			s.issues = append(s.issues, fmt.Sprintf("Undecodable %s part: %v", mediaType, err))
			continue
		}
		if mediaType == "text/html" {
			s.html = append(s.html, string(content))
		}
		if id := part.Header.Get("Content-ID"); id != "" {
			s.contentIDs[strings.Trim(strings.TrimSpace(id), "<>")] = true
		}
	}
}

func decodePart(r io.Reader, encoding string) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "quoted-printable":
		return io.ReadAll(quotedprintable.NewReader(r))
	case "base64":
		raw, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		raw = bytes.Join(bytes.Fields(raw), nil)
		return base64.StdEncoding.DecodeString(string(raw))
	default:
		return io.ReadAll(r)
	}
}

// Package sanitize strips active content from internally generated HTML
// fragments and converts plain text to HTML.
//
// It is a regex filter over markup the user authored in the builder, not a
// general purpose sanitizer for hostile documents.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	scriptBlock   = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script\s*>`)
	styleBlock    = regexp.MustCompile(`(?is)<style\b[^>]*>.*?</style\s*>`)
	strayTag      = regexp.MustCompile(`(?i)</?(?:script|style)\b[^>]*>?`)
	dangerousTag  = regexp.MustCompile(`(?i)</?(?:iframe|object|embed|meta|link)\b[^>]*>`)
	eventHandler  = regexp.MustCompile(`(?i)[\s/]+on[a-z]+\s*=\s*(?:"[^"]*"|'[^']*'|[^\s>]+)`)
	jsQuoted      = regexp.MustCompile(`(?i)((?:href|src)\s*=\s*["'])\s*javascript:[^"']*(["'])`)
	jsUnquoted    = regexp.MustCompile(`(?i)((?:href|src)\s*=\s*["']?)\s*javascript:[^\s>"']*`)
	jsSchemeStart = regexp.MustCompile(`(?i)^\s*javascript:`)
)

// Sanitize removes script and style blocks, any script or style tag left
// unclosed, dangerous embedding tags, inline event handlers and javascript:
// URLs from href/src attributes. Rules run in that order and repeat until the
// output is stable, so removing one construct can never assemble another.
func Sanitize(html string) string {
	if html == "" {
		return ""
	}
	out := html
	for {
		next := pass(out)
		if next == out {
			return out
		}
		out = next
	}
}

func pass(s string) string {
	for {
		next := styleBlock.ReplaceAllString(scriptBlock.ReplaceAllString(s, ""), "")
		if next == s {
			break
		}
		s = next
	}
	s = strayTag.ReplaceAllString(s, "")
	s = dangerousTag.ReplaceAllString(s, "")
	s = eventHandler.ReplaceAllString(s, "")
	s = jsQuoted.ReplaceAllString(s, "${1}#${2}")
	s = jsUnquoted.ReplaceAllString(s, "${1}#")
	return s
}

// SafeURL returns "#" for javascript: URLs and the trimmed URL otherwise.
func SafeURL(u string) string {
	if jsSchemeStart.MatchString(u) {
		return "#"
	}
	return strings.TrimSpace(u)
}

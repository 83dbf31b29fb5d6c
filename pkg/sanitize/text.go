package sanitize

import "strings"

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

var lineBreaks = strings.NewReplacer("\r\n", "<br>", "\n", "<br>", "\r", "<br>")

// Escape escapes the five HTML metacharacters.
func Escape(s string) string {
	return escaper.Replace(s)
}

// TextToHTML escapes plain text and turns each line break into <br>.
func TextToHTML(text string) string {
	if text == "" {
		return ""
	}
	return lineBreaks.Replace(Escape(text))
}

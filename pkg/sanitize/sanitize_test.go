package sanitize

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

var adversarial = []string{
	`<p>ok</p><script>alert(1)</script>`,
	`<SCRIPT type="text/javascript">document.cookie</SCRIPT><b>x</b>`,
	`<ScRiPt>one</sCrIpT>mid<script>two</script>`,
	`<scr<script>x</script>ipt>alert(1)</script>`,
	`<style>body{color:red}</style><STYLE media="all">p{}</STYLE>text`,
	`<iframe src="https://evil.example"></iframe><object data="x"></object><embed src="y"><meta http-equiv="refresh"><link rel="stylesheet" href="z">`,
	`<img src="a.png" onerror="alert(1)">`,
	`<img src=a.png OnLoad='alert(1)'>`,
	`<div onclick=alert(1) onmouseover = "x()">hi</div>`,
	`<a href="javascript:alert(1)">x</a>`,
	`<a HREF='JavaScript:alert(document.domain)'>x</a>`,
	`<a href = " javascript:void(0)">x</a>`,
	`<a href=javascript:alert(1)>x</a>`,
	`<img SRC="jAvAsCrIpT:alert(1)">`,
	`<a href="javascript:alert(1)>unterminated`,
	`<p>x</p><SCRIPT SRC="https://evil.example/x.js">`,
	`<script>alert(1)`,
	`<style>p{}`,
	`</script><p>y</p>`,
	`<svg/onload=alert(1)>`,
	`<img src="a.png"/onerror="alert(1)">`,
	`<p>x</p><script src=x`,
	`<p>Plain &amp; simple</p>`,
	``,
}

var (
	scriptRe  = regexp.MustCompile(`(?i)<script`)
	handlerRe = regexp.MustCompile(`(?i)[\s/]on[a-z]+\s*=`)
	jsURLRe   = regexp.MustCompile(`(?i)(?:href|src)\s*=\s*["']?\s*javascript:`)
	bannedRe  = regexp.MustCompile(`(?i)<(?:style|iframe|object|embed|meta|link)\b`)
)

func TestSanitizeRemovesActiveContent(t *testing.T) {
	for _, in := range adversarial {
		t.Run(in, func(t *testing.T) {
			out := Sanitize(in)
			assert.NotRegexp(t, scriptRe, out)
			assert.NotRegexp(t, handlerRe, out)
			assert.NotRegexp(t, jsURLRe, out)
			assert.NotRegexp(t, bannedRe, out)
		})
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	for _, in := range adversarial {
		once := Sanitize(in)
		assert.Equal(t, once, Sanitize(once), "input %q", in)
	}
}

func TestSanitizeRules(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"keeps trusted markup", `<table><tr><td>$10</td></tr></table>`, `<table><tr><td>$10</td></tr></table>`},
		{"script block", `a<script>x</script>b`, "ab"},
		{"handler", `<img src="a.png" onerror="x()">`, `<img src="a.png">`},
		{"quotes preserved", `<a href='javascript:alert(1)'>x</a>`, `<a href='#'>x</a>`},
		{"double quotes preserved", `<a href="javascript:alert(1)">x</a>`, `<a href="#">x</a>`},
		{"unquoted", `<a href=javascript:alert(1)>x</a>`, `<a href=#>x</a>`},
		{"dangerous tags keep text", `<object data="x">fallback</object>`, "fallback"},
		{"nested reassembly", `<scr<script>x</script>ipt>alert(1)</script>ok`, "ok"},
		{"unclosed script", `<p>x</p><SCRIPT SRC="https://evil.example/x.js">`, "<p>x</p>"},
		{"unclosed style", `<style>p{}`, "p{}"},
		{"handler after slash", `<svg/onload=alert(1)>`, "<svg>"},
		{"handler after attribute slash", `<img src="a.png"/onerror="alert(1)">`, `<img src="a.png">`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.in))
		})
	}
}

func TestTextToHTML(t *testing.T) {
	assert.Equal(t, "", TextToHTML(""))
	assert.Equal(t, "a &amp; b<br>&lt;c&gt;<br>&quot;d&quot; &#39;e&#39;<br>f",
		TextToHTML("a & b\r\n<c>\n\"d\" 'e'\rf"))
	assert.False(t, strings.Contains(TextToHTML("<script>"), "<script>"))
}

func TestSafeURL(t *testing.T) {
	assert.Equal(t, "#", SafeURL(" JavaScript:alert(1)"))
	assert.Equal(t, "https://example.com", SafeURL(" https://example.com "))
}

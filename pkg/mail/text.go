package mail

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var blockElements = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Table: true, atom.Tr: true,
	atom.Ul: true, atom.Ol: true, atom.H1: true, atom.H2: true,
	atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Header: true, atom.Section: true, atom.Blockquote: true,
}

// PlainText derives the text alternative of an HTML body. Block elements and
// table rows become lines, list items are dashed and absolute links keep
// their target in parentheses.
func PlainText(htmlDoc string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlDoc))
	if err != nil {
		return ""
	}
	doc.Find("head, script, style, title").Remove()

	var b strings.Builder
	for _, n := range doc.Nodes {
		writeText(&b, n)
	}
	return tidyLines(b.String())
}

func writeText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(collapseSpace(n.Data))
		return
	case html.ElementNode:
		switch n.DataAtom {
		case atom.Br:
			b.WriteString("\n")
			return
		case atom.Img:
			return
		case atom.Li:
			b.WriteString("\n- ")
		}
		if blockElements[n.DataAtom] {
			b.WriteString("\n")
		}
	}

	start := b.Len()
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(b, c)
	}

	if n.Type != html.ElementNode {
		return
	}
	if n.DataAtom == atom.A {
		href := attr(n, "href")
		if (strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://")) && !strings.Contains(b.String()[start:], href) {
			b.WriteString(" (" + href + ")")
		}
	}
	switch {
	case blockElements[n.DataAtom]:
		b.WriteString("\n")
	case n.DataAtom == atom.Td || n.DataAtom == atom.Th:
		b.WriteString(" ")
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// collapseSpace folds whitespace runs, including non-breaking spaces, into
// single spaces.
func collapseSpace(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	if strings.TrimSpace(s) == "" {
		if s == "" {
			return ""
		}
		return " "
	}
	lead := s[0] == ' ' || s[0] == '\n' || s[0] == '\t' || s[0] == '\r'
	last := s[len(s)-1]
	trail := last == ' ' || last == '\n' || last == '\t' || last == '\r'
	out := strings.Join(strings.Fields(s), " ")
	if lead {
		out = " " + out
	}
	if trail {
		out += " "
	}
	return out
}

// tidyLines trims every line and keeps at most one blank line in a row.
func tidyLines(s string) string {
	var out []string
	blank := false
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

package compose

import (
	"context"
	"fmt"
	"image"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/joeblew999/plat-proposal/pkg/inline"
	"github.com/joeblew999/plat-proposal/pkg/proposal"
)

const attrAssetKey = "data-asset-key"

var (
	fragmentComment = regexp.MustCompile(`<!--` + fragmentMarker + `(\d+)-->`)
	fragmentImg     = regexp.MustCompile(`(?is)<img\b[^>]*>`)
	fragmentSrc     = regexp.MustCompile(`(?is)(\ssrc\s*=\s*)(?:"([^"]*)"|'([^']*)'|([^\s"'>]+))`)
	fragmentStyle   = regexp.MustCompile(`(?is)(\sstyle\s*=\s*)(?:"([^"]*)"|'([^']*)')`)
	fragmentAlt     = regexp.MustCompile(`(?i)\salt\s*=`)
)

// inlinePass walks an assembled document once: canvases become images, then
// every <img> source and every url(...) in a style attribute is replaced by a
// data URI. Sanitized fragments skip the parse and are rewritten in place
// before being spliced back. Results are memoized per source by the session.
type inlinePass struct {
	session   *inline.Session
	canvases  map[string]image.Image
	fragments []string
	warnings  []string
	seen      map[string]bool
}

func (p *inlinePass) warn(msg string) {
	if p.seen == nil {
		p.seen = make(map[string]bool)
	}
	if p.seen[msg] {
		return
	}
	p.seen[msg] = true
	p.warnings = append(p.warnings, msg)
}

func (p *inlinePass) run(ctx context.Context, r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("parse document: %w", err)
	}

	doc.Find("canvas").Each(func(_ int, s *goquery.Selection) {
		p.canvas(s)
	})

	doc.Find("img").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		p.image(ctx, s)
		return ctx.Err() == nil
	})
	if err := ctx.Err(); err != nil {
		return "", err
	}

	doc.Find("[style]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		css := s.AttrOr("style", "")
		if !inline.HasCSSURL(css) {
			return true
		}
		bg := p.session.InlineBackground(ctx, css, s.AttrOr(attrAssetHint, ""))
		if ctx.Err() != nil {
			return false
		}
		for _, w := range bg.Warnings {
			p.warn(w)
		}
		s.SetAttr("style", bg.CSS)
		if len(bg.AssetKeys) > 0 {
			s.SetAttr(attrAssetKey, strings.Join(bg.AssetKeys, " "))
		}
		return true
	})
	if err := ctx.Err(); err != nil {
		return "", err
	}

	doc.Find("[" + attrAssetHint + "]").RemoveAttr(attrAssetHint)

	out, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("render document: %w", err)
	}
	return p.splice(ctx, out)
}

// splice replaces each fragment placeholder with its fragment, images inlined.
func (p *inlinePass) splice(ctx context.Context, doc string) (string, error) {
	rendered := make([]string, len(p.fragments))
	for i, f := range p.fragments {
		rendered[i] = p.fragment(ctx, f)
		if err := ctx.Err(); err != nil {
			return "", err
		}
	}
	return fragmentComment.ReplaceAllStringFunc(doc, func(m string) string {
		id, err := strconv.Atoi(fragmentComment.FindStringSubmatch(m)[1])
		if err != nil || id >= len(rendered) {
			return ""
		}
		return rendered[id]
	}), nil
}

// fragment inlines <img> sources and style url(...) layers in a sanitized
// fragment by rewriting only those attribute values.
func (p *inlinePass) fragment(ctx context.Context, f string) string {
	f = fragmentImg.ReplaceAllStringFunc(f, func(tag string) string {
		return p.fragmentImage(ctx, tag)
	})
	return fragmentStyle.ReplaceAllStringFunc(f, func(attr string) string {
		return p.fragmentBackground(ctx, attr)
	})
}

func (p *inlinePass) fragmentImage(ctx context.Context, tag string) string {
	m := fragmentSrc.FindStringSubmatchIndex(tag)
	if m == nil || ctx.Err() != nil {
		return tag
	}
	quote, value := `"`, ""
	switch {
	case m[4] >= 0:
		value = tag[m[4]:m[5]]
	case m[6] >= 0:
		quote, value = "'", tag[m[6]:m[7]]
	default:
		value = tag[m[8]:m[9]]
	}
	src := strings.TrimSpace(html.UnescapeString(value))
	if src == "" || inline.IsDataURI(src) {
		return tag
	}

	res, err := p.session.Inline(ctx, proposal.ImageRef{Src: src, Kind: proposal.KindImage})
	if err != nil {
		if ctx.Err() != nil {
			return tag
		}
		p.warn(err.Error())
		alt := ""
		if !fragmentAlt.MatchString(tag) {
			alt = ` alt="Image unavailable"`
		}
		return tag[:m[0]] + alt + tag[m[1]:]
	}

	attr := tag[m[2]:m[3]] + quote + res.DataURI + quote
	if res.AssetKey != "" {
		attr += " " + attrAssetKey + `="` + res.AssetKey + `"`
	}
	return tag[:m[0]] + attr + tag[m[1]:]
}

func (p *inlinePass) fragmentBackground(ctx context.Context, attr string) string {
	m := fragmentStyle.FindStringSubmatchIndex(attr)
	quote, css := `"`, ""
	if m[4] >= 0 {
		css = attr[m[4]:m[5]]
	} else {
		quote, css = "'", attr[m[6]:m[7]]
	}
	if !inline.HasCSSURL(css) || ctx.Err() != nil {
		return attr
	}

	bg := p.session.InlineBackground(ctx, css, "")
	if ctx.Err() != nil {
		return attr
	}
	for _, w := range bg.Warnings {
		p.warn(w)
	}
	out := bg.CSS
	if quote == "'" {
		out = strings.ReplaceAll(out, "'", "&#39;")
	}
	rewritten := attr[m[2]:m[3]] + quote + out + quote
	if len(bg.AssetKeys) > 0 {
		rewritten += " " + attrAssetKey + `="` + strings.Join(bg.AssetKeys, " ") + `"`
	}
	return rewritten
}

// canvas turns a canvas placeholder into an <img> carrying its pixels as a
// PNG data URI. Unknown or unencodable canvases become source-less images.
func (p *inlinePass) canvas(s *goquery.Selection) {
	node := s.Get(0)
	id := s.AttrOr(attrCanvas, "")
	uri, err := inline.CanvasDataURI(p.canvases[id])

	node.Data = "img"
	node.DataAtom = atom.Img
	node.FirstChild, node.LastChild = nil, nil
	s.RemoveAttr(attrCanvas)

	if err != nil {
		p.warn((&inline.AssetError{Kind: "canvas", Ref: id, Attempts: []error{err}}).Error())
		return
	}
	s.SetAttr("src", uri)
}

func (p *inlinePass) image(ctx context.Context, s *goquery.Selection) {
	src := strings.TrimSpace(s.AttrOr("src", ""))
	key := strings.TrimSpace(s.AttrOr(attrAssetHint, ""))
	var final string

	if src != "" || key != "" {
		res, err := p.session.Inline(ctx, proposal.ImageRef{Src: src, Kind: proposal.KindImage, AssetKey: key})
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return
			}
			p.warn(err.Error())
			s.RemoveAttr("src")
			if strings.TrimSpace(s.AttrOr("alt", "")) == "" {
				s.SetAttr("alt", "Image unavailable")
			}
		default:
			final = res.DataURI
			s.SetAttr("src", final)
			if res.AssetKey != "" {
				s.SetAttr(attrAssetKey, res.AssetKey)
			}
		}
	}
	sizeImage(s, final)
}

// sizeImage fixes an explicit clamped pixel width on an image, taken from
// the requested width, the width attribute or the decoded image, in that order.
func sizeImage(s *goquery.Selection, dataURI string) {
	w := 0
	if v, ok := s.Attr(attrExplicitSize); ok {
		w = atoiPx(v)
	} else if v, ok := s.Attr("width"); ok {
		w = atoiPx(v)
	}
	if w <= 0 {
		if iw, _, ok := inline.IntrinsicSize(dataURI); ok {
			w = iw
		}
	}
	width := inline.ClampWidth(float64(w))

	s.RemoveAttr(attrExplicitSize)
	s.RemoveAttr("height")
	s.SetAttr("width", strconv.Itoa(width))
	s.SetAttr("style", inline.SizeStyle(s.AttrOr("style", ""), width))
}

func atoiPx(v string) int {
	n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(v), "px"))
	if err != nil {
		return 0
	}
	return n
}

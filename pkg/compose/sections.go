package compose

import (
	"fmt"
	"image"
	"strconv"
	"strings"

	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"

	"github.com/joeblew999/plat-proposal/pkg/inline"
	"github.com/joeblew999/plat-proposal/pkg/proposal"
	"github.com/joeblew999/plat-proposal/pkg/sanitize"
)

// EmailWidth is the width of the content column.
const EmailWidth = 680

const defaultImageHeight = 180

// Section headings.
const (
	HeadingSummary  = "Executive summary"
	HeadingBenefits = "Key benefits"
	HeadingFeatures = "Features & benefits"
	HeadingHero     = "Key Features Included"
	HeadingPricing  = "Inclusions & pricing breakdown"
	HeadingPrice    = "Price"
	HeadingSources  = "Data sources"
	HeadingTerms    = "Commercial Terms & Dependencies"
)

// Markup hints read and removed by the inline pass.
const (
	attrAssetHint    = "data-export-asset"
	attrCanvas       = "data-export-canvas"
	attrExplicitSize = "data-export-width"
)

const imgResetStyle = "max-width:100%; border:0; outline:none; text-decoration:none;"

// fragmentMarker prefixes the comment that holds a fragment's place in the
// document until the inline pass splices it back.
const fragmentMarker = "export-fragment:"

// builder renders one proposal. Canvases are registered by id and turned into
// images by the inline pass. Sanitized fragments are kept aside so they reach
// the output exactly as sanitized.
type builder struct {
	brand     proposal.BrandConfig
	canvases  map[string]image.Image
	fragments []string
}

func newBuilder(brand proposal.BrandConfig) *builder {
	return &builder{brand: brand, canvases: make(map[string]image.Image)}
}

func (b *builder) fragment(html string) g.Node {
	id := len(b.fragments)
	b.fragments = append(b.fragments, html)
	return g.Raw("<!--" + fragmentMarker + strconv.Itoa(id) + "-->")
}

func presentation(style string, children ...g.Node) g.Node {
	return h.Table(
		g.Attr("role", "presentation"),
		h.Width("100%"),
		g.Attr("cellpadding", "0"),
		g.Attr("cellspacing", "0"),
		g.Attr("border", "0"),
		h.StyleAttr("width:100%;"+style),
		g.Group(children),
	)
}

func row(style string, children ...g.Node) g.Node {
	return h.Tr(h.Td(h.StyleAttr(style), g.Group(children)))
}

func spacer(px int) g.Node {
	return row(fmt.Sprintf("height:%dpx; line-height:%dpx; font-size:0;", px, px), g.Raw("&nbsp;"))
}

func (b *builder) font(size int, lineHeight string, color string) string {
	return fmt.Sprintf("font-family:%s; font-size:%dpx; line-height:%s; color:%s;", b.brand.FontFamily, size, lineHeight, color)
}

func (b *builder) heading(text string) g.Node {
	return g.Group{
		row("padding:0 40px; "+b.font(22, "1.4", b.brand.ColorHeading)+" font-weight:600;", g.Text(text)),
		spacer(12),
	}
}

func wrap(content g.Node) g.Node {
	return row("padding:0 40px;", content)
}

// document assembles the outer wrapper around the content rows.
func (b *builder) document(p *proposal.Proposal) g.Node {
	return h.Doctype(h.HTML(
		h.Head(
			h.Meta(g.Attr("http-equiv", "Content-Type"), h.Content("text/html; charset=utf-8")),
			h.Meta(h.Name("viewport"), h.Content("width=device-width, initial-scale=1.0")),
		),
		h.Body(
			h.StyleAttr("margin:0; padding:0; background-color:#FFFFFF; font-family:"+b.brand.FontFamily+";"),
			h.Table(
				g.Attr("role", "presentation"),
				g.Attr("cellpadding", "0"),
				g.Attr("cellspacing", "0"),
				g.Attr("border", "0"),
				h.Width("100%"),
				h.StyleAttr("width:100%; background-color:#FFFFFF;"),
				h.Tr(h.Td(g.Attr("align", "center"), h.StyleAttr("padding:0;"),
					h.Table(
						g.Attr("role", "presentation"),
						g.Attr("cellpadding", "0"),
						g.Attr("cellspacing", "0"),
						g.Attr("border", "0"),
						h.Width(strconv.Itoa(EmailWidth)),
						h.StyleAttr(fmt.Sprintf("width:%dpx; max-width:100%%;", EmailWidth)),
						b.content(p),
					),
				)),
			),
		),
	))
}

// content emits the section rows in their fixed order, skipping sections
// without data.
func (b *builder) content(p *proposal.Proposal) g.Node {
	var rows g.Group
	add := func(section g.Node, gap int) {
		if section == nil {
			return
		}
		rows = append(rows, section)
		if gap > 0 {
			rows = append(rows, spacer(gap))
		}
	}

	add(b.banner(p), 0)
	add(b.header(p), 20)
	add(b.summary(p), 24)
	add(b.benefits(p), 24)

	standard, hero := p.SplitFeatures()
	add(b.featureSection(HeadingFeatures, standard), 24)
	if len(hero) > 0 {
		add(b.heroSeparator(), 16)
		add(b.featureSection(HeadingHero, hero), 24)
	}

	add(b.pricing(p), 24)
	add(b.priceCard(p), 24)
	add(b.sources(p), 24)
	add(b.terms(p), 0)
	return rows
}

func (b *builder) banner(p *proposal.Proposal) g.Node {
	ref, ok := p.Banner.Ref()
	if !ok {
		return nil
	}
	img := b.image(ref, ref.Alt)
	if img == nil {
		return nil
	}
	return row("padding:0;", img)
}

func (b *builder) header(p *proposal.Proposal) g.Node {
	if p.Customer == "" && p.Ref == "" && p.HeadlineMain == "" && p.HeadlineSub == "" {
		return nil
	}
	label := "text-transform:uppercase; letter-spacing:0.5px;"
	return row("padding:32px 40px 28px 40px;", presentation("",
		row(b.font(13, "1.4", b.brand.ColorMuted)+" "+label, g.Text("Customer")),
		g.If(p.Customer != "", row(b.font(18, "1.45", b.brand.ColorText)+" font-weight:600;", g.Text(p.Customer))),
		g.If(p.Ref != "", g.Group{
			row("padding-top:12px; "+b.font(13, "1.4", b.brand.ColorMuted)+" "+label, g.Text("Ref")),
			row(b.font(16, "1.4", b.brand.ColorText), g.Text(p.Ref)),
		}),
		g.If(p.HeadlineMain != "", row("padding-top:20px; "+b.font(30, "1.2", b.brand.ColorHeading)+" font-weight:600;", g.Text(p.HeadlineMain))),
		g.If(p.HeadlineSub != "", row("padding-top:10px; "+b.font(18, "1.45", b.brand.ColorText), g.Text(p.HeadlineSub))),
	))
}

func (b *builder) summary(p *proposal.Proposal) g.Node {
	html := sanitize.Sanitize(p.ExecutiveSummary)
	if strings.TrimSpace(html) == "" {
		return nil
	}
	return g.Group{
		b.heading(HeadingSummary),
		row("padding:0 40px; "+b.font(16, "1.55", b.brand.ColorText), b.fragment(html)),
	}
}

func (b *builder) bullets(items []string, size int) g.Node {
	return presentation("", g.Map(items, func(item string) g.Node {
		return h.Tr(
			h.Td(h.StyleAttr("width:18px; "+b.font(size, "1.4", b.brand.ColorText)), g.Text("•")),
			h.Td(h.StyleAttr(b.font(size, "1.55", b.brand.ColorText)+" padding-bottom:6px;"), g.Text(item)),
		)
	}))
}

func (b *builder) benefits(p *proposal.Proposal) g.Node {
	items := p.Benefits()
	if len(items) == 0 {
		return nil
	}
	return g.Group{b.heading(HeadingBenefits), wrap(b.bullets(items, 16))}
}

func (b *builder) featureSection(heading string, features []proposal.Feature) g.Node {
	if len(features) == 0 {
		return nil
	}
	return g.Group{
		b.heading(heading),
		wrap(presentation("", g.Map(features, func(f proposal.Feature) g.Node {
			return row("padding-bottom:16px;", b.card(f))
		}))),
	}
}

func (b *builder) card(f proposal.Feature) g.Node {
	var rows g.Group
	if f.Image != nil {
		alt := f.Image.Alt
		if alt == "" {
			alt = f.Title
		}
		if alt == "" {
			alt = "Feature image"
		}
		if img := b.image(*f.Image, alt); img != nil {
			rows = append(rows, row("padding-bottom:12px;", img))
		}
	}
	if f.Title != "" {
		rows = append(rows, row(b.font(18, "1.4", b.brand.ColorHeading)+" font-weight:600; padding-bottom:6px;", g.Text(f.Title)))
	}
	if f.Description != "" {
		rows = append(rows, row(b.font(15, "1.55", b.brand.ColorText), g.Raw(sanitize.TextToHTML(f.Description))))
	}
	if bullets := nonBlank(f.Bullets); len(bullets) > 0 {
		rows = append(rows, row("padding-top:8px;", b.bullets(bullets, 15)))
	}
	return presentation(" border:1px solid rgba(0,0,0,0.08); border-radius:16px; padding:0;",
		row("padding:20px;", presentation("", rows)),
	)
}

// image emits the pre-inline markup for ref: an <img> pointing at the raw
// source, a <canvas> placeholder for pixel buffers, or a sized background div.
func (b *builder) image(ref proposal.ImageRef, alt string) g.Node {
	hint := g.If(ref.AssetKey != "", g.Attr(attrAssetHint, ref.AssetKey))

	if ref.EffectiveKind() == proposal.KindCSSBackground {
		css := strings.TrimSpace(ref.CSS)
		if css == "" && ref.Src != "" {
			css = "background-image:url('" + ref.Src + "');"
		}
		if css == "" {
			return nil
		}
		if !strings.HasSuffix(css, ";") {
			css += ";"
		}
		height := ref.Height
		if height <= 0 {
			height = defaultImageHeight
		}
		if height < 32 {
			height = 32
		}
		width := inline.ClampWidth(float64(ref.Width))
		return h.Div(
			h.StyleAttr(fmt.Sprintf("width:%dpx; height:%dpx; background-repeat:no-repeat; background-size:cover; background-position:center; border-radius:12px; %s", width, height, css)),
			hint,
		)
	}

	sizing := g.If(ref.Width > 0, g.Attr(attrExplicitSize, strconv.Itoa(ref.Width)))
	if ref.Pixels != nil && strings.TrimSpace(ref.Src) == "" {
		id := "canvas-" + strconv.Itoa(len(b.canvases))
		b.canvases[id] = ref.Pixels
		bounds := ref.Pixels.Bounds()
		return g.El("canvas",
			g.Attr(attrCanvas, id),
			h.Width(strconv.Itoa(bounds.Dx())),
			h.Height(strconv.Itoa(bounds.Dy())),
			h.Alt(alt),
			sizing,
			hint,
		)
	}
	if strings.TrimSpace(ref.Src) == "" {
		return nil
	}
	return h.Img(
		h.Src(ref.Src),
		h.Alt(alt),
		h.StyleAttr(imgResetStyle),
		sizing,
		hint,
	)
}

func (b *builder) heroSeparator() g.Node {
	return wrap(presentation(" border-top:1px solid "+b.brand.ColorMuted+";",
		row("font-size:0; line-height:0; height:12px;", g.Raw("&nbsp;")),
	))
}

func (b *builder) pricing(p *proposal.Proposal) g.Node {
	if html := sanitize.Sanitize(p.PricingTableHTML); strings.TrimSpace(html) != "" {
		return g.Group{b.heading(HeadingPricing), wrap(b.fragment(html))}
	}
	if len(p.PricingRows) == 0 {
		return nil
	}
	cell := "padding:8px 0; border-bottom:1px solid #E5E7EB; " + b.font(15, "1.4", b.brand.ColorText)
	head := "padding:8px 0; border-bottom:2px solid " + b.brand.ColorMuted + "; " + b.font(13, "1.4", b.brand.ColorMuted) + " text-transform:uppercase;"
	total := "padding:12px 0 0 0; " + b.font(16, "1.4", b.brand.ColorHeading) + " font-weight:600;"
	return g.Group{
		b.heading(HeadingPricing),
		wrap(presentation("",
			h.Tr(
				h.Th(g.Attr("align", "left"), h.StyleAttr(head), g.Text("Item")),
				h.Th(g.Attr("align", "right"), h.StyleAttr(head), g.Text("Qty")),
				h.Th(g.Attr("align", "right"), h.StyleAttr(head), g.Text("Price")),
			),
			g.Map(p.PricingRows, func(r proposal.PricingRow) g.Node {
				return h.Tr(
					h.Td(h.StyleAttr(cell), g.Text(r.Description)),
					h.Td(g.Attr("align", "right"), h.StyleAttr(cell), g.Text(r.Quantity)),
					h.Td(g.Attr("align", "right"), h.StyleAttr(cell), g.Text(r.Price)),
				)
			}),
			h.Tr(
				h.Td(g.Attr("colspan", "2"), h.StyleAttr(total), g.Text("Total")),
				h.Td(g.Attr("align", "right"), h.StyleAttr(total), g.Text(p.Total())),
			),
		)),
	}
}

func (b *builder) priceCard(p *proposal.Proposal) g.Node {
	html := sanitize.Sanitize(p.PriceCard.HTML)
	if !p.PriceCard.Show || strings.TrimSpace(html) == "" {
		return nil
	}
	shade := p.PriceCard.ShadedBgColor
	if shade == "" {
		shade = b.brand.PriceCardShade
	}
	return g.Group{
		b.heading(HeadingPrice),
		wrap(presentation(" border-radius:16px; background-color:"+shade+";",
			row("padding:24px; "+b.font(16, "1.55", b.brand.ColorText), b.fragment(html)),
		)),
	}
}

func (b *builder) sources(p *proposal.Proposal) g.Node {
	var items []g.Node
	for _, ds := range p.DataSources {
		text := ds.Text()
		if text == "" {
			continue
		}
		var content g.Node = g.Text(text)
		if ds.URL != "" {
			label := ds.Label
			if label == "" {
				label = ds.URL
			}
			content = g.Group{
				h.A(h.Href(sanitize.SafeURL(ds.URL)), h.StyleAttr("color:"+b.brand.ColorHeading+";"), g.Text(label)),
				g.If(ds.Note != "", g.Text(" ("+ds.Note+")")),
			}
		}
		items = append(items, h.Tr(
			h.Td(h.StyleAttr("width:18px; "+b.font(15, "1.4", b.brand.ColorText)), g.Text("•")),
			h.Td(h.StyleAttr(b.font(15, "1.55", b.brand.ColorText)+" padding-bottom:6px;"), content),
		))
	}
	if len(items) == 0 {
		return nil
	}
	return g.Group{b.heading(HeadingSources), wrap(presentation("", g.Group(items)))}
}

func (b *builder) terms(p *proposal.Proposal) g.Node {
	lines := p.TermLines()
	if len(lines) == 0 {
		return nil
	}
	return g.Group{
		b.heading(HeadingTerms),
		wrap(presentation("", g.Map(lines, func(line string) g.Node {
			return row(b.font(15, "1.55", b.brand.ColorText)+" padding-bottom:8px;", g.Text(line))
		}))),
	}
}

func nonBlank(items []string) []string {
	var out []string
	for _, s := range items {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

// Package preview renders the on-screen proposal preview.
//
// The page is ordinary HTML for a browser, annotated with the data-export-*
// attributes the snapshot package reads back. Toolbar chrome is marked
// data-export-ignore.
package preview

import (
	"io"
	"strconv"

	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"

	"github.com/joeblew999/plat-proposal/pkg/inline"
	"github.com/joeblew999/plat-proposal/pkg/proposal"
	"github.com/joeblew999/plat-proposal/pkg/sanitize"
	"github.com/joeblew999/plat-proposal/pkg/snapshot"
)

// Render writes the preview page for p.
func Render(w io.Writer, p *proposal.Proposal) error {
	return Page(p).Render(w)
}

// Page builds the preview document for p. A nil proposal renders an empty page.
func Page(p *proposal.Proposal) g.Node {
	if p == nil {
		p = &proposal.Proposal{}
	}
	brand := p.Brand.Normalize()
	title := "Proposal preview"
	if p.Customer != "" {
		title = p.Customer + " - " + title
	}

	return h.Doctype(h.HTML(
		h.Lang("en"),
		h.Head(
			h.Meta(h.Charset("utf-8")),
			h.Meta(h.Name("viewport"), h.Content("width=device-width, initial-scale=1")),
			h.TitleEl(g.Text(title)),
			h.StyleEl(h.Type("text/css"), g.Raw(styles)),
		),
		h.Body(
			h.StyleAttr("font-family:"+brand.FontFamily+"; color:"+brand.ColorText+";"),
			h.Nav(h.Class("toolbar"), g.Attr(snapshot.AttrIgnore),
				h.Div(h.Class("toolbar-brand"), g.Text("plat-proposal")),
				h.Div(h.Class("toolbar-actions"),
					h.Button(h.Type("button"), g.Attr("data-action", "export-html"), g.Text("Export HTML")),
					h.Button(h.Type("button"), g.Attr("data-action", "export-eml"), g.Text("Export EML")),
				),
			),
			h.Main(h.Class("proposal"),
				brandMarker(p.Brand),
				banner(p),
				header(p, brand),
				summary(p, brand),
				benefits(p, brand),
				features(p, brand),
				pricing(p, brand),
				priceCard(p, brand),
				sources(p, brand),
				terms(p, brand),
			),
		),
	))
}

// brandMarker records the raw brand tokens so a snapshot can restore them.
func brandMarker(b proposal.BrandConfig) g.Node {
	return h.Div(
		g.Attr(snapshot.AttrBrand),
		h.StyleAttr("display:none"),
		g.If(b.FontFamily != "", g.Attr(snapshot.AttrFontFamily, b.FontFamily)),
		g.If(b.ColorText != "", g.Attr(snapshot.AttrColorText, b.ColorText)),
		g.If(b.ColorHeading != "", g.Attr(snapshot.AttrColorHeading, b.ColorHeading)),
		g.If(b.ColorMuted != "", g.Attr(snapshot.AttrColorMuted, b.ColorMuted)),
		g.If(b.PriceCardShade != "", g.Attr(snapshot.AttrPriceCardShade, b.PriceCardShade)),
	)
}

func banner(p *proposal.Proposal) g.Node {
	ref, ok := p.Banner.Ref()
	if !ok {
		return nil
	}
	src := imageSrc(ref)
	if src == "" {
		return nil
	}
	return h.Div(h.Class("banner"),
		h.Img(g.Attr(snapshot.AttrBanner), h.Src(src), h.Alt(ref.Alt), h.Width(strconv.Itoa(ref.Width))),
	)
}

func header(p *proposal.Proposal, brand proposal.BrandConfig) g.Node {
	if p.Customer == "" && p.Ref == "" && p.HeadlineMain == "" && p.HeadlineSub == "" {
		return nil
	}
	return h.Header(h.Class("section header"),
		g.If(p.Customer != "", h.P(h.Class("label"),
			g.Text("Customer: "), h.Span(g.Attr(snapshot.AttrCustomer), g.Text(p.Customer)),
		)),
		g.If(p.Ref != "", h.P(h.Class("label"),
			g.Text("Ref: "), h.Span(g.Attr(snapshot.AttrRef), g.Text(p.Ref)),
		)),
		g.If(p.HeadlineMain != "", h.H1(g.Attr(snapshot.AttrHeadline),
			h.StyleAttr("color:"+brand.ColorHeading), g.Text(p.HeadlineMain),
		)),
		g.If(p.HeadlineSub != "", h.P(g.Attr(snapshot.AttrSubheadline), h.Class("subheadline"),
			h.StyleAttr("color:"+brand.ColorMuted), g.Text(p.HeadlineSub),
		)),
	)
}

func section(title string, brand proposal.BrandConfig, body ...g.Node) g.Node {
	return h.Section(h.Class("section"),
		h.H2(h.StyleAttr("color:"+brand.ColorHeading), g.Text(title)),
		g.Group(body),
	)
}

func summary(p *proposal.Proposal, brand proposal.BrandConfig) g.Node {
	html := sanitize.Sanitize(p.ExecutiveSummary)
	if html == "" {
		return nil
	}
	return section("Executive summary", brand, h.Div(g.Attr(snapshot.AttrSummary), g.Raw(html)))
}

func benefits(p *proposal.Proposal, brand proposal.BrandConfig) g.Node {
	list := p.Benefits()
	if len(list) == 0 {
		return nil
	}
	return section("Key benefits", brand, h.Ul(g.Attr(snapshot.AttrBenefits),
		g.Map(list, func(b string) g.Node { return h.Li(g.Text(b)) }),
	))
}

func features(p *proposal.Proposal, brand proposal.BrandConfig) g.Node {
	standard, hero := p.SplitFeatures()
	if len(standard) == 0 && len(hero) == 0 {
		return nil
	}
	return g.Group{
		g.If(len(standard) > 0, section("Features & benefits", brand,
			h.Div(h.Class("cards"), g.Map(standard, func(f proposal.Feature) g.Node {
				return card(f, snapshot.FeatureStandard, brand)
			})),
		)),
		g.If(len(hero) > 0, section("Key Features Included", brand,
			h.Div(h.Class("cards hero"), g.Map(hero, func(f proposal.Feature) g.Node {
				return card(f, snapshot.FeatureHero, brand)
			})),
		)),
	}
}

func card(f proposal.Feature, kind string, brand proposal.BrandConfig) g.Node {
	return h.Div(h.Class("card"),
		g.Attr(snapshot.AttrFeature),
		g.Attr(snapshot.AttrFeatureType, kind),
		featureImage(f.Image),
		g.If(f.Title != "", h.H3(g.Attr(snapshot.AttrFeatureTitle),
			h.StyleAttr("color:"+brand.ColorHeading), g.Text(f.Title),
		)),
		g.If(f.Description != "", h.P(g.Attr(snapshot.AttrFeatureDescription),
			h.Class("description"), g.Text(f.Description),
		)),
		g.If(len(f.Bullets) > 0, h.Ul(g.Attr(snapshot.AttrFeatureBullets),
			g.Map(f.Bullets, func(b string) g.Node { return h.Li(g.Text(b)) }),
		)),
	)
}

func featureImage(ref *proposal.ImageRef) g.Node {
	if ref == nil {
		return nil
	}
	if ref.EffectiveKind() == proposal.KindCSSBackground {
		style := ref.CSS
		if style == "" {
			style = "background-image:url('" + ref.Src + "'); background-size:cover; background-position:center;"
		}
		return h.Div(h.Class("feature-bg"),
			g.Attr(snapshot.AttrFeatureImage),
			h.StyleAttr(style),
			g.If(ref.Width > 0, g.Attr("data-width", strconv.Itoa(ref.Width))),
			g.If(ref.Height > 0, g.Attr("data-height", strconv.Itoa(ref.Height))),
			g.If(ref.AssetKey != "", g.Attr(snapshot.AttrAssetKey, ref.AssetKey)),
		)
	}
	src := imageSrc(*ref)
	if src == "" {
		return nil
	}
	return h.Img(
		g.Attr(snapshot.AttrFeatureImage),
		h.Src(src),
		h.Alt(ref.Alt),
		g.If(ref.Width > 0, h.Width(strconv.Itoa(ref.Width))),
		g.If(ref.Height > 0, h.Height(strconv.Itoa(ref.Height))),
		g.If(ref.AssetKey != "", g.Attr(snapshot.AttrAssetKey, ref.AssetKey)),
	)
}

// imageSrc returns the browser-loadable source of ref. Canvases are shown as
// PNG data URIs.
func imageSrc(ref proposal.ImageRef) string {
	if ref.Src != "" {
		return ref.Src
	}
	if ref.Pixels != nil {
		if uri, err := inline.CanvasDataURI(ref.Pixels); err == nil {
			return uri
		}
	}
	return ""
}

func pricing(p *proposal.Proposal, brand proposal.BrandConfig) g.Node {
	if html := sanitize.Sanitize(p.PricingTableHTML); html != "" {
		return section("Inclusions & pricing breakdown", brand, h.Div(g.Attr(snapshot.AttrPricing), g.Raw(html)))
	}
	if len(p.PricingRows) == 0 {
		return nil
	}
	return section("Inclusions & pricing breakdown", brand, h.Div(g.Attr(snapshot.AttrPricing),
		h.Table(h.Class("pricing"),
			h.THead(h.Tr(h.Th(g.Text("Item")), h.Th(g.Text("Qty")), h.Th(g.Text("Price")))),
			h.TBody(g.Map(p.PricingRows, func(r proposal.PricingRow) g.Node {
				return h.Tr(h.Td(g.Text(r.Description)), h.Td(g.Text(r.Quantity)), h.Td(g.Text(r.Price)))
			})),
			h.TFoot(h.Tr(
				h.Td(g.Attr("colspan", "2"), g.Text("Total")),
				h.Td(g.Text(p.Total())),
			)),
		),
	))
}

func priceCard(p *proposal.Proposal, brand proposal.BrandConfig) g.Node {
	html := sanitize.Sanitize(p.PriceCard.HTML)
	if !p.PriceCard.Show || html == "" {
		return nil
	}
	shade := p.PriceCard.ShadedBgColor
	if shade == "" {
		shade = brand.PriceCardShade
	}
	return section("Price", brand, h.Div(h.Class("price-card"),
		g.Attr(snapshot.AttrPriceCard, shade),
		h.StyleAttr("background:"+shade),
		g.Raw(html),
	))
}

func sources(p *proposal.Proposal, brand proposal.BrandConfig) g.Node {
	var items []g.Node
	for _, ds := range p.DataSources {
		if ds.Text() == "" {
			continue
		}
		label := ds.Label
		if label == "" {
			label = ds.URL
		}
		var link g.Node = g.Text(label)
		if ds.URL != "" {
			link = h.A(h.Href(sanitize.SafeURL(ds.URL)), g.Text(label))
		}
		items = append(items, h.Li(
			link,
			g.If(ds.Note != "", g.Group{
				g.Text(" "),
				h.Span(g.Attr(snapshot.AttrSourceNote), h.Class("note"), g.Text(ds.Note)),
			}),
		))
	}
	if len(items) == 0 {
		return nil
	}
	return section("Data sources", brand, h.Ul(g.Attr(snapshot.AttrSources), g.Group(items)))
}

func terms(p *proposal.Proposal, brand proposal.BrandConfig) g.Node {
	lines := p.TermLines()
	if len(lines) == 0 {
		return nil
	}
	return section("Commercial Terms & Dependencies", brand, h.Ul(g.Attr(snapshot.AttrTerms),
		g.Map(lines, func(t string) g.Node { return h.Li(g.Text(t)) }),
	))
}

const styles = `
* {
	box-sizing: border-box;
}

body {
	margin: 0;
	background: #f8fafc;
	line-height: 1.6;
}

.toolbar {
	display: flex;
	justify-content: space-between;
	align-items: center;
	padding: 0.75rem 2rem;
	background: #6366f1;
	color: white;
}

.toolbar-brand {
	font-weight: bold;
}

.toolbar button {
	margin-left: 0.5rem;
	padding: 0.4rem 1rem;
	border: 1px solid rgba(255,255,255,0.6);
	border-radius: 6px;
	background: transparent;
	color: white;
	cursor: pointer;
}

.proposal {
	max-width: 680px;
	margin: 2rem auto;
	padding: 0 1rem;
}

.banner img {
	display: block;
	width: 100%;
	height: auto;
	border-radius: 12px;
}

.section {
	margin: 1.5rem 0;
}

.label {
	margin: 0;
	font-size: 0.85rem;
	text-transform: uppercase;
	letter-spacing: 0.04em;
}

.cards {
	display: grid;
	gap: 1rem;
}

.card {
	background: white;
	border: 1px solid rgba(0,0,0,0.08);
	border-radius: 16px;
	padding: 1.25rem;
}

.card img {
	display: block;
	max-width: 100%;
	height: auto;
	margin-bottom: 0.75rem;
}

.feature-bg {
	width: 100%;
	height: 160px;
	border-radius: 12px;
	background-repeat: no-repeat;
	margin-bottom: 0.75rem;
}

.description {
	white-space: pre-line;
}

.hero .card {
	border-width: 2px;
}

table.pricing {
	width: 100%;
	border-collapse: collapse;
}

table.pricing th,
table.pricing td {
	padding: 0.5rem;
	border-bottom: 1px solid #e2e8f0;
	text-align: left;
}

.price-card {
	padding: 1.25rem;
	border-radius: 12px;
}

.note {
	color: #64748b;
}
`

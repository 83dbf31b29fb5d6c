// Package snapshot captures a proposal from a rendered preview page.
//
// The page marks exported content with data-export-* attributes. Anything
// under a data-export-ignore element is page chrome and is dropped before
// reading. Absent elements leave the matching field empty.
package snapshot

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/joeblew999/plat-proposal/pkg/proposal"
	"github.com/joeblew999/plat-proposal/pkg/sanitize"
)

// Attribute names read from the preview tree.
const (
	AttrIgnore             = "data-export-ignore"
	AttrBrand              = "data-export-brand"
	AttrBanner             = "data-export-banner"
	AttrCustomer           = "data-export-customer"
	AttrRef                = "data-export-ref"
	AttrHeadline           = "data-export-headline"
	AttrSubheadline        = "data-export-subheadline"
	AttrSummary            = "data-export-summary"
	AttrBenefits           = "data-export-benefits"
	AttrFeature            = "data-export-feature"
	AttrFeatureType        = "data-export-feature-type"
	AttrFeatureTitle       = "data-export-feature-title"
	AttrFeatureDescription = "data-export-feature-description"
	AttrFeatureBullets     = "data-export-feature-bullets"
	AttrFeatureImage       = "data-export-feature-image"
	AttrPricing            = "data-export-pricing"
	AttrPriceCard          = "data-export-price-card"
	AttrSources            = "data-export-sources"
	AttrSourceNote         = "data-export-source-note"
	AttrTerms              = "data-export-terms"

	// AttrAssetKey carries the bundled asset key of an image.
	AttrAssetKey = "data-asset-key"
)

// Feature types accepted in data-export-feature-type.
const (
	FeatureStandard = "standard"
	FeatureHero     = "hero"
)

// Brand token attributes on the data-export-brand element.
const (
	AttrFontFamily     = "data-font-family"
	AttrColorText      = "data-color-text"
	AttrColorHeading   = "data-color-heading"
	AttrColorMuted     = "data-color-muted"
	AttrPriceCardShade = "data-price-card-shade"
)

func sel(attr string) string {
	return "[" + attr + "]"
}

// FromHTML parses a preview page and captures its proposal.
func FromHTML(r io.Reader) (*proposal.Proposal, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse preview: %w", err)
	}
	return CollectPreviewProposal(doc.Selection), nil
}

// CollectPreviewProposal reads the annotated elements under root. The tree is
// cloned first, so root is never modified.
func CollectPreviewProposal(root *goquery.Selection) *proposal.Proposal {
	p := &proposal.Proposal{}
	if root == nil || root.Length() == 0 {
		return p
	}
	root = root.Clone()
	root.Find(sel(AttrIgnore)).Remove()

	p.Brand = collectBrand(first(root, AttrBrand))
	p.Banner = collectBanner(first(root, AttrBanner))
	p.Customer = text(first(root, AttrCustomer))
	p.Ref = text(first(root, AttrRef))
	p.HeadlineMain = text(first(root, AttrHeadline))
	p.HeadlineSub = text(first(root, AttrSubheadline))
	p.ExecutiveSummary = fragment(first(root, AttrSummary))
	p.KeyBenefits = items(first(root, AttrBenefits))

	root.Find(sel(AttrFeature)).Each(func(_ int, s *goquery.Selection) {
		p.Features = append(p.Features, collectFeature(s))
	})

	p.PricingTableHTML = fragment(first(root, AttrPricing))

	if card := first(root, AttrPriceCard); card.Length() > 0 {
		if html := fragment(card); html != "" {
			p.PriceCard = proposal.PriceCard{
				Show:          true,
				HTML:          html,
				ShadedBgColor: strings.TrimSpace(card.AttrOr(AttrPriceCard, "")),
			}
		}
	}

	first(root, AttrSources).Find("li").Each(func(_ int, li *goquery.Selection) {
		if ds, ok := collectSource(li); ok {
			p.DataSources = append(p.DataSources, ds)
		}
	})

	p.CommercialTerms = strings.Join(items(first(root, AttrTerms)), "\n")
	return p
}

// first returns root itself when it carries attr, else its first marked descendant.
func first(root *goquery.Selection, attr string) *goquery.Selection {
	if root.Is(sel(attr)) {
		return root.First()
	}
	return root.Find(sel(attr)).First()
}

func text(s *goquery.Selection) string {
	if s.Length() == 0 {
		return ""
	}
	return strings.TrimSpace(s.Text())
}

func fragment(s *goquery.Selection) string {
	if s.Length() == 0 {
		return ""
	}
	html, err := s.Html()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(sanitize.Sanitize(html))
}

// items returns the trimmed text of every list item, or the element's text
// lines when it has no list items.
func items(s *goquery.Selection) []string {
	if s.Length() == 0 {
		return nil
	}
	var out []string
	lis := s.Find("li")
	if lis.Length() == 0 {
		for _, line := range strings.Split(s.Text(), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				out = append(out, line)
			}
		}
		return out
	}
	lis.Each(func(_ int, li *goquery.Selection) {
		if t := strings.TrimSpace(li.Text()); t != "" {
			out = append(out, t)
		}
	})
	return out
}

func collectBrand(s *goquery.Selection) proposal.BrandConfig {
	if s.Length() == 0 {
		return proposal.BrandConfig{}
	}
	attr := func(name string) string {
		return strings.TrimSpace(s.AttrOr(name, ""))
	}
	return proposal.BrandConfig{
		FontFamily:     attr(AttrFontFamily),
		ColorText:      attr(AttrColorText),
		ColorHeading:   attr(AttrColorHeading),
		ColorMuted:     attr(AttrColorMuted),
		PriceCardShade: attr(AttrPriceCardShade),
	}
}

func collectBanner(s *goquery.Selection) *proposal.Banner {
	if s.Length() == 0 {
		return nil
	}
	img := s
	if !s.Is("img") {
		img = s.Find("img").First()
	}
	src := strings.TrimSpace(img.AttrOr("src", ""))
	if src == "" {
		return nil
	}
	ref := imageRef(img)
	return &proposal.Banner{Kind: proposal.BannerInlineImage, Image: &ref}
}

func collectFeature(s *goquery.Selection) proposal.Feature {
	f := proposal.Feature{
		Title:       text(s.Find(sel(AttrFeatureTitle)).First()),
		Description: text(s.Find(sel(AttrFeatureDescription)).First()),
		Bullets:     items(s.Find(sel(AttrFeatureBullets)).First()),
		IsHero:      strings.EqualFold(strings.TrimSpace(s.AttrOr(AttrFeatureType, "")), FeatureHero),
	}
	if img := s.Find(sel(AttrFeatureImage)).First(); img.Length() > 0 {
		if ref := imageRef(img); ref.Validate() == nil {
			f.Image = &ref
		}
	}
	return f
}

// imageRef reads an <img> or a background-styled element.
func imageRef(s *goquery.Selection) proposal.ImageRef {
	ref := proposal.ImageRef{
		Alt:      s.AttrOr("alt", ""),
		AssetKey: s.AttrOr(AttrAssetKey, ""),
		Width:    intAttr(s, "width", "data-width"),
		Height:   intAttr(s, "height", "data-height"),
	}
	if s.Is("img") {
		ref.Kind = proposal.KindImage
		ref.Src = strings.TrimSpace(s.AttrOr("src", ""))
		return ref
	}
	ref.Kind = proposal.KindCSSBackground
	ref.CSS = strings.TrimSpace(s.AttrOr("style", ""))
	return ref
}

func intAttr(s *goquery.Selection, names ...string) int {
	for _, name := range names {
		v, ok := s.Attr(name)
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(v), "px")); err == nil && n > 0 {
			return n
		}
	}
	return 0
}

func collectSource(li *goquery.Selection) (proposal.DataSource, bool) {
	li = li.Clone()
	note := li.Find(sel(AttrSourceNote))
	ds := proposal.DataSource{Note: text(note)}
	note.Remove()

	if a := li.Find("a[href]").First(); a.Length() > 0 {
		ds.URL = strings.TrimSpace(a.AttrOr("href", ""))
		ds.Label = text(a)
	} else {
		ds.Label = text(li)
	}
	if ds.URL == "#" {
		ds.URL = ""
	}
	return ds, ds.Label != "" || ds.URL != "" || ds.Note != ""
}

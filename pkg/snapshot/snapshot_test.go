package snapshot

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-proposal/pkg/proposal"
)

const page = `<!doctype html>
<html><body>
<nav data-export-ignore>
  <span data-export-customer>Toolbar Customer</span>
  <button onclick="exportEml()">Export</button>
</nav>
<main>
  <div data-export-banner><img src="https://example.com/banner.png" alt="Hero banner"></div>
  <p>Customer: <span data-export-customer>Acme Pty Ltd</span></p>
  <p>Ref: <span data-export-ref> ACME-1 </span></p>
  <h1 data-export-headline>Unified Communications</h1>
  <div data-export-summary><p onclick="steal()">Summary <b>text</b></p><script>alert(1)</script></div>
  <ul data-export-benefits><li>Rapid deployment</li><li> </li><li>Local support</li></ul>

  <div data-export-feature data-export-feature-type="standard">
    <img data-export-feature-image src="data:image/png;base64,AAA=" width="120" data-asset-key="cloud.svg">
    <h3 data-export-feature-title>Feature A</h3>
    <p data-export-feature-description>Always-on reliability</p>
    <ul data-export-feature-bullets><li>One</li><li>Two</li></ul>
  </div>
  <div data-export-feature data-export-feature-type="HERO">
    <div data-export-feature-image style="background-image:url('bg.png')" data-width="300" data-height="120"></div>
    <h3 data-export-feature-title>Hero B</h3>
  </div>
  <div data-export-feature data-export-ignore>
    <h3 data-export-feature-title>Hidden</h3>
  </div>

  <div data-export-pricing><table><tr><td>Item</td><td>$10</td></tr></table></div>
  <div data-export-price-card="#EEEEEE"><strong>$10</strong> <a href="javascript:alert(1)">pay</a></div>
  <ul data-export-sources>
    <li><a href="https://example.com/survey">Survey</a> <span data-export-source-note>2024</span></li>
    <li>Internal data</li>
  </ul>
  <ul data-export-terms><li>36 month term</li><li>Prices exclude GST</li></ul>
</main>
</body></html>`

func TestCollectPreviewProposal(t *testing.T) {
	p, err := FromHTML(strings.NewReader(page))
	require.NoError(t, err)

	t.Run("TextFields", func(t *testing.T) {
		assert.Equal(t, "Acme Pty Ltd", p.Customer)
		assert.Equal(t, "ACME-1", p.Ref)
		assert.Equal(t, "Unified Communications", p.HeadlineMain)
		assert.Empty(t, p.HeadlineSub)
		assert.Equal(t, []string{"Rapid deployment", "Local support"}, p.KeyBenefits)
		assert.Equal(t, "36 month term\nPrices exclude GST", p.CommercialTerms)
	})

	t.Run("Banner", func(t *testing.T) {
		ref, ok := p.Banner.Ref()
		require.True(t, ok)
		assert.Equal(t, "https://example.com/banner.png", ref.Src)
		assert.Equal(t, "Hero banner", ref.Alt)
		assert.Equal(t, proposal.BannerWidth, ref.Width)
	})

	t.Run("FragmentsAreSanitized", func(t *testing.T) {
		assert.Equal(t, "<p>Summary <b>text</b></p>", p.ExecutiveSummary)
		assert.Contains(t, p.PricingTableHTML, "<td>$10</td>")
		assert.True(t, p.PriceCard.Show)
		assert.Equal(t, "#EEEEEE", p.PriceCard.ShadedBgColor)
		assert.NotContains(t, p.PriceCard.HTML, "javascript:")
		assert.Contains(t, p.PriceCard.HTML, `href="#"`)
	})

	t.Run("Features", func(t *testing.T) {
		require.Len(t, p.Features, 2)
		standard, hero := p.SplitFeatures()
		require.Len(t, standard, 1)
		require.Len(t, hero, 1)

		a := standard[0]
		assert.Equal(t, "Feature A", a.Title)
		assert.Equal(t, "Always-on reliability", a.Description)
		assert.Equal(t, []string{"One", "Two"}, a.Bullets)
		require.NotNil(t, a.Image)
		assert.Equal(t, proposal.ImageRef{
			Src:      "data:image/png;base64,AAA=",
			Kind:     proposal.KindImage,
			Width:    120,
			AssetKey: "cloud.svg",
		}, *a.Image)

		b := hero[0]
		assert.Equal(t, "Hero B", b.Title)
		require.NotNil(t, b.Image)
		assert.Equal(t, proposal.KindCSSBackground, b.Image.Kind)
		assert.Equal(t, "background-image:url('bg.png')", b.Image.CSS)
		assert.Equal(t, 300, b.Image.Width)
		assert.Equal(t, 120, b.Image.Height)
	})

	t.Run("DataSources", func(t *testing.T) {
		assert.Equal(t, []proposal.DataSource{
			{Label: "Survey", URL: "https://example.com/survey", Note: "2024"},
			{Label: "Internal data"},
		}, p.DataSources)
	})
}

func TestCollectPreviewProposalEmpty(t *testing.T) {
	t.Run("NilRoot", func(t *testing.T) {
		p := CollectPreviewProposal(nil)
		require.NotNil(t, p)
		assert.Empty(t, p.Customer)
	})

	t.Run("NoAnnotations", func(t *testing.T) {
		p, err := FromHTML(strings.NewReader("<div><p>nothing here</p></div>"))
		require.NoError(t, err)
		assert.Nil(t, p.Banner)
		assert.Empty(t, p.Features)
		assert.Empty(t, p.ExecutiveSummary)
		assert.False(t, p.PriceCard.Show)
		assert.Nil(t, p.DataSources)
		assert.Equal(t, proposal.BrandConfig{}, p.Brand)
	})

	t.Run("EmptyPriceCardIsHidden", func(t *testing.T) {
		p, err := FromHTML(strings.NewReader(`<div data-export-price-card="#fff">  </div>`))
		require.NoError(t, err)
		assert.False(t, p.PriceCard.Show)
	})
}

func TestCollectLeavesTreeUntouched(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	require.NoError(t, err)
	before, err := doc.Html()
	require.NoError(t, err)

	CollectPreviewProposal(doc.Selection)

	after, err := doc.Html()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestCollectFromAnnotatedRoot(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<ul data-export-terms><li>Net 30</li></ul><ul data-export-terms><li>ignored</li></ul>`))
	require.NoError(t, err)

	p := CollectPreviewProposal(doc.Find("ul").First())
	assert.Equal(t, "Net 30", p.CommercialTerms)
}

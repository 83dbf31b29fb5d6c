package preview

import (
	"bytes"
	"image"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-proposal/pkg/proposal"
	"github.com/joeblew999/plat-proposal/pkg/snapshot"
)

func render(t *testing.T, p *proposal.Proposal) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, p))
	return buf.String()
}

func TestPageRoundTrip(t *testing.T) {
	src := proposal.Sample()
	html := render(t, src)

	got, err := snapshot.FromHTML(strings.NewReader(html))
	require.NoError(t, err)

	assert.Equal(t, src.Brand, got.Brand)
	assert.Equal(t, src.Customer, got.Customer)
	assert.Equal(t, src.Ref, got.Ref)
	assert.Equal(t, src.HeadlineMain, got.HeadlineMain)
	assert.Equal(t, src.HeadlineSub, got.HeadlineSub)
	assert.Equal(t, src.ExecutiveSummary, got.ExecutiveSummary)
	assert.Equal(t, src.KeyBenefits, got.KeyBenefits)
	assert.Equal(t, src.CommercialTerms, got.CommercialTerms)
	assert.Equal(t, src.DataSources, got.DataSources)
	assert.Equal(t, src.PriceCard.HTML, got.PriceCard.HTML)
	assert.Equal(t, proposal.DefaultBrand().PriceCardShade, got.PriceCard.ShadedBgColor)
	assert.Contains(t, got.PricingTableHTML, src.Total())

	wantStd, wantHero := src.SplitFeatures()
	gotStd, gotHero := got.SplitFeatures()
	require.Len(t, gotStd, len(wantStd))
	require.Len(t, gotHero, len(wantHero))
	for i := range wantStd {
		assert.Equal(t, wantStd[i].Title, gotStd[i].Title)
		assert.Equal(t, wantStd[i].Description, gotStd[i].Description)
		assert.Equal(t, wantStd[i].Bullets, gotStd[i].Bullets)
		assert.Equal(t, *wantStd[i].Image, *gotStd[i].Image)
	}
	assert.Equal(t, wantHero[0].Title, gotHero[0].Title)
	assert.Equal(t, wantHero[0].Description, gotHero[0].Description)
}

func TestPageChrome(t *testing.T) {
	html := render(t, proposal.Sample())

	assert.True(t, strings.HasPrefix(html, "<!doctype html>"))
	assert.Contains(t, html, `name="viewport"`)
	assert.Contains(t, html, "data-export-ignore")
	assert.Contains(t, html, "font-family:&#39;Inter&#39;, Arial, Helvetica, sans-serif")

	got, err := snapshot.FromHTML(strings.NewReader(html))
	require.NoError(t, err)
	assert.NotContains(t, got.Customer, "plat-proposal")
}

func TestPageOmitsEmptySections(t *testing.T) {
	html := render(t, &proposal.Proposal{Customer: "Solo"})

	assert.Contains(t, html, "Solo")
	for _, heading := range []string{
		"Executive summary",
		"Key benefits",
		"Features &amp; benefits",
		"Key Features Included",
		"Inclusions &amp; pricing breakdown",
		"Data sources",
		"Commercial Terms &amp; Dependencies",
	} {
		assert.NotContains(t, html, heading)
	}
	assert.NotContains(t, html, snapshot.AttrPriceCard)
}

func TestPageNilAndCanvas(t *testing.T) {
	assert.NotPanics(t, func() { render(t, nil) })

	p := &proposal.Proposal{Banner: proposal.BannerFromCanvas(image.NewRGBA(image.Rect(0, 0, 4, 2)))}
	html := render(t, p)
	assert.Contains(t, html, `src="data:image/png;base64,`)
	assert.Contains(t, html, `alt="Proposal banner"`)
}

func TestPageSanitizesFragments(t *testing.T) {
	html := render(t, &proposal.Proposal{
		ExecutiveSummary: `<p onmouseover="x()">Hi</p><script>alert(1)</script>`,
		DataSources:      []proposal.DataSource{{Label: "Bad", URL: "javascript:alert(1)"}},
	})
	assert.NotContains(t, html, "<script>alert")
	assert.NotContains(t, html, "onmouseover")
	assert.NotContains(t, html, "javascript:")
	assert.Contains(t, html, `<a href="#">Bad</a>`)
}

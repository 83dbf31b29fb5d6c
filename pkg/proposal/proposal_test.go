package proposal

import (
	"encoding/json"
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTotal(t *testing.T) {
	tests := []struct {
		name string
		rows []PricingRow
		want string
	}{
		{"empty", nil, "0.00"},
		{"currency and separators", []PricingRow{{Price: "$1,160.00"}, {Price: "480"}}, "1640.00"},
		{"unparsable counts as zero", []PricingRow{{Price: "n/a"}, {Price: "10.5"}}, "10.50"},
		{"second dot ends the number", []PricingRow{{Price: "1.2.3"}}, "1.20"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Total(tt.rows))
		})
	}

	assert.Equal(t, "1890.00", Sample().Total())
}

func TestPricingRowJSON(t *testing.T) {
	var rows []PricingRow
	err := json.Unmarshal([]byte(`[["Licence", "2", "$20"], {"description":"Support","quantity":"1","price":"5"}]`), &rows)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, PricingRow{Description: "Licence", Quantity: "2", Price: "$20"}, rows[0])
	assert.Equal(t, "Support", rows[1].Description)
	assert.Equal(t, "25.00", Total(rows))
}

func TestDataSourceJSON(t *testing.T) {
	var sources []DataSource
	err := json.Unmarshal([]byte(`["Survey", {"label":"Map","url":"https://example.com","note":"2024"}]`), &sources)
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "Survey", sources[0].Text())
	assert.Equal(t, "Map (2024)", sources[1].Text())
}

func TestBrandNormalize(t *testing.T) {
	t.Run("EmptyUsesFallbackPalette", func(t *testing.T) {
		assert.Equal(t, DefaultBrand(), BrandConfig{}.Normalize())
	})

	t.Run("KeepsProvidedTokens", func(t *testing.T) {
		b := BrandConfig{ColorText: "#111111", FontFamily: "Georgia, serif"}.Normalize()
		assert.Equal(t, "#111111", b.ColorText)
		assert.Equal(t, "Georgia, serif", b.FontFamily)
		assert.Equal(t, "#0B1220", b.ColorHeading)
		assert.Equal(t, "#F3F4F9", b.PriceCardShade)
	})

	t.Run("ExpandsSingleFamily", func(t *testing.T) {
		assert.Equal(t, "'Inter', Arial, Helvetica, sans-serif", EmailSafeFontStack("Inter"))
		assert.Equal(t, "'Merriweather', Georgia, 'Times New Roman', serif", EmailSafeFontStack("Merriweather"))
		assert.Equal(t, "'Fira Code', 'Courier New', Courier, monospace", EmailSafeFontStack("Fira Code"))
		assert.Equal(t, "'Open Sans', Arial, Helvetica, sans-serif", EmailSafeFontStack("Open Sans"))
	})
}

func TestImageRefValidate(t *testing.T) {
	tests := []struct {
		name    string
		ref     ImageRef
		wantErr bool
	}{
		{"img with src", ImageRef{Src: "a.png"}, false},
		{"img with pixels", ImageRef{Pixels: image.NewRGBA(image.Rect(0, 0, 2, 2))}, false},
		{"img without src", ImageRef{Kind: KindImage}, true},
		{"css-bg with css", ImageRef{Kind: KindCSSBackground, CSS: "background-image:url(a.png)"}, false},
		{"css-bg with src", ImageRef{Kind: KindCSSBackground, Src: "a.png"}, false},
		{"css-bg with both", ImageRef{Kind: KindCSSBackground, Src: "a.png", CSS: "background:red"}, true},
		{"unknown kind", ImageRef{Kind: "video", Src: "a.mp4"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ref.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBannerRef(t *testing.T) {
	t.Run("URL", func(t *testing.T) {
		ref, ok := BannerFromURL(" https://example.com/b.png ").Ref()
		require.True(t, ok)
		assert.Equal(t, "https://example.com/b.png", ref.Src)
		assert.Equal(t, "Proposal banner", ref.Alt)
		assert.Equal(t, BannerWidth, ref.Width)
	})

	t.Run("Canvas", func(t *testing.T) {
		canvas := image.NewRGBA(image.Rect(0, 0, 4, 4))
		ref, ok := BannerFromCanvas(canvas).Ref()
		require.True(t, ok)
		assert.Equal(t, canvas, ref.Pixels)
		assert.Equal(t, KindImage, ref.EffectiveKind())
	})

	t.Run("InlineImageKeepsAlt", func(t *testing.T) {
		b := &Banner{Kind: BannerInlineImage, Image: &ImageRef{Src: "x.png", Alt: "Hero"}}
		ref, ok := b.Ref()
		require.True(t, ok)
		assert.Equal(t, "Hero", ref.Alt)
	})

	t.Run("Empty", func(t *testing.T) {
		var b *Banner
		_, ok := b.Ref()
		assert.False(t, ok)
		_, ok = (&Banner{Kind: BannerURL}).Ref()
		assert.False(t, ok)
	})
}

func TestProposalValidate(t *testing.T) {
	var nilProposal *Proposal
	assert.True(t, errors.Is(nilProposal.Validate(), ErrInvalidProposal))
	assert.NoError(t, (&Proposal{}).Validate())
	assert.NoError(t, Sample().Validate())

	bad := &Proposal{Features: []Feature{{Title: "x", Image: &ImageRef{Kind: "bogus", Src: "a"}}}}
	assert.ErrorIs(t, bad.Validate(), ErrInvalidProposal)
}

func TestSplitFeatures(t *testing.T) {
	hidden := false
	p := &Proposal{Features: []Feature{
		{Title: "a"},
		{Title: "b", IsHero: true},
		{Title: "c", Visible: &hidden},
		{Title: "d"},
	}}
	standard, hero := p.SplitFeatures()
	require.Len(t, standard, 2)
	require.Len(t, hero, 1)
	assert.Equal(t, "a", standard[0].Title)
	assert.Equal(t, "d", standard[1].Title)
	assert.Equal(t, "b", hero[0].Title)
}

func TestTermLines(t *testing.T) {
	p := &Proposal{CommercialTerms: "one\r\n\n  two  \n"}
	assert.Equal(t, []string{"one", "two"}, p.TermLines())
}

package proposal

// Sample returns a demo proposal for previews and smoke tests. Images point
// at bundled pictograms by asset key so the export works offline.
func Sample() *Proposal {
	return &Proposal{
		Brand: BrandConfig{
			FontFamily:   "Inter",
			ColorHeading: "#0A2A6B",
		},
		Customer:     "Acme Pty Ltd",
		Ref:          "ACME-2024-017",
		HeadlineMain: "Unified Communications",
		HeadlineSub:  "Cloud voice and collaboration for every site",
		ExecutiveSummary: "<p>Acme is consolidating three phone systems into one cloud platform.</p>" +
			"<p>This proposal covers handsets, licensing and <strong>local support</strong>.</p>",
		KeyBenefits: []string{
			"Rapid deployment",
			"Local support",
			"Predictable monthly cost",
		},
		Features: []Feature{
			{
				Title:       "Cloud calling",
				Description: "Always-on reliability with automatic failover.",
				Bullets:     []string{"Geo-redundant", "99.99% uptime"},
				Image:       &ImageRef{Src: "pictograms/cloud.svg", Kind: KindImage, Width: 96, AssetKey: "cloud.svg"},
			},
			{
				Title:       "Mobile app",
				Description: "Take your desk number anywhere.",
				Image:       &ImageRef{Src: "pictograms/phone.svg", Kind: KindImage, Width: 96, AssetKey: "phone.svg"},
			},
			{
				Title:       "Managed security",
				Description: "Encrypted calls and 24/7 monitoring.\nQuarterly reviews included.",
				Image:       &ImageRef{Src: "pictograms/shield.svg", Kind: KindImage, Width: 140, AssetKey: "shield.svg"},
				IsHero:      true,
			},
		},
		PricingRows: []PricingRow{
			{Description: "Cloud voice licence", Quantity: "40", Price: "$1,160.00"},
			{Description: "Handset rental", Quantity: "40", Price: "$480.00"},
			{Description: "Managed support", Quantity: "1", Price: "$250.00"},
		},
		PriceCard: PriceCard{
			Show: true,
			HTML: "<strong>$1,890.00</strong> per month ex GST",
		},
		DataSources: []DataSource{
			{Label: "Acme site survey", Note: "March 2024"},
			{Label: "Carrier coverage map", URL: "https://example.com/coverage"},
		},
		CommercialTerms: "36 month term\nPrices exclude GST\nSubject to site survey",
	}
}

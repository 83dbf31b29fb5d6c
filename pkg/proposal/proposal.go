// Package proposal defines the proposal value the export pipeline consumes.
//
// A Proposal is an explicit state object: the caller builds (or loads) one per
// export and hands it to the composer by reference. Aggregates such as the
// pricing total are derived on demand and never cached on the value.
package proposal

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidProposal is returned when a proposal is missing or structurally malformed.
var ErrInvalidProposal = errors.New("invalid proposal")

// Proposal is a complete export snapshot.
type Proposal struct {
	Brand            BrandConfig  `json:"brand"`
	Banner           *Banner      `json:"banner,omitempty"`
	Customer         string       `json:"customer,omitempty"`
	Ref              string       `json:"ref,omitempty"`
	HeadlineMain     string       `json:"headlineMain,omitempty"`
	HeadlineSub      string       `json:"headlineSub,omitempty"`
	ExecutiveSummary string       `json:"executiveSummary,omitempty"`
	KeyBenefits      []string     `json:"keyBenefits,omitempty"`
	Features         []Feature    `json:"features,omitempty"`
	PricingTableHTML string       `json:"pricingTableHTML,omitempty"`
	PricingRows      []PricingRow `json:"pricingRows,omitempty"`
	PriceCard        PriceCard    `json:"priceCard"`
	DataSources      []DataSource `json:"dataSources,omitempty"`
	CommercialTerms  string       `json:"commercialTerms,omitempty"`
}

// Feature is a single feature card.
type Feature struct {
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description,omitempty"`
	Bullets     []string  `json:"bullets,omitempty"`
	Image       *ImageRef `json:"image,omitempty"`
	IsHero      bool      `json:"isHero,omitempty"`
	// Visible defaults to true when unset.
	Visible *bool `json:"visible,omitempty"`
}

// IsVisible reports whether the card should be exported.
func (f Feature) IsVisible() bool {
	return f.Visible == nil || *f.Visible
}

// PriceCard is the shaded price panel.
type PriceCard struct {
	Show          bool   `json:"show,omitempty"`
	HTML          string `json:"html,omitempty"`
	ShadedBgColor string `json:"shadedBgColor,omitempty"`
}

// DataSource is a cited source. It unmarshals from either a plain string
// (taken as the label) or an object.
type DataSource struct {
	Label string `json:"label,omitempty"`
	URL   string `json:"url,omitempty"`
	Note  string `json:"note,omitempty"`
}

func (d *DataSource) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*d = DataSource{Label: s}
		return nil
	}
	type plain DataSource
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return fmt.Errorf("data source: %w", err)
	}
	*d = DataSource(p)
	return nil
}

// Text returns the display text of the source.
func (d DataSource) Text() string {
	label := strings.TrimSpace(d.Label)
	if label == "" {
		label = strings.TrimSpace(d.URL)
	}
	if note := strings.TrimSpace(d.Note); note != "" {
		if label == "" {
			return note
		}
		return label + " (" + note + ")"
	}
	return label
}

// Validate checks the structural shape of the proposal. Missing optional
// fields are never an error.
func (p *Proposal) Validate() error {
	if p == nil {
		return fmt.Errorf("%w: proposal is nil", ErrInvalidProposal)
	}
	if p.Banner != nil {
		if err := p.Banner.Validate(); err != nil {
			return fmt.Errorf("%w: banner: %v", ErrInvalidProposal, err)
		}
	}
	for i, f := range p.Features {
		if f.Image == nil {
			continue
		}
		if err := f.Image.Validate(); err != nil {
			return fmt.Errorf("%w: feature %d image: %v", ErrInvalidProposal, i, err)
		}
	}
	return nil
}

// SplitFeatures separates visible features into standard and hero cards,
// keeping their order.
func (p *Proposal) SplitFeatures() (standard, hero []Feature) {
	for _, f := range p.Features {
		if !f.IsVisible() {
			continue
		}
		if f.IsHero {
			hero = append(hero, f)
		} else {
			standard = append(standard, f)
		}
	}
	return standard, hero
}

// TermLines splits the newline-delimited commercial terms into trimmed,
// non-empty lines.
func (p *Proposal) TermLines() []string {
	return nonEmptyLines(p.CommercialTerms)
}

// Benefits returns the non-blank key benefits.
func (p *Proposal) Benefits() []string {
	var out []string
	for _, b := range p.KeyBenefits {
		if strings.TrimSpace(b) != "" {
			out = append(out, b)
		}
	}
	return out
}

// Total is the pricing total for the proposal's rows.
func (p *Proposal) Total() string {
	return Total(p.PricingRows)
}

func nonEmptyLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

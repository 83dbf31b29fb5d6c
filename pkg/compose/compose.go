// Package compose builds the standalone email HTML document for a proposal.
//
// The document is a nested presentation-table layout, 680px wide, assembled
// with gomponents. A single pass over the finished document then inlines every
// image and background as a data URI.
package compose

import (
	"bytes"
	"context"
	"fmt"

	"github.com/joeblew999/plat-proposal/pkg/inline"
	"github.com/joeblew999/plat-proposal/pkg/log"
	"github.com/joeblew999/plat-proposal/pkg/proposal"
)

// Result is a composed document.
type Result struct {
	HTML     string
	SizeKB   float64
	Warnings []string
}

// Composer renders proposals. It holds no per-export state.
type Composer struct {
	inliner *inline.Inliner
}

// Option configures a Composer.
type Option func(*Composer)

// WithInliner sets the asset inliner used by the inline pass.
func WithInliner(in *inline.Inliner) Option {
	return func(c *Composer) {
		if in != nil {
			c.inliner = in
		}
	}
}

// NewComposer creates a Composer with the default inliner unless configured.
func NewComposer(opts ...Option) *Composer {
	c := &Composer{}
	for _, opt := range opts {
		opt(c)
	}
	if c.inliner == nil {
		c.inliner = inline.New()
	}
	return c
}

// Compose renders p as a complete HTML document. Missing optional fields only
// omit their section. A nil or malformed proposal returns an error wrapping
// proposal.ErrInvalidProposal. Images that cannot be inlined are reported in
// Result.Warnings.
func (c *Composer) Compose(ctx context.Context, p *proposal.Proposal) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b := newBuilder(p.Brand.Normalize())
	var buf bytes.Buffer
	if err := b.document(p).Render(&buf); err != nil {
		return nil, fmt.Errorf("render document: %w", err)
	}

	pass := &inlinePass{
		session:   c.inliner.NewSession(),
		canvases:  b.canvases,
		fragments: b.fragments,
	}
	html, err := pass.run(ctx, &buf)
	if err != nil {
		return nil, err
	}

	res := &Result{
		HTML:     html,
		SizeKB:   float64(len(html)) / 1024,
		Warnings: pass.warnings,
	}
	log.Debug("Composed proposal",
		"customer", p.Customer,
		"size_kb", fmt.Sprintf("%.1f", res.SizeKB),
		"assets", pass.session.Len(),
		"warnings", len(res.Warnings))
	return res, nil
}

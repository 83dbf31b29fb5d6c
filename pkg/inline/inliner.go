// Package inline converts image references into embedded data URIs.
//
// Each reference walks a fixed fallback chain and the first success wins:
//
//  1. PNG, JPEG and SVG data URIs are returned verbatim.
//  2. http(s) sources (including relative paths under a configured base URL)
//     are fetched.
//  3. On fetch failure, and for file: or local relative sources, the image is
//     decoded into a canvas and re-encoded.
//  4. A reference carrying an asset key is looked up in the bundled asset table.
//
// When every step fails the caller gets an *AssetError whose message is the
// warning to record. Inlining failures are never fatal to an export.
package inline

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/zeromicro/go-zero/core/rescue"

	"github.com/joeblew999/plat-proposal/pkg/assets"
	"github.com/joeblew999/plat-proposal/pkg/log"
	"github.com/joeblew999/plat-proposal/pkg/proposal"
)

// Strategy names the step of the chain that produced a result.
type Strategy string

const (
	StrategyDataURI    Strategy = "data-uri"
	StrategyFetch      Strategy = "fetch"
	StrategyCanvas     Strategy = "canvas"
	StrategyAssetTable Strategy = "asset-table"
)

// AssetTable is the last-resort lookup of bundled assets.
type AssetTable interface {
	Lookup(key string) (string, bool)
}

// Result is a successfully inlined image.
type Result struct {
	DataURI  string
	MIME     string
	Strategy Strategy
	// AssetKey is set when the result came from the asset table.
	AssetKey string
}

// AssetError reports that no step of the chain could inline an image.
type AssetError struct {
	Kind     string
	Ref      string
	Attempts []error
}

func (e *AssetError) Error() string {
	reasons := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		reasons = append(reasons, a.Error())
	}
	reason := strings.Join(reasons, "; ")
	if reason == "" {
		reason = "no source"
	}
	return fmt.Sprintf("%s inline failed: %s — %s", e.Kind, displayRef(e.Ref), reason)
}

func (e *AssetError) Unwrap() []error {
	return e.Attempts
}

var errPanicked = errors.New("panic while inlining")

// Inliner resolves image references. It holds no per-export state and is safe
// for concurrent use when its collaborators are.
type Inliner struct {
	fetcher    Fetcher
	rasterizer Rasterizer
	table      AssetTable
	baseURL    *url.URL
}

// Option configures an Inliner.
type Option func(*Inliner)

// WithFetcher sets the network fetcher. nil disables fetching.
func WithFetcher(f Fetcher) Option {
	return func(in *Inliner) {
		in.fetcher = f
	}
}

// WithRasterizer sets the canvas re-encoder. nil disables the canvas step.
func WithRasterizer(r Rasterizer) Option {
	return func(in *Inliner) {
		in.rasterizer = r
	}
}

// WithAssetTable sets the fallback asset table. nil disables the lookup.
func WithAssetTable(t AssetTable) Option {
	return func(in *Inliner) {
		in.table = t
	}
}

// WithBaseURL sets the page URL relative references resolve against.
func WithBaseURL(u *url.URL) Option {
	return func(in *Inliner) {
		in.baseURL = u
	}
}

// New creates an Inliner. By default it fetches with http.DefaultClient,
// rasterizes relative paths under the working directory and falls back to the
// bundled pictograms.
func New(opts ...Option) *Inliner {
	in := &Inliner{
		fetcher:    NewHTTPFetcher(),
		rasterizer: NewBitmapRasterizer("."),
		table:      assets.Default(),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// InlineURL inlines a bare image URL.
func (in *Inliner) InlineURL(ctx context.Context, raw string) (Result, error) {
	return in.Inline(ctx, proposal.ImageRef{Src: raw, Kind: proposal.KindImage})
}

// Inline resolves ref.Src through the fallback chain.
func (in *Inliner) Inline(ctx context.Context, ref proposal.ImageRef) (res Result, err error) {
	kind := string(ref.EffectiveKind())
	done := false
	defer rescue.RecoverCtx(ctx, func() {
		if !done {
			res = Result{}
			err = &AssetError{Kind: kind, Ref: ref.Src, Attempts: []error{errPanicked}}
			inlineFailed.Inc(kind)
		}
	})

	res, err = in.resolve(ctx, kind, ref)
	if err != nil {
		inlineFailed.Inc(kind)
	} else {
		inlineResolved.Inc(string(res.Strategy))
	}
	done = true
	return res, err
}

func (in *Inliner) resolve(ctx context.Context, kind string, ref proposal.ImageRef) (Result, error) {
	src := strings.TrimSpace(ref.Src)
	var attempts []error

	if src == "" {
		attempts = append(attempts, errors.New("missing source"))
	} else {
		target, remote := in.locate(src)

		if IsDataURI(src) {
			if mt, ok := passthroughMIME(src); ok {
				return Result{DataURI: src, MIME: mt, Strategy: StrategyDataURI}, nil
			}
		}

		if remote && in.fetcher != nil {
			res, err := in.fetch(ctx, target)
			if err == nil {
				return res, nil
			}
			attempts = append(attempts, fmt.Errorf("fetch: %w", err))
			log.Debug("Fetch failed, falling back to canvas", "src", target, "error", err)
		}

		if err := ctx.Err(); err != nil {
			return Result{}, &AssetError{Kind: kind, Ref: src, Attempts: append(attempts, err)}
		}

		if in.rasterizer != nil {
			data, mt, err := in.rasterizer.Rasterize(ctx, target)
			if err == nil {
				return Result{DataURI: EncodeDataURI(mt, data), MIME: mt, Strategy: StrategyCanvas}, nil
			}
			attempts = append(attempts, fmt.Errorf("canvas: %w", err))
			log.Debug("Canvas re-encode failed", "src", target, "error", err)
		}
	}

	if key := strings.TrimSpace(ref.AssetKey); key != "" {
		if in.table != nil {
			if uri, ok := in.table.Lookup(key); ok {
				mt, _, _ := strings.Cut(strings.TrimPrefix(uri, "data:"), ";")
				log.Debug("Using bundled asset", "src", src, "asset_key", key)
				return Result{DataURI: uri, MIME: mt, Strategy: StrategyAssetTable, AssetKey: key}, nil
			}
		}
		attempts = append(attempts, fmt.Errorf("asset table: no entry for %q", key))
	}

	return Result{}, &AssetError{Kind: kind, Ref: src, Attempts: attempts}
}

// locate resolves src against the base URL and reports whether it is fetched
// over the network.
func (in *Inliner) locate(src string) (string, bool) {
	if IsDataURI(src) {
		return src, false
	}
	u, err := url.Parse(src)
	if err != nil {
		return src, false
	}
	if u.Scheme == "" {
		switch {
		case in.baseURL != nil:
			u = in.baseURL.ResolveReference(u)
		case strings.HasPrefix(src, "//"):
			u.Scheme = "https"
		default:
			return src, false
		}
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return u.String(), true
	}
	return u.String(), false
}

func (in *Inliner) fetch(ctx context.Context, target string) (Result, error) {
	body, contentType, err := in.fetcher.Fetch(ctx, target)
	if err != nil {
		return Result{}, err
	}
	if len(body) == 0 {
		return Result{}, errors.New("empty body")
	}
	mt, ok := MIMEFromContentType(contentType)
	if !ok {
		mt = MIMEFromExtension(target)
	}
	return Result{DataURI: EncodeDataURI(mt, body), MIME: mt, Strategy: StrategyFetch}, nil
}

func displayRef(ref string) string {
	if IsDataURI(ref) && len(ref) > 48 {
		return ref[:48] + "..."
	}
	return ref
}

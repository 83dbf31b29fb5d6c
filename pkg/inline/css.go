package inline

import (
	"context"
	"regexp"
	"strings"

	"github.com/joeblew999/plat-proposal/pkg/proposal"
)

var cssURL = regexp.MustCompile(`(?i)url\(\s*([^)]*?)\s*\)`)

// HasCSSURL reports whether a style declaration references any url(...).
func HasCSSURL(css string) bool {
	return cssURL.MatchString(css)
}

// Background is a rewritten style declaration.
type Background struct {
	CSS      string
	Warnings []string
	// AssetKeys lists the asset table entries that resolved a layer.
	AssetKeys []string
}

// InlineBackground rewrites every url(...) in a style declaration to an
// embedded data URI. Layers that are already data URIs are left alone; layers
// that fail become "none" and produce a warning. Everything outside the
// url(...) tokens is preserved byte for byte.
func (in *Inliner) InlineBackground(ctx context.Context, css, assetKey string) Background {
	return rewriteBackground(ctx, css, assetKey, in.Inline)
}

type resolveFunc func(context.Context, proposal.ImageRef) (Result, error)

func rewriteBackground(ctx context.Context, css, assetKey string, resolve resolveFunc) Background {
	matches := cssURL.FindAllStringSubmatchIndex(css, -1)
	if len(matches) == 0 {
		return Background{CSS: css}
	}

	var (
		b    strings.Builder
		bg   Background
		last int
	)
	for _, m := range matches {
		b.WriteString(css[last:m[0]])
		last = m[1]

		raw := css[m[2]:m[3]]
		cleaned := strings.Trim(strings.TrimSpace(raw), `'"`)
		if cleaned == "" || IsDataURI(cleaned) {
			b.WriteString(css[m[0]:m[1]])
			continue
		}

		res, err := resolve(ctx, proposal.ImageRef{
			Src:      cleaned,
			Kind:     proposal.KindCSSBackground,
			AssetKey: assetKey,
		})
		if err != nil {
			bg.Warnings = append(bg.Warnings, err.Error())
			b.WriteString("none")
			continue
		}
		if res.AssetKey != "" {
			bg.AssetKeys = append(bg.AssetKeys, res.AssetKey)
		}
		b.WriteString("url('" + res.DataURI + "')")
	}
	b.WriteString(css[last:])
	bg.CSS = b.String()
	return bg
}

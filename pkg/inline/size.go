package inline

import (
	"bytes"
	"fmt"
	"image"
	"math"
	"strings"
)

const (
	MinImageWidth     = 24
	MaxImageWidth     = 680
	DefaultImageWidth = 320
)

// ClampWidth rounds w and clamps it to [MinImageWidth, MaxImageWidth].
// Unknown widths (zero, negative, NaN) use DefaultImageWidth.
func ClampWidth(w float64) int {
	if math.IsNaN(w) || math.IsInf(w, 0) || w <= 0 {
		return DefaultImageWidth
	}
	n := int(math.Round(w))
	if n < MinImageWidth {
		return MinImageWidth
	}
	if n > MaxImageWidth {
		return MaxImageWidth
	}
	return n
}

// IntrinsicSize reads the pixel size of a raster data URI.
func IntrinsicSize(dataURI string) (w, h int, ok bool) {
	if !IsDataURI(dataURI) {
		return 0, 0, false
	}
	_, data, err := ParseDataURI(dataURI)
	if err != nil {
		return 0, 0, false
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, false
	}
	return cfg.Width, cfg.Height, true
}

// SizeStyle prefixes style with explicit block sizing for width, dropping any
// earlier width, height or display declaration.
func SizeStyle(style string, width int) string {
	decls := []string{"display:block", fmt.Sprintf("width:%dpx", width), "height:auto"}
	for _, d := range SplitDeclarations(style) {
		prop, _, _ := strings.Cut(d, ":")
		switch strings.ToLower(strings.TrimSpace(prop)) {
		case "width", "height", "display":
			continue
		}
		decls = append(decls, d)
	}
	return strings.Join(decls, "; ") + ";"
}

// SplitDeclarations splits a style attribute on top-level semicolons, so
// values such as url('data:image/png;base64,...') stay intact. Empty
// declarations are dropped and the rest are trimmed.
func SplitDeclarations(style string) []string {
	var (
		out   []string
		depth int
		quote byte
		start int
	)
	flush := func(end int) {
		if d := strings.TrimSpace(style[start:end]); d != "" {
			out = append(out, d)
		}
	}
	for i := 0; i < len(style); i++ {
		c := style[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '(':
			depth++
		case c == ')':
			if depth > 0 {
				depth--
			}
		case c == ';' && depth == 0:
			flush(i)
			start = i + 1
		}
	}
	flush(len(style))
	return out
}

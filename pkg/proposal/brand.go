package proposal

import (
	"fmt"
	"strings"
)

// FallbackFontFamily is used when the brand names no font.
const FallbackFontFamily = "-apple-system, Segoe UI, Roboto, Arial, sans-serif"

// BrandConfig holds the style tokens of the exported document.
type BrandConfig struct {
	FontFamily     string `json:"fontFamily,omitempty"`
	ColorText      string `json:"colorText,omitempty"`
	ColorHeading   string `json:"colorHeading,omitempty"`
	ColorMuted     string `json:"colorMuted,omitempty"`
	PriceCardShade string `json:"priceCardShade,omitempty"`
}

// DefaultBrand is the neutral palette missing tokens fall back to.
func DefaultBrand() BrandConfig {
	return BrandConfig{
		FontFamily:     FallbackFontFamily,
		ColorText:      "#333333",
		ColorHeading:   "#0B1220",
		ColorMuted:     "#6B6F76",
		PriceCardShade: "#F3F4F9",
	}
}

// Normalize returns a copy with every empty token replaced by the fallback.
func (b BrandConfig) Normalize() BrandConfig {
	d := DefaultBrand()
	out := BrandConfig{
		FontFamily:     EmailSafeFontStack(b.FontFamily),
		ColorText:      firstNonBlank(b.ColorText, d.ColorText),
		ColorHeading:   firstNonBlank(b.ColorHeading, d.ColorHeading),
		ColorMuted:     firstNonBlank(b.ColorMuted, d.ColorMuted),
		PriceCardShade: firstNonBlank(b.PriceCardShade, d.PriceCardShade),
	}
	if out.FontFamily == "" {
		out.FontFamily = d.FontFamily
	}
	return out
}

// EmailSafeFontStack expands a single family name into a stack ending in
// web-safe fallbacks. Values that already list fallbacks are kept as given.
func EmailSafeFontStack(family string) string {
	family = strings.TrimSpace(family)
	if family == "" || strings.Contains(family, ",") {
		return family
	}
	name := strings.Trim(family, `'"`)
	switch strings.ToLower(name) {
	case "serif", "sans-serif", "monospace":
		return name
	}
	if isMonoName(name) {
		return fmt.Sprintf("'%s', 'Courier New', Courier, monospace", name)
	}
	if isSerifName(name) {
		return fmt.Sprintf("'%s', Georgia, 'Times New Roman', serif", name)
	}
	return fmt.Sprintf("'%s', Arial, Helvetica, sans-serif", name)
}

func isMonoName(name string) bool {
	n := strings.ToLower(name)
	return strings.Contains(n, "mono") || strings.Contains(n, "code") || strings.Contains(n, "courier")
}

func isSerifName(name string) bool {
	n := strings.ToLower(name)
	if strings.Contains(n, "sans") {
		return false
	}
	for _, s := range []string{"serif", "georgia", "garamond", "times", "merriweather", "playfair"} {
		if strings.Contains(n, s) {
			return true
		}
	}
	return false
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

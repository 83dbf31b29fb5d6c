package proposal

import (
	"errors"
	"fmt"
	"image"
	"strings"
)

// ImageKind selects how an image is rendered.
type ImageKind string

const (
	KindImage         ImageKind = "img"
	KindCSSBackground ImageKind = "css-bg"
)

// BannerWidth is the rendered width of the proposal banner.
const BannerWidth = 680

// ImageRef references an image to embed.
type ImageRef struct {
	Src    string    `json:"src,omitempty"`
	Kind   ImageKind `json:"kind,omitempty"`
	CSS    string    `json:"css,omitempty"`
	Width  int       `json:"width,omitempty"`
	Height int       `json:"height,omitempty"`
	Alt    string    `json:"alt,omitempty"`
	// AssetKey names a bundled pictogram used when the source cannot be loaded.
	AssetKey string `json:"assetKey,omitempty"`
	// Pixels holds an already drawn canvas. It is never serialized.
	Pixels image.Image `json:"-"`
}

// EffectiveKind returns Kind, defaulting to KindImage.
func (r ImageRef) EffectiveKind() ImageKind {
	if r.Kind == "" {
		return KindImage
	}
	return r.Kind
}

// IsDataURI reports whether Src is already embedded.
func (r ImageRef) IsDataURI() bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(r.Src)), "data:")
}

// Validate enforces the per-kind source rules.
func (r ImageRef) Validate() error {
	src := strings.TrimSpace(r.Src)
	switch r.EffectiveKind() {
	case KindImage:
		if src == "" && r.Pixels == nil {
			return errors.New("img requires src")
		}
	case KindCSSBackground:
		css := strings.TrimSpace(r.CSS)
		if (src == "") == (css == "") {
			return errors.New("css-bg requires exactly one of src or css")
		}
	default:
		return fmt.Errorf("unknown image kind %q", r.Kind)
	}
	return nil
}

// BannerKind tags the banner variant.
type BannerKind string

const (
	BannerURL          BannerKind = "url"
	BannerInlineImage  BannerKind = "image"
	BannerInlineCanvas BannerKind = "canvas"
)

// Banner is the banner variant: a plain URL, an inline image element, or an
// inline canvas.
type Banner struct {
	Kind   BannerKind  `json:"kind"`
	URL    string      `json:"url,omitempty"`
	Image  *ImageRef   `json:"image,omitempty"`
	Canvas image.Image `json:"-"`
}

// BannerFromURL returns a URL banner.
func BannerFromURL(u string) *Banner {
	return &Banner{Kind: BannerURL, URL: u}
}

// BannerFromCanvas returns a canvas banner.
func BannerFromCanvas(img image.Image) *Banner {
	return &Banner{Kind: BannerInlineCanvas, Canvas: img}
}

// Validate checks that the variant carries its payload.
func (b *Banner) Validate() error {
	switch b.Kind {
	case BannerURL:
		if strings.TrimSpace(b.URL) == "" {
			return errors.New("url banner without url")
		}
	case BannerInlineImage:
		if b.Image == nil {
			return errors.New("image banner without image")
		}
		return b.Image.Validate()
	case BannerInlineCanvas:
		if b.Canvas == nil {
			return errors.New("canvas banner without pixels")
		}
	default:
		return fmt.Errorf("unknown banner kind %q", b.Kind)
	}
	return nil
}

// Ref normalizes the banner into an ImageRef. ok is false for an empty banner.
func (b *Banner) Ref() (ref ImageRef, ok bool) {
	if b == nil {
		return ImageRef{}, false
	}
	switch b.Kind {
	case BannerURL:
		ref = ImageRef{Src: strings.TrimSpace(b.URL), Kind: KindImage}
	case BannerInlineImage:
		if b.Image == nil {
			return ImageRef{}, false
		}
		ref = *b.Image
	case BannerInlineCanvas:
		if b.Canvas == nil {
			return ImageRef{}, false
		}
		ref = ImageRef{Kind: KindImage, Pixels: b.Canvas}
	default:
		return ImageRef{}, false
	}
	if ref.Src == "" && ref.CSS == "" && ref.Pixels == nil {
		return ImageRef{}, false
	}
	if ref.Alt == "" {
		ref.Alt = "Proposal banner"
	}
	ref.Width = BannerWidth
	return ref, true
}

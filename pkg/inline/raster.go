package inline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// MaxCanvasWidth bounds the pixel width of re-encoded images (twice the
// email content width, for high density displays).
const MaxCanvasWidth = 2 * MaxImageWidth

// Rasterizer loads an image into a pixel buffer and re-encodes it.
type Rasterizer interface {
	Rasterize(ctx context.Context, src string) (data []byte, mimeType string, err error)
}

// BitmapRasterizer decodes PNG, JPEG, GIF and WebP sources, draws them onto an
// RGBA canvas and re-encodes as JPEG (for .jpg/.jpeg sources) or PNG.
//
// Sources may be file: URLs, paths relative to Root, http(s) URLs (loaded
// without credentials) or data: URIs.
type BitmapRasterizer struct {
	Root   string
	Client *http.Client
}

// NewBitmapRasterizer creates a rasterizer resolving relative paths under root.
func NewBitmapRasterizer(root string) *BitmapRasterizer {
	return &BitmapRasterizer{Root: root, Client: http.DefaultClient}
}

func (r *BitmapRasterizer) Rasterize(ctx context.Context, src string) ([]byte, string, error) {
	raw, outMIME, err := r.load(ctx, src)
	if err != nil {
		return nil, "", err
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, "", fmt.Errorf("decode: %w", err)
	}
	canvas := drawCanvas(img)

	var buf bytes.Buffer
	switch outMIME {
	case "image/jpeg":
		err = jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: 90})
	default:
		outMIME = "image/png"
		err = png.Encode(&buf, canvas)
	}
	if err != nil {
		return nil, "", fmt.Errorf("encode %s: %w", outMIME, err)
	}
	return buf.Bytes(), outMIME, nil
}

// drawCanvas copies img onto an RGBA buffer anchored at the origin, scaling
// down anything wider than MaxCanvasWidth.
func drawCanvas(img image.Image) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w > MaxCanvasWidth {
		h = h * MaxCanvasWidth / w
		if h < 1 {
			h = 1
		}
		w = MaxCanvasWidth
		canvas := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.ApproxBiLinear.Scale(canvas, canvas.Bounds(), img, b, draw.Src, nil)
		return canvas
	}
	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(canvas, canvas.Bounds(), img, b.Min, draw.Src)
	return canvas
}

// CanvasDataURI encodes an in-memory pixel buffer as a PNG data URI.
func CanvasDataURI(img image.Image) (string, error) {
	if img == nil {
		return "", errors.New("empty canvas")
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, drawCanvas(img)); err != nil {
		return "", fmt.Errorf("encode canvas: %w", err)
	}
	return EncodeDataURI("image/png", buf.Bytes()), nil
}

// load returns the raw bytes of src and the output type chosen by extension.
func (r *BitmapRasterizer) load(ctx context.Context, src string) ([]byte, string, error) {
	if IsDataURI(src) {
		mt, data, err := ParseDataURI(src)
		if err != nil {
			return nil, "", err
		}
		return data, canvasMIME(mt), nil
	}

	u, err := url.Parse(src)
	if err != nil {
		return nil, "", fmt.Errorf("parse source: %w", err)
	}
	outMIME := canvasMIME(MIMEFromExtension(src))

	switch strings.ToLower(u.Scheme) {
	case "file":
		p := u.Path
		if p == "" {
			p = u.Opaque
		}
		data, err := os.ReadFile(filepath.FromSlash(p))
		if err != nil {
			return nil, "", fmt.Errorf("read file: %w", err)
		}
		return data, outMIME, nil
	case "http", "https":
		data, err := r.get(ctx, u.String())
		return data, outMIME, err
	case "":
		if r.Root == "" {
			return nil, "", errors.New("no asset root for local path")
		}
		clean := path.Clean("/" + u.Path)
		data, err := os.ReadFile(filepath.Join(r.Root, filepath.FromSlash(clean)))
		if err != nil {
			return nil, "", fmt.Errorf("read asset: %w", err)
		}
		return data, outMIME, nil
	default:
		return nil, "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
}

func (r *BitmapRasterizer) get(ctx context.Context, rawURL string) ([]byte, error) {
	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("load image: %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// canvasMIME maps a source type to the type the canvas re-encodes to.
func canvasMIME(sourceMIME string) string {
	if sourceMIME == "image/jpeg" {
		return "image/jpeg"
	}
	return "image/png"
}

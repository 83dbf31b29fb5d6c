package inline

import (
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"net/url"
	"path"
	"strings"
)

// DefaultMIME is assumed when neither the response nor the extension names a type.
const DefaultMIME = "image/png"

var extensionMIME = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".webp": "image/webp",
	".avif": "image/avif",
}

// MIMEFromExtension infers an image type from the extension of a URL or path.
func MIMEFromExtension(ref string) string {
	p := ref
	if u, err := url.Parse(ref); err == nil && u.Path != "" {
		p = u.Path
	}
	if m, ok := extensionMIME[strings.ToLower(path.Ext(p))]; ok {
		return m
	}
	return DefaultMIME
}

// MIMEFromContentType returns the media type of a Content-Type header when it
// is an image type.
func MIMEFromContentType(contentType string) (string, bool) {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", false
	}
	if !strings.HasPrefix(mt, "image/") {
		return "", false
	}
	return mt, true
}

// EncodeDataURI builds a base64 data URI.
func EncodeDataURI(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// IsDataURI reports whether s uses the data: scheme.
func IsDataURI(s string) bool {
	s = strings.TrimSpace(s)
	return len(s) >= 5 && strings.EqualFold(s[:5], "data:")
}

// ParseDataURI splits a data URI into its media type and decoded payload.
func ParseDataURI(uri string) (string, []byte, error) {
	uri = strings.TrimSpace(uri)
	if !IsDataURI(uri) {
		return "", nil, errors.New("not a data uri")
	}
	header, payload, ok := strings.Cut(uri[5:], ",")
	if !ok {
		return "", nil, errors.New("data uri without payload")
	}
	params := strings.Split(header, ";")
	mediaType := strings.ToLower(strings.TrimSpace(params[0]))
	if mediaType == "" {
		mediaType = "text/plain"
	}
	isBase64 := false
	for _, p := range params[1:] {
		if strings.EqualFold(strings.TrimSpace(p), "base64") {
			isBase64 = true
		}
	}
	if !isBase64 {
		data, err := url.PathUnescape(payload)
		if err != nil {
			return "", nil, fmt.Errorf("data uri payload: %w", err)
		}
		return mediaType, []byte(data), nil
	}
	payload = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\r', '\n':
			return -1
		}
		return r
	}, payload)
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return "", nil, fmt.Errorf("data uri payload: %w", err)
		}
	}
	return mediaType, data, nil
}

// passthroughMIME reports whether a data URI can be kept verbatim.
// PNG and JPEG are final; SVG is vector and has no raster re-encode.
func passthroughMIME(uri string) (string, bool) {
	header, _, ok := strings.Cut(strings.TrimSpace(uri)[5:], ",")
	if !ok {
		return "", false
	}
	mt := strings.ToLower(strings.TrimSpace(strings.Split(header, ";")[0]))
	switch mt {
	case "image/png", "image/jpeg", "image/svg+xml":
		return mt, true
	}
	return "", false
}

package mail

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var dataImageURI = regexp.MustCompile(`data:(image/[A-Za-z0-9.+-]+);base64,([A-Za-z0-9+/]+=*)`)

var mimeExtension = map[string]string{
	"image/png":     "png",
	"image/jpeg":    "jpg",
	"image/gif":     "gif",
	"image/svg+xml": "svg",
	"image/webp":    "webp",
	"image/avif":    "avif",
}

func extensionFor(mimeType string) string {
	if ext, ok := mimeExtension[strings.ToLower(mimeType)]; ok {
		return ext
	}
	return "bin"
}

// ExtractInlineImages replaces every base64 image data URI in html with a
// cid: reference and returns one Part per distinct URI, in order of first
// appearance. Repeated URIs share a Content-ID. URIs whose payload does not
// decode are left in place.
func ExtractInlineImages(html string) (string, []Part) {
	var parts []Part
	ids := make(map[string]string)
	token := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]

	out := dataImageURI.ReplaceAllStringFunc(html, func(uri string) string {
		if cid, ok := ids[uri]; ok {
			return "cid:" + cid
		}
		m := dataImageURI.FindStringSubmatch(uri)
		content, err := base64.StdEncoding.DecodeString(m[2])
		if err != nil {
			return uri
		}
		n := len(parts) + 1
		mimeType := strings.ToLower(m[1])
		cid := fmt.Sprintf("image%d.%s@proposal.local", n, token)
		ids[uri] = cid
		parts = append(parts, Part{
			MIME:      mimeType,
			Filename:  fmt.Sprintf("image-%d.%s", n, extensionFor(mimeType)),
			ContentID: cid,
			Content:   content,
		})
		return "cid:" + cid
	})
	return out, parts
}

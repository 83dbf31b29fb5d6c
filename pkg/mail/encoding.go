package mail

import (
	"encoding/base64"
	"fmt"
	"io"
	"mime/quotedprintable"
	"strings"
)

const (
	crlf = "\r\n"

	// LineLength is the wrapped line length of encoded bodies.
	LineLength = 76
)

// EncodeQuotedPrintable encodes s as quoted-printable. CRLF pairs stay hard
// line breaks; bare CR and LF bytes are escaped so decoding restores s
// exactly. Lines soft-wrap at 76 characters, "=" becomes "=3D" and trailing
// spaces or tabs are escaped.
func EncodeQuotedPrintable(s string) string {
	var b strings.Builder
	for i, line := range strings.Split(s, crlf) {
		if i > 0 {
			b.WriteString(crlf)
		}
		w := quotedprintable.NewWriter(&b)
		w.Binary = true
		// Writes to a strings.Builder cannot fail.
		_, _ = io.WriteString(w, line)
		_ = w.Close()
	}
	return b.String()
}

// DecodeQuotedPrintable reverses EncodeQuotedPrintable.
func DecodeQuotedPrintable(s string) (string, error) {
	out, err := io.ReadAll(quotedprintable.NewReader(strings.NewReader(s)))
	if err != nil {
		return "", fmt.Errorf("decode quoted-printable: %w", err)
	}
	return string(out), nil
}

// ChunkBase64 encodes data with the standard alphabet, wrapped to 76
// characters per line and joined with CRLF.
func ChunkBase64(data []byte) string {
	encoded := base64.StdEncoding.EncodeToString(data)
	var b strings.Builder
	b.Grow(len(encoded) + len(encoded)/LineLength*2)
	for i := 0; i < len(encoded); i += LineLength {
		if i > 0 {
			b.WriteString(crlf)
		}
		b.WriteString(encoded[i:min(i+LineLength, len(encoded))])
	}
	return b.String()
}

// normalizeNewlines converts CR, LF and CRLF line breaks to CRLF.
func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, crlf, "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.ReplaceAll(s, "\n", crlf)
}

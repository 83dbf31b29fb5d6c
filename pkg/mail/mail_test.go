package mail

import (
	"bytes"
	"encoding/base64"
	"mime"
	"net/mail"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMetadata() Metadata {
	return Metadata{
		From:      "Sales <sales@example.com>",
		To:        "buyer@acme.example",
		Subject:   "Proposal for Acme Pty Ltd",
		Date:      time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC),
		MessageID: "<ACME-2024-017@proposal.local>",
	}
}

func TestQuotedPrintable(t *testing.T) {
	cases := map[string]string{
		"ascii":          "Hello world",
		"equals":         "a=b; c==d",
		"trailing space": "price   \r\nnext line\t",
		"long line":      strings.Repeat("0123456789", 30),
		"utf-8":          "Prix: 1 890 € par mois",
		"bare newlines":  "one\ntwo\rthree\r\n",
		"html":           `<td style="padding:0 24px;font-family:Arial">Total</td>`,
	}

	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			encoded := EncodeQuotedPrintable(input)
			for _, line := range strings.Split(encoded, crlf) {
				assert.LessOrEqual(t, len(line), LineLength)
				assert.NotContains(t, line, "\n")
			}
			decoded, err := DecodeQuotedPrintable(encoded)
			require.NoError(t, err)
			assert.Equal(t, input, decoded)
		})
	}

	t.Run("escapes equals and trailing whitespace", func(t *testing.T) {
		assert.Equal(t, "a=3Db", EncodeQuotedPrintable("a=b"))
		assert.Equal(t, "end=20", EncodeQuotedPrintable("end "))
	})
}

func TestChunkBase64(t *testing.T) {
	data := bytes.Repeat([]byte{0x00, 0x7f, 0xff, 0x42}, 250)
	encoded := ChunkBase64(data)

	lines := strings.Split(encoded, crlf)
	require.Greater(t, len(lines), 1)
	for i, line := range lines {
		if i < len(lines)-1 {
			assert.Len(t, line, LineLength)
		} else {
			assert.LessOrEqual(t, len(line), LineLength)
		}
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(encoded, crlf, ""))
	require.NoError(t, err)
	assert.Equal(t, data, decoded)

	assert.Empty(t, ChunkBase64(nil))
}

func TestExtractInlineImages(t *testing.T) {
	png := base64.StdEncoding.EncodeToString([]byte("png-bytes"))
	jpg := base64.StdEncoding.EncodeToString([]byte("jpeg-bytes"))
	doc := `<img src="data:image/png;base64,` + png + `">` +
		`<div style="background-image:url(data:image/jpeg;base64,` + jpg + `)"></div>` +
		`<img src="data:image/png;base64,` + png + `">`

	out, parts := ExtractInlineImages(doc)
	require.Len(t, parts, 2)
	assert.NotContains(t, out, "data:image")

	assert.Equal(t, "image/png", parts[0].MIME)
	assert.Equal(t, "image-1.png", parts[0].Filename)
	assert.Equal(t, []byte("png-bytes"), parts[0].Content)
	assert.Equal(t, "image/jpeg", parts[1].MIME)
	assert.Equal(t, "image-2.jpg", parts[1].Filename)
	assert.Equal(t, []byte("jpeg-bytes"), parts[1].Content)

	assert.Equal(t, 2, strings.Count(out, "cid:"+parts[0].ContentID))
	assert.Equal(t, 1, strings.Count(out, "cid:"+parts[1].ContentID))
	assert.True(t, strings.HasPrefix(parts[0].ContentID, "image1."))
	assert.True(t, strings.HasSuffix(parts[0].ContentID, "@proposal.local"))

	t.Run("no images", func(t *testing.T) {
		out, parts := ExtractInlineImages("<p>plain</p>")
		assert.Equal(t, "<p>plain</p>", out)
		assert.Empty(t, parts)
	})
}

func TestCompose(t *testing.T) {
	doc := `<!DOCTYPE html><html><head><meta name="viewport" content="width=device-width"></head>` +
		`<body><img src="data:image/png;base64,` + base64.StdEncoding.EncodeToString([]byte("one")) + `">` +
		`<img src="data:image/gif;base64,` + base64.StdEncoding.EncodeToString([]byte("two")) + `"></body></html>`
	htmlBody, parts := ExtractInlineImages(doc)
	text := PlainText(doc)

	raw, err := Compose(testMetadata(), htmlBody, text, parts)
	require.NoError(t, err)

	t.Run("header order", func(t *testing.T) {
		head, _, found := strings.Cut(raw, crlf+crlf)
		require.True(t, found)
		var names []string
		for _, line := range strings.Split(head, crlf) {
			name, _, _ := strings.Cut(line, ":")
			names = append(names, name)
		}
		assert.Equal(t, []string{"From", "To", "Subject", "Date", "Message-ID", "MIME-Version", "Content-Type"}, names)
		assert.Contains(t, head, "Date: Tue, 05 Mar 2024 10:30:00 +0000")
		assert.Contains(t, head, "Message-ID: <ACME-2024-017@proposal.local>")
		assert.Contains(t, head, `multipart/related; type="multipart/alternative"; boundary="rel-`)
	})

	t.Run("crlf only", func(t *testing.T) {
		assert.NotContains(t, strings.ReplaceAll(raw, crlf, ""), "\n")
	})

	t.Run("one content id per part", func(t *testing.T) {
		assert.Equal(t, len(parts), strings.Count(raw, "Content-ID: <"))
		for _, p := range parts {
			assert.Contains(t, raw, "Content-ID: <"+p.ContentID+">")
		}
		assert.Contains(t, raw, `Content-Disposition: inline; filename="image-2.gif"`)
	})

	t.Run("parses back", func(t *testing.T) {
		msg, err := mail.ReadMessage(strings.NewReader(raw))
		require.NoError(t, err)
		assert.Equal(t, "Proposal for Acme Pty Ltd", msg.Header.Get("Subject"))
		date, err := msg.Header.Date()
		require.NoError(t, err)
		assert.True(t, date.Equal(testMetadata().Date))
	})

	t.Run("validates", func(t *testing.T) {
		assert.Empty(t, ValidateMessage(raw))
	})

	t.Run("encoded subject", func(t *testing.T) {
		meta := testMetadata()
		meta.Subject = "Angebot für Müller"
		raw, err := Compose(meta, "<p>x</p>", "x", nil)
		require.NoError(t, err)
		assert.Contains(t, raw, "Subject: =?utf-8?q?")
		msg, err := mail.ReadMessage(strings.NewReader(raw))
		require.NoError(t, err)
		decoded, err := new(mime.WordDecoder).DecodeHeader(msg.Header.Get("Subject"))
		require.NoError(t, err)
		assert.Equal(t, "Angebot für Müller", decoded)
	})

	t.Run("header injection", func(t *testing.T) {
		meta := testMetadata()
		meta.Subject = "Hello\r\nBcc: victim@example.com"
		raw, err := Compose(meta, "<p>x</p>", "x", nil)
		require.NoError(t, err)
		assert.NotContains(t, raw, "\r\nBcc:")
	})
}

func TestComposeMetadataErrors(t *testing.T) {
	t.Run("missing fields", func(t *testing.T) {
		meta := testMetadata()
		meta.Subject = " "
		meta.Date = time.Time{}
		_, err := Compose(meta, "", "", nil)
		require.ErrorIs(t, err, ErrMissingMetadata)
		assert.Contains(t, err.Error(), "Subject, Date")
	})

	t.Run("bad from", func(t *testing.T) {
		meta := testMetadata()
		meta.From = "not an address"
		_, err := Compose(meta, "", "", nil)
		assert.ErrorIs(t, err, ErrInvalidAddress)
	})

	t.Run("bad to", func(t *testing.T) {
		meta := testMetadata()
		meta.To = "a@b.example, @@"
		_, err := Compose(meta, "", "", nil)
		assert.ErrorIs(t, err, ErrInvalidAddress)
	})
}

func TestPlainText(t *testing.T) {
	doc := `<html><head><title>Hidden</title><style>.x{}</style></head><body>` +
		`<h1>Title</h1><p>Hello&nbsp;world</p><ul><li>One</li><li>Two</li></ul>` +
		`<table><tr><td>Item</td><td>$10</td></tr></table>` +
		`<a href="https://example.com/coverage">Coverage map</a><br>` +
		`<a href="https://example.com">https://example.com</a><img src="x.png" alt="pic">` +
		`<script>alert(1)</script></body></html>`

	text := PlainText(doc)
	assert.Contains(t, text, "Title")
	assert.Contains(t, text, "Hello world")
	assert.Contains(t, text, "- One\n- Two")
	assert.Contains(t, text, "Item $10")
	assert.Contains(t, text, "Coverage map (https://example.com/coverage)")
	assert.NotContains(t, text, "https://example.com (https://example.com)")
	assert.NotContains(t, text, "Hidden")
	assert.NotContains(t, text, "alert")
	assert.NotContains(t, text, "<")
	assert.NotContains(t, text, "\n\n\n")
}

func TestValidateMessage(t *testing.T) {
	t.Run("dangling cid", func(t *testing.T) {
		raw, err := Compose(testMetadata(), `<img src="cid:missing@proposal.local">`, "x", nil)
		require.NoError(t, err)
		assert.Contains(t, ValidateMessage(raw), "Dangling cid reference: missing@proposal.local")
	})

	t.Run("unreferenced part", func(t *testing.T) {
		parts := []Part{{MIME: "image/png", ContentID: "orphan@proposal.local", Content: []byte("x")}}
		raw, err := Compose(testMetadata(), "<p>no images</p>", "x", parts)
		require.NoError(t, err)
		assert.Contains(t, ValidateMessage(raw), "Unreferenced inline part: orphan@proposal.local")
	})

	t.Run("bare lf and missing headers", func(t *testing.T) {
		issues := ValidateMessage("Subject: hi\nContent-Type: text/plain\n\nbody\n")
		assert.Contains(t, issues, "Bare LF line ending")
		assert.Contains(t, issues, "Missing From header")
		assert.Contains(t, issues, "Content-Type is not multipart")
	})
}

func TestValidateHTML(t *testing.T) {
	t.Run("clean", func(t *testing.T) {
		doc := `<!DOCTYPE html><html><head><meta name="viewport" content="width=device-width"></head>` +
			`<body><table><tr><td><img src="data:image/png;base64,AAAA"></td></tr></table></body></html>`
		assert.Empty(t, ValidateHTML(doc))
	})

	t.Run("problems", func(t *testing.T) {
		doc := `<html><body><img src="https://cdn.example.com/a.png" onerror="x()">` +
			`<div style="display:flex;background-image:url(https://cdn.example.com/b.png)"></div>` +
			`<a href="javascript:void(0)">x</a><script>1</script></body></html>`
		issues := ValidateHTML(doc)
		assert.Contains(t, issues, "Missing DOCTYPE declaration")
		assert.Contains(t, issues, "Missing viewport meta tag")
		assert.Contains(t, issues, "External image reference: https://cdn.example.com/a.png")
		assert.Contains(t, issues, "External background image reference")
		assert.Contains(t, issues, "Script tag present")
		assert.Contains(t, issues, "Inline event handler present")
		assert.Contains(t, issues, "javascript: URL present")
		assert.Contains(t, issues, "WARNING: CSS flexbox not supported in many email clients")
	})
}

func TestMbox(t *testing.T) {
	first, err := Compose(testMetadata(), "<p>first</p>", "first", nil)
	require.NoError(t, err)
	meta := testMetadata()
	meta.Subject = "Second proposal"
	second, err := Compose(meta, "<p>Team notes</p>", "Team notes", nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, AppendMbox(&buf, meta.From, meta.Date, first))
	require.NoError(t, AppendMbox(&buf, meta.From, meta.Date, second))
	assert.True(t, strings.HasPrefix(buf.String(), "From sales@example.com "))

	msgs, err := ReadMbox(&buf)
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	subjects := make([]string, 0, len(msgs))
	for _, m := range msgs {
		msg, err := mail.ReadMessage(strings.NewReader(m))
		require.NoError(t, err)
		subjects = append(subjects, msg.Header.Get("Subject"))
	}
	assert.Equal(t, []string{"Proposal for Acme Pty Ltd", "Second proposal"}, subjects)
}

package extract

import (
	"bytes"
	"context"
	"errors"
	"io"
	"regexp"
	"strings"

	"golang.org/x/text/encoding/htmlindex"

	"github.com/openresearch/deepresearch/internal/fetch"
)

var (
	ErrInvalidURL         = errors.New("extract: invalid url")
	ErrBadServerResponse  = errors.New("extract: bad server response")
	ErrCannotDecodeRawData = errors.New("extract: cannot decode raw data")
	ErrCannotParseResponse = errors.New("extract: cannot parse response")
)

// Extractor converts a page at url into plain text suitable for the agent's
// working context.
type Extractor interface {
	ExtractContent(ctx context.Context, url string) (string, error)
}

// minUsableTextLength is the threshold below which the structured extraction
// result is considered too thin to be useful, triggering the regex fallback.
const minUsableTextLength = 100

var anyTagRe = regexp.MustCompile(`(?s)<[^>]+>`)

// GenericWebExtractor fetches a page through its fetch.Client, with that
// client's configured user agent and no Accept header, and extracts its
// readable text from the first of <article>/<main>/<body> holding at least
// minUsableTextLength characters, falling back to a crude tag-stripping
// pass when the structured result is too thin to be useful.
type GenericWebExtractor struct {
	HTTPClient *fetch.Client
}

func (e GenericWebExtractor) ExtractContent(ctx context.Context, url string) (string, error) {
	body, contentType, err := e.HTTPClient.Get(ctx, url)
	if err != nil {
		return "", err
	}
	body = decodeToUTF8(body, contentType)
	doc := FromHTML(body)
	if len(doc.Text) >= minUsableTextLength {
		return doc.Text, nil
	}
	fallback := stripTagsFallback(body)
	if len(fallback) > len(doc.Text) {
		return fallback, nil
	}
	return doc.Text, nil
}

// decodeToUTF8 converts body to UTF-8 using the charset declared in the
// response's Content-Type header, if any. Pages with no declared charset,
// an already-UTF-8 charset, or an unrecognized charset name pass through
// unchanged rather than failing the extraction.
func decodeToUTF8(body []byte, contentType string) []byte {
	charset := charsetFromContentType(contentType)
	if charset == "" {
		return body
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return body
	}
	decoded, err := io.ReadAll(enc.NewDecoder().Reader(bytes.NewReader(body)))
	if err != nil {
		return body
	}
	return decoded
}

func charsetFromContentType(contentType string) string {
	const marker = "charset="
	idx := strings.Index(strings.ToLower(contentType), marker)
	if idx < 0 {
		return ""
	}
	rest := contentType[idx+len(marker):]
	if semi := strings.IndexByte(rest, ';'); semi >= 0 {
		rest = rest[:semi]
	}
	rest = strings.Trim(strings.TrimSpace(rest), `"'`)
	if rest == "" || strings.EqualFold(rest, "utf-8") || strings.EqualFold(rest, "utf8") {
		return ""
	}
	return rest
}

func stripTagsFallback(input []byte) string {
	s := string(input)
	// Drop script/style blocks wholesale; their text isn't page content.
	s = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`).ReplaceAllString(s, " ")
	s = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`).ReplaceAllString(s, " ")
	s = anyTagRe.ReplaceAllString(s, " ")
	return normalizeWhitespace(s)
}

package preprocess

import (
	"html"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Placeholder tokens substituted for handles, hashtags and short links
const (
	UserToken = "@USER"
	TagToken  = "#TAG"
	URLToken  = "URL"
)

var (
	handlePattern    = regexp.MustCompile(`@[\p{L}\p{N}_]+`)
	hashtagPattern   = regexp.MustCompile(`#[\p{L}\p{N}_]+`)
	shortLinkPattern = regexp.MustCompile(`https?://t\.co/[\p{L}\p{N}_]+`)
)

// Normalize canonicalizes text for span extraction. It applies NFKC and HTML
// entity decoding, replaces @handles, #hashtags and t.co links with
// placeholder tokens, and collapses whitespace. The result is a fixed point:
// Normalize(Normalize(x)) == Normalize(x).
func Normalize(text string) string {
	for {
		next := normalizePass(text)
		if next == text {
			return text
		}
		text = next
	}
}

func normalizePass(text string) string {
	text = canonicalize(text)
	text = handlePattern.ReplaceAllLiteralString(text, " "+UserToken+" ")
	text = hashtagPattern.ReplaceAllLiteralString(text, " "+TagToken+" ")
	text = shortLinkPattern.ReplaceAllLiteralString(text, " "+URLToken+" ")
	return strings.Join(strings.Fields(text), " ")
}

// canonicalize applies NFKC and entity decoding until neither changes the
// text, so escaped input nested to any depth such as "&amp;amp;lt;" fully
// decodes. Every pass that changes the text after the first removes at
// least one entity, so the loop ends.
func canonicalize(text string) string {
	for {
		next := html.UnescapeString(norm.NFKC.String(text))
		if next == text {
			return text
		}
		text = next
	}
}

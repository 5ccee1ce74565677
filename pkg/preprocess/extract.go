package preprocess

import (
	"iter"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// markerPattern matches a spoiler marker phrase followed by a colon. Longer
// phrases come first so "spoiler alert:" is not cut at "spoiler".
var markerPattern = regexp.MustCompile(
	`(?:🚨\x{FE0F}?)*\s*(?:alerta de spoiler|alerta spoiler|spoiler alert|spoiler)\s*(?:🚨\x{FE0F}?)*\s*:`,
)

// trailingAside matches a parenthetical remark closing the span
var trailingAside = regexp.MustCompile(`\s*\([^()]*\)\s*$`)

// SpoilerSpans yields the text following the first spoiler marker in text,
// or nothing when there is no marker or the remainder is blank. Text should
// already be normalized.
func SpoilerSpans(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		if span, ok := ExtractSpoiler(text); ok {
			yield(span)
		}
	}
}

// ExtractSpoiler returns the span after the first marker. Matching is case
// insensitive but the span keeps the original casing.
func ExtractSpoiler(text string) (string, bool) {
	lowered, offsets := lowerWithOffsets(text)
	loc := markerPattern.FindStringIndex(lowered)
	if loc == nil {
		return "", false
	}

	span := text[offsets[loc[1]]:]
	if trimmed := trimBoundary(trailingAside.ReplaceAllString(span, "")); trimmed != "" {
		span = trimmed
	} else {
		span = trimBoundary(span)
	}
	return span, span != ""
}

func trimBoundary(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '(' || r == ')' || r == '*'
	})
}

// lowerWithOffsets lowercases text rune by rune. offsets[i] is the byte offset
// in text of the rune that produced lowered[i]; offsets[len(lowered)] is
// len(text). Lowercasing can change a rune's encoded width, so match indexes
// in lowered are translated through offsets before slicing text.
func lowerWithOffsets(text string) (string, []int) {
	var b strings.Builder
	b.Grow(len(text))
	offsets := make([]int, 0, len(text)+1)

	for i, r := range text {
		if r == utf8.RuneError {
			if _, size := utf8.DecodeRuneInString(text[i:]); size == 1 {
				b.WriteByte(text[i])
				offsets = append(offsets, i)
				continue
			}
		}
		lr := unicode.ToLower(r)
		n, _ := b.WriteRune(lr)
		for j := 0; j < n; j++ {
			offsets = append(offsets, i)
		}
	}
	offsets = append(offsets, len(text))
	return b.String(), offsets
}

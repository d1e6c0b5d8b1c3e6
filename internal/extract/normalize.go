package extract

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// DefaultExcerptLength is the excerpt size in runes.
const DefaultExcerptLength = 200

// LinkPlaceholder replaces parenthesized URLs when link removal is enabled.
const LinkPlaceholder = "(links)"

// linkPattern matches a parenthesized http(s) URL token, e.g. "(https://x.com/y)".
var linkPattern = regexp.MustCompile(`\(https?://[^\s]+\)`)

// Clean normalizes already-stripped text: NFKC, whitespace collapsing,
// symbol stripping and optional link masking. Clean is idempotent.
func Clean(text string, removeLinks bool) string {
	// Symbols are stripped before collapsing so that removing an emoji
	// between words never leaves a double space behind.
	t := norm.NFKC.String(text)
	t = StripSymbols(t)
	t = CollapseWhitespace(t)
	if removeLinks {
		t = linkPattern.ReplaceAllString(t, LinkPlaceholder)
	}
	return t
}

// CollapseWhitespace reduces every run of whitespace to a single space and
// trims both ends.
func CollapseWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	space := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = true
			continue
		}
		space = false
		b.WriteRune(r)
	}
	return strings.TrimRight(b.String(), " ")
}

// StripSymbols removes characters in the Unicode "Symbol, other" category.
// This covers most emoji glyphs but is a heuristic, not a complete emoji
// filter: multi-rune emoji sequences built from other categories pass through.
func StripSymbols(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.Is(unicode.So, r) {
			return -1
		}
		return r
	}, s)
}

// CleanTitle normalizes a page title: NFKC, symbol stripping and trimming.
// Titles skip the heavier Clean pipeline (no link masking, no truncation).
func CleanTitle(s string) string {
	return strings.TrimSpace(StripSymbols(norm.NFKC.String(s)))
}

// TruncateWords keeps the first limit whitespace-delimited tokens of s,
// rejoined with single spaces. Input with at most limit tokens comes back
// with only its spacing normalized.
func TruncateWords(s string, limit int) string {
	tokens := strings.Fields(s)
	if len(tokens) > limit {
		tokens = tokens[:limit]
	}
	return strings.Join(tokens, " ")
}

// Excerpt returns a prefix of at most max runes, with an ellipsis suffix when
// the source is longer.
func Excerpt(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

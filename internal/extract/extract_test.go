package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextStripsMarkup(t *testing.T) {
	got, err := Text(`<html><body><p>Hello</p><p>world</p></body></html>`)
	require.NoError(t, err)
	assert.Equal(t, "Hello world", got)
}

func TestTextDropsScriptAndStyle(t *testing.T) {
	got, err := Text(`<html><head><style>p{color:red}</style></head>` +
		`<body><script>alert(1)</script><p>visible</p><noscript>hidden</noscript></body></html>`)
	require.NoError(t, err)
	assert.Equal(t, "visible", got)
}

func TestTextCollapsesInterElementWhitespace(t *testing.T) {
	got, err := Text("<div>\n  <span>a</span>\n\t<span>b</span>\n</div>")
	require.NoError(t, err)
	assert.Equal(t, "a b", got)
}

func TestTitleOf(t *testing.T) {
	assert.Equal(t, "My Page", TitleOf(`<html><head><title> My Page </title></head><body/></html>`))
	assert.Equal(t, "", TitleOf(`<html><body><p>no title</p></body></html>`))
}

func TestCleanNFKC(t *testing.T) {
	// Fullwidth digits and the ﬁ ligature decompose under NFKC.
	assert.Equal(t, "123 fi", Clean("１２３ ﬁ", false))
}

func TestCleanCollapsesWhitespace(t *testing.T) {
	assert.Equal(t, "a b c", Clean("  a\t\tb \n c  ", false))
}

func TestCleanStripsEmoji(t *testing.T) {
	got := Clean("sunny 😀 day ☀", false)
	assert.Equal(t, "sunny day", got)
	assert.NotContains(t, got, "😀")
}

func TestCleanMasksLinks(t *testing.T) {
	got := Clean("Visit (https://x.com/y) now", true)
	assert.Equal(t, "Visit (links) now", got)
}

func TestCleanKeepsLinksWhenDisabled(t *testing.T) {
	got := Clean("Visit (https://x.com/y) now", false)
	assert.Contains(t, got, "(https://x.com/y)")
}

func TestCleanIdempotent(t *testing.T) {
	inputs := []string{
		"plain text already clean",
		"Visit (https://x.com/y) now 😀",
		"  spaced　　out  ",
		"ﬁrst ｆｕｌｌｗｉｄｔｈ",
	}
	for _, in := range inputs {
		once := Clean(in, true)
		assert.Equal(t, once, Clean(once, true), "Clean not idempotent for %q", in)
	}
}

func TestFullPipelineScenario(t *testing.T) {
	// Raw HTML with a parenthesized link and an emoji, link removal on.
	text, err := Text(`<p>Visit (https://x.com/y) now 😀</p>`)
	require.NoError(t, err)
	got := Clean(text, true)
	assert.Contains(t, got, "(links)")
	assert.NotContains(t, got, "😀")
}

func TestTruncateWords(t *testing.T) {
	assert.Equal(t, "a b c", TruncateWords("a b c d e", 3))
	assert.Equal(t, "a b c", TruncateWords("a b c", 5))
	assert.Equal(t, "", TruncateWords("", 5))
}

func TestTruncateWordsProperty(t *testing.T) {
	for _, in := range []string{"one", "one two three", strings.Repeat("w ", 100)} {
		for _, limit := range []int{1, 3, 50} {
			out := TruncateWords(in, limit)
			assert.LessOrEqual(t, len(strings.Fields(out)), limit)
			if len(strings.Fields(in)) <= limit {
				assert.Equal(t, strings.Join(strings.Fields(in), " "), out)
			}
		}
	}
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short", Excerpt("short", DefaultExcerptLength))

	long := strings.Repeat("x", 250)
	got := Excerpt(long, DefaultExcerptLength)
	assert.Len(t, got, DefaultExcerptLength+3)
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestExcerptCountsRunes(t *testing.T) {
	long := strings.Repeat("é", 250)
	got := Excerpt(long, DefaultExcerptLength)
	assert.Equal(t, DefaultExcerptLength+3, len([]rune(got)))
}

func TestCleanTitle(t *testing.T) {
	assert.Equal(t, "Go Docs", CleanTitle("Ｇｏ Ｄｏｃｓ 😀"))
	assert.Equal(t, "plain", CleanTitle("  plain  "))
	// Links and word limits do not apply to titles.
	assert.Equal(t, "See (https://x.com/y)", CleanTitle("See (https://x.com/y)"))
}

func TestStripSymbols(t *testing.T) {
	assert.Equal(t, "title", StripSymbols("title😀"))
	// Letters, digits and punctuation are untouched.
	assert.Equal(t, "a1, b2!", StripSymbols("a1, b2!"))
}

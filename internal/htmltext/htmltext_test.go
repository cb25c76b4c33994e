package htmltext

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestExtract_StripsStructuralRegions(t *testing.T) {
	doc := []byte(`<html><body>
<nav><a href="/">Home</a></nav>
<header>Site Header</header>
<script>var x = 1;</script>
<style>.a { color: blue }</style>
<noscript>enable js</noscript>
<main>
<h1>Community Calendar</h1>
<p>Bake sale this <b>Saturday</b> at noon.</p>
</main>
<footer>contact us</footer>
</body></html>`)

	text := Extract(doc)

	assert.Contains(t, text, "Community Calendar")
	assert.Contains(t, text, "Bake sale this")
	assert.Contains(t, text, "Saturday")
	assert.NotContains(t, text, "Home")
	assert.NotContains(t, text, "Site Header")
	assert.NotContains(t, text, "var x = 1")
	assert.NotContains(t, text, "color: blue")
	assert.NotContains(t, text, "enable js")
	assert.NotContains(t, text, "contact us")
}

func TestExtract_NewlineSeparatedTrimmedLines(t *testing.T) {
	doc := []byte("<p>  first  </p><p>second</p>")
	assert.Equal(t, "first\nsecond", Extract(doc))
}

func TestExtract_EmptyAndTextFreeDocuments(t *testing.T) {
	assert.Equal(t, "", Extract(nil))
	assert.Equal(t, "", Extract([]byte("<div><span></span></div>")))
}

func TestExtract_MalformedMarkupStillYieldsText(t *testing.T) {
	doc := []byte("<div><p>unclosed paragraph <b>bold text")
	text := Extract(doc)
	assert.Contains(t, text, "unclosed paragraph")
	assert.Contains(t, text, "bold text")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 100))
	assert.Equal(t, "abcde...", Truncate("abcdefghij", 5))
	assert.Equal(t, "whatever", Truncate("whatever", 0), "non-positive max disables truncation")
}

func TestTruncate_NeverSplitsRunes(t *testing.T) {
	// "café menu": the é is two bytes; cutting at byte 4 lands inside it.
	got := Truncate("café menu", 4)
	assert.Equal(t, "caf...", got)
	assert.True(t, utf8.ValidString(got))

	// Multi-rune content cut mid-character backs up a whole rune.
	got = Truncate("日本語", 4)
	assert.Equal(t, "日...", got)
	assert.True(t, utf8.ValidString(got))
}

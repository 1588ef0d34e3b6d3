package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const noisyHTML = `<html><head><style>.x{color:red}</style><script>var secret = 1;</script></head>
<body>
<nav>Home | About</nav>
<article><p>Real content lives here.</p><img src="a.png" alt="pic"><!-- hidden note --></article>
<form><button>Subscribe</button></form>
<iframe src="https://ads.example.com"></iframe>
<noscript>Enable JS</noscript>
<footer>Copyright</footer>
</body></html>`

func TestSanitize_Strict(t *testing.T) {
	doc := SanitizeHTML(noisyHTML, Strict)
	text := doc.Find("body").Text()

	assert.Contains(t, text, "Real content lives here.")
	for _, noise := range []string{"secret", "color:red", "Home | About", "Subscribe", "Enable JS", "Copyright", "hidden note"} {
		assert.NotContains(t, text, noise)
	}
	assert.Equal(t, 0, doc.Find("img, iframe, nav, footer, form, button").Length())
}

func TestSanitize_BasicKeepsNavigation(t *testing.T) {
	doc := SanitizeHTML(noisyHTML, Basic)
	text := doc.Find("body").Text()

	assert.Contains(t, text, "Home | About")
	assert.Contains(t, text, "Copyright")
	assert.NotContains(t, text, "secret")
	assert.NotContains(t, text, "Enable JS")
	assert.Equal(t, 0, doc.Find("iframe").Length())
}

func TestSanitize_Idempotent(t *testing.T) {
	doc := SanitizeHTML(noisyHTML, Strict)
	first, err := doc.Html()
	require.NoError(t, err)

	second, err := Sanitize(doc, Strict).Html()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestParse_MalformedMarkup(t *testing.T) {
	doc := Parse(`<div><p>unclosed <b>bold<div>nested</p></span>`)
	require.NotNil(t, doc)
	assert.Contains(t, doc.Text(), "unclosed")
	assert.Contains(t, doc.Text(), "nested")

	empty := Parse("")
	assert.Equal(t, 1, empty.Find("body").Length())
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", Strict, false},
		{"strict", Strict, false},
		{"BASIC", Basic, false},
		{"aggressive", Basic, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestModeSelectorsAreCopies(t *testing.T) {
	sels := Strict.Selectors()
	sels[0] = "mutated"
	assert.Equal(t, "script", Strict.Selectors()[0])
}

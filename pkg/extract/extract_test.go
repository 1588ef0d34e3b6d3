package extract_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	textUtils "github.com/shouni/go-utils/text"

	"github.com/shouni/go-blog-summarizer/pkg/extract"
	"github.com/shouni/go-blog-summarizer/pkg/httpclient"
	"github.com/shouni/go-blog-summarizer/pkg/sanitize"
	"github.com/shouni/go-blog-summarizer/pkg/types"
)

// ======================================================================
// モック
// ======================================================================

// stubFetcher は Identity 名ごとに応答を切り替える extract.Fetcher の実装です。
type stubFetcher struct {
	mu        sync.Mutex
	responses map[string]string
	errs      map[string]error
	block     bool
	calls     []string
}

func (f *stubFetcher) Fetch(ctx context.Context, url string, id types.Identity) (*types.RawDocument, error) {
	f.mu.Lock()
	f.calls = append(f.calls, id.Name)
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err, ok := f.errs[id.Name]; ok {
		return nil, err
	}
	return &types.RawDocument{URL: url, StatusCode: 200, Body: []byte(f.responses[id.Name])}, nil
}

func (f *stubFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// 最低文字数 (100) を十分に超える本文
var longParagraph = strings.Repeat("The quick brown fox jumps over the lazy dog. ", 4)

func page(body string) string {
	return "<html><head><title>t</title></head><body>" + body + "</body></html>"
}

func newDoc(t *testing.T, raw string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	require.NoError(t, err)
	return doc
}

// ======================================================================
// NewExtractor
// ======================================================================

func TestNewExtractor(t *testing.T) {
	t.Run("success_with_valid_fetcher", func(t *testing.T) {
		extractor, err := extract.NewExtractor(&stubFetcher{})
		assert.NoError(t, err)
		assert.NotNil(t, extractor)
		assert.Equal(t, extract.StrategySelectors, extractor.Config().Strategy)
	})

	t.Run("error_with_nil_fetcher", func(t *testing.T) {
		extractor, err := extract.NewExtractor(nil)
		assert.Error(t, err)
		assert.Nil(t, extractor)
		assert.Contains(t, err.Error(), "Fetcher cannot be nil")
	})

	t.Run("error_with_invalid_config", func(t *testing.T) {
		cfg := extract.DefaultConfig()
		cfg.Identities = nil
		extractor, err := extract.NewExtractor(&stubFetcher{}, extract.WithConfig(cfg))
		assert.Error(t, err)
		assert.Nil(t, extractor)
	})
}

// ======================================================================
// 入力検証
// ======================================================================

func TestFetchAndExtractText_InvalidInput(t *testing.T) {
	testCases := []struct {
		name string
		url  string
	}{
		{name: "empty", url: ""},
		{name: "no_scheme", url: "example.com/post"},
		{name: "ftp_scheme", url: "ftp://example.com/post"},
		{name: "relative", url: "/posts/1"},
		{name: "no_host", url: "http://"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fetcher := &stubFetcher{}
			extractor, err := extract.NewExtractor(fetcher)
			require.NoError(t, err)

			result, err := extractor.FetchAndExtractText(context.Background(), tc.url)
			assert.Nil(t, result)
			assert.ErrorIs(t, err, extract.ErrInvalidInput)
			assert.Zero(t, fetcher.callCount(), "無効な入力ではネットワークに触れない")
		})
	}
}

func TestValidateURL(t *testing.T) {
	assert.NoError(t, extract.ValidateURL("https://example.com/post"))
	assert.NoError(t, extract.ValidateURL("HTTP://EXAMPLE.COM"))
	assert.ErrorIs(t, extract.ValidateURL("mailto:someone@example.com"), extract.ErrInvalidInput)
}

// ======================================================================
// Identity ループ
// ======================================================================

func TestFetchAndExtractText_Identities(t *testing.T) {
	const target = "https://example.com/post"

	t.Run("first_identity_succeeds", func(t *testing.T) {
		fetcher := &stubFetcher{responses: map[string]string{
			"googlebot": page("<article><p>" + longParagraph + "</p></article>"),
		}}
		extractor, err := extract.NewExtractor(fetcher)
		require.NoError(t, err)

		result, err := extractor.FetchAndExtractText(context.Background(), target)
		require.NoError(t, err)
		assert.Equal(t, "googlebot", result.Identity)
		assert.Equal(t, strings.TrimSpace(longParagraph), result.Text)
		assert.Empty(t, result.Attempts)
		assert.Equal(t, []string{"googlebot"}, fetcher.calls, "成功した時点で打ち切る")
	})

	t.Run("second_identity_after_fetch_failure", func(t *testing.T) {
		fetcher := &stubFetcher{
			errs: map[string]error{
				"googlebot": &httpclient.NonRetryableHTTPError{StatusCode: 403, Body: []byte("forbidden")},
			},
			responses: map[string]string{
				"chrome": page("<article><p>" + longParagraph + "</p></article>"),
			},
		}
		extractor, err := extract.NewExtractor(fetcher)
		require.NoError(t, err)

		result, err := extractor.FetchAndExtractText(context.Background(), target)
		require.NoError(t, err)
		assert.Equal(t, "chrome", result.Identity)
		require.Len(t, result.Attempts, 1)
		assert.Equal(t, "googlebot", result.Attempts[0].Identity)
		assert.Equal(t, 403, result.Attempts[0].StatusCode)

		var fetchErr *extract.FetchError
		assert.ErrorAs(t, result.Attempts[0].Err, &fetchErr)
	})

	t.Run("second_identity_after_short_content", func(t *testing.T) {
		fetcher := &stubFetcher{responses: map[string]string{
			"googlebot": page("<p>Please enable JavaScript.</p>"),
			"chrome":    page("<article><p>" + longParagraph + "</p></article>"),
		}}
		extractor, err := extract.NewExtractor(fetcher)
		require.NoError(t, err)

		result, err := extractor.FetchAndExtractText(context.Background(), target)
		require.NoError(t, err)
		assert.Equal(t, "chrome", result.Identity)
		require.Len(t, result.Attempts, 1)
		assert.ErrorIs(t, result.Attempts[0].Err, extract.ErrEmptyContent)
	})

	t.Run("all_identities_exhausted", func(t *testing.T) {
		fetcher := &stubFetcher{errs: map[string]error{
			"googlebot": errors.New("connection reset"),
			"chrome":    errors.New("connection reset"),
		}}
		extractor, err := extract.NewExtractor(fetcher)
		require.NoError(t, err)

		result, err := extractor.FetchAndExtractText(context.Background(), target)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, extract.ErrAllIdentitiesExhausted)
		assert.NotErrorIs(t, err, extract.ErrTimeout)

		var attemptsErr *extract.AttemptsError
		require.ErrorAs(t, err, &attemptsErr)
		assert.Len(t, attemptsErr.Attempts, 2)
		assert.Equal(t, 2, fetcher.callCount())
	})

	t.Run("overall_timeout", func(t *testing.T) {
		cfg := extract.DefaultConfig()
		cfg.OverallTimeout = 50 * time.Millisecond
		fetcher := &stubFetcher{block: true}
		extractor, err := extract.NewExtractor(fetcher, extract.WithConfig(cfg))
		require.NoError(t, err)

		result, err := extractor.FetchAndExtractText(context.Background(), target)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, extract.ErrTimeout)
		assert.NotErrorIs(t, err, extract.ErrAllIdentitiesExhausted)
		assert.Equal(t, 1, fetcher.callCount(), "期限切れ後は次の Identity を試さない")
	})

	t.Run("caller_cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		extractor, err := extract.NewExtractor(&stubFetcher{})
		require.NoError(t, err)

		result, err := extractor.FetchAndExtractText(ctx, target)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, extract.ErrTimeout)
	})
}

// ======================================================================
// 抽出戦略
// ======================================================================

func TestExtractHTML_Sanitization(t *testing.T) {
	raw := page(`
		<nav>Home About Contact</nav>
		<script>var tracking = "secret";</script>
		<style>.x { color: red; }</style>
		<article><p>` + longParagraph + `</p></article>
		<footer>Copyright</footer>`)

	extractor, err := extract.NewExtractor(&stubFetcher{})
	require.NoError(t, err)

	text, err := extractor.ExtractHTML("https://example.com/post", []byte(raw))
	require.NoError(t, err)
	assert.NotContains(t, text, "tracking")
	assert.NotContains(t, text, "color: red")
	assert.NotContains(t, text, "Home About")
	assert.NotContains(t, text, "Copyright")
	assert.Contains(t, text, "quick brown fox")
}

func TestExtractHTML_CitationsAndWhitespace(t *testing.T) {
	raw := page("<article><p>" + longParagraph + "[1]</p>\n\n\n<p>Second   paragraph.[citation needed]</p></article>")

	extractor, err := extract.NewExtractor(&stubFetcher{})
	require.NoError(t, err)

	text, err := extractor.ExtractHTML("https://example.com/post", []byte(raw))
	require.NoError(t, err)
	assert.NotContains(t, text, "[1]")
	assert.NotContains(t, text, "[citation needed]")
	assert.NotContains(t, text, "  ")
	assert.NotContains(t, text, "\n")
	assert.True(t, strings.HasSuffix(text, "Second paragraph."))
}

func TestExtractHTML_Strategies(t *testing.T) {
	raw := page(`<div class="post-content"><h1>Title</h1><p>` + longParagraph + `</p><p>Tail paragraph.</p></div>`)

	testCases := []struct {
		name     string
		strategy extract.Strategy
		check    func(t *testing.T, text string)
	}{
		{
			name:     "body",
			strategy: extract.StrategyWholeBody,
			check: func(t *testing.T, text string) {
				assert.True(t, strings.HasPrefix(text, "Title "))
			},
		},
		{
			name:     "blocks_preserve_paragraphs",
			strategy: extract.StrategyBlocks,
			check: func(t *testing.T, text string) {
				assert.True(t, strings.HasPrefix(text, "Title\n\nThe quick"))
				assert.True(t, strings.HasSuffix(text, "\n\nTail paragraph."))
			},
		},
		{
			name:     "selectors",
			strategy: extract.StrategySelectors,
			check: func(t *testing.T, text string) {
				assert.Contains(t, text, "Tail paragraph.")
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := extract.DefaultConfig()
			cfg.Strategy = tc.strategy
			extractor, err := extract.NewExtractor(&stubFetcher{}, extract.WithConfig(cfg))
			require.NoError(t, err)

			text, err := extractor.ExtractHTML("https://example.com/post", []byte(raw))
			require.NoError(t, err)
			tc.check(t, text)
		})
	}
}

func TestExtractHTML_Readability(t *testing.T) {
	paragraphs := strings.Repeat("<p>"+longParagraph+"</p>", 5)
	raw := page(`<div id="sidebar"><a href="/a">Link one</a></div><article><h1>Post</h1>` + paragraphs + `</article>`)

	cfg := extract.DefaultConfig()
	cfg.Strategy = extract.StrategyReadability
	extractor, err := extract.NewExtractor(&stubFetcher{}, extract.WithConfig(cfg))
	require.NoError(t, err)

	text, err := extractor.ExtractHTML("https://example.com/post", []byte(raw))
	require.NoError(t, err)
	assert.Contains(t, text, "quick brown fox")
}

func TestSelectorText(t *testing.T) {
	short := "Short summary."
	long := "A much longer article body that clearly wins on length."

	testCases := []struct {
		name      string
		html      string
		selectors []string
		policy    extract.SelectorPolicy
		want      string
	}{
		{
			name:      "longest_wins_even_when_listed_later",
			html:      page(`<div class="summary">` + short + `</div><div class="content">` + long + `</div>`),
			selectors: []string{".summary", ".content"},
			policy:    extract.PolicyLongest,
			want:      long,
		},
		{
			name:      "first_match_keeps_declaration_order",
			html:      page(`<div class="summary">` + short + `</div><div class="content">` + long + `</div>`),
			selectors: []string{".summary", ".content"},
			policy:    extract.PolicyFirstMatch,
			want:      short,
		},
		{
			name:      "first_match_skips_missing_selectors",
			html:      page(`<div class="content">` + long + `</div>`),
			selectors: []string{"article", ".content"},
			policy:    extract.PolicyFirstMatch,
			want:      long,
		},
		{
			name:      "tie_keeps_first_seen",
			html:      page(`<div class="a">same text</div><div class="b">text same</div>`),
			selectors: []string{".a", ".b"},
			policy:    extract.PolicyLongest,
			want:      "same text",
		},
		{
			name:      "nested_match_is_not_counted_twice",
			html:      page(`<div class="x">outer <div class="x">inner</div></div>`),
			selectors: []string{".x"},
			policy:    extract.PolicyLongest,
			want:      "outer inner",
		},
		{
			name:      "no_match",
			html:      page(`<p>nothing</p>`),
			selectors: []string{"article"},
			policy:    extract.PolicyLongest,
			want:      "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := extract.SelectorText(newDoc(t, tc.html), tc.selectors, tc.policy)
			assert.Equal(t, tc.want, textUtils.NormalizeText(got))
		})
	}
}

func TestBlockText(t *testing.T) {
	testCases := []struct {
		name string
		html string
		want string
	}{
		{name: "two_paragraphs", html: page("<p>hello</p><p>world</p>"), want: "hello\n\nworld"},
		{name: "headings_and_items", html: page("<h2>Title</h2><ul><li>one</li><li>two</li></ul>"), want: "Title\n\none\n\ntwo"},
		{name: "empty_blocks_skipped", html: page("<p>  </p><p>a\n  b</p>"), want: "a b"},
		{name: "no_blocks", html: page("<div>plain</div>"), want: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, extract.BlockText(newDoc(t, tc.html)))
		})
	}
}

func TestWholeBodyText_SeparatesBlocks(t *testing.T) {
	doc := sanitize.SanitizeHTML(page("<p>one</p><p>two</p>"), sanitize.Basic)
	assert.Equal(t, "one two", textUtils.NormalizeText(extract.WholeBodyText(doc)))
}

func TestInvalidInputError_TruncatesLongURL(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		wantPart string
	}{
		{"short_ascii", "ftp://example.com", "ftp://example.com"},
		{"long_ascii", "https://example.com/" + strings.Repeat("a", 200), "https://example.com/" + strings.Repeat("a", 80) + "..."},
		{"long_multibyte", "https://例え.jp/" + strings.Repeat("記事", 100), "https://例え.jp/" + strings.Repeat("記事", 43) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := (&extract.InvalidInputError{URL: tt.url, Reason: "スキームが不正です"}).Error()
			assert.True(t, utf8.ValidString(msg))
			assert.Contains(t, msg, tt.wantPart)
		})
	}
}

package extract

import (
	"fmt"
	"strings"
	"time"

	"github.com/shouni/go-blog-summarizer/pkg/normalize"
	"github.com/shouni/go-blog-summarizer/pkg/sanitize"
	"github.com/shouni/go-blog-summarizer/pkg/types"
)

// Strategy は、サニタイズ済みドキュメントから本文テキストを選ぶ方法です。
type Strategy string

const (
	// StrategyWholeBody は body 全体のテキストを使います。
	StrategyWholeBody Strategy = "body"
	// StrategySelectors はセレクターの候補を評価し、SelectorPolicy に従って1つを選びます。
	StrategySelectors Strategy = "selectors"
	// StrategyBlocks は p, h1-h3, li のテキストを段落として "\n\n" で連結します。
	StrategyBlocks Strategy = "blocks"
	// StrategyReadability は go-readability で本文領域を推定します。
	StrategyReadability Strategy = "readability"
)

// SelectorPolicy は StrategySelectors で候補が複数あった場合の選び方です。
type SelectorPolicy string

const (
	// PolicyLongest は最も長いテキストを返したセレクターを採用します。同じ長さなら先勝ちです。
	PolicyLongest SelectorPolicy = "longest"
	// PolicyFirstMatch は宣言順で最初に空でないテキストを返したセレクターを採用します。
	PolicyFirstMatch SelectorPolicy = "first-match"
)

const DefaultOverallTimeout = 30 * time.Second

// DefaultSelectors は本文領域の候補です。
var DefaultSelectors = []string{
	"article",
	".post-content",
	".article-content",
	".entry-content",
	"main",
	"body",
}

// DefaultIdentities は、ボット名義、一般的なブラウザ名義の順に試す Identity 一覧です。
func DefaultIdentities() []types.Identity {
	return []types.Identity{
		{
			Name:      "googlebot",
			UserAgent: "Googlebot/2.1 (+http://www.google.com/bot.html)",
		},
		{
			Name:      "chrome",
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			Referer:   "https://www.google.com",
		},
	}
}

// Config は Extractor の設定です。呼び出し側が明示的に組み立てて渡します。
type Config struct {
	Identities     []types.Identity
	Strategy       Strategy
	Selectors      []string
	SelectorPolicy SelectorPolicy
	SanitizeMode   sanitize.Mode
	// MinContentLength を超える文字数の本文が得られた Identity で打ち切ります。
	MinContentLength int
	MaxContentLength int
	// OverallTimeout は Identity ループ全体の制限時間です。試行ごとのタイムアウトとは独立しています。
	OverallTimeout time.Duration
}

// DefaultConfig はデフォルト設定を返します。
func DefaultConfig() Config {
	return Config{
		Identities:       DefaultIdentities(),
		Strategy:         StrategySelectors,
		Selectors:        append([]string{}, DefaultSelectors...),
		SelectorPolicy:   PolicyLongest,
		SanitizeMode:     sanitize.Strict,
		MinContentLength: normalize.DefaultMinLength,
		MaxContentLength: normalize.DefaultMaxLength,
		OverallTimeout:   DefaultOverallTimeout,
	}
}

// Validate は設定値の整合性を確認します。
func (c Config) Validate() error {
	if len(c.Identities) == 0 {
		return fmt.Errorf("Identity が1つも設定されていません")
	}
	for i, id := range c.Identities {
		if strings.TrimSpace(id.UserAgent) == "" {
			return fmt.Errorf("Identity[%d] (%s) の User-Agent が空です", i, id.Name)
		}
	}
	if _, err := ParseStrategy(string(c.Strategy)); err != nil {
		return err
	}
	if c.Strategy == StrategySelectors {
		if len(c.Selectors) == 0 {
			return fmt.Errorf("selectors 戦略にはセレクターが1つ以上必要です")
		}
		if _, err := ParseSelectorPolicy(string(c.SelectorPolicy)); err != nil {
			return err
		}
	}
	if c.MinContentLength < 0 || c.MaxContentLength < 0 {
		return fmt.Errorf("文字数の設定が負の値です (min=%d, max=%d)", c.MinContentLength, c.MaxContentLength)
	}
	if c.MaxContentLength > 0 && c.MaxContentLength <= c.MinContentLength {
		return fmt.Errorf("最大文字数 (%d) は最低文字数 (%d) より大きくなければなりません", c.MaxContentLength, c.MinContentLength)
	}
	if c.OverallTimeout <= 0 {
		return fmt.Errorf("全体タイムアウトは正の値である必要があります: %s", c.OverallTimeout)
	}
	return nil
}

// ParseStrategy は文字列から Strategy を得ます。
func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(strings.ToLower(strings.TrimSpace(s))); st {
	case StrategyWholeBody, StrategySelectors, StrategyBlocks, StrategyReadability:
		return st, nil
	default:
		return "", fmt.Errorf("未知の抽出戦略です: %q", s)
	}
}

// ParseSelectorPolicy は文字列から SelectorPolicy を得ます。空文字は PolicyLongest です。
func ParseSelectorPolicy(s string) (SelectorPolicy, error) {
	switch p := SelectorPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "", PolicyLongest:
		return PolicyLongest, nil
	case PolicyFirstMatch:
		return p, nil
	default:
		return "", fmt.Errorf("未知のセレクターポリシーです: %q", s)
	}
}

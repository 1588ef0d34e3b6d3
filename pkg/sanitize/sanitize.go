// Package sanitize は、取得したHTMLを走査可能なツリーに変換し、
// 本文に寄与しない要素を取り除きます。
package sanitize

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Mode は除去対象の範囲を表します。
type Mode int

const (
	// Basic は script/style/iframe/noscript のみを除去します。
	Basic Mode = iota
	// Strict はさらにナビゲーション、フッター、フォーム、ボタン、画像、広告枠を除去します。
	Strict
)

var (
	basicSelectors = []string{"script", "style", "iframe", "noscript", "template"}

	strictSelectors = append(append([]string{}, basicSelectors...),
		"nav", "footer", "form", "button", "img", "picture", "svg",
		".related-posts", ".social-share", ".comments", ".ad-banner", ".advertisement",
	)
)

// ParseMode は設定ファイル等の文字列から Mode を得ます。
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return Strict, nil
	case "basic":
		return Basic, nil
	default:
		return Basic, fmt.Errorf("未知のサニタイズモードです: %q (basic または strict)", s)
	}
}

func (m Mode) String() string {
	if m == Strict {
		return "strict"
	}
	return "basic"
}

// Selectors は、このモードで除去される要素のセレクター一覧を返します。
func (m Mode) Selectors() []string {
	if m == Strict {
		return append([]string{}, strictSelectors...)
	}
	return append([]string{}, basicSelectors...)
}

// Parse はHTMLを解析してドキュメントを返します。
// 壊れたマークアップでも失敗せず、常にベストエフォートのツリーを返します。
func Parse(raw string) *goquery.Document {
	root, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		// strings.Reader からの読み込みで失敗することは実質ないが、空ドキュメントに落とす
		root, _ = html.Parse(strings.NewReader(""))
	}
	return goquery.NewDocumentFromNode(root)
}

// Sanitize は doc から非本文要素を破壊的に取り除き、同じ doc を返します。
// 除去済みのツリーに再度適用しても変化しません。
func Sanitize(doc *goquery.Document, mode Mode) *goquery.Document {
	doc.Find(strings.Join(mode.Selectors(), ", ")).Remove()
	removeComments(doc.Selection)
	return doc
}

// SanitizeHTML は Parse と Sanitize をまとめて行います。
func SanitizeHTML(raw string, mode Mode) *goquery.Document {
	return Sanitize(Parse(raw), mode)
}

func removeComments(s *goquery.Selection) {
	for _, n := range s.Nodes {
		var walk func(*html.Node)
		walk = func(node *html.Node) {
			for c := node.FirstChild; c != nil; {
				next := c.NextSibling
				if c.Type == html.CommentNode {
					node.RemoveChild(c)
				} else {
					walk(c)
				}
				c = next
			}
		}
		walk(n)
	}
}

package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	textUtils "github.com/shouni/go-utils/text"
	"golang.org/x/net/html"
)

// blockJoinTags は StrategyBlocks で段落として扱う要素です。
const blockJoinTags = "p, h1, h2, h3, li"

// blockElements の前後には改行を入れ、隣接するブロックの単語が連結されないようにします。
var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true, "br": true,
	"dd": true, "div": true, "dl": true, "dt": true, "figcaption": true, "figure": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "main": true, "ol": true, "p": true,
	"pre": true, "section": true, "table": true, "td": true, "th": true, "tr": true, "ul": true,
}

// WholeBodyText は body 全体のテキストを返します。
func WholeBodyText(doc *goquery.Document) string {
	return textOf(doc.Find("body"))
}

// SelectorText は selectors を順に評価し、policy に従って1つのテキストを返します。
// 1つのセレクターが複数の要素に一致した場合は、最も外側の要素のテキストを連結して1候補とします。
func SelectorText(doc *goquery.Document, selectors []string, policy SelectorPolicy) string {
	var (
		best       string
		bestLength = -1
	)

	for _, selector := range selectors {
		matches := doc.Find(selector)
		if matches.Length() == 0 {
			continue
		}
		outermost := matches.FilterFunction(func(_ int, s *goquery.Selection) bool {
			return s.ParentsFiltered(selector).Length() == 0
		})

		var parts []string
		outermost.Each(func(_ int, s *goquery.Selection) {
			if t := textOf(s); strings.TrimSpace(t) != "" {
				parts = append(parts, t)
			}
		})
		if len(parts) == 0 {
			continue
		}

		candidate := strings.Join(parts, "\n")
		if policy == PolicyFirstMatch {
			return candidate
		}

		// 空白の量で有利不利が出ないよう、圧縮後の長さで比較する
		if length := utf8.RuneCountInString(textUtils.NormalizeText(candidate)); length > bestLength {
			best, bestLength = candidate, length
		}
	}
	return best
}

// BlockText は p, h1-h3, li のテキストを文書順に集め、各ブロックの空白を圧縮し、
// 空のブロックを除いて "\n\n" で連結します。
func BlockText(doc *goquery.Document) string {
	var blocks []string
	doc.Find(blockJoinTags).Each(func(_ int, s *goquery.Selection) {
		if text := textUtils.NormalizeText(textOf(s)); text != "" {
			blocks = append(blocks, text)
		}
	})
	return strings.Join(blocks, "\n\n")
}

// ReadabilityText は go-readability で本文領域を推定し、そのテキストを返します。
func ReadabilityText(doc *goquery.Document, pageURL *url.URL) (string, error) {
	if pageURL == nil {
		pageURL = &url.URL{}
	}

	var buf bytes.Buffer
	for _, n := range doc.Nodes {
		if err := html.Render(&buf, n); err != nil {
			return "", fmt.Errorf("HTMLの再構築に失敗しました: %w", err)
		}
	}

	parser := readability.NewParser()
	article, err := parser.Parse(&buf, pageURL)
	if err != nil {
		return "", fmt.Errorf("readability による抽出に失敗しました: %w", err)
	}
	return article.TextContent, nil
}

// textOf は選択範囲のテキストを文書順に連結します。ブロック要素の境界には改行を挟みます。
func textOf(s *goquery.Selection) string {
	var b strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			return
		case html.ElementNode:
			if blockElements[n.Data] {
				b.WriteByte('\n')
				defer b.WriteByte('\n')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	for _, n := range s.Nodes {
		walk(n)
	}
	return b.String()
}

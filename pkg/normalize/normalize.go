// Package normalize は、抽出テキストの空白・引用マーカー・長さを整えます。
package normalize

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	textUtils "github.com/shouni/go-utils/text"
)

const (
	// DefaultMaxLength は出力の最大文字数 (rune 数) です。
	DefaultMaxLength = 100000
	// DefaultMinLength は本文として採用するために超えなければならない文字数です。
	DefaultMinLength = 100

	paragraphSeparator = "\n\n"
)

// ErrEmptyContent は、正規化後のテキストが短すぎて本文として使えないことを示します。
var ErrEmptyContent = errors.New("抽出されたテキストが本文として短すぎます")

var (
	// [12] や [citation needed] のような角括弧の注記
	citationPattern = regexp.MustCompile(`\[[^\[\]]*\]`)
	// 空行 (空白のみの行を含む) を段落の区切りとみなす
	paragraphBreak = regexp.MustCompile(`\n[ \t\r\f\v]*\n`)
)

// Options は Normalizer の設定です。
type Options struct {
	// MinLength を超える長さがなければ ErrEmptyContent を返します。
	MinLength int
	// MaxLength を超えた分は切り捨てます。0 以下なら切り捨てません。
	MaxLength int
	// PreserveParagraphs が true の場合、段落間の "\n\n" を残します。
	PreserveParagraphs bool
}

// DefaultOptions はデフォルト設定を返します。
func DefaultOptions() Options {
	return Options{
		MinLength: DefaultMinLength,
		MaxLength: DefaultMaxLength,
	}
}

// Normalizer は抽出テキストを整形します。状態を持たず、並行利用できます。
type Normalizer struct {
	opts Options
}

// New は Normalizer を生成します。
func New(opts Options) *Normalizer {
	return &Normalizer{opts: opts}
}

// Normalize は空白の圧縮、引用マーカーの除去、前後の空白除去、長さの切り詰めを行い、
// 最低文字数を満たさない場合は ErrEmptyContent を返します。
// 正規化済みのテキストに再適用しても結果は変わりません。
func (n *Normalizer) Normalize(text string) (string, error) {
	out := Truncate(Clean(text, n.opts.PreserveParagraphs), n.opts.MaxLength)

	if length := utf8.RuneCountInString(out); length <= n.opts.MinLength {
		return "", fmt.Errorf("%w: %d文字 (%d文字を超える必要があります)", ErrEmptyContent, length, n.opts.MinLength)
	}
	return out, nil
}

// Clean は空白を圧縮し、引用マーカーを除去します。
// preserveParagraphs が true の場合は空行で区切られた段落ごとに処理し、"\n\n" で連結します。
// 段落をまたぐ角括弧は注記として扱いません。
func Clean(text string, preserveParagraphs bool) string {
	if !preserveParagraphs {
		return cleanBlock(text)
	}

	blocks := paragraphBreak.Split(text, -1)
	kept := make([]string, 0, len(blocks))
	for _, block := range blocks {
		if b := cleanBlock(block); b != "" {
			kept = append(kept, b)
		}
	}
	return strings.Join(kept, paragraphSeparator)
}

// cleanBlock は圧縮してから注記を除き、除去で空いた隙間をもう一度圧縮します。
func cleanBlock(block string) string {
	return textUtils.NormalizeText(StripCitations(textUtils.NormalizeText(block)))
}

// StripCitations は角括弧の注記を除去します。"[[1]]" のような入れ子も残りません。
func StripCitations(text string) string {
	for citationPattern.MatchString(text) {
		text = citationPattern.ReplaceAllString(text, "")
	}
	return text
}

// Truncate は text を最大 max 文字 (rune 数) に切り詰めます。
func Truncate(text string, max int) string {
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:max]))
}

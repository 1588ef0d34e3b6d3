// Package langdetect は抽出した本文の言語を判定します。
package langdetect

import (
	"strings"

	"github.com/pemistahl/lingua-go"
)

// DefaultLanguages は判定対象の言語です。英語の記事とウルドゥー語圏周辺の言語を区別できれば十分です。
var DefaultLanguages = []lingua.Language{
	lingua.English,
	lingua.Urdu,
	lingua.Hindi,
	lingua.Arabic,
	lingua.Persian,
}

// Detector は lingua の LanguageDetector をラップします。
// 言語モデルの読み込みが重いため、1つを使い回してください。並行利用できます。
type Detector struct {
	detector lingua.LanguageDetector
}

// New は languages を対象とする Detector を返します。空の場合は DefaultLanguages を使います。
func New(languages ...lingua.Language) *Detector {
	if len(languages) < 2 {
		languages = DefaultLanguages
	}
	return &Detector{
		detector: lingua.NewLanguageDetectorBuilder().
			FromLanguages(languages...).
			Build(),
	}
}

// Detect は text の言語を ISO 639-1 の小文字コード ("en", "ur" など) で返します。
// 判定できない場合は空文字です。
func (d *Detector) Detect(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	language, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return ""
	}
	return strings.ToLower(language.IsoCode639_1().String())
}

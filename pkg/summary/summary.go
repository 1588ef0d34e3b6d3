// Package summary は、抽出済み本文から代表的な文を選ぶ簡易要約を提供します。
// 言語モデルは使わず、先頭・中央・末尾の文を並べるだけです。
package summary

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// minSentenceLength 以下の長さの文は要約の候補にしません。
	minSentenceLength = 10
	// keepWholeThreshold 以下の文数しかない場合は本文をそのまま返します。
	keepWholeThreshold = 3
)

var sentenceBoundary = regexp.MustCompile(`[.!?]+`)

// Summarize は text の要約を返します。
func Summarize(text string) string {
	sentences := Sentences(text)
	if len(sentences) <= keepWholeThreshold {
		return text
	}

	picked := []string{
		sentences[0],
		sentences[len(sentences)/2],
		sentences[len(sentences)-1],
	}
	return strings.Join(picked, ". ") + "..."
}

// Sentences は text を文に分割し、前後の空白を除いて十分な長さの文だけを返します。
func Sentences(text string) []string {
	parts := sentenceBoundary.Split(text, -1)
	sentences := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); utf8.RuneCountInString(s) > minSentenceLength {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

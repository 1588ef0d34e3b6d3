package summary

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "few_sentences_returned_unchanged",
			text: "Go is a language. It has goroutines! Is it fast?",
			want: "Go is a language. It has goroutines! Is it fast?",
		},
		{
			name: "first_middle_last",
			text: "First sentence here. Second sentence here. Third sentence here! Fourth sentence here? Fifth sentence here.",
			want: "First sentence here. Third sentence here. Fifth sentence here...",
		},
		{
			name: "short_fragments_ignored",
			text: "Alpha sentence one. Hi. Beta sentence two. Ok! Gamma sentence three. Delta sentence four.",
			want: "Alpha sentence one. Gamma sentence three. Delta sentence four...",
		},
		{
			name: "empty",
			text: "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Summarize(tt.text))
		})
	}
}

func TestSentences(t *testing.T) {
	assert.Equal(t,
		[]string{"A long enough sentence", "Another long sentence"},
		Sentences("A long enough sentence... short. Another long sentence?!"),
	)
}

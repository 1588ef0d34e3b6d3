// Package store は抽出結果の永続化を扱います。
// 本文を丸ごと保存するドキュメントストア (bbolt) と、
// 要約と翻訳を一覧表示するためのテーブルストア (SQLite) の2種類があります。
package store

import (
	"context"
	"errors"

	"github.com/shouni/go-blog-summarizer/pkg/types"
)

const (
	// DefaultURLMaxLength を超えるURLは保存時に切り詰めます。
	DefaultURLMaxLength = 500
)

var (
	ErrEmptyContent = errors.New("content cannot be empty")
	ErrInvalidURL   = errors.New("invalid URL format")
	ErrNotFound     = errors.New("document not found")
)

// DocumentStore は本文を含むレコード全体を保存します。
type DocumentStore interface {
	SaveDocument(ctx context.Context, rec *types.Record) error
	GetDocument(ctx context.Context, id string) (*types.Record, error)
}

// TableStore は要約と翻訳を保存し、新しい順に一覧します。
type TableStore interface {
	SaveSummary(ctx context.Context, rec *types.Record) error
	ListSummaries(ctx context.Context) ([]types.Record, error)
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

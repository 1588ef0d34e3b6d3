package extract

import (
	"context"

	"github.com/shouni/go-blog-summarizer/pkg/types"
)

// ----------------------------------------------------------------------
// 依存性の定義 (DIP)
// ----------------------------------------------------------------------

// Fetcher は、1つの Identity でHTMLドキュメントを取得する機能のインターフェースです。
// Extractor はこの抽象に依存し、テストではモックに差し替えます。
type Fetcher interface {
	Fetch(ctx context.Context, url string, id types.Identity) (*types.RawDocument, error)
}

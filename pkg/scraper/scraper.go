package scraper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/shouni/go-blog-summarizer/pkg/extract"
	"github.com/shouni/go-blog-summarizer/pkg/types"
)

const (
	// DefaultMaxConcurrency は、並列スクレイピングのデフォルトの最大同時実行数を定義します。
	DefaultMaxConcurrency = 6
)

// TextExtractor は1つのURLから本文を抽出します。*extract.Extractor が満たします。
type TextExtractor interface {
	FetchAndExtractText(ctx context.Context, rawURL string) (*extract.Result, error)
}

// Scraper は複数URLの本文抽出機能を提供するインターフェースです。
type Scraper interface {
	ScrapeInParallel(ctx context.Context, urls []string) []types.URLResult
}

// ParallelScraper は Scraper インターフェースを実装する並列処理構造体です。
type ParallelScraper struct {
	extractor      TextExtractor
	maxConcurrency int
	rateLimit      time.Duration // 0 の場合は制限しない
	logger         *zap.Logger
}

// Option は ParallelScraper の設定を行うための関数型です。
type Option func(*ParallelScraper)

// WithRateLimit はリクエスト開始の最小間隔を設定します。
func WithRateLimit(interval time.Duration) Option {
	return func(s *ParallelScraper) {
		s.rateLimit = interval
	}
}

// WithLogger はロガーを設定します。
func WithLogger(logger *zap.Logger) Option {
	return func(s *ParallelScraper) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewParallelScraper は ParallelScraper を初期化します。
// 依存性として Extractor と、最大同時実行数を受け取ります。
func NewParallelScraper(extractor TextExtractor, maxConcurrency int, options ...Option) *ParallelScraper {
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultMaxConcurrency
	}
	s := &ParallelScraper{
		extractor:      extractor,
		maxConcurrency: maxConcurrency,
		logger:         zap.NewNop(),
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// ScrapeInParallel は urls を並列に処理し、入力と同じ順序で結果を返します。
func (s *ParallelScraper) ScrapeInParallel(ctx context.Context, urls []string) []types.URLResult {
	results := make([]types.URLResult, len(urls))
	var wg sync.WaitGroup

	// バッファ付きチャネルをセマフォとして使用し、同時実行数を制限する
	semaphore := make(chan struct{}, s.maxConcurrency)

	var rateLimiter <-chan time.Time
	if s.rateLimit > 0 {
		ticker := time.NewTicker(s.rateLimit)
		defer ticker.Stop()
		rateLimiter = ticker.C
	}

	for i, u := range urls {
		// maxConcurrency件実行中の場合はここでブロックして待機
		select {
		case semaphore <- struct{}{}:
		case <-ctx.Done():
			results[i] = types.URLResult{URL: u, Error: ctx.Err()}
			continue
		}

		if rateLimiter != nil && i > 0 {
			select {
			case <-rateLimiter:
			case <-ctx.Done():
				<-semaphore
				results[i] = types.URLResult{URL: u, Error: ctx.Err()}
				continue
			}
		}

		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			defer func() { <-semaphore }()
			results[i] = s.scrapeOne(ctx, u)
		}(i, u)
	}

	wg.Wait()
	return results
}

func (s *ParallelScraper) scrapeOne(ctx context.Context, u string) types.URLResult {
	result, err := s.extractor.FetchAndExtractText(ctx, u)
	if err != nil {
		s.logger.Warn("URLの抽出に失敗しました", zap.String("url", u), zap.Error(err))
		return types.URLResult{
			URL:   u,
			Error: fmt.Errorf("コンテンツの抽出に失敗しました: %w", err),
		}
	}
	return types.URLResult{
		URL:      u,
		Content:  result.Text,
		Identity: result.Identity,
	}
}

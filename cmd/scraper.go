package cmd

import (
	"context"
	"fmt"
	"os"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shouni/go-blog-summarizer/pkg/scraper"
	"github.com/shouni/go-blog-summarizer/pkg/types"
)

const previewLength = 100

var scraperFlags struct {
	urls        string
	concurrency int
	rateLimit   time.Duration
	strategy    string
}

// runScrapePipeline は並列スクレイピングを実行し、結果を入力順に出力します。
func runScrapePipeline(ctx context.Context, urls []string, s scraper.Scraper) (failed int) {
	app.logger.Info("並列スクレイピング開始", zap.Int("urls", len(urls)))

	results := s.ScrapeInParallel(ctx, urls)
	printResults(results)

	for _, res := range results {
		if res.Error != nil {
			failed++
		}
	}
	return failed
}

func printResults(results []types.URLResult) {
	fmt.Println("--- 並列スクレイピング結果 ---")

	successCount, errorCount := 0, 0
	for i, res := range results {
		if res.Error != nil {
			errorCount++
			fmt.Printf("❌ [%d] %s\n", i+1, res.URL)
			fmt.Printf("     エラー: %v\n", res.Error)
			continue
		}

		successCount++
		fmt.Printf("✅ [%d] %s (%s)\n", i+1, res.URL, res.Identity)
		fmt.Printf("     抽出コンテンツの長さ: %d 文字\n", utf8.RuneCountInString(res.Content))
		fmt.Printf("     プレビュー: %s\n", preview(res.Content, previewLength))
	}

	fmt.Println("-------------------------------")
	fmt.Printf("完了: 成功 %d 件, 失敗 %d 件\n", successCount, errorCount)
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

var scraperCmd = &cobra.Command{
	Use:   "scraper",
	Short: "複数のURLを並列で処理し、本文を抽出します",
	Long:  `--urls フラグでカンマ区切りのURLリストを受け取るか、標準入力からURLを一行ずつ読み込み、指定された最大同時実行数で並列抽出を実行します。`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if scraperFlags.urls == "" {
			app.logger.Info("URLが指定されていないため、標準入力からURLを読み込みます (Ctrl+DまたはEOFで終了)")
		}
		urls, err := collectURLs(scraperFlags.urls, os.Stdin)
		if err != nil {
			return err
		}
		if len(urls) == 0 {
			return fmt.Errorf("処理対象のURLが一つも指定されていません")
		}

		extractor, err := newExtractor(scraperFlags.strategy)
		if err != nil {
			return err
		}
		s := scraper.NewParallelScraper(extractor, scraperFlags.concurrency,
			scraper.WithRateLimit(scraperFlags.rateLimit),
			scraper.WithLogger(app.logger),
		)

		if failed := runScrapePipeline(cmd.Context(), urls, s); failed == len(urls) {
			return fmt.Errorf("すべてのURLで抽出に失敗しました (%d件)", failed)
		}
		return nil
	},
}

func init() {
	scraperCmd.Flags().StringVarP(&scraperFlags.urls, "urls", "u", "",
		"抽出対象のカンマ区切りURLリスト (例: url1,url2,url3)")
	scraperCmd.Flags().IntVarP(&scraperFlags.concurrency, "concurrency", "c",
		scraper.DefaultMaxConcurrency, "最大並列実行数")
	scraperCmd.Flags().DurationVar(&scraperFlags.rateLimit, "rate-limit", 0,
		"リクエスト開始の最小間隔 (例: 500ms)。0 なら制限しない")
	scraperCmd.Flags().StringVarP(&scraperFlags.strategy, "strategy", "s", "", "抽出戦略 (body, selectors, blocks, readability)")
}

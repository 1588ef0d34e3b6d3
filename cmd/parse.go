package cmd

import (
	"fmt"

	"github.com/mmcdole/gofeed"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shouni/go-blog-summarizer/pkg/feed"
	"github.com/shouni/go-blog-summarizer/pkg/scraper"
)

var parseFlags struct {
	url         string
	extract     bool
	concurrency int
}

func printFeed(parsedFeed *gofeed.Feed) {
	fmt.Printf("--- フィード解析結果 ---\n")
	fmt.Printf("フィードタイトル: %s\n", parsedFeed.Title)
	if parsedFeed.Link != "" {
		fmt.Printf("リンク: %s\n", parsedFeed.Link)
	}
	fmt.Printf("合計記事数: %d\n", len(parsedFeed.Items))
	fmt.Println("-----------------------")

	for i, item := range parsedFeed.Items {
		fmt.Printf("[%d] %s\n", i+1, item.Title)
		fmt.Printf("    URL: %s\n", item.Link)
		if item.PublishedParsed != nil {
			fmt.Printf("    公開日: %s\n", item.PublishedParsed.Local().Format("2006-01-02 15:04:05"))
		}
	}
	fmt.Println()
}

var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "RSS/Atomフィードを取得・解析し、記事を一覧表示します",
	Long: `指定されたURLからRSSまたはAtomフィードを取得し、フィードタイトル、記事タイトル、URLを表示します。
--extract を指定すると、各記事の本文を並列に抽出します。`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		feedURL, err := ensureScheme(parseFlags.url)
		if err != nil {
			return fmt.Errorf("URLスキームの処理エラー: %w", err)
		}
		app.logger.Info("フィードを取得します", zap.String("url", feedURL))

		parser := feed.NewParser(app.feedClient)

		parsedFeed, err := parser.FetchAndParse(cmd.Context(), feedURL)
		if err != nil {
			return fmt.Errorf("フィード解析パイプラインの実行エラー: %w", err)
		}
		printFeed(parsedFeed)

		if !parseFlags.extract {
			return nil
		}

		links := feed.GetAllLinks(feed.NewFeedAdapter(parsedFeed))
		if len(links) == 0 {
			fmt.Println("抽出対象の記事URLがありません")
			return nil
		}
		extractor, err := newExtractor("")
		if err != nil {
			return err
		}
		s := scraper.NewParallelScraper(extractor, parseFlags.concurrency, scraper.WithLogger(app.logger))
		runScrapePipeline(cmd.Context(), links, s)
		return nil
	},
}

func init() {
	parseCmd.Flags().StringVarP(&parseFlags.url, "url", "u", "", "解析対象のフィード (RSS/Atom) URL")
	parseCmd.Flags().BoolVar(&parseFlags.extract, "extract", false, "フィードの各記事から本文を抽出する")
	parseCmd.Flags().IntVarP(&parseFlags.concurrency, "concurrency", "c", scraper.DefaultMaxConcurrency, "--extract 時の最大並列実行数")

	_ = parseCmd.MarkFlagRequired("url")
}

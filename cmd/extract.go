package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shouni/go-blog-summarizer/pkg/client"
)

var extractFlags struct {
	url      string
	relay    string
	strategy string
}

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "指定されたURLまたは標準入力のURLから記事の本文テキストを取得します",
	Long: `指定されたURLまたは標準入力のURLから記事の本文テキストを取得します。
--relay を指定すると、自分では取得せずに別の blog-summarizer サーバーの /api/scrape に抽出を依頼します。`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		urlToProcess := extractFlags.url
		if urlToProcess == "" {
			app.logger.Info("URLが指定されていないため、標準入力からURLを読み込みます")
			fmt.Print("処理するURLを入力してください: ")
			urls, err := readURLs(os.Stdin)
			if err != nil {
				return err
			}
			if len(urls) == 0 {
				return fmt.Errorf("URLが入力されていません")
			}
			urlToProcess = urls[0]
		}

		processedURL, err := ensureScheme(urlToProcess)
		if err != nil {
			return fmt.Errorf("URLスキームの処理エラー: %w", err)
		}

		var text string
		if extractFlags.relay != "" {
			app.logger.Info("中継先に抽出を依頼します", zap.String("url", processedURL), zap.String("relay", extractFlags.relay))
			relay, err := client.NewRelayClient(extractFlags.relay, nil)
			if err != nil {
				return err
			}
			if text, err = relay.Scrape(cmd.Context(), processedURL); err != nil {
				return err
			}
		} else {
			extractor, err := newExtractor(extractFlags.strategy)
			if err != nil {
				return err
			}
			result, err := extractor.FetchAndExtractText(cmd.Context(), processedURL)
			if err != nil {
				return fmt.Errorf("コンテンツ抽出エラー (URL: %s): %w", processedURL, err)
			}
			text = result.Text
		}

		fmt.Println("--- 抽出された本文 ---")
		fmt.Println(text)
		fmt.Println("-----------------------")
		return nil
	},
}

func init() {
	extractCmd.Flags().StringVarP(&extractFlags.url, "url", "u", "", "抽出対象のURL")
	extractCmd.Flags().StringVar(&extractFlags.relay, "relay", "", "抽出を依頼するサーバーのベースURL (例: http://localhost:8080)")
	extractCmd.Flags().StringVarP(&extractFlags.strategy, "strategy", "s", "", "抽出戦略 (body, selectors, blocks, readability)。未指定なら設定ファイルの値")
}

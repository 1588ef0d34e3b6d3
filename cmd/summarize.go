package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shouni/go-blog-summarizer/internal/pipeline"
)

var summarizeFlags struct {
	url     string
	noStore bool
}

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "記事の本文を抽出し、要約とウルドゥー語訳を作成して保存します",
	Long: `記事の本文を抽出し、要約、ウルドゥー語訳、言語判定を行います。
設定ファイルの store.boltPath / store.sqlitePath が指定されていれば結果を保存します。`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		processedURL, err := ensureScheme(summarizeFlags.url)
		if err != nil {
			return fmt.Errorf("URLスキームの処理エラー: %w", err)
		}

		extractor, err := newExtractor("")
		if err != nil {
			return err
		}

		var opts []pipeline.Option
		if !summarizeFlags.noStore {
			stores, err := openStores()
			if err != nil {
				return err
			}
			defer stores.Close()
			opts = stores.pipelineOptions()
		} else {
			opts = (&openedStores{}).pipelineOptions()
		}

		out, err := pipeline.New(extractor, opts...).Run(cmd.Context(), processedURL)
		if err != nil {
			return fmt.Errorf("コンテンツ抽出エラー (URL: %s): %w", processedURL, err)
		}

		rec := out.Record
		fmt.Printf("ID: %s\n", rec.ID)
		fmt.Printf("言語: %s\n", rec.Language)
		fmt.Println("--- 要約 ---")
		fmt.Println(rec.Summary)
		fmt.Println("--- ウルドゥー語訳 ---")
		fmt.Println(rec.Translation)
		fmt.Println("-----------------------")
		for _, w := range out.Warnings() {
			fmt.Printf("警告: %s\n", w)
		}
		return nil
	},
}

func init() {
	summarizeCmd.Flags().StringVarP(&summarizeFlags.url, "url", "u", "", "要約対象のURL")
	summarizeCmd.Flags().BoolVar(&summarizeFlags.noStore, "no-store", false, "結果を保存しない")

	_ = summarizeCmd.MarkFlagRequired("url")
}

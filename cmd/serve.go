package cmd

import (
	"github.com/spf13/cobra"

	"github.com/shouni/go-blog-summarizer/internal/pipeline"
	"github.com/shouni/go-blog-summarizer/pkg/web"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "HTTPサーバーを起動します (POST /api/scrape, POST /api/summarize, GET /api/summaries)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := app.cfg.Server.Addr
		if cmd.Flags().Changed("addr") {
			addr = serveAddr
		}

		extractor, err := newExtractor("")
		if err != nil {
			return err
		}
		stores, err := openStores()
		if err != nil {
			return err
		}
		defer stores.Close()

		opts := []web.Option{
			web.WithLogger(app.logger),
			web.WithPipeline(pipeline.New(extractor, stores.pipelineOptions()...)),
			web.WithMaxRequestBytes(app.cfg.Server.MaxRequestBytes),
			web.WithTimeouts(app.cfg.Server.ReadTimeout, app.cfg.Server.WriteTimeout),
		}
		if stores.table != nil {
			opts = append(opts, web.WithTableStore(stores.table))
		}

		return web.NewServer(extractor, opts...).ListenAndServe(cmd.Context(), addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "待ち受けアドレス。未指定なら設定ファイルの server.addr")
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	clibase "github.com/shouni/go-cli-base"
	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shouni/go-blog-summarizer/internal/config"
	"github.com/shouni/go-blog-summarizer/internal/logging"
	"github.com/shouni/go-blog-summarizer/pkg/extract"
	"github.com/shouni/go-blog-summarizer/pkg/httpclient"
	"github.com/shouni/go-blog-summarizer/pkg/retry"
)

const appName = "blog-summarizer"

// AppFlags はこのアプリケーション固有の永続フラグです。指定されたものだけが設定ファイルと環境変数を上書きします。
// --verbose と --config は clibase.Flags が保持します。
type AppFlags struct {
	Timeout    time.Duration // --timeout 1回の取得試行のタイムアウト
	MaxRetries uint64        // --max-retries Identity 内のリトライ回数
	LogLevel   string        // --log-level
}

var Flags AppFlags

// app は initAppPreRunE で初期化され、各サブコマンドから参照されます。
var app struct {
	cfg        *config.Config
	logger     *zap.Logger
	fetcher    *httpclient.Client // Identity ごとの本文取得
	feedClient *httpkit.Client    // フィード取得
	stop       context.CancelFunc
}

func init() {
	cobra.OnFinalize(func() {
		if app.logger != nil {
			_ = app.logger.Sync()
		}
		if app.stop != nil {
			app.stop()
		}
	})
}

// addAppPersistentFlags は、アプリケーション固有の永続フラグと説明をルートコマンドに追加します。
func addAppPersistentFlags(rootCmd *cobra.Command) {
	rootCmd.Short = "ブログ記事の本文抽出、要約、フィード解析ツール"
	rootCmd.Long = `ブログ記事のURLから本文テキストを抽出し (extract)、要約と翻訳を行います (summarize)。
複数URLの並列抽出 (scraper)、RSS/Atomフィードの解析 (parse)、HTTPサーバー (serve) も提供します。`

	pf := rootCmd.PersistentFlags()
	pf.DurationVar(&Flags.Timeout, "timeout", httpclient.DefaultHTTPTimeout, "1回の取得試行あたりのタイムアウト")
	pf.Uint64Var(&Flags.MaxRetries, "max-retries", retry.DefaultMaxRetries, "1つの Identity 内で一時的なエラーをリトライする回数")
	pf.StringVar(&Flags.LogLevel, "log-level", "info", "ログレベル (debug, info, warn, error)")
}

// initAppPreRunE は clibase 共通処理の後に実行されます。
// 設定の読み込み → フラグの適用 → ロガーとHTTPクライアントの生成 を行い、
// SIGINT/SIGTERM で処理中のコマンドをキャンセルするコンテキストを設定します。
func initAppPreRunE(cmd *cobra.Command, args []string) error {
	// ここまで来ればフラグの解析は成功しているので、以降のエラーで使い方は表示しない
	cmd.SilenceUsage = true

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	logger.Debug("設定を読み込みました",
		zap.String("config", clibase.Flags.ConfigFile),
		zap.Duration("httpTimeout", cfg.HTTP.Timeout),
		zap.Uint64("maxRetries", cfg.HTTP.MaxRetries),
		zap.String("strategy", cfg.Extract.Strategy),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	cmd.SetContext(ctx)

	app.cfg = cfg
	app.logger = logger
	app.fetcher = httpclient.New(cfg.HTTP.Timeout, cfg.HTTPClientOptions()...)
	app.feedClient = httpkit.New(cfg.HTTP.Timeout, cfg.HTTPKitOptions()...)
	app.stop = stop
	return nil
}

// loadConfig は設定ファイルと環境変数を読み込み、明示的に指定されたフラグだけを上書きします。
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(clibase.Flags.ConfigFile)
	if err != nil {
		return nil, err
	}

	pf := cmd.Flags()
	if pf.Changed("timeout") {
		cfg.HTTP.Timeout = Flags.Timeout
	}
	if pf.Changed("max-retries") {
		cfg.HTTP.MaxRetries = Flags.MaxRetries
	}
	if pf.Changed("log-level") {
		cfg.Log.Level = Flags.LogLevel
	}
	if clibase.Flags.Verbose {
		cfg.Log.Development = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newExtractor は設定から Extractor を組み立てます。strategy が空でなければ設定の抽出戦略を上書きします。
func newExtractor(strategy string) (*extract.Extractor, error) {
	if app.cfg == nil || app.fetcher == nil {
		return nil, fmt.Errorf("アプリケーションが初期化されていません")
	}

	ec, err := app.cfg.ExtractorConfig()
	if err != nil {
		return nil, err
	}
	if strategy != "" {
		if ec.Strategy, err = extract.ParseStrategy(strategy); err != nil {
			return nil, err
		}
	}

	extractor, err := extract.NewExtractor(app.fetcher, extract.WithConfig(ec), extract.WithLogger(app.logger))
	if err != nil {
		return nil, fmt.Errorf("Extractorの初期化エラー: %w", err)
	}
	return extractor, nil
}

// Execute は clibase でルートコマンドを組み立てて実行します。エラー時の os.Exit(1) は clibase が行います。
func Execute() {
	clibase.Execute(
		appName,
		addAppPersistentFlags,
		initAppPreRunE,
		extractCmd,
		scraperCmd,
		parseCmd,
		summarizeCmd,
		serveCmd,
	)
}

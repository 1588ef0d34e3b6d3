package cmd

import (
	"errors"

	"go.uber.org/zap"

	"github.com/shouni/go-blog-summarizer/internal/pipeline"
	"github.com/shouni/go-blog-summarizer/internal/store"
	"github.com/shouni/go-blog-summarizer/pkg/langdetect"
)

// openedStores は設定されたストアと、それらを閉じる関数です。
type openedStores struct {
	documents *store.BoltStore
	table     *store.SQLStore
}

// openStores は設定にパスがあるストアだけを開きます。
func openStores() (*openedStores, error) {
	s := &openedStores{}
	cfg := app.cfg.Store

	if cfg.BoltPath != "" {
		docs, err := store.OpenBolt(cfg.BoltPath, cfg.URLMaxLength)
		if err != nil {
			return nil, err
		}
		s.documents = docs
	}
	if cfg.SQLitePath != "" {
		table, err := store.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		s.table = table
	}
	return s, nil
}

// pipelineOptions は開いたストアを Pipeline に渡すオプションを返します。
func (s *openedStores) pipelineOptions() []pipeline.Option {
	opts := []pipeline.Option{
		pipeline.WithLogger(app.logger),
		pipeline.WithLanguageDetector(langdetect.New()),
	}
	if s.documents != nil {
		opts = append(opts, pipeline.WithDocumentStore(s.documents))
	}
	if s.table != nil {
		opts = append(opts, pipeline.WithTableStore(s.table))
	}
	return opts
}

func (s *openedStores) Close() error {
	var errs []error
	if s.documents != nil {
		errs = append(errs, s.documents.Close())
	}
	if s.table != nil {
		errs = append(errs, s.table.Close())
	}
	if err := errors.Join(errs...); err != nil {
		app.logger.Warn("ストアのクローズに失敗しました", zap.Error(err))
		return err
	}
	return nil
}

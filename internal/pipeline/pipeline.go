// Package pipeline は 抽出 → 要約 → 翻訳 → 言語判定 → 保存 の一連の処理をまとめます。
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shouni/go-blog-summarizer/internal/store"
	"github.com/shouni/go-blog-summarizer/pkg/extract"
	"github.com/shouni/go-blog-summarizer/pkg/summary"
	"github.com/shouni/go-blog-summarizer/pkg/translate"
	"github.com/shouni/go-blog-summarizer/pkg/types"
)

// TextExtractor は *extract.Extractor が満たします。
type TextExtractor interface {
	FetchAndExtractText(ctx context.Context, rawURL string) (*extract.Result, error)
}

// LanguageDetector は *langdetect.Detector が満たします。
type LanguageDetector interface {
	Detect(text string) string
}

// Outcome は1件分の処理結果です。
// 保存の失敗は処理全体の失敗にはせず、DocumentErr と TableErr に記録します。
type Outcome struct {
	Record      *types.Record
	Identity    string
	DocumentErr error
	TableErr    error
}

// Warnings は保存時の失敗を利用者向けのメッセージとして返します。
func (o *Outcome) Warnings() []string {
	var warnings []string
	if o.DocumentErr != nil {
		warnings = append(warnings, "document store: save failed")
	}
	if o.TableErr != nil {
		warnings = append(warnings, "table store: save failed")
	}
	return warnings
}

// Pipeline は1つのURLを処理します。並行して利用できます。
type Pipeline struct {
	extractor  TextExtractor
	translator *translate.Translator
	detector   LanguageDetector
	documents  store.DocumentStore
	table      store.TableStore
	logger     *zap.Logger
	now        func() time.Time
	newID      func() string
}

// Option は Pipeline の設定を行うための関数型です。
type Option func(*Pipeline)

// WithDocumentStore は本文を保存するストアを設定します。
func WithDocumentStore(s store.DocumentStore) Option {
	return func(p *Pipeline) { p.documents = s }
}

// WithTableStore は要約を保存するストアを設定します。
func WithTableStore(s store.TableStore) Option {
	return func(p *Pipeline) { p.table = s }
}

// WithLanguageDetector は言語判定を設定します。未設定の場合 Language は空になります。
func WithLanguageDetector(d LanguageDetector) Option {
	return func(p *Pipeline) { p.detector = d }
}

// WithTranslator は翻訳に使う Translator を設定します。
func WithTranslator(t *translate.Translator) Option {
	return func(p *Pipeline) {
		if t != nil {
			p.translator = t
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New は新しい Pipeline を返します。
func New(extractor TextExtractor, options ...Option) *Pipeline {
	p := &Pipeline{
		extractor:  extractor,
		translator: translate.New(nil),
		logger:     zap.NewNop(),
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// Run は rawURL を処理します。抽出に失敗した場合のみエラーを返します。
func (p *Pipeline) Run(ctx context.Context, rawURL string) (*Outcome, error) {
	result, err := p.extractor.FetchAndExtractText(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	sum := summary.Summarize(result.Text)
	rec := &types.Record{
		ID:          p.newID(),
		URL:         rawURL,
		Content:     result.Text,
		Summary:     sum,
		Translation: p.translator.Translate(sum),
		CreatedAt:   p.now().UTC(),
	}
	if p.detector != nil {
		rec.Language = p.detector.Detect(result.Text)
	}

	out := &Outcome{Record: rec, Identity: result.Identity}
	log := p.logger.With(zap.String("id", rec.ID), zap.String("url", rawURL))

	// 2つのストアは独立しており、一方の失敗でもう一方の保存を止めない
	if p.documents != nil {
		if err := p.documents.SaveDocument(ctx, rec); err != nil {
			out.DocumentErr = err
			log.Warn("ドキュメントストアへの保存に失敗しました", zap.Error(err))
		}
	}
	if p.table != nil {
		if err := p.table.SaveSummary(ctx, rec); err != nil {
			out.TableErr = err
			log.Warn("テーブルストアへの保存に失敗しました", zap.Error(err))
		}
	}

	log.Info("処理が完了しました",
		zap.String("identity", result.Identity),
		zap.Int("contentLength", len([]rune(rec.Content))),
		zap.String("language", rec.Language),
		zap.Bool("partial", out.DocumentErr != nil || out.TableErr != nil),
	)
	return out, nil
}

// Err は保存時の失敗をまとめて返します。失敗がなければ nil です。
func (o *Outcome) Err() error {
	return errors.Join(o.DocumentErr, o.TableErr)
}

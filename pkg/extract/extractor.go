package extract

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/shouni/go-blog-summarizer/pkg/httpclient"
	"github.com/shouni/go-blog-summarizer/pkg/normalize"
	"github.com/shouni/go-blog-summarizer/pkg/sanitize"
	"github.com/shouni/go-blog-summarizer/pkg/types"
)

var absoluteHTTPURL = regexp.MustCompile(`(?i)^https?://`)

// Result は抽出に成功した結果です。Attempts には成功より前に失敗した試行が入ります。
type Result struct {
	URL      string
	FinalURL string
	Identity string
	Text     string
	Attempts []Attempt
}

// Extractor は、Fetcher を使って Identity ごとに 取得 → サニタイズ → 抽出 → 正規化 を行います。
// リクエスト間で共有する可変状態を持たないため、並行して利用できます。
type Extractor struct {
	fetcher    Fetcher
	cfg        Config
	normalizer *normalize.Normalizer
	logger     *zap.Logger
}

// Option は Extractor の設定を行うための関数型です。
type Option func(*Extractor)

// WithConfig は設定を置き換えます。
func WithConfig(cfg Config) Option {
	return func(e *Extractor) {
		e.cfg = cfg
	}
}

// WithLogger はロガーを設定します。
func WithLogger(logger *zap.Logger) Option {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewExtractor は、新しい Extractor を生成します。
func NewExtractor(fetcher Fetcher, options ...Option) (*Extractor, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("extract.NewExtractor: Fetcher cannot be nil")
	}

	e := &Extractor{
		fetcher: fetcher,
		cfg:     DefaultConfig(),
		logger:  zap.NewNop(),
	}
	for _, opt := range options {
		opt(e)
	}
	if err := e.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("extract.NewExtractor: %w", err)
	}

	e.normalizer = normalize.New(normalize.Options{
		MinLength:          e.cfg.MinContentLength,
		MaxLength:          e.cfg.MaxContentLength,
		PreserveParagraphs: e.cfg.Strategy == StrategyBlocks,
	})
	return e, nil
}

// Config は Extractor が使用している設定を返します。
func (e *Extractor) Config() Config {
	return e.cfg
}

// ValidateURL は rawURL が http(s) の絶対URLであることを確認します。
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return &InvalidInputError{URL: rawURL, Reason: "URLが指定されていません"}
	}
	if !absoluteHTTPURL.MatchString(rawURL) {
		return &InvalidInputError{URL: rawURL, Reason: "http:// または https:// で始まる絶対URLを指定してください"}
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return &InvalidInputError{URL: rawURL, Reason: "URLを解析できません"}
	}
	return nil
}

// FetchAndExtractText は Identity を優先順に試し、最初に十分な長さの本文が得られた時点で返します。
// 失敗した Identity は記録して次へ進み、すべて失敗すると ErrAllIdentitiesExhausted、
// 全体の制限時間を超えると ErrTimeout を Cause に持つ *AttemptsError を返します。
func (e *Extractor) FetchAndExtractText(ctx context.Context, rawURL string) (*Result, error) {
	// 1. ネットワークに触れる前に入力を検証
	if err := ValidateURL(rawURL); err != nil {
		return nil, err
	}

	// 2. ループ全体の制限時間
	ctx, cancel := context.WithTimeout(ctx, e.cfg.OverallTimeout)
	defer cancel()

	log := e.logger.With(zap.String("url", truncateURL(rawURL)))
	attempts := make([]Attempt, 0, len(e.cfg.Identities))

	// 3. Identity を順番に試す (並列にはしない: 最初の成功で打ち切るため)
	for _, id := range e.cfg.Identities {
		if err := ctx.Err(); err != nil {
			return nil, e.interrupted(log, rawURL, err, attempts)
		}

		result, attempt := e.attempt(ctx, rawURL, id)
		if attempt.Err == nil {
			result.Attempts = attempts
			log.Info("本文を抽出しました",
				zap.String("identity", id.Name),
				zap.Int("length", attempt.Length),
				zap.Int("failedAttempts", len(attempts)),
			)
			return result, nil
		}

		attempts = append(attempts, attempt)
		log.Warn("Identity での抽出に失敗しました。次の Identity を試します",
			zap.String("identity", id.Name),
			zap.Int("status", attempt.StatusCode),
			zap.Duration("duration", attempt.Duration),
			zap.Error(attempt.Err),
		)
	}

	if err := ctx.Err(); err != nil {
		return nil, e.interrupted(log, rawURL, err, attempts)
	}

	exhausted := &AttemptsError{Cause: ErrAllIdentitiesExhausted, URL: rawURL, Attempts: attempts}
	log.Error("すべての Identity で抽出に失敗しました", zap.Int("attempts", len(attempts)), zap.Error(exhausted.LastErr()))
	return nil, exhausted
}

func (e *Extractor) interrupted(log *zap.Logger, rawURL string, ctxErr error, attempts []Attempt) error {
	if errors.Is(ctxErr, context.DeadlineExceeded) {
		timeout := &AttemptsError{Cause: ErrTimeout, URL: rawURL, Attempts: attempts}
		log.Error("抽出処理が制限時間を超えました", zap.Duration("budget", e.cfg.OverallTimeout), zap.Int("attempts", len(attempts)))
		return timeout
	}
	log.Info("抽出処理がキャンセルされました", zap.Int("attempts", len(attempts)))
	return fmt.Errorf("抽出処理がキャンセルされました (URL: %s): %w", truncateURL(rawURL), ctxErr)
}

// attempt は1つの Identity で 取得 → 抽出 を行います。
func (e *Extractor) attempt(ctx context.Context, rawURL string, id types.Identity) (*Result, Attempt) {
	start := time.Now()
	attempt := Attempt{Identity: id.Name}

	raw, err := e.fetcher.Fetch(ctx, rawURL, id)
	if err != nil {
		attempt.Duration = time.Since(start)
		attempt.StatusCode = httpclient.StatusCodeOf(err)
		attempt.Err = &FetchError{Identity: id.Name, StatusCode: attempt.StatusCode, Err: err}
		return nil, attempt
	}

	attempt.StatusCode = raw.StatusCode
	pageURL := raw.URL
	if pageURL == "" {
		pageURL = rawURL
	}

	text, rawLength, err := e.extract(pageURL, raw.Body)
	attempt.Duration = time.Since(start)
	attempt.Length = rawLength
	if err != nil {
		attempt.Err = err
		return nil, attempt
	}
	attempt.Length = utf8.RuneCountInString(text)

	return &Result{
		URL:      rawURL,
		FinalURL: pageURL,
		Identity: id.Name,
		Text:     text,
	}, attempt
}

// ExtractHTML は取得済みのHTMLに対して サニタイズ → 抽出 → 正規化 を行います。
// 本文が短すぎる場合は ErrEmptyContent を返します。
func (e *Extractor) ExtractHTML(pageURL string, body []byte) (string, error) {
	text, _, err := e.extract(pageURL, body)
	return text, err
}

func (e *Extractor) extract(pageURL string, body []byte) (string, int, error) {
	doc := sanitize.SanitizeHTML(string(body), e.cfg.SanitizeMode)

	var (
		raw string
		err error
	)
	switch e.cfg.Strategy {
	case StrategyWholeBody:
		raw = WholeBodyText(doc)
	case StrategyBlocks:
		raw = BlockText(doc)
	case StrategyReadability:
		u, _ := url.Parse(pageURL)
		raw, err = ReadabilityText(doc, u)
		if err != nil {
			return "", 0, err
		}
	default:
		raw = SelectorText(doc, e.cfg.Selectors, e.cfg.SelectorPolicy)
	}

	text, err := e.normalizer.Normalize(raw)
	if err != nil {
		return "", utf8.RuneCountInString(raw), err
	}
	return text, utf8.RuneCountInString(text), nil
}

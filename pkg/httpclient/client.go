package httpclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/net/html/charset"

	"github.com/shouni/go-blog-summarizer/pkg/retry"
	"github.com/shouni/go-blog-summarizer/pkg/types"
)

const (
	// DefaultHTTPTimeout は、1回の取得試行あたりのタイムアウトです。
	DefaultHTTPTimeout = 8 * time.Second
	// DefaultMaxRedirects は、追従するリダイレクトの上限です。
	DefaultMaxRedirects = 3
	// MaxBodySize は、レスポンスボディの最大読み込みサイズです。超過分は切り捨てます。
	MaxBodySize = int64(10 * 1024 * 1024)

	maxErrorBodyPreview = 1024
	acceptHTML          = "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8"
)

// Doer は、標準の *http.Client.Do() と互換性のあるHTTPクライアントのインターフェースです。
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// NonRetryableHTTPError はHTTP 4xx系などのリトライしても結果が変わらないエラーです。
type NonRetryableHTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *NonRetryableHTTPError) Error() string {
	body := strings.TrimSpace(string(e.Body))
	if body == "" {
		return fmt.Sprintf("HTTPクライアントエラー (非リトライ対象): ステータスコード %d, ボディなし", e.StatusCode)
	}
	if runes := []rune(body); len(runes) > maxErrorBodyPreview {
		body = string(runes[:maxErrorBodyPreview]) + "..."
	}
	return fmt.Sprintf("HTTPクライアントエラー (非リトライ対象): ステータスコード %d, ボディ: %s", e.StatusCode, body)
}

// ServerError は5xx系のレスポンスを表します。リトライ対象です。
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("HTTPサーバーエラー (リトライ対象): ステータスコード %d", e.StatusCode)
}

// Client は、Identity ごとのヘッダー付与、タイムアウト、リダイレクト上限、
// 一時的エラーのリトライを管理するHTTPクライアントです。
type Client struct {
	httpClient   Doer
	retryConfig  retry.Config
	maxBodySize  int64
	maxRedirects int
}

// Option は Client の設定を行うための関数型です。
type Option func(*Client)

// WithHTTPClient はカスタムの Doer を設定します。リダイレクト上限は Doer 側の責務になります。
func WithHTTPClient(doer Doer) Option {
	return func(c *Client) {
		c.httpClient = doer
	}
}

// WithMaxRetries は1つの Identity 内での最大リトライ回数を設定します。
func WithMaxRetries(max uint64) Option {
	return func(c *Client) {
		c.retryConfig.MaxRetries = max
	}
}

// WithRetryConfig はリトライ設定をまとめて置き換えます。
func WithRetryConfig(cfg retry.Config) Option {
	return func(c *Client) {
		c.retryConfig = cfg
	}
}

// WithMaxRedirects は追従するリダイレクトの上限を設定します。
func WithMaxRedirects(max int) Option {
	return func(c *Client) {
		c.maxRedirects = max
	}
}

// WithMaxBodySize はレスポンスボディの最大読み込みサイズを設定します。
func WithMaxBodySize(size int64) Option {
	return func(c *Client) {
		if size > 0 {
			c.maxBodySize = size
		}
	}
}

// New は新しい Client を生成します。timeout は1回の試行あたりの上限です。
func New(timeout time.Duration, options ...Option) *Client {
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}

	c := &Client{
		retryConfig:  retry.DefaultConfig(),
		maxBodySize:  MaxBodySize,
		maxRedirects: DefaultMaxRedirects,
	}
	for _, opt := range options {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Timeout:       timeout,
			CheckRedirect: limitRedirects(c.maxRedirects),
		}
	}
	return c
}

func limitRedirects(max int) func(req *http.Request, via []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if len(via) > max {
			return fmt.Errorf("リダイレクト回数が上限 (%d回) を超えました", max)
		}
		return nil
	}
}

// Fetch は Identity のヘッダーを付けて rawURL を GET し、UTF-8 にデコードしたボディを返します。
// 2xx 以外のステータスはエラーです。
func (c *Client) Fetch(ctx context.Context, rawURL string, id types.Identity) (*types.RawDocument, error) {
	var doc *types.RawDocument

	op := func() error {
		var fetchErr error
		doc, fetchErr = c.doFetch(ctx, rawURL, id)
		return fetchErr
	}

	err := retry.Do(ctx, c.retryConfig, fmt.Sprintf("URL(%s)の取得 [%s]", rawURL, id.Name), op, isRetryableError)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (c *Client) doFetch(ctx context.Context, rawURL string, id types.Identity) (*types.RawDocument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("GETリクエスト作成に失敗しました: %w", err)
	}
	applyIdentity(req, id)
	req.Header.Set("Accept", acceptHTML)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストに失敗しました (ネットワーク/接続エラー): %w", err)
	}
	defer resp.Body.Close()

	if err := checkResponse(resp); err != nil {
		return nil, err
	}

	body, err := readLimited(resp.Body, c.maxBodySize)
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み込みに失敗しました: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return &types.RawDocument{
		URL:         finalURL,
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		Body:        decodeToUTF8(body, contentType),
	}, nil
}

func applyIdentity(req *http.Request, id types.Identity) {
	if id.UserAgent != "" {
		req.Header.Set("User-Agent", id.UserAgent)
	}
	if id.Referer != "" {
		req.Header.Set("Referer", id.Referer)
	}
}

// checkResponse はステータスコードを評価します。ボディを閉じるのは呼び出し元の責務です。
func checkResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return nil
	}
	if resp.StatusCode >= 500 {
		return &ServerError{StatusCode: resp.StatusCode}
	}

	// rune 単位で切り詰めるため、最大幅の UTF-8 でも足りる分だけ読む
	preview, _ := io.ReadAll(io.LimitReader(resp.Body, int64(maxErrorBodyPreview*utf8.UTFMax+1)))
	return &NonRetryableHTTPError{
		StatusCode: resp.StatusCode,
		Body:       preview,
	}
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, limit))
}

// decodeToUTF8 は Content-Type と <meta charset> から文字コードを判定して UTF-8 に変換します。
// 判定に失敗した場合は元のバイト列をそのまま返します。
func decodeToUTF8(body []byte, contentType string) []byte {
	reader, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return body
	}
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return body
	}
	return decoded
}

// IsNonRetryableError は与えられたエラーが非リトライ対象のHTTPエラーであるかを判断します。
func IsNonRetryableError(err error) bool {
	var nonRetryable *NonRetryableHTTPError
	return errors.As(err, &nonRetryable)
}

// StatusCodeOf はエラーに含まれるHTTPステータスコードを返します。含まれない場合は 0 です。
func StatusCodeOf(err error) int {
	var nonRetryable *NonRetryableHTTPError
	if errors.As(err, &nonRetryable) {
		return nonRetryable.StatusCode
	}
	var serverErr *ServerError
	if errors.As(err, &serverErr) {
		return serverErr.StatusCode
	}
	return 0
}

// isRetryableError は retry.ShouldRetryFunc のシグネチャを満たします。
// コンテキストの期限切れ・キャンセルと 4xx はリトライしません。
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return !IsNonRetryableError(err)
}

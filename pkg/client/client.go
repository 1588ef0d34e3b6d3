package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shouni/go-http-kit/pkg/httpkit"

	"github.com/shouni/go-blog-summarizer/pkg/types"
)

const (
	// DefaultHTTPTimeout は、中継先のサーバー側で Identity ループ全体が完了するまで待てる長さです。
	DefaultHTTPTimeout = 35 * time.Second

	scrapePath = "/api/scrape"
)

var (
	// ErrAPIRequestFailed は、中継先が 2xx 以外を返したことを示します。
	ErrAPIRequestFailed = errors.New("API request failed")
	// ErrNoContent は、中継先のレスポンスに本文が含まれていなかったことを示します。
	ErrNoContent = errors.New("No content received")
)

// Poster は JSON を POST してレスポンスボディを返します。*httpkit.Client が満たします。
type Poster interface {
	PostJSONAndFetchBytes(ctx context.Context, url string, data any) ([]byte, error)
}

// RelayClient は、自前で取得する代わりに別の実行環境 (サーバー) の /api/scrape に抽出を依頼します。
type RelayClient struct {
	poster  Poster
	baseURL string
}

// NewRelayClient は新しい RelayClient を初期化します。
// poster が nil の場合はリトライなしの httpkit.Client を使います。
func NewRelayClient(baseURL string, poster Poster) (*RelayClient, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("client.NewRelayClient: 中継先のURLが指定されていません")
	}
	if poster == nil {
		// 中継先で Identity ループとリトライが行われるため、ここでは再送しない
		poster = httpkit.New(DefaultHTTPTimeout, httpkit.WithMaxRetries(0))
	}
	return &RelayClient{poster: poster, baseURL: baseURL}, nil
}

type scrapeResponse struct {
	Content string `json:"content"`
	Error   string `json:"error,omitempty"`
}

// Scrape は中継先に url の抽出を依頼し、本文を返します。
func (c *RelayClient) Scrape(ctx context.Context, url string) (string, error) {
	body, err := c.poster.PostJSONAndFetchBytes(ctx, c.baseURL+scrapePath, types.ScrapeRequest{URL: url})
	if err != nil {
		var clientErr *httpkit.NonRetryableHTTPError
		if errors.As(err, &clientErr) {
			return "", fmt.Errorf("Failed to get content: %w (ステータスコード %d)", ErrAPIRequestFailed, clientErr.StatusCode)
		}
		return "", fmt.Errorf("Failed to get content: %w: %w", ErrAPIRequestFailed, err)
	}

	var resp scrapeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("Failed to get content: レスポンスの解析に失敗しました: %w", err)
	}
	if resp.Content == "" {
		return "", fmt.Errorf("Failed to get content: %w", ErrNoContent)
	}
	return resp.Content, nil
}

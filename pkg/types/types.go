package types

import "time"

// Identity は、取得リクエストに付与するヘッダーの組 (User-Agent と任意の Referer) です。
// ボット対策を行うサイトに対して、複数の名乗り方を優先順に試すために使います。
type Identity struct {
	Name      string `yaml:"name" json:"name"`
	UserAgent string `yaml:"userAgent" json:"userAgent"`
	Referer   string `yaml:"referer,omitempty" json:"referer,omitempty"`
}

// RawDocument は、1回の取得試行で得られたレスポンスです。
// Body は UTF-8 にデコード済みの HTML です。
type RawDocument struct {
	URL         string // リダイレクト後の最終URL
	StatusCode  int
	ContentType string
	Body        []byte
}

// ScrapeRequest は、/api/scrape が受け付けるリクエストボディです。
type ScrapeRequest struct {
	URL string `json:"url"`
}

// URLResult は、特定のURLから抽出された結果、またはその処理中に発生したエラーを保持します。
// Scraper の出力として利用されます。
type URLResult struct {
	URL      string // 処理対象のURL
	Content  string // 抽出された記事の本文
	Identity string // 本文の取得に成功した Identity 名
	Error    error  // 処理中に発生したエラー
}

// Record は、要約・翻訳を含めて永続化される1件分のデータです。
type Record struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	Content     string    `json:"content"`
	Summary     string    `json:"summary"`
	Translation string    `json:"translation"`
	Language    string    `json:"language,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

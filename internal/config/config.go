// Package config は YAML ファイルと環境変数からアプリケーション設定を読み込みます。
// 優先順位は デフォルト < YAML < 環境変数 (BLOGSUM_*) < CLI フラグ で、
// CLI フラグは cmd パッケージが Load の後に上書きします。
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shouni/go-http-kit/pkg/httpkit"
	yaml "gopkg.in/yaml.v3"

	"github.com/shouni/go-blog-summarizer/pkg/extract"
	"github.com/shouni/go-blog-summarizer/pkg/httpclient"
	"github.com/shouni/go-blog-summarizer/pkg/normalize"
	"github.com/shouni/go-blog-summarizer/pkg/retry"
	"github.com/shouni/go-blog-summarizer/pkg/sanitize"
	"github.com/shouni/go-blog-summarizer/pkg/types"
)

// EnvPrefix は環境変数の接頭辞です。
const EnvPrefix = "BLOGSUM_"

// Config はアプリケーション全体の設定です。
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	HTTP    HTTPConfig    `yaml:"http"`
	Extract ExtractConfig `yaml:"extract"`
	Store   StoreConfig   `yaml:"store"`
	Log     LogConfig     `yaml:"log"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	MaxRequestBytes int64         `yaml:"maxRequestBytes"`
}

// HTTPConfig は Fetcher (試行ごとの取得) の設定です。
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	MaxRedirects int           `yaml:"maxRedirects"`
	MaxRetries   uint64        `yaml:"maxRetries"`
	MaxBodyBytes int64         `yaml:"maxBodyBytes"`
}

type ExtractConfig struct {
	Strategy         string           `yaml:"strategy"`
	Selectors        []string         `yaml:"selectors"`
	SelectorPolicy   string           `yaml:"selectorPolicy"`
	Sanitize         string           `yaml:"sanitize"`
	MinContentLength int              `yaml:"minContentLength"`
	MaxContentLength int              `yaml:"maxContentLength"`
	OverallTimeout   time.Duration    `yaml:"overallTimeout"`
	Identities       []types.Identity `yaml:"identities"`
}

// StoreConfig のパスが空の場合、そのストアは使いません。
type StoreConfig struct {
	BoltPath     string `yaml:"boltPath"`
	SQLitePath   string `yaml:"sqlitePath"`
	URLMaxLength int    `yaml:"urlMaxLength"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default はデフォルト設定を返します。
func Default() *Config {
	ec := extract.DefaultConfig()
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    ec.OverallTimeout + 5*time.Second,
			MaxRequestBytes: 1 << 20,
		},
		HTTP: HTTPConfig{
			Timeout:      httpclient.DefaultHTTPTimeout,
			MaxRedirects: httpclient.DefaultMaxRedirects,
			MaxRetries:   retry.DefaultMaxRetries,
			MaxBodyBytes: httpclient.MaxBodySize,
		},
		Extract: ExtractConfig{
			Strategy:         string(ec.Strategy),
			Selectors:        ec.Selectors,
			SelectorPolicy:   string(ec.SelectorPolicy),
			Sanitize:         ec.SanitizeMode.String(),
			MinContentLength: normalize.DefaultMinLength,
			MaxContentLength: normalize.DefaultMaxLength,
			OverallTimeout:   ec.OverallTimeout,
			Identities:       ec.Identities,
		},
		Store: StoreConfig{
			URLMaxLength: 500,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load は path の YAML (空なら読まない) と環境変数を適用した設定を返します。検証も行います。
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("設定ファイルの読み込みに失敗しました (%s): %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("設定ファイルのパースに失敗しました (%s): %w", path, err)
	}
	return nil
}

// applyEnv は BLOGSUM_* 環境変数で設定を上書きします。lookup は os.LookupEnv 互換です。
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(EnvPrefix + key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = d
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(EnvPrefix + key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = n
		}
	}

	str("SERVER_ADDR", &c.Server.Addr)
	dur("HTTP_TIMEOUT", &c.HTTP.Timeout)
	num("HTTP_MAX_REDIRECTS", &c.HTTP.MaxRedirects)
	if v, ok := lookup(EnvPrefix + "HTTP_MAX_RETRIES"); ok {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sHTTP_MAX_RETRIES: %w", EnvPrefix, err))
		} else {
			c.HTTP.MaxRetries = n
		}
	}
	str("EXTRACT_STRATEGY", &c.Extract.Strategy)
	str("EXTRACT_SELECTOR_POLICY", &c.Extract.SelectorPolicy)
	str("EXTRACT_SANITIZE", &c.Extract.Sanitize)
	if v, ok := lookup(EnvPrefix + "EXTRACT_SELECTORS"); ok {
		c.Extract.Selectors = splitList(v)
	}
	num("EXTRACT_MIN_CONTENT_LENGTH", &c.Extract.MinContentLength)
	num("EXTRACT_MAX_CONTENT_LENGTH", &c.Extract.MaxContentLength)
	dur("EXTRACT_OVERALL_TIMEOUT", &c.Extract.OverallTimeout)
	str("STORE_BOLT_PATH", &c.Store.BoltPath)
	str("STORE_SQLITE_PATH", &c.Store.SQLitePath)
	str("LOG_LEVEL", &c.Log.Level)

	return errors.Join(errs...)
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate は設定値の整合性を確認します。
func (c *Config) Validate() error {
	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("http.timeout は正の値である必要があります: %s", c.HTTP.Timeout)
	}
	if c.HTTP.MaxRedirects < 0 {
		return fmt.Errorf("http.maxRedirects は0以上である必要があります: %d", c.HTTP.MaxRedirects)
	}
	if c.Server.MaxRequestBytes <= 0 {
		return fmt.Errorf("server.maxRequestBytes は正の値である必要があります: %d", c.Server.MaxRequestBytes)
	}
	if c.Store.URLMaxLength <= 0 {
		return fmt.Errorf("store.urlMaxLength は正の値である必要があります: %d", c.Store.URLMaxLength)
	}
	ec, err := c.ExtractorConfig()
	if err != nil {
		return err
	}
	return ec.Validate()
}

// ExtractorConfig は extract.Extractor に渡す設定を組み立てます。
func (c *Config) ExtractorConfig() (extract.Config, error) {
	strategy, err := extract.ParseStrategy(c.Extract.Strategy)
	if err != nil {
		return extract.Config{}, fmt.Errorf("extract.strategy: %w", err)
	}
	policy, err := extract.ParseSelectorPolicy(c.Extract.SelectorPolicy)
	if err != nil {
		return extract.Config{}, fmt.Errorf("extract.selectorPolicy: %w", err)
	}
	mode, err := sanitize.ParseMode(c.Extract.Sanitize)
	if err != nil {
		return extract.Config{}, fmt.Errorf("extract.sanitize: %w", err)
	}
	return extract.Config{
		Identities:       c.Extract.Identities,
		Strategy:         strategy,
		Selectors:        c.Extract.Selectors,
		SelectorPolicy:   policy,
		SanitizeMode:     mode,
		MinContentLength: c.Extract.MinContentLength,
		MaxContentLength: c.Extract.MaxContentLength,
		OverallTimeout:   c.Extract.OverallTimeout,
	}, nil
}

// HTTPClientOptions は httpclient.New に渡すオプションを返します。
func (c *Config) HTTPClientOptions() []httpclient.Option {
	return []httpclient.Option{
		httpclient.WithMaxRetries(c.HTTP.MaxRetries),
		httpclient.WithMaxRedirects(c.HTTP.MaxRedirects),
		httpclient.WithMaxBodySize(c.HTTP.MaxBodyBytes),
	}
}

// HTTPKitOptions は httpkit.New に渡すオプションを返します。
// フィード取得のように Identity を切り替えないリクエストに使います。
func (c *Config) HTTPKitOptions() []httpkit.ClientOption {
	return []httpkit.ClientOption{
		httpkit.WithMaxRetries(c.HTTP.MaxRetries),
		httpkit.WithInitialInterval(retry.InitialBackoffInterval),
		httpkit.WithMaxInterval(retry.MaxBackoffInterval),
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/go-blog-summarizer/pkg/extract"
	"github.com/shouni/go-blog-summarizer/pkg/retry"
	"github.com/shouni/go-blog-summarizer/pkg/sanitize"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 8*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, 3, cfg.HTTP.MaxRedirects)
	assert.Equal(t, 30*time.Second, cfg.Extract.OverallTimeout)
	assert.Equal(t, 100, cfg.Extract.MinContentLength)
	assert.Equal(t, 100000, cfg.Extract.MaxContentLength)
	require.Len(t, cfg.Extract.Identities, 2)
	assert.Equal(t, "googlebot", cfg.Extract.Identities[0].Name)
	assert.Equal(t, "https://www.google.com", cfg.Extract.Identities[1].Referer)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yamlContent := `
server:
  addr: ":9090"
http:
  timeout: 5s
  maxRetries: 2
extract:
  strategy: blocks
  sanitize: basic
  overallTimeout: 20s
  identities:
    - name: custom
      userAgent: "CustomBot/1.0"
store:
  boltPath: /tmp/blog.db
`
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, uint64(2), cfg.HTTP.MaxRetries)
	assert.Equal(t, 3, cfg.HTTP.MaxRedirects, "未指定の項目はデフォルトのまま")
	assert.Equal(t, "/tmp/blog.db", cfg.Store.BoltPath)

	ec, err := cfg.ExtractorConfig()
	require.NoError(t, err)
	assert.Equal(t, extract.StrategyBlocks, ec.Strategy)
	assert.Equal(t, sanitize.Basic, ec.SanitizeMode)
	assert.Equal(t, 20*time.Second, ec.OverallTimeout)
	require.Len(t, ec.Identities, 1)
	assert.Equal(t, "CustomBot/1.0", ec.Identities[0].UserAgent)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing_file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorContains(t, err, "設定ファイルの読み込みに失敗しました")
	})

	t.Run("invalid_yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o600))
		_, err := Load(path)
		assert.ErrorContains(t, err, "設定ファイルのパースに失敗しました")
	})

	t.Run("invalid_strategy", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "strategy.yaml")
		require.NoError(t, os.WriteFile(path, []byte("extract:\n  strategy: magic\n"), 0o600))
		_, err := Load(path)
		assert.ErrorContains(t, err, "extract.strategy")
	})
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"BLOGSUM_SERVER_ADDR":             "127.0.0.1:1234",
		"BLOGSUM_HTTP_TIMEOUT":            "3s",
		"BLOGSUM_HTTP_MAX_RETRIES":        "4",
		"BLOGSUM_EXTRACT_STRATEGY":        "readability",
		"BLOGSUM_EXTRACT_SELECTORS":       "article, .content ,,",
		"BLOGSUM_EXTRACT_OVERALL_TIMEOUT": "10s",
		"BLOGSUM_STORE_SQLITE_PATH":       "/tmp/summaries.db",
		"BLOGSUM_LOG_LEVEL":               "debug",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	require.NoError(t, cfg.applyEnv(lookup))
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "127.0.0.1:1234", cfg.Server.Addr)
	assert.Equal(t, 3*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, uint64(4), cfg.HTTP.MaxRetries)
	assert.Equal(t, "readability", cfg.Extract.Strategy)
	assert.Equal(t, []string{"article", ".content"}, cfg.Extract.Selectors)
	assert.Equal(t, 10*time.Second, cfg.Extract.OverallTimeout)
	assert.Equal(t, "/tmp/summaries.db", cfg.Store.SQLitePath)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestApplyEnv_InvalidValues(t *testing.T) {
	env := map[string]string{
		"BLOGSUM_HTTP_TIMEOUT":               "soon",
		"BLOGSUM_EXTRACT_MIN_CONTENT_LENGTH": "many",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	err := Default().applyEnv(lookup)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BLOGSUM_HTTP_TIMEOUT")
	assert.Contains(t, err.Error(), "BLOGSUM_EXTRACT_MIN_CONTENT_LENGTH")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "zero_http_timeout", mutate: func(c *Config) { c.HTTP.Timeout = 0 }},
		{name: "negative_redirects", mutate: func(c *Config) { c.HTTP.MaxRedirects = -1 }},
		{name: "no_identities", mutate: func(c *Config) { c.Extract.Identities = nil }},
		{name: "bad_policy", mutate: func(c *Config) { c.Extract.SelectorPolicy = "random" }},
		{name: "bad_sanitize", mutate: func(c *Config) { c.Extract.Sanitize = "none" }},
		{name: "max_below_min", mutate: func(c *Config) { c.Extract.MaxContentLength = 50 }},
		{name: "zero_request_bytes", mutate: func(c *Config) { c.Server.MaxRequestBytes = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestHTTPKitOptions(t *testing.T) {
	cfg := Default()
	cfg.HTTP.MaxRetries = 4

	kit := httpkit.New(cfg.HTTP.Timeout, cfg.HTTPKitOptions()...)
	assert.Equal(t, uint64(4), kit.RetryConfig.MaxRetries)
	assert.Equal(t, retry.InitialBackoffInterval, kit.RetryConfig.InitialInterval)
	assert.Equal(t, retry.MaxBackoffInterval, kit.RetryConfig.MaxInterval)
}

// Package web は抽出処理を HTTP で公開します。
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/shouni/go-blog-summarizer/internal/pipeline"
	"github.com/shouni/go-blog-summarizer/internal/store"
	"github.com/shouni/go-blog-summarizer/pkg/extract"
	"github.com/shouni/go-blog-summarizer/pkg/types"
)

// 利用者に返すエラーメッセージ。内部のエラー内容はログにのみ出力します。
const (
	msgInvalidURL        = "Valid URL required"
	msgExtractionFailed  = "Failed to extract text content"
	msgSummariesDisabled = "Summaries are not available"
	msgSummariesFailed   = "Failed to fetch summaries"
)

const (
	DefaultMaxRequestBytes = 1 << 20
	shutdownTimeout        = 10 * time.Second
)

// TextExtractor は *extract.Extractor が満たします。
type TextExtractor interface {
	FetchAndExtractText(ctx context.Context, rawURL string) (*extract.Result, error)
}

// Runner は *pipeline.Pipeline が満たします。
type Runner interface {
	Run(ctx context.Context, rawURL string) (*pipeline.Outcome, error)
}

// Server は HTTP ハンドラーとその依存をまとめます。
type Server struct {
	extractor       TextExtractor
	pipeline        Runner
	table           store.TableStore
	logger          *zap.Logger
	maxRequestBytes int64
	readTimeout     time.Duration
	writeTimeout    time.Duration
}

// Option は Server の設定を行うための関数型です。
type Option func(*Server)

// WithPipeline は /api/summarize で使う Pipeline を設定します。未設定の場合は extractor だけの Pipeline を使います。
func WithPipeline(r Runner) Option {
	return func(s *Server) { s.pipeline = r }
}

// WithTableStore は /api/summaries で使うストアを設定します。
func WithTableStore(t store.TableStore) Option {
	return func(s *Server) { s.table = t }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMaxRequestBytes はリクエストボディの上限を設定します。
func WithMaxRequestBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxRequestBytes = n
		}
	}
}

// WithTimeouts は http.Server の読み込み・書き込みタイムアウトを設定します。
func WithTimeouts(read, write time.Duration) Option {
	return func(s *Server) {
		s.readTimeout, s.writeTimeout = read, write
	}
}

// NewServer は新しい Server を返します。
func NewServer(extractor TextExtractor, options ...Option) *Server {
	s := &Server{
		extractor:       extractor,
		logger:          zap.NewNop(),
		maxRequestBytes: DefaultMaxRequestBytes,
		readTimeout:     10 * time.Second,
		writeTimeout:    extract.DefaultOverallTimeout + 5*time.Second,
	}
	for _, opt := range options {
		opt(s)
	}
	if s.pipeline == nil {
		s.pipeline = pipeline.New(extractor, pipeline.WithLogger(s.logger))
	}
	return s
}

// Handler はルーティング済みの http.Handler を返します。
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/scrape", s.handleScrape)
	mux.HandleFunc("POST /api/summarize", s.handleSummarize)
	mux.HandleFunc("GET /api/summaries", s.handleSummaries)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	return mux
}

// ListenAndServe は addr で待ち受け、ctx がキャンセルされると処理中のリクエストを待ってから停止します。
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.readTimeout,
		WriteTimeout: s.writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTPサーバーを起動します", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("HTTPサーバーを停止します")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type scrapeResponse struct {
	Content string `json:"content"`
}

type summarizeResponse struct {
	ID          string   `json:"id"`
	URL         string   `json:"url"`
	Content     string   `json:"content"`
	Summary     string   `json:"summary"`
	Translation string   `json:"translation"`
	Language    string   `json:"language,omitempty"`
	Warnings    []string `json:"warnings,omitempty"`
}

type summaryItem struct {
	ID              string    `json:"id"`
	URL             string    `json:"url"`
	Summary         string    `json:"summary"`
	UrduTranslation string    `json:"urdu_translation"`
	Language        string    `json:"language,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}

	result, err := s.extractor.FetchAndExtractText(r.Context(), req.URL)
	if err != nil {
		s.writeExtractionError(w, req.URL, err)
		return
	}
	writeJSON(w, http.StatusOK, scrapeResponse{Content: result.Text})
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}

	out, err := s.pipeline.Run(r.Context(), req.URL)
	if err != nil {
		s.writeExtractionError(w, req.URL, err)
		return
	}
	rec := out.Record
	writeJSON(w, http.StatusOK, summarizeResponse{
		ID:          rec.ID,
		URL:         rec.URL,
		Content:     rec.Content,
		Summary:     rec.Summary,
		Translation: rec.Translation,
		Language:    rec.Language,
		Warnings:    out.Warnings(),
	})
}

func (s *Server) handleSummaries(w http.ResponseWriter, r *http.Request) {
	if s.table == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: msgSummariesDisabled})
		return
	}

	records, err := s.table.ListSummaries(r.Context())
	if err != nil {
		s.logger.Error("要約一覧の取得に失敗しました", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: msgSummariesFailed})
		return
	}

	items := make([]summaryItem, 0, len(records))
	for _, rec := range records {
		items = append(items, summaryItem{
			ID:              rec.ID,
			URL:             rec.URL,
			Summary:         rec.Summary,
			UrduTranslation: rec.Translation,
			Language:        rec.Language,
			CreatedAt:       rec.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, items)
}

// decodeRequest はボディを ScrapeRequest として読み、URL を検証します。
// 失敗した場合は 400 を書き込み false を返します。
func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request) (types.ScrapeRequest, bool) {
	var req types.ScrapeRequest
	body := http.MaxBytesReader(w, r.Body, s.maxRequestBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		s.logger.Debug("リクエストボディを解析できません", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgInvalidURL})
		return req, false
	}
	if err := extract.ValidateURL(req.URL); err != nil {
		s.logger.Debug("無効なURLを受け付けました", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgInvalidURL})
		return req, false
	}
	return req, true
}

func (s *Server) writeExtractionError(w http.ResponseWriter, rawURL string, err error) {
	if errors.Is(err, extract.ErrInvalidInput) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgInvalidURL})
		return
	}
	s.logger.Error("抽出に失敗しました",
		zap.String("url", rawURL),
		zap.Bool("timeout", errors.Is(err, extract.ErrTimeout)),
		zap.Error(err),
	)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: msgExtractionFailed})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

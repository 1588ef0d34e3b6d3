package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/shouni/go-blog-summarizer/pkg/types"
)

const summariesSchema = `
CREATE TABLE IF NOT EXISTS summaries (
	id               TEXT PRIMARY KEY,
	url              TEXT NOT NULL,
	summary          TEXT NOT NULL,
	urdu_translation TEXT NOT NULL,
	language         TEXT NOT NULL DEFAULT '',
	created_at       TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_summaries_created_at ON summaries(created_at);
`

// SQLStore は SQLite による TableStore の実装です。
type SQLStore struct {
	db *sql.DB
}

// OpenSQLite は path の SQLite データベースを開き、スキーマを用意します。
func OpenSQLite(path string) (*SQLStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("SQLite のディレクトリ作成に失敗しました: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("SQLite のオープンに失敗しました: %w", err)
	}
	// database/sql のコネクションごとに別の :memory: DB にならないよう1本に絞る
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(summariesSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("スキーマの初期化に失敗しました: %w", err)
	}
	return &SQLStore{db: db}, nil
}

// Close はデータベースを閉じます。
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// SaveSummary は rec の要約と翻訳を1行として保存します。
func (s *SQLStore) SaveSummary(ctx context.Context, rec *types.Record) error {
	if rec == nil || rec.ID == "" {
		return fmt.Errorf("保存するレコードに ID がありません")
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO summaries (id, url, summary, urdu_translation, language, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.URL, rec.Summary, rec.Translation, rec.Language, createdAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save summary: %w", err)
	}
	return nil
}

// ListSummaries は保存済みの要約を新しい順に返します。Content は含みません。
func (s *SQLStore) ListSummaries(ctx context.Context) ([]types.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, url, summary, urdu_translation, language, created_at FROM summaries ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("要約一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	records := []types.Record{}
	for rows.Next() {
		var rec types.Record
		if err := rows.Scan(&rec.ID, &rec.URL, &rec.Summary, &rec.Translation, &rec.Language, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("要約の読み取りに失敗しました: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("要約一覧の取得に失敗しました: %w", err)
	}
	return records, nil
}

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	bolt "go.etcd.io/bbolt"

	"github.com/shouni/go-blog-summarizer/pkg/types"
)

var documentBucket = []byte("blog_contents")

// BoltStore は bbolt による DocumentStore の実装です。
type BoltStore struct {
	db           *bolt.DB
	urlMaxLength int
}

// OpenBolt は path の bbolt ファイルを開き (なければ作成し)、バケットを用意します。
func OpenBolt(path string, urlMaxLength int) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("BoltDB のディレクトリ作成に失敗しました: %w", err)
	}

	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("BoltDB のオープンに失敗しました: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(documentBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("バケットの作成に失敗しました: %w", err)
	}

	if urlMaxLength <= 0 {
		urlMaxLength = DefaultURLMaxLength
	}
	return &BoltStore{db: db, urlMaxLength: urlMaxLength}, nil
}

// Close はデータベースを閉じます。
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// SaveDocument は rec を ID をキーとして保存し、書き込めたことを読み戻して確認します。
// URL は urlMaxLength 文字に切り詰められます (rec 自体は変更しません)。
func (s *BoltStore) SaveDocument(ctx context.Context, rec *types.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rec == nil || rec.ID == "" {
		return fmt.Errorf("保存するレコードに ID がありません")
	}
	if !strings.HasPrefix(rec.URL, "http") {
		return ErrInvalidURL
	}
	if strings.TrimSpace(rec.Content) == "" {
		return ErrEmptyContent
	}

	stored := *rec
	stored.URL = truncateRunes(rec.URL, s.urlMaxLength)
	data, err := json.Marshal(&stored)
	if err != nil {
		return fmt.Errorf("レコードのシリアライズに失敗しました: %w", err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(documentBucket).Put([]byte(rec.ID), data)
	})
	if err != nil {
		return fmt.Errorf("ドキュメントの保存に失敗しました: %w", err)
	}

	if _, err := s.GetDocument(ctx, rec.ID); err != nil {
		return fmt.Errorf("document not found after insertion: %w", err)
	}
	return nil
}

// GetDocument は id のレコードを返します。存在しない場合は ErrNotFound です。
func (s *BoltStore) GetDocument(ctx context.Context, id string) (*types.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rec types.Record
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(documentBucket).Get([]byte(id))
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, &rec)
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

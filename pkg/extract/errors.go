package extract

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/shouni/go-blog-summarizer/pkg/normalize"
)

var (
	// ErrInvalidInput は、URLが未指定または http(s) の絶対URLでないことを示します。リトライされません。
	ErrInvalidInput = errors.New("無効な入力です")
	// ErrAllIdentitiesExhausted は、すべての Identity が失敗したか本文が短すぎたことを示します。
	ErrAllIdentitiesExhausted = errors.New("すべての Identity で本文の取得に失敗しました")
	// ErrTimeout は、全体の制限時間を超えたことを示します。ErrAllIdentitiesExhausted とは区別されます。
	ErrTimeout = errors.New("抽出処理が制限時間を超えました")
	// ErrEmptyContent は、抽出自体は成功したが本文として短すぎたことを示します。
	ErrEmptyContent = normalize.ErrEmptyContent
)

// InvalidInputError は ErrInvalidInput の詳細です。
type InvalidInputError struct {
	URL    string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("無効なURLです (%q): %s", truncateURL(e.URL), e.Reason)
}

func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// FetchError は、1つの Identity での取得失敗です。Extractor 内で次の Identity へ進むことで回復されます。
type FetchError struct {
	Identity   string
	StatusCode int // レスポンスを受け取れなかった場合は 0
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("取得に失敗しました [%s] (ステータスコード %d): %v", e.Identity, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("取得に失敗しました [%s]: %v", e.Identity, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Attempt は、1つの Identity での試行結果です。
type Attempt struct {
	Identity   string
	StatusCode int
	Length     int // 正規化前に抽出できたテキストの文字数
	Duration   time.Duration
	Err        error
}

// AttemptsError は、Identity ループ全体の失敗です。
// Cause は ErrAllIdentitiesExhausted か ErrTimeout で、errors.Is で判別できます。
type AttemptsError struct {
	Cause    error
	URL      string
	Attempts []Attempt
}

func (e *AttemptsError) Error() string {
	if last := e.LastErr(); last != nil {
		return fmt.Sprintf("%v (URL: %s, 試行 %d件, 最終エラー: %v)", e.Cause, truncateURL(e.URL), len(e.Attempts), last)
	}
	return fmt.Sprintf("%v (URL: %s, 試行 %d件)", e.Cause, truncateURL(e.URL), len(e.Attempts))
}

func (e *AttemptsError) Unwrap() error {
	return e.Cause
}

// LastErr は最後に失敗した試行のエラーを返します。
func (e *AttemptsError) LastErr() error {
	if len(e.Attempts) == 0 {
		return nil
	}
	return e.Attempts[len(e.Attempts)-1].Err
}

const maxLoggedURLLength = 100

// truncateURL はログとエラー文言向けに rune 単位で URL を切り詰めます。
func truncateURL(u string) string {
	if utf8.RuneCountInString(u) <= maxLoggedURLLength {
		return u
	}
	return string([]rune(u)[:maxLoggedURLLength]) + "..."
}

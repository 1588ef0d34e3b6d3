package cmd

import (
	"bufio"
	"fmt"
	"io"
	"net/url"
	"strings"
)

// ensureScheme は、URLのスキームが存在しない場合に https:// を補完します。
// http, https 以外のスキームはエラーです。
func ensureScheme(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", fmt.Errorf("URLが入力されていません")
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("URLのパースエラー: %w", err)
	}

	if parsedURL.Scheme != "" && !isHostPort(parsedURL) {
		if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			return "", fmt.Errorf("無効なURLスキームです。httpまたはhttpsを指定してください: %s", rawURL)
		}
		return rawURL, nil
	}

	return "https://" + rawURL, nil
}

// isHostPort は "example.com:8080/path" のように host:port がスキームとして解釈された場合に true を返します。
func isHostPort(u *url.URL) bool {
	return u.Opaque != "" && u.Opaque[0] >= '0' && u.Opaque[0] <= '9'
}

// readURLs は r から1行1URLで読み込み、空行を除いて返します。
func readURLs(r io.Reader) ([]string, error) {
	var urls []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if u := strings.TrimSpace(scanner.Text()); u != "" {
			urls = append(urls, u)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("標準入力の読み取りエラー: %w", err)
	}
	return urls, nil
}

// splitURLs はカンマ区切りのURLリストを分割し、スキームを補完します。
func splitURLs(list string) ([]string, error) {
	return ensureSchemes(strings.Split(list, ","))
}

// collectURLs は list が空でなければそれを、空なら r を URL の入力元とし、スキームを補完して返します。
func collectURLs(list string, r io.Reader) ([]string, error) {
	if list != "" {
		return splitURLs(list)
	}
	urls, err := readURLs(r)
	if err != nil {
		return nil, err
	}
	return ensureSchemes(urls)
}

// ensureSchemes は空の要素を除き、各URLに ensureScheme を適用します。
func ensureSchemes(raw []string) ([]string, error) {
	urls := make([]string, 0, len(raw))
	for _, u := range raw {
		if u = strings.TrimSpace(u); u == "" {
			continue
		}
		fixed, err := ensureScheme(u)
		if err != nil {
			return nil, err
		}
		urls = append(urls, fixed)
	}
	return urls, nil
}

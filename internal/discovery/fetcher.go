package discovery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	// DefaultFetchTimeout はドキュメント取得の既定タイムアウト。
	DefaultFetchTimeout = 10 * time.Second
	// DefaultMaxDocumentSize は取得するドキュメントの既定の最大サイズ（10MiB）。
	DefaultMaxDocumentSize int64 = 10 << 20
)

// DocumentFetcher はURLからドキュメントを取得するインターフェース。
type DocumentFetcher interface {
	Fetch(ctx context.Context, documentURL string) ([]byte, error)
}

// HTTPFetcher はHTTP GETでドキュメントを取得するDocumentFetcherの実装。
// リトライは行わない。1回の試行で成功しなければ失敗とする。
type HTTPFetcher struct {
	// httpClient は内部で使用するHTTPクライアント。
	httpClient *http.Client
	// maxSize は読み込むボディの最大バイト数。
	maxSize int64
}

// NewHTTPFetcher は新しいHTTPFetcherを生成する。
// timeoutまたはmaxSizeが0以下の場合は既定値を使用する。
func NewHTTPFetcher(timeout time.Duration, maxSize int64) *HTTPFetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxDocumentSize
	}
	return &HTTPFetcher{
		httpClient: &http.Client{Timeout: timeout},
		maxSize:    maxSize,
	}
}

// Fetch は指定URLのドキュメントを取得してボディを返す。
// 失敗した場合は *FetchError を返す。
func (f *HTTPFetcher) Fetch(ctx context.Context, documentURL string) ([]byte, error) {
	u, err := url.ParseRequestURI(documentURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, &FetchError{URL: documentURL, Err: errors.New("http(s)のURLではありません")}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, documentURL, nil)
	if err != nil {
		return nil, &FetchError{URL: documentURL, Err: fmt.Errorf("HTTPリクエストの作成に失敗: %w", err)}
	}
	req.Header.Set("Accept", "application/json, application/yaml;q=0.9, */*;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{URL: documentURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{URL: documentURL, StatusCode: resp.StatusCode, Err: errors.New("2xx以外のステータスです")}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxSize+1))
	if err != nil {
		return nil, &FetchError{URL: documentURL, StatusCode: resp.StatusCode, Err: fmt.Errorf("ボディの読み取りに失敗: %w", err)}
	}
	if int64(len(body)) > f.maxSize {
		return nil, &FetchError{URL: documentURL, StatusCode: resp.StatusCode, Err: fmt.Errorf("ドキュメントが大きすぎます（上限 %d バイト）", f.maxSize)}
	}
	if len(body) == 0 {
		return nil, &FetchError{URL: documentURL, StatusCode: resp.StatusCode, Err: errors.New("ドキュメントが空です")}
	}
	return body, nil
}

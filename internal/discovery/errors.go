package discovery

import (
	"errors"
	"fmt"
)

// ErrNotFound はプロジェクトやエンドポイントが存在しないことを表す。
var ErrNotFound = errors.New("リソースが見つかりません")

// FetchError はドキュメントの取得失敗を表す。
// 接続失敗、タイムアウト、2xx以外のステータス、空のボディを含む。
type FetchError struct {
	// URL は取得対象のURL。
	URL string
	// StatusCode はレスポンスのステータスコード。レスポンスがない場合は0。
	StatusCode int
	// Err は失敗の原因。
	Err error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("ドキュメントの取得に失敗: url=%s, status=%d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("ドキュメントの取得に失敗: url=%s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError はドキュメントの解析失敗を表す。
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("ドキュメントの解析に失敗: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// UnsupportedVersionError はOpenAPI 3.xでもSwagger 2.xでもないドキュメントを表す。
type UnsupportedVersionError struct {
	// Version は検出されたバージョン文字列。
	Version string
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("サポートされていないOpenAPIバージョンです: %s", e.Version)
}

// DuplicateEndpointError は手動登録時に同じ (プロジェクト, メソッド, パス) が既に存在することを表す。
// スキャン時の突き合わせでは発生しない。
type DuplicateEndpointError struct {
	ProjectID string
	Method    Method
	Path      string
}

func (e *DuplicateEndpointError) Error() string {
	return fmt.Sprintf("エンドポイントは既に存在します: project=%s, %s %s", e.ProjectID, e.Method, e.Path)
}

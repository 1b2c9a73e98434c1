package discovery

import (
	"fmt"
	"strings"
	"time"
)

// Method はエンドポイントのHTTPメソッドを表す。
type Method string

// 受け付けるHTTPメソッド。
const (
	MethodGet     Method = "GET"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodDelete  Method = "DELETE"
	MethodPatch   Method = "PATCH"
	MethodOptions Method = "OPTIONS"
	MethodHead    Method = "HEAD"
)

// methods は受け付けるHTTPメソッドの一覧。
var methods = []Method{
	MethodGet, MethodPost, MethodPut, MethodDelete, MethodPatch, MethodOptions, MethodHead,
}

// ParseMethod は文字列を大文字化してMethodに変換する。
// 未知のメソッドの場合はエラーを返す。
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToUpper(s))
	for _, known := range methods {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("不正なHTTPメソッドです: %q", s)
}

// isHTTPMethod はパスアイテムのフィールド名が操作（オペレーション）を表すかを判定する。
func isHTTPMethod(field string) bool {
	for _, known := range methods {
		if strings.EqualFold(field, string(known)) {
			return true
		}
	}
	return false
}

// Origin はエンドポイントがどのように登録されたかを表す。
type Origin string

const (
	// OriginDiscovered はドキュメントのスキャンで自動検出されたことを表す。
	OriginDiscovered Origin = "DISCOVERED"
	// OriginManual はユーザーが手動で登録したことを表す。
	OriginManual Origin = "MANUAL"
)

// ParseOrigin は文字列をOriginに変換する。
func ParseOrigin(s string) (Origin, error) {
	switch o := Origin(strings.ToUpper(s)); o {
	case OriginDiscovered, OriginManual:
		return o, nil
	}
	return "", fmt.Errorf("不正な登録種別です: %q", s)
}

// MaxPathLength はエンドポイントのパスの最大長。
const MaxPathLength = 500

// DefaultStatusCodes はステータスコードが不明な場合の既定値。
const DefaultStatusCodes = "200"

// Endpoint はプロジェクトに属する1つのAPIオペレーションを表す。
// (ProjectID, Method, Path) の組はプロジェクト内で一意である。
type Endpoint struct {
	// ID はエンドポイントの一意識別子（UUID）。
	ID string `json:"id"`
	// ProjectID は所属するプロジェクトのID。
	ProjectID string `json:"project_id"`
	// Method はHTTPメソッド。
	Method Method `json:"method"`
	// Path はエンドポイントのパス（例: /users/{id}）。
	Path string `json:"path"`
	// Description はsummaryまたはdescriptionから取得した説明。
	Description string `json:"description,omitempty"`
	// Origin は登録種別。
	Origin Origin `json:"discovery_origin"`
	// Tags はタグを ", " で連結した文字列。
	Tags string `json:"tags,omitempty"`
	// Parameters はパラメータ定義をシリアライズしたJSON。
	Parameters string `json:"parameters,omitempty"`
	// RequestBody はリクエストボディ定義をシリアライズしたJSON。
	RequestBody string `json:"request_body_example,omitempty"`
	// ResponseBody は成功レスポンス（200または201）をシリアライズしたJSON。
	ResponseBody string `json:"response_body_example,omitempty"`
	// StatusCodes はレスポンスのステータスコードを "," で連結した文字列。
	StatusCodes string `json:"status_codes"`
	// RequiresAuth は認証が必要なエンドポイントかどうか。
	RequiresAuth bool `json:"requires_auth"`
	// CreatedAt は作成日時。
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt は更新日時。
	UpdatedAt time.Time `json:"updated_at"`
}

// Key は一意性判定に使用する (Method, Path) の組を返す。
func (e Endpoint) Key() string {
	return string(e.Method) + " " + e.Path
}

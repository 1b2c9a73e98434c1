// Package endpoint はendpointサービスのHTTPサーバーを提供する。
//
// プロジェクトに属するAPIエンドポイントの登録、参照、更新、削除と、
// OpenAPI/Swaggerドキュメントのスキャン（internal/discovery）を公開する。
package endpoint

// Package middleware はGinベースのHTTP APIで使用する共通ミドルウェアを提供する。
//
// JWT認証トークンの発行と検証、パニックリカバリ、CORS設定、
// クライアントIPごとのレート制限など、全サービスで共通して使用するミドルウェアを含む。
package middleware

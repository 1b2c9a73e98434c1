// Package gateway はAPI Gatewayサービスの内部実装を提供する。
//
// 外部からアクセス可能な唯一のサービスであり、セキュリティの境界線として
// 機能する。/auth 配下はIPごとのレート制限をかけてuserサービスへ転送し、
// /api/v1 配下はJWTを検証したうえでユーザーIDを付与して各内部サービスに転送する。
package gateway

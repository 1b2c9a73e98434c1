// Package httpclient はサービス間のHTTP通信を行うクライアントを提供する。
//
// projectサービスからuserサービスへのユーザー確認、endpointサービスへのスキャン依頼、
// endpointサービスからprojectサービスへのドキュメントURL解決など、
// サービス間の通信パターンを統一する。
// 呼び出し元のユーザーIDとBearerトークンはコンテキスト経由で伝播する。
package httpclient

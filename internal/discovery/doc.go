// Package discovery はOpenAPI/Swaggerドキュメントからエンドポイントを検出するパイプラインを提供する。
//
// パイプラインは以下の順に処理する。
//   - Fetcher: URLからドキュメントを取得する
//   - Decode / DetectVersion: JSONまたはYAMLを解析し、バージョンを判定する
//   - Extractor: パスとメソッドを走査してエンドポイント候補を生成する
//   - Reconciler: 保存済みのエンドポイントと突き合わせ、新規分のみ登録する
//
// Scannerがこれらを順に実行し、結果を常にScanResultとして返す。
// パイプライン内部のエラーが呼び出し元に伝播することはない。
package discovery

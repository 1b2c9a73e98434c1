// Package logger は全サービスで共通して使用する構造化ロガーを提供する。
//
// zerologをラップし、サービス名やコンポーネント名をフィールドとして付与した
// ロガーを生成する。開発時はコンソール形式、本番ではJSON形式で出力する。
package logger

// Package project はprojectサービスを提供する。
//
// プロジェクトはスキャン対象のAPIを表し、ドキュメントの取得元（URLまたはアップロードしたファイル）と
// 認証方式を持つ。SWAGGERモードのプロジェクトを作成すると、endpointサービスにスキャンを依頼する。
// 所有者の確認はuserサービスに問い合わせて行う。
package project

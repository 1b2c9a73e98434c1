// Package user はuserサービスを提供する。
//
// 利用者の登録、メールアドレスと電話番号の確認、ログイン（JWTの発行）、パスワードの再設定、
// プロフィールの参照と更新を扱う。登録直後のアカウントは無効で、確認が完了すると有効になる。
package user

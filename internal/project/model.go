package project

import (
	"fmt"
	"strings"
)

// DocMode はプロジェクトのドキュメント管理方式。
type DocMode string

const (
	// DocModeSwagger はOpenAPI/Swaggerドキュメントからエンドポイントを検出する。
	DocModeSwagger DocMode = "SWAGGER"
	// DocModeManual はエンドポイントを手動で登録する。
	DocModeManual DocMode = "MANUAL"
)

// ParseDocMode は文字列をDocModeに変換する。大文字小文字は区別しない。
func ParseDocMode(s string) (DocMode, error) {
	switch m := DocMode(strings.ToUpper(s)); m {
	case DocModeSwagger, DocModeManual:
		return m, nil
	}
	return "", fmt.Errorf("不正なドキュメント管理方式です: %q", s)
}

// AuthType は対象APIの認証方式。
type AuthType string

// 対象APIの認証方式。
const (
	AuthTypeNone   AuthType = "NONE"
	AuthTypeBasic  AuthType = "BASIC"
	AuthTypeAPIKey AuthType = "APIKEY"
	AuthTypeBearer AuthType = "BEARER"
)

// ParseAuthType は文字列をAuthTypeに変換する。大文字小文字は区別しない。
func ParseAuthType(s string) (AuthType, error) {
	switch a := AuthType(strings.ToUpper(s)); a {
	case AuthTypeNone, AuthTypeBasic, AuthTypeAPIKey, AuthTypeBearer:
		return a, nil
	}
	return "", fmt.Errorf("不正な認証方式です: %q", s)
}

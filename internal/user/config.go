package user

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config はuserサービスの設定。
// 環境変数 USER_<名前> を優先し、無ければ <名前> を参照する。
type Config struct {
	// Port はリッスンポート。
	Port string `envconfig:"PORT" default:"8081"`
	// DBPath はSQLiteデータベースファイルのパス。
	DBPath string `envconfig:"DB_PATH" default:"/data/user.db"`
	// JWTSecret はJWTトークンの署名と検証に使用するシークレット。
	JWTSecret string `envconfig:"JWT_SECRET" default:"dev-secret-key"`
	// RequirePhoneVerification が true の場合は有効化に電話番号の確認も必要になる。
	RequirePhoneVerification bool `envconfig:"REQUIRE_PHONE_VERIFICATION" default:"false"`
	// EmailTokenTTL はメール確認トークンの有効期間。
	EmailTokenTTL time.Duration `envconfig:"EMAIL_TOKEN_TTL" default:"24h"`
	// PhoneCodeTTL は電話番号確認コードの有効期間。
	PhoneCodeTTL time.Duration `envconfig:"PHONE_CODE_TTL" default:"10m"`
	// ResetTokenTTL はパスワード再設定トークンの有効期間。
	ResetTokenTTL time.Duration `envconfig:"RESET_TOKEN_TTL" default:"1h"`
	// FrontendURL はメール本文のリンクに使用するフロントエンドのURL。
	FrontendURL string `envconfig:"FRONTEND_URL" default:"http://localhost:3000"`
	// LogLevel はログレベル（debug, info, warn, error）。
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	// LogPretty が true の場合は人間向けの形式でログを出力する。
	LogPretty bool `envconfig:"LOG_PRETTY" default:"false"`
}

// LoadConfig は環境変数から設定を読み込む。
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("user", &cfg); err != nil {
		return Config{}, fmt.Errorf("設定の読み込みに失敗: %w", err)
	}
	return cfg, nil
}

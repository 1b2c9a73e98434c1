package gateway

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config はgatewayサービスの設定。
// 環境変数 GATEWAY_<名前> を優先し、無ければ <名前> を参照する。
type Config struct {
	// Port はリッスンポート。
	Port string `envconfig:"PORT" default:"8080"`
	// JWTSecret はJWTトークンの検証に使用するシークレット。
	JWTSecret string `envconfig:"JWT_SECRET" default:"dev-secret-key"`
	// UserServiceURL はuserサービスのベースURL。
	UserServiceURL string `envconfig:"USER_SERVICE_URL" default:"http://localhost:8081"`
	// ProjectServiceURL はprojectサービスのベースURL。
	ProjectServiceURL string `envconfig:"PROJECT_SERVICE_URL" default:"http://localhost:8082"`
	// EndpointServiceURL はendpointサービスのベースURL。
	EndpointServiceURL string `envconfig:"ENDPOINT_SERVICE_URL" default:"http://localhost:8083"`
	// FrontendURL はCORSで許可するフロントエンドのオリジン。
	FrontendURL string `envconfig:"FRONTEND_URL" default:"http://localhost:3000"`
	// AuthRateLimit は /auth 配下の1秒あたりの許可リクエスト数（IPごと）。
	AuthRateLimit float64 `envconfig:"AUTH_RATE_LIMIT" default:"5"`
	// AuthRateBurst は /auth 配下のバースト上限。
	AuthRateBurst int `envconfig:"AUTH_RATE_BURST" default:"10"`
	// ProxyTimeout は内部サービスへの転送のタイムアウト。スキャンを含むため長めにする。
	ProxyTimeout time.Duration `envconfig:"PROXY_TIMEOUT" default:"60s"`
	// LogLevel はログレベル（debug, info, warn, error）。
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	// LogPretty が true の場合は人間向けの形式でログを出力する。
	LogPretty bool `envconfig:"LOG_PRETTY" default:"false"`
}

// LoadConfig は環境変数から設定を読み込む。
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("gateway", &cfg); err != nil {
		return Config{}, fmt.Errorf("設定の読み込みに失敗: %w", err)
	}
	return cfg, nil
}

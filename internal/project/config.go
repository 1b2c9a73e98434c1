package project

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config はprojectサービスの設定。
// 環境変数 PROJECT_<名前> を優先し、無ければ <名前> を参照する。
type Config struct {
	// Port はリッスンポート。
	Port string `envconfig:"PORT" default:"8082"`
	// DBPath はSQLiteデータベースファイルのパス。
	DBPath string `envconfig:"DB_PATH" default:"/data/project.db"`
	// JWTSecret はJWTトークンの検証に使用するシークレット。
	JWTSecret string `envconfig:"JWT_SECRET" default:"dev-secret-key"`
	// UserServiceURL はuserサービスのベースURL。
	UserServiceURL string `envconfig:"USER_SERVICE_URL" default:"http://localhost:8081"`
	// EndpointServiceURL はendpointサービスのベースURL。
	EndpointServiceURL string `envconfig:"ENDPOINT_SERVICE_URL" default:"http://localhost:8083"`
	// UploadDir はアップロードされたドキュメントの保存先。
	UploadDir string `envconfig:"UPLOAD_DIR" default:"/data/uploads"`
	// MaxUploadSize はアップロードできるドキュメントの最大バイト数。
	MaxUploadSize int64 `envconfig:"MAX_UPLOAD_SIZE" default:"10485760"`
	// LogLevel はログレベル（debug, info, warn, error）。
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	// LogPretty が true の場合は人間向けの形式でログを出力する。
	LogPretty bool `envconfig:"LOG_PRETTY" default:"false"`
}

// LoadConfig は環境変数から設定を読み込む。
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("project", &cfg); err != nil {
		return Config{}, fmt.Errorf("設定の読み込みに失敗: %w", err)
	}
	return cfg, nil
}

package endpoint

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config はendpointサービスの設定。
// 環境変数 ENDPOINT_<名前> を優先し、無ければ <名前> を参照する。
type Config struct {
	// Port はリッスンポート。
	Port string `envconfig:"PORT" default:"8083"`
	// DBPath はSQLiteデータベースファイルのパス。
	DBPath string `envconfig:"DB_PATH" default:"/data/endpoint.db"`
	// JWTSecret はJWTトークンの検証に使用するシークレット。
	JWTSecret string `envconfig:"JWT_SECRET" default:"dev-secret-key"`
	// ProjectServiceURL はprojectサービスのベースURL。
	ProjectServiceURL string `envconfig:"PROJECT_SERVICE_URL" default:"http://localhost:8082"`
	// FetchTimeout はドキュメント取得のタイムアウト。
	FetchTimeout time.Duration `envconfig:"FETCH_TIMEOUT" default:"10s"`
	// MaxDocumentSize は取得するドキュメントの最大バイト数。
	MaxDocumentSize int64 `envconfig:"MAX_DOCUMENT_SIZE" default:"10485760"`
	// LogLevel はログレベル（debug, info, warn, error）。
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	// LogPretty が true の場合は人間向けの形式でログを出力する。
	LogPretty bool `envconfig:"LOG_PRETTY" default:"false"`
}

// LoadConfig は環境変数から設定を読み込む。
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("endpoint", &cfg); err != nil {
		return Config{}, fmt.Errorf("設定の読み込みに失敗: %w", err)
	}
	return cfg, nil
}

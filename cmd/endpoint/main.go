// エンドポイントサービスのエントリポイント。
// OpenAPI/Swaggerドキュメントからエンドポイントを検出し、重複なく保存する。
package main

import (
	"log"

	"github.com/nao1215/apiscan/internal/endpoint"
	"github.com/nao1215/apiscan/pkg/logger"
)

func main() {
	cfg, err := endpoint.LoadConfig()
	if err != nil {
		log.Fatalf("エンドポイントサービスの設定読み込みに失敗: %v", err)
	}

	l := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty, Service: "endpoint"})

	server, err := endpoint.NewServer(cfg, l)
	if err != nil {
		l.Fatal().Err(err).Msg("エンドポイントサーバーの初期化に失敗")
	}

	l.Info().Str("port", cfg.Port).Msg("エンドポイントサービスを起動します")
	if err := server.Run(); err != nil {
		l.Fatal().Err(err).Msg("エンドポイントサービスの起動に失敗")
	}
}

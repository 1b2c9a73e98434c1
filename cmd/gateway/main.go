// API Gatewayサービスのエントリポイント。
// 外部からアクセス可能な唯一のサービスであり、JWTの検証と内部サービスへの転送を担当する。
package main

import (
	"log"

	"github.com/nao1215/apiscan/internal/gateway"
	"github.com/nao1215/apiscan/pkg/logger"
)

func main() {
	cfg, err := gateway.LoadConfig()
	if err != nil {
		log.Fatalf("Gatewayサービスの設定読み込みに失敗: %v", err)
	}

	l := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty, Service: "gateway"})

	server, err := gateway.NewServer(cfg, l)
	if err != nil {
		l.Fatal().Err(err).Msg("Gatewayサーバーの初期化に失敗")
	}

	l.Info().Str("port", cfg.Port).Msg("Gatewayサービスを起動します")
	if err := server.Run(); err != nil {
		l.Fatal().Err(err).Msg("Gatewayサービスの起動に失敗")
	}
}

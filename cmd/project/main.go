// プロジェクトサービスのエントリポイント。
// プロジェクトのCRUDとAPIドキュメントのアップロード、作成時のスキャン依頼を担当する。
package main

import (
	"log"

	"github.com/nao1215/apiscan/internal/project"
	"github.com/nao1215/apiscan/pkg/logger"
)

func main() {
	cfg, err := project.LoadConfig()
	if err != nil {
		log.Fatalf("プロジェクトサービスの設定読み込みに失敗: %v", err)
	}

	l := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty, Service: "project"})

	server, err := project.NewServer(cfg, l)
	if err != nil {
		l.Fatal().Err(err).Msg("プロジェクトサーバーの初期化に失敗")
	}

	l.Info().Str("port", cfg.Port).Msg("プロジェクトサービスを起動します")
	if err := server.Run(); err != nil {
		l.Fatal().Err(err).Msg("プロジェクトサービスの起動に失敗")
	}
}

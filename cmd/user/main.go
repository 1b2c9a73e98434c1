// ユーザーサービスのエントリポイント。
// ユーザー登録、メールアドレスと電話番号の確認、ログイン、パスワード再設定を担当する。
package main

import (
	"log"

	"github.com/nao1215/apiscan/internal/user"
	"github.com/nao1215/apiscan/pkg/logger"
)

func main() {
	cfg, err := user.LoadConfig()
	if err != nil {
		log.Fatalf("ユーザーサービスの設定読み込みに失敗: %v", err)
	}

	l := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty, Service: "user"})

	server, err := user.NewServer(cfg, l)
	if err != nil {
		l.Fatal().Err(err).Msg("ユーザーサーバーの初期化に失敗")
	}

	l.Info().Str("port", cfg.Port).Msg("ユーザーサービスを起動します")
	if err := server.Run(); err != nil {
		l.Fatal().Err(err).Msg("ユーザーサービスの起動に失敗")
	}
}

package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Config はロガーの設定。
type Config struct {
	// Level はログレベル（debug, info, warn, error）。
	Level string
	// Pretty がtrueの場合はコンソール形式で出力する。
	Pretty bool
	// Output は出力先。nilの場合は標準エラー出力。
	Output io.Writer
	// Service はログに付与するサービス名。
	Service string
}

// New は設定に従ってzerologのロガーを生成する。
func New(cfg Config) zerolog.Logger {
	var out io.Writer = cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}

	l := zerolog.New(out).With().Timestamp().Logger().Level(ParseLevel(cfg.Level))
	if cfg.Service != "" {
		l = l.With().Str("service", cfg.Service).Logger()
	}
	return l
}

// ParseLevel は文字列をzerologのログレベルに変換する。
// 不明な値の場合はinfoを返す。
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// WithComponent はコンポーネント名を付与した子ロガーを返す。
func WithComponent(l zerolog.Logger, component string) zerolog.Logger {
	return l.With().Str("component", component).Logger()
}

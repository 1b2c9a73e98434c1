package user

import (
	"context"

	"github.com/nao1215/apiscan/pkg/logger"
	"github.com/rs/zerolog"
)

// Mailer はメールを送信する。
type Mailer interface {
	SendMail(ctx context.Context, to, subject, body string) error
}

// SMSSender はSMSを送信する。
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// LogMailer は送信内容をログに出力するMailer。
type LogMailer struct {
	logger zerolog.Logger
}

// NewLogMailer は新しいLogMailerを生成する。
func NewLogMailer(l zerolog.Logger) *LogMailer {
	return &LogMailer{logger: logger.WithComponent(l, "mailer")}
}

// SendMail はメールの内容をログに出力する。
func (m *LogMailer) SendMail(_ context.Context, to, subject, body string) error {
	m.logger.Info().Str("to", to).Str("subject", subject).Str("body", body).Msg("メールを送信しました")
	return nil
}

// LogSMSSender は送信内容をログに出力するSMSSender。
type LogSMSSender struct {
	logger zerolog.Logger
}

// NewLogSMSSender は新しいLogSMSSenderを生成する。
func NewLogSMSSender(l zerolog.Logger) *LogSMSSender {
	return &LogSMSSender{logger: logger.WithComponent(l, "sms")}
}

// SendSMS はSMSの内容をログに出力する。
func (s *LogSMSSender) SendSMS(_ context.Context, to, body string) error {
	s.logger.Info().Str("to", to).Str("body", body).Msg("SMSを送信しました")
	return nil
}

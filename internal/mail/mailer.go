// Package mail はパスワードリセットメールの送信を提供する。
package mail

import (
	"fmt"
	"log/slog"
	"net/smtp"
)

// Mailer はメール送信のインターフェース。
type Mailer interface {
	// SendPasswordReset はリセットリンクを含むメールを送信する。
	SendPasswordReset(to, resetURL string) error
}

// SMTPMailer はnet/smtpを使用したMailer実装。
// 認証なしの平文SMTPのみ対応する（内部リレーを想定）。
type SMTPMailer struct {
	Host string
	Port int
	From string
}

// NewSMTPMailer はSMTPMailerを生成する。
func NewSMTPMailer(host string, port int, from string) *SMTPMailer {
	return &SMTPMailer{Host: host, Port: port, From: from}
}

// SendPasswordReset はリセットリンクを含むメールを送信する。
func (m *SMTPMailer) SendPasswordReset(to, resetURL string) error {
	addr := fmt.Sprintf("%s:%d", m.Host, m.Port)
	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: Password reset\r\n\r\n"+
			"以下のリンクからパスワードを再設定してください。\r\n%s\r\n",
		m.From, to, resetURL,
	))

	if err := smtp.SendMail(addr, nil, m.From, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send reset mail: %w", err)
	}
	return nil
}

// LogMailer はメールを送信せずログに出力するMailer実装。
// SMTP未設定の開発環境で使用する。
type LogMailer struct{}

// SendPasswordReset はリセットリンクをログに出力する。
func (m *LogMailer) SendPasswordReset(to, resetURL string) error {
	slog.Info("password reset mail (log only)",
		slog.String("to", to),
		slog.String("reset_url", resetURL),
	)
	return nil
}

// compile-time interface checks
var (
	_ Mailer = (*SMTPMailer)(nil)
	_ Mailer = (*LogMailer)(nil)
)

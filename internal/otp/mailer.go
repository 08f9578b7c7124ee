package otp

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/opsdesk/ops-management/internal"
)

// SMTPMailer sends plain-text one-time-code emails over SMTP with PLAIN auth.
type SMTPMailer struct {
	cfg internal.SMTPConfig
}

func NewSMTPMailer(cfg internal.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) SendOTP(ctx context.Context, to, firstName, code string) error {
	greeting := "Hi"
	if firstName != "" {
		greeting = "Hi " + firstName
	}

	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s\r\n", m.cfg.From))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", to))
	msg.WriteString("Subject: Your verification code\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(fmt.Sprintf("%s,\r\n\r\nYour verification code is %s.\r\n\r\nIt expires in %d minutes. If you did not request this code, ignore this email.\r\n", greeting, code, int(CodeTTL.Minutes())))

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("send otp email: %w", err)
	}
	return nil
}

// LogSMSSender writes the message to the log instead of a gateway. Stands in
// for a real provider in development and test environments.
type LogSMSSender struct {
	Logger *slog.Logger
}

func NewLogSMSSender(logger *slog.Logger) *LogSMSSender {
	return &LogSMSSender{Logger: logger}
}

func (s *LogSMSSender) Send(ctx context.Context, phoneNumber, message string) error {
	s.Logger.Info("sms dispatched", "phone_number", maskForLog(phoneNumber), "message", message)
	return nil
}

func maskForLog(phone string) string {
	if len(phone) < 4 {
		return "****"
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}

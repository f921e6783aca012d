package notify

import (
	"context"
	"net/smtp"

	"legal-portal/config"
	"legal-portal/internal/observability/logger"

	"go.uber.org/zap"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// NewMailer returns an SMTP mailer when a host is configured and a log-only
// mailer otherwise.
func NewMailer(cfg config.SMTP, log *zap.Logger) Mailer {
	if cfg.Host == "" {
		return &LogMailer{log: log.Named("mailer")}
	}
	return &SMTPMailer{cfg: cfg, send: smtp.SendMail}
}

type SMTPMailer struct {
	cfg  config.SMTP
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	auth := smtp.PlainAuth("", m.cfg.From, m.cfg.Password, m.cfg.Host)

	body := []byte("Subject: " + msg.Subject + "\r\n" +
		"From: " + m.cfg.From + "\r\n" +
		"To: " + msg.To + "\r\n" +
		"Content-Type: text/plain; charset=UTF-8\r\n" +
		"\r\n" +
		msg.Body + "\r\n")

	return m.send(m.cfg.Host+":"+m.cfg.Port, auth, m.cfg.From, []string{msg.To}, body)
}

type LogMailer struct {
	log *zap.Logger
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.log.Info("mail",
		zap.String("to", logger.MaskEmail(msg.To)),
		zap.String("subject", msg.Subject),
	)
	return nil
}

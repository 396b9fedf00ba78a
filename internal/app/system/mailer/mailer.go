// internal/app/system/mailer/mailer.go
package mailer

import (
	"errors"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Email is a single outgoing message. HTMLBody is optional.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Config holds SMTP settings. An empty Host puts the mailer in log-only
// mode, which is what local development uses.
type Config struct {
	Host     string
	Port     int
	User     string
	Pass     string
	From     string
	FromName string
}

// Mailer sends email over SMTP.
type Mailer struct {
	cfg    Config
	dialer *gomail.Dialer
	log    *zap.Logger
}

func New(cfg Config, logger *zap.Logger) *Mailer {
	m := &Mailer{cfg: cfg, log: logger}
	if cfg.Host != "" {
		port := cfg.Port
		if port == 0 {
			port = 587
		}
		m.dialer = gomail.NewDialer(cfg.Host, port, cfg.User, cfg.Pass)
	}
	return m
}

// Enabled reports whether an SMTP host is configured.
func (m *Mailer) Enabled() bool {
	return m != nil && m.dialer != nil
}

// Send delivers e. In log-only mode it records the message and returns nil.
func (m *Mailer) Send(e Email) error {
	if strings.TrimSpace(e.To) == "" {
		return errors.New("mailer: recipient is empty")
	}
	if !m.Enabled() {
		m.log.Info("mail not sent (smtp disabled)",
			zap.String("to", e.To),
			zap.String("subject", e.Subject))
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.cfg.From, m.cfg.FromName)
	msg.SetHeader("To", e.To)
	msg.SetHeader("Subject", e.Subject)
	msg.SetBody("text/plain", e.TextBody)
	if e.HTMLBody != "" {
		msg.AddAlternative("text/html", e.HTMLBody)
	}
	return m.dialer.DialAndSend(msg)
}

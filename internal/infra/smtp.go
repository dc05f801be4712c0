package infra

import (
	"fmt"
	"net/smtp"

	"pantrio/internal/config"

	"github.com/jordan-wright/email"
)

// Mailer wraps SMTP configuration for sending notification emails.
type Mailer struct {
	host     string
	port     int
	user     string
	password string
	from     string
	addr     string
}

func NewMailer(cfg *config.Config) *Mailer {
	from := cfg.SMTPFrom
	if from == "" {
		from = cfg.SMTPUser
	}
	return &Mailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		from:     from,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
	}
}

// Send delivers a plain-text email, optionally attaching a file.
func (m *Mailer) Send(to, subject, body, attachmentPath string) error {
	e := email.NewEmail()
	e.From = m.from
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(body)

	if attachmentPath != "" {
		if _, err := e.AttachFile(attachmentPath); err != nil {
			return fmt.Errorf("mailer: attach file: %w", err)
		}
	}

	auth := smtp.PlainAuth("", m.user, m.password, m.host)
	return e.Send(m.addr, auth)
}

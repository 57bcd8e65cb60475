package services

import (
	"fmt"

	"hackathonwallah/config"
	"hackathonwallah/logger"

	"gopkg.in/gomail.v2"
)

// EmailSender delivers a single HTML e-mail.
type EmailSender interface {
	Send(to, subject, body string) error
}

// SMTPSender sends mail over SMTP with gomail.
type SMTPSender struct {
	host string
	port int
	user string
	pass string
	from string
}

// NewSMTPSender reads SMTP settings from cfg. The sender defaults to the
// SMTP user.
func NewSMTPSender(cfg config.Config) *SMTPSender {
	from := cfg.EmailFrom
	if from == "" {
		from = cfg.SMTPUser
	}
	return &SMTPSender{
		host: cfg.SMTPHost,
		port: cfg.SMTPPort,
		user: cfg.SMTPUser,
		pass: cfg.SMTPPass,
		from: from,
	}
}

// Send dials the SMTP server and sends one message.
func (s *SMTPSender) Send(to, subject, body string) error {
	if s.from == "" {
		return fmt.Errorf("email sender not configured (set EMAIL_FROM or SMTP_USER)")
	}
	if s.user == "" || s.pass == "" {
		return fmt.Errorf("smtp credentials not configured (set SMTP_USER and SMTP_PASS)")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	d := gomail.NewDialer(s.host, s.port, s.user, s.pass)
	if err := d.DialAndSend(m); err != nil {
		logger.Error("Failed to send email to %s: %v", to, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	logger.Info("Email sent to %s", to)
	return nil
}

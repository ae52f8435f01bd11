// Package mail delivers confirmation codes. Delivery is fire-and-forget
// from the caller's point of view: a failed send is logged, never
// surfaced to the signup response.
package mail

import (
	"fmt"
	"log/slog"
	"net/smtp"
)

// Mailer sends a message to a single recipient.
type Mailer interface {
	Send(to, subject, body string) error
}

// SMTPMailer sends through a plain SMTP relay.
type SMTPMailer struct {
	Addr string // host:port
	From string
}

func NewSMTPMailer(addr, from string) *SMTPMailer {
	return &SMTPMailer{Addr: addr, From: from}
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", m.From, to, subject, body)
	if err := smtp.SendMail(m.Addr, nil, m.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// LogMailer writes the message to the log instead of sending it. Used
// in development when no SMTP relay is configured.
type LogMailer struct {
	Logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{Logger: logger}
}

func (m *LogMailer) Send(to, subject, body string) error {
	m.Logger.Info("mail delivery (log only)", "to", to, "subject", subject, "body", body)
	return nil
}

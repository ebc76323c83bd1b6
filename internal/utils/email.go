package utils

import (
	"bytes"
	"context"
	"fmt"
	"log"

	"github.com/wneessen/go-mail"
)

type Attachment struct {
	Name string
	Data []byte
}

type Email struct {
	To          string
	ReplyTo     string
	Subject     string
	HTML        string
	Attachments []Attachment
}

// Mailer delivers one email.
type Mailer interface {
	Send(ctx context.Context, e Email) error
}

// SMTPMailer sends through an authenticated SMTP relay with mandatory TLS.
type SMTPMailer struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func (m *SMTPMailer) Send(ctx context.Context, e Email) error {
	msg := mail.NewMsg()

	if err := msg.From(m.From); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := msg.To(e.To); err != nil {
		return fmt.Errorf("mail to: %w", err)
	}
	if e.ReplyTo != "" {
		if err := msg.ReplyTo(e.ReplyTo); err != nil {
			return fmt.Errorf("mail reply-to: %w", err)
		}
	}
	msg.Subject(e.Subject)
	msg.SetBodyString(mail.TypeTextHTML, e.HTML)

	for _, a := range e.Attachments {
		msg.AttachReader(a.Name, bytes.NewReader(a.Data))
	}

	client, err := mail.NewClient(m.Host,
		mail.WithPort(m.Port),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(m.Username),
		mail.WithPassword(m.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return fmt.Errorf("mail client: %w", err)
	}

	log.Println("📤 Sending email to", e.To)
	return client.DialAndSendWithContext(ctx, msg)
}

// LogMailer only logs; used when no SMTP host is configured.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, e Email) error {
	log.Printf("📧 (mail disabled) to=%s subject=%q attachments=%d", e.To, e.Subject, len(e.Attachments))
	return nil
}

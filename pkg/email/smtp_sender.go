package email

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	mail "github.com/go-mail/mail"

	"github.com/dmitrymomot/notifykit/pkg/integration"
)

// TLS modes accepted in Credentials.Secure.
const (
	TLSModeAuto     = "auto"
	TLSModeStartTLS = "starttls"
	TLSModeSSL      = "ssl"
	TLSModeNone     = "none"
)

const (
	defaultSMTPPort    = 587
	defaultSMTPTimeout = 10 * time.Second
)

// SMTPDialer sends composed messages. *mail.Dialer implements it.
type SMTPDialer interface {
	DialAndSend(m ...*mail.Message) error
}

type smtpSender struct {
	dialer SMTPDialer
	from   string
}

// NewSMTPSender builds a sender for an SMTP relay described by creds.
func NewSMTPSender(_ context.Context, creds integration.Credentials, from string) (Sender, error) {
	if creds.Host == "" {
		return nil, fmt.Errorf("%w: smtp host is required", ErrInvalidConfig)
	}
	port := creds.Port
	if port == 0 {
		port = defaultSMTPPort
	}

	d := mail.NewDialer(creds.Host, port, creds.User, creds.Password)
	d.Timeout = defaultSMTPTimeout
	d.TLSConfig = &tls.Config{ServerName: creds.Host}

	switch creds.Secure {
	case "", TLSModeAuto, TLSModeStartTLS:
		// go-mail negotiates STARTTLS when the server offers it
	case TLSModeSSL:
		d.SSL = true
	case TLSModeNone:
		d.StartTLSPolicy = mail.NoStartTLS
	default:
		return nil, fmt.Errorf("%w: unsupported smtp tls mode %q", ErrInvalidConfig, creds.Secure)
	}

	return NewSMTPSenderWithDialer(d, from)
}

// NewSMTPSenderWithDialer builds a sender around an existing dialer.
func NewSMTPSenderWithDialer(d SMTPDialer, from string) (Sender, error) {
	if !IsValidAddress(from) {
		return nil, fmt.Errorf("%w: sender must be a valid email address", ErrInvalidConfig)
	}
	return &smtpSender{dialer: d, from: from}, nil
}

// Send implements Sender. The dial is not interruptible; ctx is only checked
// before connecting.
func (s *smtpSender) Send(ctx context.Context, msg Message) error {
	msg.From = s.from
	if err := msg.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return errors.Join(ErrFailedToSendEmail, err)
	}

	m := mail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To...)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)

	if err := s.dialer.DialAndSend(m); err != nil {
		return errors.Join(ErrFailedToSendEmail, fmt.Errorf("smtp send: %w", err))
	}
	return nil
}

// internal/mail/mail.go
//
// Outbound mail.
//
// Context
// -------
// The contact form notifies staff by email.  Delivery goes through SMTP
// when credentials are configured.  Without them (local development, or a
// serverless preview that must not send real mail) the message is written
// to the log instead, so callers never branch on configuration.
//
// Notes
// -----
// • Send blocks until the SMTP conversation finishes or ctx ends.
// • Oxford commas, two spaces after periods.

package mail

import (
	"context"
	"errors"
	"fmt"

	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/izonedevs/izonehub-api/internal/config"
)

// ErrNoRecipients is returned when a message has an empty To list.
var ErrNoRecipients = errors.New("mail: no recipients")

// Message is one outbound email.
type Message struct {
	To      []string
	ReplyTo string // optional
	Subject string
	Text    string
}

// Sender delivers messages.  Implementations are safe for concurrent use.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// New picks the sender for cfg and mode: SMTP when a user is configured and
// the deployment is persistent, the log sender otherwise.
func New(cfg config.SMTP, mode config.Mode, log *zap.SugaredLogger) Sender {
	if cfg.User == "" || cfg.Host == "" || mode == config.ModeEphemeral {
		return &Log{log: log}
	}
	return &SMTP{cfg: cfg}
}

//
// SMTP
//

// SMTP sends through an authenticated STARTTLS relay.  The configured user
// is also the envelope sender.
type SMTP struct {
	cfg config.SMTP
}

// Send dials the relay once per message.
func (s *SMTP) Send(ctx context.Context, msg Message) error {
	m, err := s.build(msg)
	if err != nil {
		return err
	}

	c, err := gomail.NewClient(s.cfg.Host,
		gomail.WithPort(s.cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.cfg.User),
		gomail.WithPassword(s.cfg.Password),
		gomail.WithTLSPolicy(gomail.TLSMandatory),
	)
	if err != nil {
		return fmt.Errorf("mail client: %w", err)
	}
	if err := c.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("mail send: %w", err)
	}
	return nil
}

func (s *SMTP) build(msg Message) (*gomail.Msg, error) {
	if len(msg.To) == 0 {
		return nil, ErrNoRecipients
	}
	m := gomail.NewMsg()
	if err := m.From(s.cfg.User); err != nil {
		return nil, fmt.Errorf("mail from: %w", err)
	}
	if err := m.To(msg.To...); err != nil {
		return nil, fmt.Errorf("mail to: %w", err)
	}
	if msg.ReplyTo != "" {
		if err := m.ReplyTo(msg.ReplyTo); err != nil {
			return nil, fmt.Errorf("mail reply-to: %w", err)
		}
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextPlain, msg.Text)
	return m, nil
}

//
// Log
//

// Log writes messages to the logger instead of delivering them.
type Log struct {
	log *zap.SugaredLogger
}

// Send logs the envelope and body length.
func (l *Log) Send(_ context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return ErrNoRecipients
	}
	l.log.Infow("mail (not delivered)",
		"to", msg.To, "subject", msg.Subject, "len", len(msg.Text))
	return nil
}

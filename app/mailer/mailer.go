package mailer

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-donations/app/factory"
	mail "gopkg.in/mail.v2"
)

var ErrMissingRecipient = errors.New("email recipient is required")

type Message struct {
	FromName  string
	FromEmail string
	To        string
	Subject   string
	HTMLBody  string
}

type Mailer interface {
	Send(ctx context.Context, msg *Message) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Timeout  time.Duration
}

type SMTPMailer struct {
	dialer *mail.Dialer
	logger logrus.FieldLogger
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	dialer := mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	dialer.Timeout = cfg.Timeout
	if dialer.Timeout <= 0 {
		dialer.Timeout = 10 * time.Second
	}
	return &SMTPMailer{
		dialer: dialer,
		logger: factory.NewModuleLogger("smtp-mailer"),
	}
}

func (m *SMTPMailer) Send(ctx context.Context, msg *Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return ErrMissingRecipient
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	message := mail.NewMessage()
	message.SetAddressHeader("From", msg.FromEmail, msg.FromName)
	message.SetHeader("To", msg.To)
	message.SetHeader("Subject", msg.Subject)
	message.SetBody("text/html", msg.HTMLBody)

	if err := m.dialer.DialAndSend(message); err != nil {
		return err
	}
	m.logger.WithFields(logrus.Fields{"to": msg.To, "subject": msg.Subject}).Info("Email sent")
	return nil
}

// NoopMailer stands in when no SMTP host is configured.
type NoopMailer struct {
	logger logrus.FieldLogger
}

func NewNoopMailer() *NoopMailer {
	return &NoopMailer{logger: factory.NewModuleLogger("noop-mailer")}
}

func (m *NoopMailer) Send(_ context.Context, msg *Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return ErrMissingRecipient
	}
	m.logger.WithFields(logrus.Fields{"to": msg.To, "subject": msg.Subject}).Warn("SMTP not configured, email skipped")
	return nil
}

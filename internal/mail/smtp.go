package mail

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	gomail "github.com/wneessen/go-mail"

	"github.com/ignite/sales-automator/internal/pkg/logger"
)

// SMTPTransport delivers through any SMTP relay. The three relay flavors
// (Mailtrap sandbox, generic, Gmail) differ only in how the client is
// constructed.
type SMTPTransport struct {
	name   string
	client *gomail.Client
	log    *logger.Logger
}

// NewMailtrapTransport connects to the Mailtrap sandbox. Mail sent through
// it is captured, never delivered, which makes it safe for development.
func NewMailtrapTransport(host string, port int, user, pass string, log *logger.Logger) (*SMTPTransport, error) {
	client, err := gomail.NewClient(host,
		gomail.WithPort(port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(user),
		gomail.WithPassword(pass),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
	)
	if err != nil {
		return nil, NewSendError("mailtrap", KindConfiguration, err)
	}
	return &SMTPTransport{name: "mailtrap", client: client, log: log}, nil
}

// NewGenericSMTPTransport connects to an arbitrary relay. secure selects
// implicit TLS (port 465 style) over opportunistic STARTTLS.
func NewGenericSMTPTransport(host string, port int, user, pass string, secure bool, log *logger.Logger) (*SMTPTransport, error) {
	opts := []gomail.Option{
		gomail.WithPort(port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(user),
		gomail.WithPassword(pass),
		gomail.WithTimeout(15 * time.Second),
	}
	if secure {
		opts = append(opts, gomail.WithSSLPort(false))
	} else {
		opts = append(opts, gomail.WithTLSPortPolicy(gomail.TLSOpportunistic))
	}
	client, err := gomail.NewClient(host, opts...)
	if err != nil {
		return nil, NewSendError("smtp", KindConfiguration, err)
	}
	return &SMTPTransport{name: "smtp", client: client, log: log}, nil
}

// NewGmailTransport connects to Gmail's consumer relay with an app password.
func NewGmailTransport(user, appPassword string, log *logger.Logger) (*SMTPTransport, error) {
	client, err := gomail.NewClient("smtp.gmail.com",
		gomail.WithPort(587),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(user),
		gomail.WithPassword(appPassword),
		gomail.WithTLSPortPolicy(gomail.TLSMandatory),
		gomail.WithTimeout(15*time.Second),
	)
	if err != nil {
		return nil, NewSendError("gmail", KindConfiguration, err)
	}
	return &SMTPTransport{name: "gmail", client: client, log: log}, nil
}

func (t *SMTPTransport) Name() string { return t.name }

// Send delivers msg through the relay.
func (t *SMTPTransport) Send(ctx context.Context, msg *Message) (*Result, error) {
	m := gomail.NewMsg()
	if err := m.FromFormat(msg.FromName, msg.FromEmail); err != nil {
		return nil, NewSendError(t.name, KindConfiguration, fmt.Errorf("invalid from address: %w", err))
	}
	if err := m.To(msg.To); err != nil {
		return nil, NewSendError(t.name, KindRejected, fmt.Errorf("invalid recipient: %w", err))
	}
	m.Subject(msg.Subject)
	m.SetMessageID()
	m.SetBodyString(gomail.TypeTextHTML, msg.HTML)

	if err := t.client.DialAndSendWithContext(ctx, m); err != nil {
		return nil, NewSendError(t.name, classifySMTP(err), err)
	}

	t.log.Info("email sent via smtp", map[string]interface{}{
		"transport": t.name,
		"to":        msg.To,
	})
	return &Result{MessageID: m.GetMessageID(), Transport: t.name}, nil
}

// classifySMTP maps relay errors onto the shared taxonomy using reply codes
// where the server gave one and network error shape otherwise.
func classifySMTP(err error) ErrorKind {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTransient
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return KindConfiguration
	}

	s := err.Error()
	switch {
	case strings.Contains(s, "535") || strings.Contains(s, "534"):
		return KindAuthentication
	case strings.Contains(s, "550") || strings.Contains(s, "553") || strings.Contains(s, "554"):
		return KindRejected
	case strings.Contains(s, "421") || strings.Contains(s, "450") || strings.Contains(s, "451"):
		return KindTransient
	}
	return KindUnknown
}

package mail

import (
	"context"
	"fmt"

	"github.com/ignite/sales-automator/internal/config"
	"github.com/ignite/sales-automator/internal/domain"
	"github.com/ignite/sales-automator/internal/pkg/logger"
)

// Dispatcher owns the single active transport and the sender identity.
// Transport selection happens once at construction; credentials added to
// the environment later require a restart to take effect.
type Dispatcher struct {
	transport Transport
	fromEmail string
	fromName  string
	log       *logger.Logger
}

// NewDispatcher picks the transport by fixed priority: demo mode forces the
// simulated sink; otherwise Mailtrap, then generic SMTP, then Gmail, then
// SES, falling back to simulated when nothing is configured. A transport
// that is configured but fails to construct is a hard error, not a
// fall-through: silently downgrading to simulation would hide broken
// credentials.
func NewDispatcher(cfg *config.Config, log *logger.Logger) (*Dispatcher, error) {
	d := &Dispatcher{
		fromEmail: cfg.Mail.FromEmail,
		fromName:  cfg.Mail.FromName,
		log:       log,
	}

	switch {
	case cfg.Demo:
		d.transport = NewSimulatedTransport(log)
	case cfg.Mail.Mailtrap.Configured():
		t, err := NewMailtrapTransport(cfg.Mail.Mailtrap.Host, cfg.Mail.Mailtrap.Port,
			cfg.Mail.Mailtrap.User, cfg.Mail.Mailtrap.Pass, log)
		if err != nil {
			return nil, err
		}
		d.transport = t
	case cfg.Mail.SMTP.Configured():
		t, err := NewGenericSMTPTransport(cfg.Mail.SMTP.Host, cfg.Mail.SMTP.Port,
			cfg.Mail.SMTP.User, cfg.Mail.SMTP.Pass, cfg.Mail.SMTP.Secure, log)
		if err != nil {
			return nil, err
		}
		d.transport = t
	case cfg.Mail.Gmail.Configured():
		t, err := NewGmailTransport(cfg.Mail.Gmail.User, cfg.Mail.Gmail.AppPassword, log)
		if err != nil {
			return nil, err
		}
		d.transport = t
	case cfg.Mail.SES.Configured():
		t, err := NewSESTransport(cfg.Mail.SES.Region, cfg.Mail.SES.AccessKey,
			cfg.Mail.SES.SecretKey, cfg.Mail.SES.Timeout(), log)
		if err != nil {
			return nil, err
		}
		d.transport = t
	default:
		log.Warn("no email transport configured, falling back to simulation", nil)
		d.transport = NewSimulatedTransport(log)
	}

	log.Info("email transport selected", map[string]interface{}{
		"transport": d.transport.Name(),
	})
	return d, nil
}

// NewDispatcherWithTransport wires an explicit transport, for tests and
// for callers that build transports themselves.
func NewDispatcherWithTransport(t Transport, fromEmail, fromName string, log *logger.Logger) *Dispatcher {
	return &Dispatcher{transport: t, fromEmail: fromEmail, fromName: fromName, log: log}
}

// TransportName reports which transport is active.
func (d *Dispatcher) TransportName() string { return d.transport.Name() }

// Send validates and delivers one message. From fields default to the
// dispatcher identity when the message leaves them empty.
func (d *Dispatcher) Send(ctx context.Context, msg *Message) (*Result, error) {
	if msg.To == "" {
		return nil, fmt.Errorf("%w: missing recipient", ErrInvalidRequest)
	}
	if !domain.ValidEmail(msg.To) {
		return nil, fmt.Errorf("%w: malformed recipient %q", ErrInvalidRequest, msg.To)
	}
	if msg.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidRequest)
	}
	if msg.HTML == "" {
		return nil, fmt.Errorf("%w: missing body", ErrInvalidRequest)
	}
	if msg.FromEmail == "" {
		msg.FromEmail = d.fromEmail
	}
	if msg.FromName == "" {
		msg.FromName = d.fromName
	}

	res, err := d.transport.Send(ctx, msg)
	if err != nil {
		d.log.Error("email send failed", map[string]interface{}{
			"transport": d.transport.Name(),
			"to":        msg.To,
			"kind":      KindOf(err).String(),
			"error":     err.Error(),
		})
		return nil, err
	}
	return res, nil
}

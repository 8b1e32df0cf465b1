// Package mail sends outreach email through one of several transports:
// a simulated sink for demos, three SMTP relays, and the AWS SES v2 API.
// The dispatcher picks exactly one transport at startup based on which
// credentials are present.
package mail

import "context"

// Message is a fully rendered email ready to hand to a transport.
type Message struct {
	To        string
	FromEmail string
	FromName  string
	Subject   string
	HTML      string
}

// Result reports a completed send.
type Result struct {
	// MessageID is the provider's id when the provider returns one.
	MessageID string `json:"message_id,omitempty"`
	// Transport names the transport that carried the message.
	Transport string `json:"transport"`
	// Simulated is true when no network send happened.
	Simulated bool `json:"simulated"`
}

// Transport delivers a single message through one provider.
type Transport interface {
	// Name identifies the transport in logs and results.
	Name() string
	// Send delivers msg or returns a classified *SendError.
	Send(ctx context.Context, msg *Message) (*Result, error)
}

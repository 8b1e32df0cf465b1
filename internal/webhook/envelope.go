// Package webhook ingests SES delivery notifications relayed through SNS
// and reconciles them into lead engagement state.
package webhook

import "encoding/json"

// SNS envelope types.
const (
	TypeSubscriptionConfirmation = "SubscriptionConfirmation"
	TypeNotification             = "Notification"
	TypeUnsubscribeConfirmation  = "UnsubscribeConfirmation"
)

// Envelope is the outer SNS message wrapper. Message carries the SES
// notification as a JSON string.
type Envelope struct {
	Type         string `json:"Type"`
	MessageID    string `json:"MessageId"`
	TopicArn     string `json:"TopicArn"`
	Message      string `json:"Message"`
	Timestamp    string `json:"Timestamp"`
	SubscribeURL string `json:"SubscribeURL"`
}

// Notification is the SES payload inside an SNS envelope. notificationType
// is set for feedback notifications; eventType for event publishing. Only
// one of the detail blocks is present per message.
type Notification struct {
	NotificationType string     `json:"notificationType"`
	EventType        string     `json:"eventType"`
	Mail             Mail       `json:"mail"`
	Delivery         *Delivery  `json:"delivery,omitempty"`
	Bounce           *Bounce    `json:"bounce,omitempty"`
	Complaint        *Complaint `json:"complaint,omitempty"`
	Open             *Open      `json:"open,omitempty"`
	Click            *Click     `json:"click,omitempty"`
}

// Kind normalizes the two type fields.
func (n *Notification) Kind() string {
	if n.NotificationType != "" {
		return n.NotificationType
	}
	return n.EventType
}

// Mail identifies the original message. Destination lists every recipient
// the notification applies to.
type Mail struct {
	MessageID   string   `json:"messageId"`
	Timestamp   string   `json:"timestamp"`
	Source      string   `json:"source"`
	Destination []string `json:"destination"`
}

// Delivery reports a successful handoff to the recipient's mail server.
type Delivery struct {
	Timestamp            string   `json:"timestamp"`
	ProcessingTimeMillis int64    `json:"processingTimeMillis"`
	Recipients           []string `json:"recipients"`
	SMTPResponse         string   `json:"smtpResponse"`
}

// Bounce reports a hard or soft bounce.
type Bounce struct {
	BounceType        string             `json:"bounceType"`
	BounceSubType     string             `json:"bounceSubType"`
	Timestamp         string             `json:"timestamp"`
	BouncedRecipients []BouncedRecipient `json:"bouncedRecipients"`
}

// BouncedRecipient carries the per-address diagnostic.
type BouncedRecipient struct {
	EmailAddress   string `json:"emailAddress"`
	Status         string `json:"status"`
	DiagnosticCode string `json:"diagnosticCode"`
}

// Complaint reports a spam complaint via a feedback loop.
type Complaint struct {
	ComplaintFeedbackType string                `json:"complaintFeedbackType"`
	Timestamp             string                `json:"timestamp"`
	ComplainedRecipients  []ComplainedRecipient `json:"complainedRecipients"`
}

// ComplainedRecipient names one complaining address.
type ComplainedRecipient struct {
	EmailAddress string `json:"emailAddress"`
}

// Open reports a tracked open (event publishing only).
type Open struct {
	Timestamp string `json:"timestamp"`
	UserAgent string `json:"userAgent"`
}

// Click reports a tracked link click (event publishing only).
type Click struct {
	Timestamp string `json:"timestamp"`
	Link      string `json:"link"`
}

// ParseEnvelope decodes the outer SNS wrapper.
func ParseEnvelope(body []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// ParseNotification decodes the inner SES payload.
func ParseNotification(message string) (*Notification, error) {
	var n Notification
	if err := json.Unmarshal([]byte(message), &n); err != nil {
		return nil, err
	}
	return &n, nil
}

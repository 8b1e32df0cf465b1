package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ignite/sales-automator/internal/domain"
	"github.com/ignite/sales-automator/internal/pkg/httpretry"
	"github.com/ignite/sales-automator/internal/pkg/logger"
)

// Store is the slice of the lead repository the reconciler needs. It only
// ever writes engagement state; the pipeline stage belongs to the user.
type Store interface {
	UpdateEmailStatus(ctx context.Context, email string, status domain.EmailStatus, notes string) (int, error)
}

// Result summarizes one notification. Missed counts recipients with no
// matching lead, which is normal after deletions and never an error.
type Result struct {
	Kind      string `json:"kind"`
	Processed int    `json:"processed"`
	Missed    int    `json:"missed"`
	Failed    int    `json:"failed"`
}

// Reconciler applies SES notifications to lead engagement state.
type Reconciler struct {
	store  Store
	client httpretry.HTTPDoer
	log    *logger.Logger
}

// NewReconciler creates a reconciler. client is used to confirm SNS
// subscriptions; nil gets a sensible default.
func NewReconciler(store Store, client httpretry.HTTPDoer, log *logger.Logger) *Reconciler {
	if client == nil {
		client = httpretry.New(&http.Client{Timeout: 10 * time.Second}, 2)
	}
	return &Reconciler{store: store, client: client, log: log}
}

// HandleEnvelope processes one raw SNS POST body. The error return is
// reserved for envelope-level problems; an unparseable inner message is
// logged and swallowed so SNS stops redelivering a poison message.
func (r *Reconciler) HandleEnvelope(ctx context.Context, body []byte) (*Result, error) {
	env, err := ParseEnvelope(body)
	if err != nil {
		return nil, fmt.Errorf("parse envelope: %w", err)
	}

	switch env.Type {
	case TypeSubscriptionConfirmation:
		res := &Result{Kind: env.Type}
		// a failed handshake is reported in the summary, not as an error:
		// the envelope itself was fine and SNS lets us re-request pending
		// confirmations
		if err := r.confirmSubscription(ctx, env); err != nil {
			res.Failed = 1
			r.log.Error("subscription confirmation failed", map[string]interface{}{
				"topic_arn": env.TopicArn,
				"error":     err.Error(),
			})
		}
		return res, nil
	case TypeNotification:
		n, err := ParseNotification(env.Message)
		if err != nil {
			r.log.Warn("unparseable notification payload dropped", map[string]interface{}{
				"sns_message_id": env.MessageID,
				"error":          err.Error(),
			})
			return &Result{Kind: env.Type}, nil
		}
		return r.apply(ctx, n), nil
	default:
		r.log.Info("ignoring sns message", map[string]interface{}{"type": env.Type})
		return &Result{Kind: env.Type}, nil
	}
}

// confirmSubscription completes the SNS handshake by fetching SubscribeURL.
func (r *Reconciler) confirmSubscription(ctx context.Context, env *Envelope) error {
	if env.SubscribeURL == "" {
		return fmt.Errorf("subscription confirmation without SubscribeURL")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, env.SubscribeURL, nil)
	if err != nil {
		return err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("confirm subscription: %w", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("confirm subscription: status %d", resp.StatusCode)
	}

	r.log.Info("sns subscription confirmed", map[string]interface{}{
		"topic_arn": env.TopicArn,
	})
	return nil
}

// apply maps the notification onto engagement state for every recipient.
// One recipient failing does not stop the rest.
func (r *Reconciler) apply(ctx context.Context, n *Notification) *Result {
	res := &Result{Kind: n.Kind()}

	status, notes, ok := translate(n)
	if !ok {
		r.log.Info("unhandled notification kind", map[string]interface{}{"kind": n.Kind()})
		return res
	}

	for _, recipient := range n.Mail.Destination {
		count, err := r.store.UpdateEmailStatus(ctx, recipient, status, notes)
		switch {
		case err != nil:
			res.Failed++
			r.log.Error("engagement update failed", map[string]interface{}{
				"recipient": recipient,
				"status":    string(status),
				"error":     err.Error(),
			})
		case count == 0:
			res.Missed++
		default:
			res.Processed += count
		}
	}

	r.log.Info("notification reconciled", map[string]interface{}{
		"kind":      res.Kind,
		"processed": res.Processed,
		"missed":    res.Missed,
		"failed":    res.Failed,
	})
	return res
}

// translate picks the engagement state and builds the notes blob for a
// notification. The notes keep enough provider detail to debug a bounce
// without digging through CloudWatch.
func translate(n *Notification) (domain.EmailStatus, string, bool) {
	switch n.Kind() {
	case "Delivery":
		detail := map[string]interface{}{"messageId": n.Mail.MessageID}
		if n.Delivery != nil {
			detail["timestamp"] = n.Delivery.Timestamp
			detail["processingTimeMillis"] = n.Delivery.ProcessingTimeMillis
		}
		return domain.EmailDelivered, marshalNotes("delivery", detail), true
	case "Bounce":
		detail := map[string]interface{}{"messageId": n.Mail.MessageID}
		if n.Bounce != nil {
			detail["bounceType"] = n.Bounce.BounceType
			detail["bounceSubType"] = n.Bounce.BounceSubType
			if len(n.Bounce.BouncedRecipients) > 0 {
				detail["diagnosticCode"] = n.Bounce.BouncedRecipients[0].DiagnosticCode
			}
		}
		return domain.EmailBounced, marshalNotes("bounce", detail), true
	case "Complaint":
		detail := map[string]interface{}{"messageId": n.Mail.MessageID}
		if n.Complaint != nil {
			detail["feedbackType"] = n.Complaint.ComplaintFeedbackType
			detail["timestamp"] = n.Complaint.Timestamp
		}
		return domain.EmailComplained, marshalNotes("complaint", detail), true
	case "Open":
		detail := map[string]interface{}{"messageId": n.Mail.MessageID}
		if n.Open != nil {
			detail["timestamp"] = n.Open.Timestamp
			detail["userAgent"] = n.Open.UserAgent
		}
		return domain.EmailOpened, marshalNotes("open", detail), true
	case "Click":
		detail := map[string]interface{}{"messageId": n.Mail.MessageID}
		if n.Click != nil {
			detail["timestamp"] = n.Click.Timestamp
			detail["link"] = n.Click.Link
		}
		return domain.EmailClicked, marshalNotes("click", detail), true
	}
	return "", "", false
}

func marshalNotes(kind string, detail map[string]interface{}) string {
	data, err := json.Marshal(map[string]interface{}{"event": kind, "detail": detail})
	if err != nil {
		return fmt.Sprintf(`{"event":%q}`, kind)
	}
	return string(data)
}

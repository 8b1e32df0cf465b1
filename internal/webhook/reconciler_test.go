package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ignite/sales-automator/internal/domain"
	"github.com/ignite/sales-automator/internal/pkg/logger"
)

type fakeStore struct {
	updates []update
	counts  map[string]int
	failFor string
}

type update struct {
	email  string
	status domain.EmailStatus
	notes  string
}

func (s *fakeStore) UpdateEmailStatus(_ context.Context, email string, status domain.EmailStatus, notes string) (int, error) {
	if email == s.failFor {
		return 0, errors.New("store down")
	}
	s.updates = append(s.updates, update{email, status, notes})
	if n, ok := s.counts[email]; ok {
		return n, nil
	}
	return 1, nil
}

func envelope(t *testing.T, inner interface{}) []byte {
	t.Helper()
	msg, err := json.Marshal(inner)
	if err != nil {
		t.Fatal(err)
	}
	body, err := json.Marshal(Envelope{
		Type:      TypeNotification,
		MessageID: "sns-1",
		Message:   string(msg),
	})
	if err != nil {
		t.Fatal(err)
	}
	return body
}

func newReconciler(store Store) *Reconciler {
	return NewReconciler(store, http.DefaultClient, logger.NewDiscard())
}

func TestDeliveryNotification(t *testing.T) {
	store := &fakeStore{}
	r := newReconciler(store)

	body := envelope(t, Notification{
		NotificationType: "Delivery",
		Mail: Mail{
			MessageID:   "msg-1",
			Destination: []string{"jane@acme.test"},
		},
		Delivery: &Delivery{Timestamp: "2026-08-30T10:00:00Z", ProcessingTimeMillis: 832},
	})

	res, err := r.HandleEnvelope(context.Background(), body)
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if res.Processed != 1 || res.Missed != 0 || res.Failed != 0 {
		t.Errorf("result: %+v", res)
	}
	if store.updates[0].status != domain.EmailDelivered {
		t.Errorf("status: %s", store.updates[0].status)
	}
	if !strings.Contains(store.updates[0].notes, "processingTimeMillis") {
		t.Errorf("notes should carry delivery detail: %s", store.updates[0].notes)
	}
}

func TestBounceNotificationKeepsDiagnostic(t *testing.T) {
	store := &fakeStore{}
	r := newReconciler(store)

	body := envelope(t, Notification{
		NotificationType: "Bounce",
		Mail:             Mail{MessageID: "msg-2", Destination: []string{"gone@acme.test"}},
		Bounce: &Bounce{
			BounceType:    "Permanent",
			BounceSubType: "NoEmail",
			BouncedRecipients: []BouncedRecipient{
				{EmailAddress: "gone@acme.test", DiagnosticCode: "smtp; 550 5.1.1 user unknown"},
			},
		},
	})

	res, err := r.HandleEnvelope(context.Background(), body)
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if res.Processed != 1 {
		t.Errorf("result: %+v", res)
	}
	u := store.updates[0]
	if u.status != domain.EmailBounced {
		t.Errorf("status: %s", u.status)
	}
	if !strings.Contains(u.notes, "Permanent") || !strings.Contains(u.notes, "550 5.1.1") {
		t.Errorf("bounce detail lost: %s", u.notes)
	}
}

func TestRedeliveredNotificationIsIdempotent(t *testing.T) {
	store := &fakeStore{}
	r := newReconciler(store)

	body := envelope(t, Notification{
		NotificationType: "Delivery",
		Mail:             Mail{MessageID: "msg-1", Destination: []string{"jane@acme.test"}},
		Delivery:         &Delivery{Timestamp: "2026-08-30T10:00:00Z"},
	})

	// SNS redelivers at-least-once; replaying the identical notification
	// must land on the same state without erroring
	for i := 0; i < 2; i++ {
		res, err := r.HandleEnvelope(context.Background(), body)
		if err != nil {
			t.Fatalf("replay %d: %v", i, err)
		}
		if res.Processed != 1 || res.Failed != 0 {
			t.Errorf("replay %d: %+v", i, res)
		}
	}
	if len(store.updates) != 2 {
		t.Fatalf("expected both replays applied, got %d", len(store.updates))
	}
	for _, u := range store.updates {
		if u.status != domain.EmailDelivered {
			t.Errorf("status drifted on replay: %s", u.status)
		}
	}
}

func TestComplaintNotification(t *testing.T) {
	store := &fakeStore{}
	r := newReconciler(store)

	body := envelope(t, Notification{
		NotificationType: "Complaint",
		Mail:             Mail{Destination: []string{"angry@acme.test"}},
		Complaint:        &Complaint{ComplaintFeedbackType: "abuse"},
	})

	res, _ := r.HandleEnvelope(context.Background(), body)
	if res.Processed != 1 || store.updates[0].status != domain.EmailComplained {
		t.Errorf("res=%+v updates=%+v", res, store.updates)
	}
}

func TestOpenAndClickEvents(t *testing.T) {
	store := &fakeStore{}
	r := newReconciler(store)

	open := envelope(t, Notification{
		EventType: "Open",
		Mail:      Mail{Destination: []string{"jane@acme.test"}},
		Open:      &Open{UserAgent: "Mozilla/5.0"},
	})
	click := envelope(t, Notification{
		EventType: "Click",
		Mail:      Mail{Destination: []string{"jane@acme.test"}},
		Click:     &Click{Link: "https://automator.test/demo"},
	})

	r.HandleEnvelope(context.Background(), open)
	r.HandleEnvelope(context.Background(), click)

	if store.updates[0].status != domain.EmailOpened || store.updates[1].status != domain.EmailClicked {
		t.Errorf("updates: %+v", store.updates)
	}
}

func TestPartialFailureAcrossRecipients(t *testing.T) {
	store := &fakeStore{
		failFor: "broken@acme.test",
		counts:  map[string]int{"ghost@acme.test": 0},
	}
	r := newReconciler(store)

	body := envelope(t, Notification{
		NotificationType: "Delivery",
		Mail: Mail{Destination: []string{
			"jane@acme.test", "ghost@acme.test", "broken@acme.test",
		}},
	})

	res, err := r.HandleEnvelope(context.Background(), body)
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if res.Processed != 1 || res.Missed != 1 || res.Failed != 1 {
		t.Errorf("expected 1/1/1, got %+v", res)
	}
}

func TestUnparseableInnerMessageIsSwallowed(t *testing.T) {
	store := &fakeStore{}
	r := newReconciler(store)

	body, _ := json.Marshal(Envelope{Type: TypeNotification, Message: "{not json"})
	res, err := r.HandleEnvelope(context.Background(), body)
	if err != nil {
		t.Errorf("poison message must not error: %v", err)
	}
	if len(store.updates) != 0 || res == nil {
		t.Errorf("nothing should be applied")
	}
}

func TestMalformedEnvelopeErrors(t *testing.T) {
	r := newReconciler(&fakeStore{})
	if _, err := r.HandleEnvelope(context.Background(), []byte("not json")); err == nil {
		t.Error("expected envelope parse error")
	}
}

func TestSubscriptionConfirmation(t *testing.T) {
	confirmed := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		confirmed = true
	}))
	defer srv.Close()

	r := NewReconciler(&fakeStore{}, srv.Client(), logger.NewDiscard())
	body, _ := json.Marshal(Envelope{
		Type:         TypeSubscriptionConfirmation,
		TopicArn:     "arn:aws:sns:us-east-1:123:ses-events",
		SubscribeURL: srv.URL + "/confirm",
	})

	if _, err := r.HandleEnvelope(context.Background(), body); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !confirmed {
		t.Error("SubscribeURL was not fetched")
	}
}

func TestFailedConfirmationReportedNotErrored(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	r := NewReconciler(&fakeStore{}, srv.Client(), logger.NewDiscard())
	body, _ := json.Marshal(Envelope{
		Type:         TypeSubscriptionConfirmation,
		SubscribeURL: srv.URL + "/confirm",
	})

	res, err := r.HandleEnvelope(context.Background(), body)
	if err != nil {
		t.Fatalf("a parsed envelope must not error: %v", err)
	}
	if res.Failed != 1 {
		t.Errorf("failed handshake should be counted: %+v", res)
	}
}

func TestUnknownEnvelopeTypeIgnored(t *testing.T) {
	store := &fakeStore{}
	r := newReconciler(store)

	body, _ := json.Marshal(Envelope{Type: TypeUnsubscribeConfirmation})
	res, err := r.HandleEnvelope(context.Background(), body)
	if err != nil || len(store.updates) != 0 {
		t.Errorf("unsubscribe confirmation should be a no-op, err=%v", err)
	}
	if res.Kind != TypeUnsubscribeConfirmation {
		t.Errorf("kind: %s", res.Kind)
	}
}

func TestUnknownNotificationKindIgnored(t *testing.T) {
	store := &fakeStore{}
	r := newReconciler(store)

	body := envelope(t, Notification{
		NotificationType: "Rendering Failure",
		Mail:             Mail{Destination: []string{"jane@acme.test"}},
	})
	res, err := r.HandleEnvelope(context.Background(), body)
	if err != nil || res.Processed != 0 || len(store.updates) != 0 {
		t.Errorf("unknown kind should be ignored: res=%+v err=%v", res, err)
	}
}

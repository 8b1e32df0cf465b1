package lead

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/ignite/sales-automator/internal/domain"
	"github.com/ignite/sales-automator/internal/mail"
	"github.com/ignite/sales-automator/internal/pkg/logger"
	"github.com/ignite/sales-automator/internal/template"
)

// fakeRepo is a map-backed Repository for service tests.
type fakeRepo struct {
	mu    sync.Mutex
	leads map[string]*domain.Lead
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{leads: map[string]*domain.Lead{}}
}

func (r *fakeRepo) Create(_ context.Context, l *domain.Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.leads {
		if existing.Email == l.Email {
			return ErrDuplicateEmail
		}
	}
	cp := *l
	r.leads[l.ID] = &cp
	return nil
}

func (r *fakeRepo) Get(_ context.Context, id string) (*domain.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.leads[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *fakeRepo) List(_ context.Context, f Filter) ([]domain.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Lead
	for _, l := range r.leads {
		if f.Status != "" && l.Status != f.Status {
			continue
		}
		if f.Owner != "" && l.Owner != f.Owner {
			continue
		}
		out = append(out, *l)
	}
	return out, nil
}

func (r *fakeRepo) FindByEmail(_ context.Context, email string) (*domain.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.leads {
		if l.Email == email {
			cp := *l
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *fakeRepo) UpdateStatus(_ context.Context, id string, status domain.LeadStatus) (*domain.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.leads[id]
	if !ok {
		return nil, ErrNotFound
	}
	l.Status = status
	cp := *l
	return &cp, nil
}

func (r *fakeRepo) UpdateStatusByEmail(_ context.Context, email string, status domain.LeadStatus) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, l := range r.leads {
		if l.Email == email {
			l.Status = status
			n++
		}
	}
	return n, nil
}

func (r *fakeRepo) UpdateEmailStatus(_ context.Context, email string, status domain.EmailStatus, notes string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, l := range r.leads {
		if l.Email == email {
			l.EmailStatus = status
			l.Notes = notes
			n++
		}
	}
	return n, nil
}

func (r *fakeRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.leads[id]; !ok {
		return ErrNotFound
	}
	delete(r.leads, id)
	return nil
}

func (r *fakeRepo) CountByStatus(_ context.Context) (map[domain.LeadStatus]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := map[domain.LeadStatus]int{}
	for _, l := range r.leads {
		counts[l.Status]++
	}
	return counts, nil
}

// fakeSender records messages and optionally fails specific recipients.
type fakeSender struct {
	mu      sync.Mutex
	sent    []*mail.Message
	failFor map[string]error
}

func (s *fakeSender) Send(_ context.Context, msg *mail.Message) (*mail.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.failFor[msg.To]; ok {
		return nil, err
	}
	s.sent = append(s.sent, msg)
	return &mail.Result{MessageID: "fake-1", Transport: "fake"}, nil
}

func (s *fakeSender) TransportName() string { return "fake" }

func newTestService(repo Repository, sender Sender) *Service {
	engine := template.NewEngine("Sam", "sam@automator.test", "",
		template.WithRand(func(n int) int { return 0 }))
	return NewService(repo, engine, sender, 0, logger.NewDiscard())
}

func TestAddLead(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeSender{})

	l, err := svc.Add(context.Background(), NewLead{
		CompanyName: "Acme", ContactName: "Jane", Email: "jane@acme.test",
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if l.ID == "" || l.Status != domain.LeadPending || l.EmailStatus != domain.EmailPending {
		t.Errorf("bad initial lead: %+v", l)
	}
	if l.Owner != DefaultOwner {
		t.Errorf("owner not defaulted: %q", l.Owner)
	}

	_, err = svc.Add(context.Background(), NewLead{
		CompanyName: "Other", ContactName: "Also Jane", Email: "jane@acme.test",
	})
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Errorf("expected duplicate error, got %v", err)
	}
}

func TestAddLeadStatusHandling(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeSender{})
	ctx := context.Background()

	l, err := svc.Add(ctx, NewLead{CompanyName: "A", ContactName: "a", Email: "a@x.test", Status: "completed"})
	if err != nil || l.Status != domain.LeadCompleted {
		t.Errorf("valid status ignored: %+v err=%v", l, err)
	}

	l, err = svc.Add(ctx, NewLead{CompanyName: "B", ContactName: "b", Email: "b@x.test", Status: "bogus"})
	if err != nil || l.Status != domain.LeadPending {
		t.Errorf("unknown status should default to pending: %+v err=%v", l, err)
	}
}

func TestAddLeadValidation(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeSender{})

	_, err := svc.Add(context.Background(), NewLead{CompanyName: "Acme", Email: "x@y.test"})
	if !errors.Is(err, ErrMissingFields) {
		t.Errorf("expected missing fields, got %v", err)
	}

	_, err = svc.Add(context.Background(), NewLead{CompanyName: "Acme", ContactName: "J", Email: "bad"})
	if !errors.Is(err, ErrInvalidEmail) {
		t.Errorf("expected invalid email, got %v", err)
	}
}

func TestImportSkipsDuplicates(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeSender{})
	ctx := context.Background()

	// one lead already on file from an earlier upload
	if _, err := svc.Add(ctx, NewLead{CompanyName: "Initech", ContactName: "Peter", Email: "peter@initech.test"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	batch := []NewLead{
		{CompanyName: "Acme", ContactName: "Jane", Email: "jane@acme.test"},
		{CompanyName: "Acme Again", ContactName: "Jane", Email: "jane@acme.test"},
		{CompanyName: "Initech Again", ContactName: "Peter", Email: "peter@initech.test"},
		{CompanyName: "Globex", ContactName: "Bob", Email: "bob@globex.test"},
	}
	sum, err := svc.Import(ctx, batch, "importer")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if sum.Imported != 2 || sum.Skipped != 2 {
		t.Errorf("imported=%d skipped=%d", sum.Imported, sum.Skipped)
	}
	if sum.Leads[0].Owner != "importer" {
		t.Errorf("owner not applied: %q", sum.Leads[0].Owner)
	}
}

func TestUpdateStatusValidation(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeSender{})
	l, _ := svc.Add(context.Background(), NewLead{CompanyName: "A", ContactName: "B", Email: "a@b.test"})

	_, err := svc.UpdateStatus(context.Background(), l.ID, "delivered")
	if !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("engagement states must be rejected as pipeline stages, got %v", err)
	}

	updated, err := svc.UpdateStatus(context.Background(), l.ID, "completed")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != domain.LeadCompleted {
		t.Errorf("got %s", updated.Status)
	}
}

func TestStats(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeSender{})
	ctx := context.Background()

	a, _ := svc.Add(ctx, NewLead{CompanyName: "A", ContactName: "x", Email: "a@x.test"})
	svc.Add(ctx, NewLead{CompanyName: "B", ContactName: "x", Email: "b@x.test", Owner: "other"})
	svc.UpdateStatus(ctx, a.ID, "sent")

	st, err := svc.Stats(ctx, "")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.Total != 2 || st.Pending != 1 || st.Sent != 1 {
		t.Errorf("stats wrong: %+v", st)
	}

	st, err = svc.Stats(ctx, "other")
	if err != nil {
		t.Fatalf("stats by owner: %v", err)
	}
	if st.Total != 1 || st.Pending != 1 {
		t.Errorf("owner stats wrong: %+v", st)
	}
}

func TestSendToLead(t *testing.T) {
	repo := newFakeRepo()
	sender := &fakeSender{}
	svc := newTestService(repo, sender)
	ctx := context.Background()

	l, _ := svc.Add(ctx, NewLead{CompanyName: "Acme", ContactName: "Jane", Email: "jane@acme.test"})

	out, err := svc.SendToLead(ctx, l.ID, SendOptions{TemplateID: "business-introduction"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if out.Lead.Status != domain.LeadSent {
		t.Errorf("lead not moved to sent: %s", out.Lead.Status)
	}
	if out.Lead.EmailStatus != domain.EmailPending {
		t.Errorf("engagement state must stay pending until the provider reports back, got %s", out.Lead.EmailStatus)
	}
	if len(sender.sent) != 1 || sender.sent[0].To != "jane@acme.test" {
		t.Fatalf("message not dispatched: %+v", sender.sent)
	}
	if !strings.Contains(sender.sent[0].HTML, "Acme") || !strings.Contains(sender.sent[0].Subject, "Acme") {
		t.Errorf("template not filled with lead fields")
	}
}

func TestSendToLeadUnknownTemplate(t *testing.T) {
	repo := newFakeRepo()
	sender := &fakeSender{}
	svc := newTestService(repo, sender)
	ctx := context.Background()

	l, _ := svc.Add(ctx, NewLead{CompanyName: "Acme", ContactName: "Jane", Email: "jane@acme.test"})

	_, err := svc.SendToLead(ctx, l.ID, SendOptions{TemplateID: "no-such"})
	if !errors.Is(err, template.ErrTemplateNotFound) {
		t.Errorf("expected template not found, got %v", err)
	}
	if len(sender.sent) != 0 {
		t.Error("nothing should be sent when the template is missing")
	}
	got, _ := svc.Get(ctx, l.ID)
	if got.Status != domain.LeadPending {
		t.Errorf("lead must stay pending after failed render, got %s", got.Status)
	}
}

func TestSendDirectSyncsLeadByEmail(t *testing.T) {
	repo := newFakeRepo()
	sender := &fakeSender{}
	svc := newTestService(repo, sender)
	ctx := context.Background()

	l, _ := svc.Add(ctx, NewLead{CompanyName: "Acme", ContactName: "Jane", Email: "jane@acme.test"})

	_, synced, err := svc.SendDirect(ctx, "jane@acme.test", "Hello", "<p>hi</p>")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if !synced {
		t.Error("matching lead should be reported as synced")
	}
	got, _ := svc.Get(ctx, l.ID)
	if got.Status != domain.LeadSent {
		t.Errorf("lead with matching email must move to sent, got %s", got.Status)
	}

	// unknown recipient is still a successful send
	_, synced, err = svc.SendDirect(ctx, "stranger@nowhere.test", "Hello", "<p>hi</p>")
	if err != nil {
		t.Errorf("send to non-lead should succeed: %v", err)
	}
	if synced {
		t.Error("no lead should match a stranger address")
	}
}

func TestSendPendingContinuesPastFailures(t *testing.T) {
	repo := newFakeRepo()
	sender := &fakeSender{failFor: map[string]error{
		"bad@x.test": mail.NewSendError("fake", mail.KindRejected, errors.New("suppressed")),
	}}
	svc := newTestService(repo, sender)
	ctx := context.Background()

	svc.Add(ctx, NewLead{CompanyName: "A", ContactName: "a", Email: "ok1@x.test"})
	svc.Add(ctx, NewLead{CompanyName: "B", ContactName: "b", Email: "bad@x.test"})
	svc.Add(ctx, NewLead{CompanyName: "C", ContactName: "c", Email: "ok2@x.test"})

	res, err := svc.SendPending(ctx, "", SendOptions{TemplateID: "brief-efficient"})
	if err != nil {
		t.Fatalf("bulk send: %v", err)
	}
	if res.Attempted != 3 || res.Sent != 2 || res.Failed != 1 {
		t.Errorf("attempted=%d sent=%d failed=%d", res.Attempted, res.Sent, res.Failed)
	}

	// failed lead stays pending, successes moved on
	remaining, _ := svc.List(ctx, Filter{Status: domain.LeadPending})
	if len(remaining) != 1 || remaining[0].Email != "bad@x.test" {
		t.Errorf("pending after bulk: %+v", remaining)
	}
}

func TestSendPendingFiltersByOwner(t *testing.T) {
	repo := newFakeRepo()
	sender := &fakeSender{}
	svc := newTestService(repo, sender)
	ctx := context.Background()

	svc.Add(ctx, NewLead{CompanyName: "A", ContactName: "a", Email: "a@x.test", Owner: "alice"})
	svc.Add(ctx, NewLead{CompanyName: "B", ContactName: "b", Email: "b@x.test", Owner: "bob"})

	res, err := svc.SendPending(ctx, "alice", SendOptions{})
	if err != nil {
		t.Fatalf("bulk send: %v", err)
	}
	if res.Attempted != 1 || res.Items[0].Email != "a@x.test" {
		t.Errorf("owner filter ignored: %+v", res)
	}
}

func TestSendPendingStopsOnCancel(t *testing.T) {
	repo := newFakeRepo()
	sender := &fakeSender{}
	svc := newTestService(repo, sender)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc.Add(context.Background(), NewLead{CompanyName: "A", ContactName: "a", Email: "a@x.test"})

	res, err := svc.SendPending(ctx, "", SendOptions{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if res == nil || res.Sent != 0 {
		t.Errorf("partial result expected with no sends, got %+v", res)
	}
}

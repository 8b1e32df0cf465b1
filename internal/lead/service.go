// Package lead implements the sales-pipeline core: lead lifecycle, CSV
// import, and outreach sending. Storage and email transport are injected
// so the same service runs against the demo store or real backends.
package lead

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/sales-automator/internal/domain"
	"github.com/ignite/sales-automator/internal/mail"
	"github.com/ignite/sales-automator/internal/pkg/logger"
	"github.com/ignite/sales-automator/internal/template"
)

// DefaultOwner is assigned when a lead arrives without one. The single-user
// demo deployment has no auth, so ownership is a label, not a boundary.
const DefaultOwner = "demo-user"

// Renderer selects and fills outreach templates.
type Renderer interface {
	Templates() []domain.EmailTemplate
	RenderForLead(id string, category domain.TemplateCategory, l *domain.Lead, extra map[string]string) (template.Rendered, error)
}

// SendOptions carries the per-request template choice and sender identity
// for outreach sends. The zero value means a random template with the
// configured default sender.
type SendOptions struct {
	TemplateID  string `json:"template_id,omitempty"`
	Category    string `json:"category,omitempty"`
	SenderName  string `json:"sender_name,omitempty"`
	SenderEmail string `json:"sender_email,omitempty"`
	SenderPhone string `json:"sender_phone,omitempty"`
}

func (o SendOptions) vars() map[string]string {
	return map[string]string{
		"senderName":  o.SenderName,
		"senderEmail": o.SenderEmail,
		"senderPhone": o.SenderPhone,
	}
}

// Sender delivers rendered email through the active transport.
type Sender interface {
	Send(ctx context.Context, msg *mail.Message) (*mail.Result, error)
	TransportName() string
}

// Service wires lead storage, template rendering and email dispatch.
type Service struct {
	repo      Repository
	renderer  Renderer
	sender    Sender
	log       *logger.Logger
	bulkDelay time.Duration
}

// NewService creates the lead service. bulkDelay is the pause between
// sequential sends in SendPending.
func NewService(repo Repository, renderer Renderer, sender Sender, bulkDelay time.Duration, log *logger.Logger) *Service {
	return &Service{
		repo:      repo,
		renderer:  renderer,
		sender:    sender,
		log:       log,
		bulkDelay: bulkDelay,
	}
}

// Add validates and stores one new lead.
func (s *Service) Add(ctx context.Context, in NewLead) (*domain.Lead, error) {
	if in.CompanyName == "" || in.ContactName == "" || in.Email == "" {
		return nil, ErrMissingFields
	}
	if !domain.ValidEmail(in.Email) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidEmail, in.Email)
	}
	owner := in.Owner
	if owner == "" {
		owner = DefaultOwner
	}
	// unknown status values fall back to pending, matching CSV imports
	status := domain.LeadPending
	if domain.ValidLeadStatus(in.Status) {
		status = domain.LeadStatus(in.Status)
	}

	now := time.Now().UTC()
	l := &domain.Lead{
		ID:          uuid.NewString(),
		CreatedAt:   now,
		UpdatedAt:   now,
		CompanyName: in.CompanyName,
		ContactName: in.ContactName,
		Email:       in.Email,
		Status:      status,
		EmailStatus: domain.EmailPending,
		Owner:       owner,
	}
	if err := s.repo.Create(ctx, l); err != nil {
		return nil, err
	}

	s.log.Info("lead created", map[string]interface{}{
		"lead_id": l.ID,
		"company": l.CompanyName,
		"email":   l.Email,
	})
	return l, nil
}

// ImportSummary reports the outcome of a bulk import.
type ImportSummary struct {
	Imported int           `json:"imported"`
	Skipped  int           `json:"skipped"`
	Leads    []domain.Lead `json:"leads"`
}

// Import stores a batch of already-validated leads. Duplicates are skipped,
// not failed: re-uploading the same CSV should be harmless.
func (s *Service) Import(ctx context.Context, batch []NewLead, owner string) (*ImportSummary, error) {
	summary := &ImportSummary{Leads: []domain.Lead{}}
	for _, in := range batch {
		if in.Owner == "" {
			in.Owner = owner
		}
		// cheap lookup before the insert; in-batch duplicates still fall
		// through to the store's uniqueness check
		if _, err := s.repo.FindByEmail(ctx, in.Email); err == nil {
			summary.Skipped++
			continue
		} else if !errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("import %s: %w", in.Email, err)
		}
		l, err := s.Add(ctx, in)
		if errors.Is(err, ErrDuplicateEmail) {
			summary.Skipped++
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("import %s: %w", in.Email, err)
		}
		summary.Imported++
		summary.Leads = append(summary.Leads, *l)
	}

	s.log.Info("csv import finished", map[string]interface{}{
		"imported": summary.Imported,
		"skipped":  summary.Skipped,
	})
	return summary, nil
}

// Get returns one lead by id.
func (s *Service) Get(ctx context.Context, id string) (*domain.Lead, error) {
	return s.repo.Get(ctx, id)
}

// List returns leads matching the filter.
func (s *Service) List(ctx context.Context, f Filter) ([]domain.Lead, error) {
	if f.Status != "" && !domain.ValidLeadStatus(string(f.Status)) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, f.Status)
	}
	return s.repo.List(ctx, f)
}

// UpdateStatus moves a lead to a new pipeline stage.
func (s *Service) UpdateStatus(ctx context.Context, id, status string) (*domain.Lead, error) {
	if !domain.ValidLeadStatus(status) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}
	return s.repo.UpdateStatus(ctx, id, domain.LeadStatus(status))
}

// Delete removes a lead.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// Stats is the pipeline breakdown for the dashboard.
type Stats struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Sent       int `json:"sent"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
}

// Stats counts leads per pipeline stage. An empty owner counts everything.
func (s *Service) Stats(ctx context.Context, owner string) (*Stats, error) {
	var counts map[domain.LeadStatus]int
	if owner == "" {
		var err error
		counts, err = s.repo.CountByStatus(ctx)
		if err != nil {
			return nil, err
		}
	} else {
		leads, err := s.repo.List(ctx, Filter{Owner: owner})
		if err != nil {
			return nil, err
		}
		counts = map[domain.LeadStatus]int{}
		for _, l := range leads {
			counts[l.Status]++
		}
	}
	st := &Stats{
		Pending:    counts[domain.LeadPending],
		Sent:       counts[domain.LeadSent],
		InProgress: counts[domain.LeadInProgress],
		Completed:  counts[domain.LeadCompleted],
	}
	st.Total = st.Pending + st.Sent + st.InProgress + st.Completed
	return st, nil
}

// SendOutcome reports one outreach send.
type SendOutcome struct {
	Lead    *domain.Lead `json:"lead"`
	Subject string       `json:"subject"`
	Result  *mail.Result `json:"result"`
}

// SendToLead renders a template for the lead and dispatches it. On success
// the lead moves to the sent stage. The engagement state stays pending
// until the webhook reconciler hears back from the provider.
func (s *Service) SendToLead(ctx context.Context, id string, opts SendOptions) (*SendOutcome, error) {
	l, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	rendered, err := s.renderer.RenderForLead(opts.TemplateID, domain.TemplateCategory(opts.Category), l, opts.vars())
	if err != nil {
		return nil, err
	}

	res, err := s.sender.Send(ctx, &mail.Message{
		To:      l.Email,
		Subject: rendered.Subject,
		HTML:    rendered.Body,
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateStatus(ctx, l.ID, domain.LeadSent)
	if err != nil {
		// The email is out; a stale pipeline stage is the lesser problem.
		s.log.Error("send succeeded but status update failed", map[string]interface{}{
			"lead_id": l.ID,
			"error":   err.Error(),
		})
		updated = l
	}

	return &SendOutcome{Lead: updated, Subject: rendered.Subject, Result: res}, nil
}

// SendDirect dispatches an arbitrary rendered email. If a lead exists with
// this address it moves to the sent stage, best effort; the returned bool
// reports whether any lead matched.
func (s *Service) SendDirect(ctx context.Context, to, subject, html string) (*mail.Result, bool, error) {
	res, err := s.sender.Send(ctx, &mail.Message{To: to, Subject: subject, HTML: html})
	if err != nil {
		return nil, false, err
	}
	n, err := s.repo.UpdateStatusByEmail(ctx, to, domain.LeadSent)
	if err != nil {
		s.log.Warn("lead status sync after direct send failed", map[string]interface{}{
			"email": to,
			"error": err.Error(),
		})
	}
	return res, n > 0, nil
}

// BulkItem is the per-lead outcome of a bulk send.
type BulkItem struct {
	LeadID string `json:"lead_id"`
	Email  string `json:"email"`
	Error  string `json:"error,omitempty"`
}

// BulkResult summarizes a bulk send run.
type BulkResult struct {
	Attempted int        `json:"attempted"`
	Sent      int        `json:"sent"`
	Failed    int        `json:"failed"`
	Items     []BulkItem `json:"items"`
}

// SendPending sends the chosen template to every pending lead, one at a
// time with a fixed pause between sends to stay under provider rate
// limits. An empty owner means all owners. A per-lead failure is recorded
// and the run continues; context cancellation stops the run and returns
// the partial result. Completed sends are never rolled back.
func (s *Service) SendPending(ctx context.Context, owner string, opts SendOptions) (*BulkResult, error) {
	pending, err := s.repo.List(ctx, Filter{Status: domain.LeadPending, Owner: owner})
	if err != nil {
		return nil, err
	}

	result := &BulkResult{Items: []BulkItem{}}
	for i, l := range pending {
		if i > 0 && s.bulkDelay > 0 {
			select {
			case <-time.After(s.bulkDelay):
			case <-ctx.Done():
				return result, ctx.Err()
			}
		}
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		result.Attempted++
		item := BulkItem{LeadID: l.ID, Email: l.Email}
		if _, err := s.SendToLead(ctx, l.ID, opts); err != nil {
			item.Error = err.Error()
			result.Failed++
		} else {
			result.Sent++
		}
		result.Items = append(result.Items, item)
	}

	s.log.Info("bulk send finished", map[string]interface{}{
		"attempted": result.Attempted,
		"sent":      result.Sent,
		"failed":    result.Failed,
	})
	return result, nil
}

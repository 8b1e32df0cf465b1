// Package memory is the demo-mode lead store. Data lives in process and
// resets on restart, which is exactly what a demo wants.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/sales-automator/internal/domain"
	"github.com/ignite/sales-automator/internal/lead"
)

// Repository is a mutex-guarded map of leads.
type Repository struct {
	mu    sync.RWMutex
	leads map[string]*domain.Lead
}

// New creates an empty in-memory store.
func New() *Repository {
	return &Repository{leads: map[string]*domain.Lead{}}
}

// NewWithDemoData creates a store pre-seeded with sample leads covering
// every pipeline stage, so the dashboard has something to show.
func NewWithDemoData() *Repository {
	r := New()
	r.Reset()
	return r
}

// Reset wipes the store and reloads the demo seed.
func (r *Repository) Reset() {
	seed := []struct {
		company, contact, email string
		status                  domain.LeadStatus
		emailStatus             domain.EmailStatus
	}{
		{"Sample Industries", "Taro Tanaka", "tanaka@sample.com", domain.LeadPending, domain.EmailPending},
		{"Test Trading Co", "Hanako Sato", "sato@test.com", domain.LeadSent, domain.EmailDelivered},
		{"Demo Enterprises", "Ichiro Suzuki", "suzuki@demo.com", domain.LeadInProgress, domain.EmailOpened},
		{"Sample Holdings", "Jiro Tanaka", "tanaka@sample.co.jp", domain.LeadCompleted, domain.EmailClicked},
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.leads = map[string]*domain.Lead{}
	now := time.Now().UTC()
	for i, s := range seed {
		l := &domain.Lead{
			ID:          uuid.NewString(),
			CreatedAt:   now.Add(time.Duration(i) * time.Second),
			UpdatedAt:   now.Add(time.Duration(i) * time.Second),
			CompanyName: s.company,
			ContactName: s.contact,
			Email:       s.email,
			Status:      s.status,
			EmailStatus: s.emailStatus,
			Owner:       lead.DefaultOwner,
		}
		r.leads[l.ID] = l
	}
}

// Create stores a new lead, rejecting duplicate emails.
func (r *Repository) Create(_ context.Context, l *domain.Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.leads {
		if strings.EqualFold(existing.Email, l.Email) {
			return lead.ErrDuplicateEmail
		}
	}
	cp := *l
	r.leads[l.ID] = &cp
	return nil
}

// Get returns the lead with the given id.
func (r *Repository) Get(_ context.Context, id string) (*domain.Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.leads[id]
	if !ok {
		return nil, lead.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

// List returns matching leads, newest first.
func (r *Repository) List(_ context.Context, f lead.Filter) ([]domain.Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []domain.Lead{}
	for _, l := range r.leads {
		if f.Status != "" && l.Status != f.Status {
			continue
		}
		if f.Owner != "" && l.Owner != f.Owner {
			continue
		}
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// FindByEmail returns the lead with the given email.
func (r *Repository) FindByEmail(_ context.Context, email string) (*domain.Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, l := range r.leads {
		if strings.EqualFold(l.Email, email) {
			cp := *l
			return &cp, nil
		}
	}
	return nil, lead.ErrNotFound
}

// UpdateStatus moves a lead to a new pipeline stage.
func (r *Repository) UpdateStatus(_ context.Context, id string, status domain.LeadStatus) (*domain.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.leads[id]
	if !ok {
		return nil, lead.ErrNotFound
	}
	l.Status = status
	l.UpdatedAt = time.Now().UTC()
	cp := *l
	return &cp, nil
}

// UpdateStatusByEmail moves every lead with the given email. A miss is
// not an error.
func (r *Repository) UpdateStatusByEmail(_ context.Context, email string, status domain.LeadStatus) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, l := range r.leads {
		if strings.EqualFold(l.Email, email) {
			l.Status = status
			l.UpdatedAt = time.Now().UTC()
			n++
		}
	}
	return n, nil
}

// UpdateEmailStatus sets the engagement state for every matching lead.
func (r *Repository) UpdateEmailStatus(_ context.Context, email string, status domain.EmailStatus, notes string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, l := range r.leads {
		if strings.EqualFold(l.Email, email) {
			l.EmailStatus = status
			l.Notes = notes
			l.UpdatedAt = time.Now().UTC()
			n++
		}
	}
	return n, nil
}

// Delete removes the lead.
func (r *Repository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.leads[id]; !ok {
		return lead.ErrNotFound
	}
	delete(r.leads, id)
	return nil
}

// CountByStatus returns the pipeline breakdown.
func (r *Repository) CountByStatus(_ context.Context) (map[domain.LeadStatus]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := map[domain.LeadStatus]int{}
	for _, l := range r.leads {
		counts[l.Status]++
	}
	return counts, nil
}

package lead

import (
	"context"

	"github.com/ignite/sales-automator/internal/domain"
)

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Status domain.LeadStatus
	Owner  string
}

// Repository is the persistence boundary for leads. Implementations exist
// for in-memory demo storage, direct Postgres, and the PostgREST API.
type Repository interface {
	// Create stores a new lead. Returns ErrDuplicateEmail if the email
	// is already taken.
	Create(ctx context.Context, l *domain.Lead) error

	// Get returns the lead with the given id, or ErrNotFound.
	Get(ctx context.Context, id string) (*domain.Lead, error)

	// List returns leads matching the filter, newest first.
	List(ctx context.Context, f Filter) ([]domain.Lead, error)

	// FindByEmail returns the lead with the given email, or ErrNotFound.
	FindByEmail(ctx context.Context, email string) (*domain.Lead, error)

	// UpdateStatus moves the lead to a new pipeline stage and returns the
	// updated lead, or ErrNotFound.
	UpdateStatus(ctx context.Context, id string, status domain.LeadStatus) (*domain.Lead, error)

	// UpdateStatusByEmail moves every lead with the given email to a new
	// pipeline stage and reports how many matched. A miss is not an error:
	// direct sends may target addresses that were never imported as leads.
	UpdateStatusByEmail(ctx context.Context, email string, status domain.LeadStatus) (int, error)

	// UpdateEmailStatus sets the engagement state and notes for every lead
	// with the given email and reports how many rows changed.
	UpdateEmailStatus(ctx context.Context, email string, status domain.EmailStatus, notes string) (int, error)

	// Delete removes the lead, or returns ErrNotFound.
	Delete(ctx context.Context, id string) error

	// CountByStatus returns the number of leads in each pipeline stage.
	CountByStatus(ctx context.Context) (map[domain.LeadStatus]int, error)
}

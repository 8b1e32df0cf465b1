// Package postgres implements the lead repository against PostgreSQL for
// self-hosted deployments with a direct database connection.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/ignite/sales-automator/internal/domain"
	"github.com/ignite/sales-automator/internal/lead"
)

// LeadRepo implements lead.Repository against PostgreSQL.
type LeadRepo struct{ db *sql.DB }

// NewLeadRepo creates a Postgres-backed lead repository.
func NewLeadRepo(db *sql.DB) *LeadRepo { return &LeadRepo{db: db} }

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

const leadColumns = `id, created_at, updated_at, company_name, contact_name,
       email, status, email_status, user_id, COALESCE(notes,'')`

func scanLead(row interface{ Scan(...interface{}) error }) (*domain.Lead, error) {
	l := &domain.Lead{}
	err := row.Scan(
		&l.ID, &l.CreatedAt, &l.UpdatedAt, &l.CompanyName, &l.ContactName,
		&l.Email, &l.Status, &l.EmailStatus, &l.Owner, &l.Notes,
	)
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (r *LeadRepo) Create(ctx context.Context, l *domain.Lead) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO leads
			(id, created_at, updated_at, company_name, contact_name,
			 email, status, email_status, user_id, notes)
		VALUES ($1, $2, $3, $4, $5, lower($6), $7, $8, $9, NULLIF($10,''))
	`, l.ID, l.CreatedAt, l.UpdatedAt, l.CompanyName, l.ContactName,
		l.Email, l.Status, l.EmailStatus, l.Owner, l.Notes)
	if err != nil {
		var pqErr *pq.Error
		// 23505: unique_violation on leads_email_key
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return lead.ErrDuplicateEmail
		}
		return fmt.Errorf("create lead: %w", err)
	}
	return nil
}

func (r *LeadRepo) Get(ctx context.Context, id string) (*domain.Lead, error) {
	l, err := scanLead(r.db.QueryRowContext(ctx, `
		SELECT `+leadColumns+` FROM leads WHERE id = $1
	`, id))
	if err == sql.ErrNoRows {
		return nil, lead.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get lead: %w", err)
	}
	return l, nil
}

func (r *LeadRepo) List(ctx context.Context, f lead.Filter) ([]domain.Lead, error) {
	q := `SELECT ` + leadColumns + ` FROM leads WHERE 1=1`
	args := []interface{}{}
	idx := 1

	if f.Status != "" {
		q += fmt.Sprintf(" AND status = $%d", idx)
		args = append(args, f.Status)
		idx++
	}
	if f.Owner != "" {
		q += fmt.Sprintf(" AND user_id = $%d", idx)
		args = append(args, f.Owner)
		idx++
	}
	q += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	out := []domain.Lead{}
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

func (r *LeadRepo) FindByEmail(ctx context.Context, email string) (*domain.Lead, error) {
	l, err := scanLead(r.db.QueryRowContext(ctx, `
		SELECT `+leadColumns+` FROM leads WHERE email = lower($1)
	`, email))
	if err == sql.ErrNoRows {
		return nil, lead.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find lead by email: %w", err)
	}
	return l, nil
}

func (r *LeadRepo) UpdateStatus(ctx context.Context, id string, status domain.LeadStatus) (*domain.Lead, error) {
	l, err := scanLead(r.db.QueryRowContext(ctx, `
		UPDATE leads SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+leadColumns,
		id, status))
	if err == sql.ErrNoRows {
		return nil, lead.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update lead status: %w", err)
	}
	return l, nil
}

func (r *LeadRepo) UpdateStatusByEmail(ctx context.Context, email string, status domain.LeadStatus) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE leads SET status = $2, updated_at = NOW()
		WHERE email = lower($1)
	`, email, status)
	if err != nil {
		return 0, fmt.Errorf("update lead status by email: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update lead status by email: %w", err)
	}
	return int(n), nil
}

func (r *LeadRepo) UpdateEmailStatus(ctx context.Context, email string, status domain.EmailStatus, notes string) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE leads SET email_status = $2, notes = NULLIF($3,''), updated_at = NOW()
		WHERE email = lower($1)
	`, email, status, notes)
	if err != nil {
		return 0, fmt.Errorf("update email status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}

func (r *LeadRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete lead: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return lead.ErrNotFound
	}
	return nil
}

func (r *LeadRepo) CountByStatus(ctx context.Context) (map[domain.LeadStatus]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM leads GROUP BY status
	`)
	if err != nil {
		return nil, fmt.Errorf("count leads: %w", err)
	}
	defer rows.Close()

	counts := map[domain.LeadStatus]int{}
	for rows.Next() {
		var status domain.LeadStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

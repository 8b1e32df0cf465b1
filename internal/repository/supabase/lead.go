// Package supabase implements the lead repository against the Supabase
// PostgREST API. No direct database connection is needed; the anon key
// and row-level security policies gate access.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ignite/sales-automator/internal/domain"
	"github.com/ignite/sales-automator/internal/lead"
	"github.com/ignite/sales-automator/internal/pkg/httpretry"
)

// LeadRepo implements lead.Repository over PostgREST.
type LeadRepo struct {
	baseURL string
	anonKey string
	client  httpretry.HTTPDoer
}

// NewLeadRepo creates a PostgREST-backed lead repository. projectURL is the
// Supabase project URL without the /rest/v1 suffix.
func NewLeadRepo(projectURL, anonKey string, timeout time.Duration) *LeadRepo {
	return &LeadRepo{
		baseURL: projectURL + "/rest/v1",
		anonKey: anonKey,
		client:  httpretry.New(&http.Client{Timeout: timeout}, 3),
	}
}

// NewLeadRepoWithClient injects a custom doer, for tests.
func NewLeadRepoWithClient(projectURL, anonKey string, client httpretry.HTTPDoer) *LeadRepo {
	return &LeadRepo{baseURL: projectURL + "/rest/v1", anonKey: anonKey, client: client}
}

// leadRow is the PostgREST wire shape. It differs from domain.Lead only in
// the owner column name.
type leadRow struct {
	ID          string             `json:"id"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
	CompanyName string             `json:"company_name"`
	ContactName string             `json:"contact_name"`
	Email       string             `json:"email"`
	Status      domain.LeadStatus  `json:"status"`
	EmailStatus domain.EmailStatus `json:"email_status"`
	UserID      string             `json:"user_id"`
	Notes       string             `json:"notes,omitempty"`
}

func toRow(l *domain.Lead) leadRow {
	return leadRow{
		ID: l.ID, CreatedAt: l.CreatedAt, UpdatedAt: l.UpdatedAt,
		CompanyName: l.CompanyName, ContactName: l.ContactName, Email: l.Email,
		Status: l.Status, EmailStatus: l.EmailStatus, UserID: l.Owner, Notes: l.Notes,
	}
}

func (r leadRow) toDomain() domain.Lead {
	return domain.Lead{
		ID: r.ID, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
		CompanyName: r.CompanyName, ContactName: r.ContactName, Email: r.Email,
		Status: r.Status, EmailStatus: r.EmailStatus, Owner: r.UserID, Notes: r.Notes,
	}
}

func (r *LeadRepo) do(ctx context.Context, method, path string, query url.Values, body any, prefer string) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	u := r.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", r.anonKey)
	req.Header.Set("Authorization", "Bearer "+r.anonKey)
	req.Header.Set("Content-Type", "application/json")
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}
	return r.client.Do(req)
}

// apiError is the PostgREST error payload.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func decodeError(resp *http.Response) error {
	defer resp.Body.Close()
	var e apiError
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if json.Unmarshal(body, &e) == nil && e.Message != "" {
		// 23505: unique_violation
		if e.Code == "23505" {
			return lead.ErrDuplicateEmail
		}
		return fmt.Errorf("postgrest %d: %s", resp.StatusCode, e.Message)
	}
	return fmt.Errorf("postgrest %d: %s", resp.StatusCode, string(body))
}

func decodeRows(resp *http.Response) ([]leadRow, error) {
	defer resp.Body.Close()
	var rows []leadRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return rows, nil
}

func (r *LeadRepo) Create(ctx context.Context, l *domain.Lead) error {
	resp, err := r.do(ctx, http.MethodPost, "/leads", nil, toRow(l), "return=representation")
	if err != nil {
		return fmt.Errorf("create lead: %w", err)
	}
	if resp.StatusCode == http.StatusConflict {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return lead.ErrDuplicateEmail
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return nil
}

func (r *LeadRepo) Get(ctx context.Context, id string) (*domain.Lead, error) {
	q := url.Values{"id": {"eq." + id}, "select": {"*"}}
	resp, err := r.do(ctx, http.MethodGet, "/leads", q, nil, "")
	if err != nil {
		return nil, fmt.Errorf("get lead: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}
	rows, err := decodeRows(resp)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, lead.ErrNotFound
	}
	l := rows[0].toDomain()
	return &l, nil
}

func (r *LeadRepo) List(ctx context.Context, f lead.Filter) ([]domain.Lead, error) {
	q := url.Values{"select": {"*"}, "order": {"created_at.desc"}}
	if f.Status != "" {
		q.Set("status", "eq."+string(f.Status))
	}
	if f.Owner != "" {
		q.Set("user_id", "eq."+f.Owner)
	}
	resp, err := r.do(ctx, http.MethodGet, "/leads", q, nil, "")
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}
	rows, err := decodeRows(resp)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Lead, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *LeadRepo) FindByEmail(ctx context.Context, email string) (*domain.Lead, error) {
	q := url.Values{"email": {"eq." + email}, "select": {"*"}}
	resp, err := r.do(ctx, http.MethodGet, "/leads", q, nil, "")
	if err != nil {
		return nil, fmt.Errorf("find lead by email: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}
	rows, err := decodeRows(resp)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, lead.ErrNotFound
	}
	l := rows[0].toDomain()
	return &l, nil
}

func (r *LeadRepo) patch(ctx context.Context, q url.Values, fields map[string]any) ([]leadRow, error) {
	fields["updated_at"] = time.Now().UTC()
	resp, err := r.do(ctx, http.MethodPatch, "/leads", q, fields, "return=representation")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}
	return decodeRows(resp)
}

func (r *LeadRepo) UpdateStatus(ctx context.Context, id string, status domain.LeadStatus) (*domain.Lead, error) {
	rows, err := r.patch(ctx, url.Values{"id": {"eq." + id}}, map[string]any{"status": status})
	if err != nil {
		return nil, fmt.Errorf("update lead status: %w", err)
	}
	if len(rows) == 0 {
		return nil, lead.ErrNotFound
	}
	l := rows[0].toDomain()
	return &l, nil
}

func (r *LeadRepo) UpdateStatusByEmail(ctx context.Context, email string, status domain.LeadStatus) (int, error) {
	rows, err := r.patch(ctx, url.Values{"email": {"eq." + email}}, map[string]any{"status": status})
	if err != nil {
		return 0, fmt.Errorf("update lead status by email: %w", err)
	}
	return len(rows), nil
}

func (r *LeadRepo) UpdateEmailStatus(ctx context.Context, email string, status domain.EmailStatus, notes string) (int, error) {
	rows, err := r.patch(ctx, url.Values{"email": {"eq." + email}}, map[string]any{
		"email_status": status,
		"notes":        notes,
	})
	if err != nil {
		return 0, fmt.Errorf("update email status: %w", err)
	}
	return len(rows), nil
}

func (r *LeadRepo) Delete(ctx context.Context, id string) error {
	q := url.Values{"id": {"eq." + id}}
	resp, err := r.do(ctx, http.MethodDelete, "/leads", q, nil, "return=representation")
	if err != nil {
		return fmt.Errorf("delete lead: %w", err)
	}
	if resp.StatusCode == http.StatusNoContent {
		resp.Body.Close()
		return nil
	}
	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	rows, err := decodeRows(resp)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return lead.ErrNotFound
	}
	return nil
}

func (r *LeadRepo) CountByStatus(ctx context.Context) (map[domain.LeadStatus]int, error) {
	q := url.Values{"select": {"status"}}
	resp, err := r.do(ctx, http.MethodGet, "/leads", q, nil, "")
	if err != nil {
		return nil, fmt.Errorf("count leads: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}
	rows, err := decodeRows(resp)
	if err != nil {
		return nil, err
	}
	counts := map[domain.LeadStatus]int{}
	for _, row := range rows {
		counts[row.Status]++
	}
	return counts, nil
}

package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ignite/sales-automator/internal/domain"
	"github.com/ignite/sales-automator/internal/lead"
)

func fixtureRow() leadRow {
	now := time.Now().UTC().Truncate(time.Second)
	return leadRow{
		ID: "lead-1", CreatedAt: now, UpdatedAt: now,
		CompanyName: "Acme", ContactName: "Jane", Email: "jane@acme.test",
		Status: domain.LeadPending, EmailStatus: domain.EmailPending,
		UserID: "demo-user",
	}
}

func newServer(t *testing.T, handler http.HandlerFunc) (*LeadRepo, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	repo := NewLeadRepoWithClient(srv.URL, "test-anon-key", srv.Client())
	return repo, srv
}

func TestGetSendsAuthHeaders(t *testing.T) {
	repo, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("apikey") != "test-anon-key" {
			t.Errorf("missing apikey header")
		}
		if r.Header.Get("Authorization") != "Bearer test-anon-key" {
			t.Errorf("missing bearer header")
		}
		if got := r.URL.Query().Get("id"); got != "eq.lead-1" {
			t.Errorf("id filter wrong: %q", got)
		}
		json.NewEncoder(w).Encode([]leadRow{fixtureRow()})
	})

	l, err := repo.Get(context.Background(), "lead-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if l.Owner != "demo-user" {
		t.Errorf("user_id not mapped to owner: %+v", l)
	}
}

func TestGetNotFound(t *testing.T) {
	repo, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]leadRow{})
	})

	_, err := repo.Get(context.Background(), "ghost")
	if !errors.Is(err, lead.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestCreateDuplicateMapsConflict(t *testing.T) {
	repo, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(apiError{Code: "23505", Message: "duplicate key value"})
	})

	l := fixtureRow().toDomain()
	err := repo.Create(context.Background(), &l)
	if !errors.Is(err, lead.ErrDuplicateEmail) {
		t.Errorf("expected duplicate error, got %v", err)
	}
}

func TestListBuildsPostgRESTFilters(t *testing.T) {
	repo, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("status") != "eq.pending" || q.Get("order") != "created_at.desc" {
			t.Errorf("query wrong: %v", q)
		}
		json.NewEncoder(w).Encode([]leadRow{fixtureRow()})
	})

	out, err := repo.List(context.Background(), lead.Filter{Status: domain.LeadPending})
	if err != nil || len(out) != 1 {
		t.Fatalf("list: %v %d", err, len(out))
	}
}

func TestUpdateEmailStatusCountsRepresentation(t *testing.T) {
	repo, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("expected PATCH, got %s", r.Method)
		}
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["email_status"] != "bounced" {
			t.Errorf("patch body wrong: %v", body)
		}
		row := fixtureRow()
		row.EmailStatus = domain.EmailBounced
		json.NewEncoder(w).Encode([]leadRow{row})
	})

	n, err := repo.UpdateEmailStatus(context.Background(), "jane@acme.test", domain.EmailBounced, `{"bounceType":"Permanent"}`)
	if err != nil || n != 1 {
		t.Errorf("n=%d err=%v", n, err)
	}
}

func TestDeleteMissingIsNotFound(t *testing.T) {
	repo, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("expected DELETE, got %s", r.Method)
		}
		json.NewEncoder(w).Encode([]leadRow{})
	})

	if err := repo.Delete(context.Background(), "ghost"); !errors.Is(err, lead.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestCountByStatus(t *testing.T) {
	repo, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]leadRow{
			{Status: domain.LeadPending},
			{Status: domain.LeadPending},
			{Status: domain.LeadSent},
		})
	})

	counts, err := repo.CountByStatus(context.Background())
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if counts[domain.LeadPending] != 2 || counts[domain.LeadSent] != 1 {
		t.Errorf("counts wrong: %+v", counts)
	}
}

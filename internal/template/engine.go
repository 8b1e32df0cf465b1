// Package template renders the built-in outreach catalog. Substitution is
// plain {{key}} replacement: unknown placeholders are left verbatim so a
// half-filled render is visible in the output instead of silently blank.
package template

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/ignite/sales-automator/internal/domain"
)

// ErrTemplateNotFound is returned when an explicit template id or a category
// with no members is requested.
var ErrTemplateNotFound = errors.New("template not found")

// Rendered is a template after variable substitution.
type Rendered struct {
	TemplateID string `json:"template_id"`
	Subject    string `json:"subject"`
	Body       string `json:"body"`
}

// Engine selects and renders outreach templates. Sender identity defaults
// are merged under caller-supplied variables at render time.
type Engine struct {
	catalog  []domain.EmailTemplate
	defaults map[string]string
	randFn   func(n int) int
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand overrides the random index source, for tests.
func WithRand(fn func(n int) int) Option {
	return func(e *Engine) { e.randFn = fn }
}

// NewEngine builds an engine over the built-in catalog. senderName, email
// and phone seed the default variables; empty values are still substituted
// so placeholders do not leak to recipients when identity is unset.
func NewEngine(senderName, senderEmail, senderPhone string, opts ...Option) *Engine {
	e := &Engine{
		catalog: Catalog(),
		defaults: map[string]string{
			"senderName":  senderName,
			"senderEmail": senderEmail,
			"senderPhone": senderPhone,
		},
		randFn: rand.Intn,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Templates returns the selectable catalog.
func (e *Engine) Templates() []domain.EmailTemplate {
	out := make([]domain.EmailTemplate, len(e.catalog))
	copy(out, e.catalog)
	return out
}

// Select resolves the template to use. An explicit id wins; otherwise a
// uniform random pick within the category, or over the whole catalog when
// neither is given.
func (e *Engine) Select(id string, category domain.TemplateCategory) (domain.EmailTemplate, error) {
	if id != "" {
		for _, t := range e.catalog {
			if t.ID == id {
				return t, nil
			}
		}
		return domain.EmailTemplate{}, fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
	}

	pool := e.catalog
	if category != "" {
		pool = nil
		for _, t := range e.catalog {
			if t.Category == category {
				pool = append(pool, t)
			}
		}
		if len(pool) == 0 {
			return domain.EmailTemplate{}, fmt.Errorf("%w: no templates in category %s", ErrTemplateNotFound, category)
		}
	}
	return pool[e.randFn(len(pool))], nil
}

// Render substitutes variables into t. Caller vars override the engine's
// sender defaults; keys the template never references are ignored.
func (e *Engine) Render(t domain.EmailTemplate, vars map[string]string) Rendered {
	merged := make(map[string]string, len(e.defaults)+len(vars))
	for k, v := range e.defaults {
		merged[k] = v
	}
	for k, v := range vars {
		merged[k] = v
	}

	subject := t.Subject
	body := t.Body
	for k, v := range merged {
		placeholder := "{{" + k + "}}"
		subject = strings.ReplaceAll(subject, placeholder, v)
		body = strings.ReplaceAll(body, placeholder, v)
	}

	return Rendered{TemplateID: t.ID, Subject: subject, Body: body}
}

// RenderForLead is the common path: pick a template and fill it with the
// lead's company and contact fields. extra carries caller overrides such
// as a per-request sender identity; it wins over the lead fields too.
func (e *Engine) RenderForLead(id string, category domain.TemplateCategory, l *domain.Lead, extra map[string]string) (Rendered, error) {
	t, err := e.Select(id, category)
	if err != nil {
		return Rendered{}, err
	}
	vars := map[string]string{
		"companyName": l.CompanyName,
		"contactName": l.ContactName,
	}
	for k, v := range extra {
		if v != "" {
			vars[k] = v
		}
	}
	return e.Render(t, vars), nil
}

package domain

// TemplateCategory groups outreach templates by tone.
type TemplateCategory string

const (
	CategoryBusiness TemplateCategory = "business"
	CategoryFriendly TemplateCategory = "friendly"
	CategoryFormal   TemplateCategory = "formal"
	CategoryBrief    TemplateCategory = "brief"
)

// EmailTemplate is one entry of the built-in outreach catalog. Subject and
// Body contain {{name}} placeholders resolved at render time. Templates are
// immutable; the catalog is compiled into the binary.
type EmailTemplate struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Category TemplateCategory `json:"category"`
	Subject  string           `json:"subject"`
	Body     string           `json:"body"`
}

package render

import "context"

// Template is a stored email template.
type Template struct {
	ID      string `json:"id" yaml:"id" bson:"template_id"`
	Subject string `json:"subject" yaml:"subject" bson:"subject"`
	Body    string `json:"body" yaml:"-" bson:"body"`
	Layout  bool   `json:"layout" yaml:"layout" bson:"layout"`
}

// Ref points at the template to render. Inline Content wins over loading by ID;
// a non-empty Subject overrides the stored one.
type Ref struct {
	ID      string `json:"id,omitempty"`
	Subject string `json:"subject,omitempty"`
	Content string `json:"content,omitempty"`
	Layout  bool   `json:"layout,omitempty"`
}

// Message is a rendered subject and HTML body.
type Message struct {
	Subject string
	Body    string
}

// Source loads templates for a tenant.
// Implementations return ErrTemplateNotFound when the template does not exist.
type Source interface {
	Load(ctx context.Context, tenantID, id string) (*Template, error)
}

// Renderer renders a template reference against a variable context.
type Renderer interface {
	Render(ctx context.Context, tenantID string, ref Ref, data map[string]any) (*Message, error)
}

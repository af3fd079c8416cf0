package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
)

const inlineTemplateName = "inline"

// TemplateRenderer renders templates from a Source.
type TemplateRenderer struct {
	source Source
	funcs  map[string]any
}

var _ Renderer = (*TemplateRenderer)(nil)

// RendererOption configures a TemplateRenderer.
type RendererOption func(*TemplateRenderer)

// WithFuncs adds template functions available to both subject and body.
func WithFuncs(funcs map[string]any) RendererOption {
	return func(r *TemplateRenderer) {
		for name, fn := range funcs {
			if name != "" && fn != nil {
				r.funcs[name] = fn
			}
		}
	}
}

// NewTemplateRenderer creates a renderer. source may be nil when only inline
// content is rendered.
func NewTemplateRenderer(source Source, opts ...RendererOption) *TemplateRenderer {
	r := &TemplateRenderer{
		source: source,
		funcs: map[string]any{
			"upper": strings.ToUpper,
			"lower": strings.ToLower,
			"trim":  strings.TrimSpace,
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render implements Renderer.
func (r *TemplateRenderer) Render(ctx context.Context, tenantID string, ref Ref, data map[string]any) (*Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Join(ErrRenderFailed, err)
	}
	if data == nil {
		data = map[string]any{}
	}

	tpl, err := r.resolve(ctx, tenantID, ref)
	if err != nil {
		return nil, errors.Join(ErrRenderFailed, err)
	}

	subject, err := r.renderSubject(tpl, data)
	if err != nil {
		return nil, errors.Join(ErrRenderFailed, err)
	}

	body, err := r.renderBody(tpl, data)
	if err != nil {
		return nil, errors.Join(ErrRenderFailed, err)
	}

	if tpl.Layout {
		body, err = renderComponent(ctx, Layout(BrandingFrom(data), body))
		if err != nil {
			return nil, errors.Join(ErrRenderFailed, fmt.Errorf("layout: %w", err))
		}
	}

	return &Message{Subject: subject, Body: body}, nil
}

func (r *TemplateRenderer) resolve(ctx context.Context, tenantID string, ref Ref) (*Template, error) {
	if ref.Content != "" {
		name := ref.ID
		if name == "" {
			name = inlineTemplateName
		}
		return &Template{ID: name, Subject: ref.Subject, Body: ref.Content, Layout: ref.Layout}, nil
	}
	if ref.ID == "" {
		return nil, ErrEmptyReference
	}
	if r.source == nil {
		return nil, fmt.Errorf("%w: %q", ErrTemplateNotFound, ref.ID)
	}

	tpl, err := r.source.Load(ctx, tenantID, ref.ID)
	if err != nil {
		return nil, err
	}
	if ref.Subject != "" {
		tpl.Subject = ref.Subject
	}
	tpl.Layout = tpl.Layout || ref.Layout
	return tpl, nil
}

// renderSubject uses text/template: subjects are plain header text and must
// not be HTML escaped.
func (r *TemplateRenderer) renderSubject(tpl *Template, data map[string]any) (string, error) {
	if tpl.Subject == "" {
		return "", nil
	}
	t, err := texttemplate.New(tpl.ID + ".subject").
		Option("missingkey=error").
		Funcs(r.funcs).
		Parse(tpl.Subject)
	if err != nil {
		return "", fmt.Errorf("parse subject: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute subject: %w", err)
	}
	return strings.Join(strings.Fields(buf.String()), " "), nil
}

func (r *TemplateRenderer) renderBody(tpl *Template, data map[string]any) (string, error) {
	t, err := htmltemplate.New(tpl.ID).
		Option("missingkey=error").
		Funcs(r.funcs).
		Parse(tpl.Body)
	if err != nil {
		return "", fmt.Errorf("parse body: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute body: %w", err)
	}
	if strings.TrimSpace(buf.String()) == "" {
		return "", errors.New("rendered body is empty")
	}
	return buf.String(), nil
}

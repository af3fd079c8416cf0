package render

import (
	"context"
	"io"
	"regexp"
	"strings"

	"github.com/a-h/templ"
)

const defaultBrandColor = "#2563eb"

var brandColorRegex = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Branding is the tenant look applied by the layout.
type Branding struct {
	Logo  string
	Color string
}

// BrandingFrom reads branding.logo and branding.color from a render context.
// Invalid colors fall back to the default.
func BrandingFrom(data map[string]any) Branding {
	b := Branding{Color: defaultBrandColor}
	ns, ok := data["branding"].(map[string]any)
	if !ok {
		return b
	}
	if logo, ok := ns["logo"].(string); ok {
		b.Logo = strings.TrimSpace(logo)
	}
	if color, ok := ns["color"].(string); ok && brandColorRegex.MatchString(color) {
		b.Color = color
	}
	return b
}

// Layout wraps an already rendered HTML body in the branded email shell.
func Layout(b Branding, body string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var sb strings.Builder
		sb.WriteString(`<!DOCTYPE html><html><head><meta charset="utf-8">`)
		sb.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1"></head>`)
		sb.WriteString(`<body style="margin:0;padding:0;background:#f4f4f5;">`)
		sb.WriteString(`<table role="presentation" width="100%" cellpadding="0" cellspacing="0">`)
		sb.WriteString(`<tr><td style="border-top:4px solid `)
		sb.WriteString(templ.EscapeString(b.Color))
		sb.WriteString(`;padding:24px;text-align:center;">`)
		if b.Logo != "" {
			sb.WriteString(`<img src="`)
			sb.WriteString(templ.EscapeString(string(templ.URL(b.Logo))))
			sb.WriteString(`" alt="" height="40">`)
		}
		sb.WriteString(`</td></tr><tr><td style="background:#ffffff;padding:24px;">`)
		sb.WriteString(body)
		sb.WriteString(`</td></tr></table></body></html>`)

		_, err := io.WriteString(w, sb.String())
		return err
	})
}

// renderComponent renders a templ component into a string.
func renderComponent(ctx context.Context, c templ.Component) (string, error) {
	var sb strings.Builder
	if err := c.Render(ctx, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

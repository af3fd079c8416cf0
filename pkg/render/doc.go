// Package render turns a stored or inline template plus a layered variable
// context into a ready-to-send subject and HTML body.
//
// Templates come from a Source. Three are provided: MemorySource for tests and
// fixtures, FSSource reading files with YAML front matter from any fs.FS, and
// MongoSource reading tenant-scoped documents from a MongoDB collection.
//
// Bodies are rendered with html/template and subjects with text/template. Both
// run with missingkey=error, so a template that references a variable absent
// from the context fails instead of printing "<no value>". Templates flagged
// with Layout are wrapped in a branded shell that reads branding.logo and
// branding.color from the context.
//
// # Usage
//
//	src := render.NewMemorySource()
//	src.Add("tenant-1", render.Template{
//		ID:      "welcome",
//		Subject: "Hello {{.subscriber.firstName}}",
//		Body:    "<p>Welcome, {{.subscriber.firstName}}!</p>",
//	})
//
//	r := render.NewTemplateRenderer(src)
//	msg, err := r.Render(ctx, "tenant-1", render.Ref{ID: "welcome"}, data)
//	if errors.Is(err, render.ErrRenderFailed) {
//		// template missing, malformed, or referencing an unknown variable
//	}
//
// Every error returned by Render matches ErrRenderFailed.
package render

// Package variables builds the layered template context used when rendering a
// test notification.
//
// Payloads arrive as a flat key space. A key may carry a namespace prefix
// separated by a single dot, for example "subscriber.first_name" or
// "step.total_count". Project extracts all fields of one namespace with the
// prefix stripped, and BuildContext assembles the final rendering context:
//
//	ctx := variables.BuildContext(map[string]any{
//	    "subscriber.name":  "Ann",
//	    "step.total_count": 5,
//	    "$sender_email":    "x@y.com",
//	}, nil)
//	// ctx["subscriber"] == map[string]any{"name": "Ann"}
//	// ctx["step"]       == map[string]any{"digest": true, "events": []any{}, "total_count": 5}
//	// ctx["$sender_email"] == "x@y.com"
//
// Only the first dot separates the namespace, so "step.meta.id" projects into
// the step namespace as "meta.id". Keys without a dot are never namespaced and
// are passed through at the top level unchanged.
package variables

package variables

import "strings"

// Namespace groups template variables extracted from a flat payload.
type Namespace string

const (
	Subscriber Namespace = "subscriber"
	Step       Namespace = "step"
	Branding   Namespace = "branding"
)

// Namespaces lists every namespace merged into the rendering context.
var Namespaces = []Namespace{Subscriber, Step, Branding}

const delimiter = "."

// Project returns every payload field that belongs to ns, keyed by the part of
// the original key after the first dot. The result is never nil.
func Project(payload map[string]any, ns Namespace) map[string]any {
	result := make(map[string]any)
	for key, value := range payload {
		prefix, rest, ok := strings.Cut(key, delimiter)
		if !ok || prefix != string(ns) {
			continue
		}
		result[rest] = value
	}
	return result
}

// Merge returns a copy of seed with overrides applied on top of it.
// Neither input is modified.
func Merge(seed, overrides map[string]any) map[string]any {
	result := make(map[string]any, len(seed)+len(overrides))
	for k, v := range seed {
		result[k] = v
	}
	for k, v := range overrides {
		result[k] = v
	}
	return result
}

// StepDefaults returns the seed fields of the step namespace.
// A fresh map is returned on every call.
func StepDefaults() map[string]any {
	return map[string]any{
		"digest":      true,
		"events":      []any{},
		"total_count": 1,
	}
}

// BuildContext assembles the rendering context for a payload.
//
// The subscriber, step and branding namespaces are projected from the payload
// and merged over their seeds (step defaults and the given branding). Payload
// values always win over seeds. Every payload key that was not consumed by a
// namespace projection is copied to the top level unchanged.
func BuildContext(payload map[string]any, branding map[string]any) map[string]any {
	ctx := make(map[string]any, len(payload)+len(Namespaces))
	for key, value := range payload {
		if namespaceOf(key) != "" {
			continue
		}
		ctx[key] = value
	}

	ctx[string(Subscriber)] = Project(payload, Subscriber)
	ctx[string(Step)] = Merge(StepDefaults(), Project(payload, Step))
	ctx[string(Branding)] = Merge(branding, Project(payload, Branding))

	return ctx
}

// namespaceOf reports the known namespace a payload key belongs to, or an
// empty Namespace.
func namespaceOf(key string) Namespace {
	prefix, _, ok := strings.Cut(key, delimiter)
	if !ok {
		return ""
	}
	for _, ns := range Namespaces {
		if prefix == string(ns) {
			return ns
		}
	}
	return ""
}

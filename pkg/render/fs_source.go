package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"

	"gopkg.in/yaml.v3"
)

const templateExt = ".html"

var frontMatterDelim = []byte("---")

// FSSource reads templates from a file system laid out as
//
//	<tenant id>/<template id>.html   tenant specific
//	<template id>.html               shared
//
// A file may start with a YAML front matter block holding subject and layout:
//
//	---
//	subject: Welcome {{.subscriber.firstName}}
//	layout: true
//	---
//	<p>Hi!</p>
type FSSource struct {
	fsys fs.FS
}

func NewFSSource(fsys fs.FS) *FSSource {
	return &FSSource{fsys: fsys}
}

// Load implements Source.
func (s *FSSource) Load(ctx context.Context, tenantID, id string) (*Template, error) {
	if !fs.ValidPath(id) || path.Base(id) != id {
		return nil, fmt.Errorf("%w: %q", ErrTemplateNotFound, id)
	}

	candidates := []string{id + templateExt}
	if tenantID != "" && fs.ValidPath(tenantID) {
		candidates = append([]string{path.Join(tenantID, id+templateExt)}, candidates...)
	}

	for _, name := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw, err := fs.ReadFile(s.fsys, name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read template %s: %w", name, err)
		}
		tpl, err := parseTemplateFile(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidTemplate, name, err)
		}
		tpl.ID = id
		return tpl, nil
	}

	return nil, ErrTemplateNotFound
}

func parseTemplateFile(raw []byte) (*Template, error) {
	raw = bytes.TrimPrefix(raw, []byte("\ufeff"))
	if !bytes.HasPrefix(raw, frontMatterDelim) {
		return &Template{Body: string(raw)}, nil
	}

	rest := bytes.TrimLeft(raw[len(frontMatterDelim):], " \t")
	rest = bytes.TrimPrefix(bytes.TrimPrefix(rest, []byte("\r")), []byte("\n"))

	var (
		header, body []byte
		found        bool
	)
	if bytes.HasPrefix(rest, frontMatterDelim) {
		body, found = rest[len(frontMatterDelim):], true
	} else {
		header, body, found = bytes.Cut(rest, append([]byte("\n"), frontMatterDelim...))
	}
	if !found {
		return nil, errors.New("unterminated front matter")
	}
	body = bytes.TrimLeft(body, "\r\n")

	var tpl Template
	if err := yaml.Unmarshal(header, &tpl); err != nil {
		return nil, fmt.Errorf("front matter: %w", err)
	}
	tpl.Body = string(body)
	return &tpl, nil
}

package render

import "errors"

var (
	ErrRenderFailed     = errors.New("render: failed to render template")
	ErrTemplateNotFound = errors.New("render: template not found")
	ErrEmptyReference   = errors.New("render: template reference has neither id nor content")
	ErrInvalidTemplate  = errors.New("render: invalid template document")
)

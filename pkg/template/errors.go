package template

import "errors"

var (
	ErrEmptyTemplateID  = errors.New("template: empty template id")
	ErrTemplateNotFound = errors.New("template: template not found")
	ErrParseTemplate    = errors.New("template: failed to parse template")
	ErrRenderTemplate   = errors.New("template: failed to render template")
)

package template

import (
	"context"
)

// Rendered is the output of template rendering: the subject line, a plain
// text body, and an optional HTML body. Email payloads use all three fields;
// text-only channels use only Text.
type Rendered struct {
	Subject string
	Text    string
	HTML    string
}

// Renderer turns a template id plus a data map into rendered content.
//
// The production implementation usually lives outside this module (for
// example a React email pipeline exposed over RPC); the notification service
// only depends on this interface. StaticRenderer is provided for development
// and tests.
type Renderer interface {
	Render(ctx context.Context, templateID string, data map[string]any) (Rendered, error)
	IsValidTemplateID(templateID string) bool
}

package template

import (
	"context"
	"fmt"
	"strings"
	"sync"
	texttemplate "text/template"
)

type templateSet struct {
	subject *texttemplate.Template
	text    *texttemplate.Template
	html    *texttemplate.Template
}

// StaticRenderer is an in-process Renderer backed by registered Go text
// templates. It is intended for development, tests, and deployments that do
// not run a dedicated rendering service.
type StaticRenderer struct {
	mu        sync.RWMutex
	templates map[string]templateSet
}

// NewStaticRenderer creates an empty renderer. Register templates before use.
func NewStaticRenderer() *StaticRenderer {
	return &StaticRenderer{templates: make(map[string]templateSet)}
}

// Register parses and stores a template triple under the given id. The html
// source may be empty for text-only templates. Registering an existing id
// replaces it.
func (r *StaticRenderer) Register(templateID, subject, text, html string) error {
	if templateID == "" {
		return ErrEmptyTemplateID
	}

	set := templateSet{}
	var err error

	if set.subject, err = texttemplate.New(templateID + ":subject").Parse(subject); err != nil {
		return fmt.Errorf("%w: subject: %w", ErrParseTemplate, err)
	}
	if set.text, err = texttemplate.New(templateID + ":text").Parse(text); err != nil {
		return fmt.Errorf("%w: text: %w", ErrParseTemplate, err)
	}
	if html != "" {
		if set.html, err = texttemplate.New(templateID + ":html").Parse(html); err != nil {
			return fmt.Errorf("%w: html: %w", ErrParseTemplate, err)
		}
	}

	r.mu.Lock()
	r.templates[templateID] = set
	r.mu.Unlock()

	return nil
}

// MustRegister panics when registration fails. Intended for templates
// declared at startup.
func (r *StaticRenderer) MustRegister(templateID, subject, text, html string) {
	if err := r.Register(templateID, subject, text, html); err != nil {
		panic(err)
	}
}

func (r *StaticRenderer) Render(ctx context.Context, templateID string, data map[string]any) (Rendered, error) {
	r.mu.RLock()
	set, ok := r.templates[templateID]
	r.mu.RUnlock()

	if !ok {
		return Rendered{}, fmt.Errorf("%w: %s", ErrTemplateNotFound, templateID)
	}

	out := Rendered{}
	var err error

	if out.Subject, err = execute(set.subject, data); err != nil {
		return Rendered{}, fmt.Errorf("%w: subject: %w", ErrRenderTemplate, err)
	}
	if out.Text, err = execute(set.text, data); err != nil {
		return Rendered{}, fmt.Errorf("%w: text: %w", ErrRenderTemplate, err)
	}
	if set.html != nil {
		if out.HTML, err = execute(set.html, data); err != nil {
			return Rendered{}, fmt.Errorf("%w: html: %w", ErrRenderTemplate, err)
		}
	}

	return out, nil
}

func (r *StaticRenderer) IsValidTemplateID(templateID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.templates[templateID]
	return ok
}

func execute(t *texttemplate.Template, data map[string]any) (string, error) {
	var sb strings.Builder
	if err := t.Execute(&sb, data); err != nil {
		return "", err
	}
	return sb.String(), nil
}

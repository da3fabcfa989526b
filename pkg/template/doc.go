// Package template defines the rendering contract consumed by the
// notification service: a template id and a data map go in, a rendered
// {subject, text, html} triple comes out.
//
// The heavy rendering pipeline is an external collaborator; StaticRenderer
// is the in-repo implementation used in development and tests.
package template

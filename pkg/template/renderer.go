// Package template provides the text-substitution engine kernel generators
// render through. The engine is pongo2-backed and resolves template lookups
// across any number of mounted sources, so shader skeletons and shared
// struct declarations can live in separate bundles.
package template

import (
	"io"
)

// Renderer is the substitution contract generators program against. Render
// accepts either a template name or inline template content; the remaining
// methods pin one or the other explicitly.
type Renderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
	RenderString(templateContent string, data any, out ...io.Writer) (string, error)
	RegisterFilter(name string, fn func(input any, param any) (any, error)) error
	GlobalContext(data any) error
}
